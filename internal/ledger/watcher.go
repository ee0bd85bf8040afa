package ledger

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher signals when the ledger file changes on disk. It watches the
// containing directory because atomic saves replace the file by rename, which
// would drop a watch placed on the file itself. When fsnotify is unavailable
// it falls back to polling the file's modification time.
type Watcher struct {
	// dir is the directory holding the ledger.
	dir string
	// name is the ledger's base name; events for other files are dropped.
	name string
	// events is buffered to 1 so bursts of writes coalesce into one signal.
	events chan struct{}
	// done is closed by [Watcher.Close].
	done chan struct{}
	// fsw is nil while polling.
	fsw  *fsnotify.Watcher
	once sync.Once
	// polling is true once the watcher has fallen back to stat polling.
	polling      atomic.Bool
	pollInterval time.Duration
}

// NewWatcher starts watching the ledger file at path.
func NewWatcher(path string) (*Watcher, error) {
	w := &Watcher{
		dir:          filepath.Dir(path),
		name:         filepath.Base(path),
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 2 * time.Second,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, polling ledger", "error", err)
		w.startPolling()
		return w, nil
	}

	if err := fsw.Add(w.dir); err != nil {
		slog.Info("cannot watch ledger directory, polling", "dir", w.dir, "error", err)
		fsw.Close()
		w.startPolling()
		return w, nil
	}

	w.fsw = fsw
	go w.watch()
	return w, nil
}

func (w *Watcher) startPolling() {
	w.polling.Store(true)
	go w.poll()
}

// Polling reports whether the watcher uses stat polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal after the ledger changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

// watch forwards write, create and rename events for the ledger file. On an
// fsnotify error it switches to polling for the rest of the watcher's life.
func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != w.name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.notify()
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			w.fsw.Close()
			w.startPolling()
			return
		}
	}
}

// poll stats the ledger every pollInterval and signals when its mtime advances.
func (w *Watcher) poll() {
	path := filepath.Join(w.dir, w.name)

	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				w.notify()
			}
		}
	}
}

// notify sends one signal unless one is already pending.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
	}
}
