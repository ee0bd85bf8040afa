package sink

import (
	"fmt"
	"log/slog"
	"time"

	"tools.zach/dev/codetime/internal/atomicfile"
	"tools.zach/dev/codetime/internal/stats"
)

// FileSink writes the latest snapshot to a JSON file, replacing it atomically
// so readers such as `codetime stats` never see a torn document.
type FileSink struct {
	path string
	now  func() time.Time
}

// NewFile returns a FileSink writing to path.
func NewFile(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

// Path returns the file the sink writes.
func (f *FileSink) Path() string { return f.path }

func (f *FileSink) Open(snap stats.Snapshot) error {
	return f.write(KindOpen, snap)
}

func (f *FileSink) Refresh(snap stats.Snapshot) error {
	return f.write(KindRefresh, snap)
}

// Notify logs the notice; the stats file holds snapshots only.
func (f *FileSink) Notify(n Notice) error {
	slog.Info("notice", "level", string(n.Level), "message", n.Message)
	return nil
}

func (f *FileSink) Close() error { return nil }

func (f *FileSink) write(kind Kind, snap stats.Snapshot) error {
	env := Envelope{Kind: kind, Time: f.now().UTC(), Snapshot: &snap}
	if err := atomicfile.WriteJSON(f.path, env, 0o644); err != nil {
		return fmt.Errorf("writing stats file: %w", err)
	}
	return nil
}
