package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	rootpkg "tools.zach/dev/codetime"
	"tools.zach/dev/codetime/internal/clock"
	"tools.zach/dev/codetime/internal/colors"
	"tools.zach/dev/codetime/internal/config"
	"tools.zach/dev/codetime/internal/ipc"
	"tools.zach/dev/codetime/internal/ledger"
	"tools.zach/dev/codetime/internal/logger"
	"tools.zach/dev/codetime/internal/sink"
	"tools.zach/dev/codetime/internal/stats"
)

// watchDebounce drops ledger change events that arrive right after a
// refresh, which is the common case since every tick saves the ledger.
const watchDebounce = 250 * time.Millisecond

// ///////////////////////////////////////////////
// Daemon
// ///////////////////////////////////////////////

// daemon owns every piece of mutable state. All methods run on the main loop
// goroutine.
type daemon struct {
	cfg    *config.Config
	store  *ledger.Store
	colors *colors.Store
	clock  *clock.Clock
	sink   sink.Sink

	lastRefresh time.Time
	now         func() time.Time
}

// newDaemon prepares the data files and wires the clock to out.
func newDaemon(cfg *config.Config, paths DataPaths, out sink.Sink) *daemon {
	store := ledger.NewStore(paths.Ledger())
	if err := store.Init(); err != nil {
		slog.Warn("failed to initialize ledger", "path", paths.Ledger(), "error", err)
	}
	if err := colors.Init(paths.Colors()); err != nil {
		slog.Warn("failed to initialize colors", "path", paths.Colors(), "error", err)
	}

	d := &daemon{
		cfg:    cfg,
		store:  store,
		colors: colors.Open(paths.Colors()),
		sink:   out,
		now:    time.Now,
	}
	d.clock = clock.New(store, d, clock.Options{
		Interval:      cfg.TickInterval(),
		BreakReminder: cfg.Tracker.BreakReminderSeconds,
		Project:       cfg.Tracker.DefaultProject,
	})
	d.clock.Subscribe(func(clock.Update) { d.refresh() })
	return d
}

// Info implements [clock.Notifier].
func (d *daemon) Info(msg string) { d.notice(sink.LevelInfo, msg) }

// Warn implements [clock.Notifier].
func (d *daemon) Warn(msg string) { d.notice(sink.LevelWarn, msg) }

func (d *daemon) notice(level sink.Level, msg string) {
	if level == sink.LevelWarn {
		slog.Warn(msg)
	} else {
		slog.Info(msg)
	}
	if err := d.sink.Notify(sink.Notice{Level: level, Message: msg}); err != nil {
		slog.Warn("sink notify failed", "error", err)
	}
}

// snapshot renders the ledger for the live clock.
func (d *daemon) snapshot() stats.Snapshot {
	session := stats.Session{
		Project: d.clock.Project(),
		Seconds: d.clock.Seconds(),
		State:   stats.RunState(d.clock.State().String()),
	}
	return stats.BuildSnapshot(d.store.Load(), session, d.colors)
}

func (d *daemon) refresh() {
	d.lastRefresh = d.now()
	if err := d.sink.Refresh(d.snapshot()); err != nil {
		slog.Warn("sink refresh failed", "error", err)
	}
}

// ledgerChanged refreshes after an edit to the ledger file unless a refresh
// just happened.
func (d *daemon) ledgerChanged() {
	if d.now().Sub(d.lastRefresh) < watchDebounce {
		return
	}
	slog.Debug("ledger changed on disk")
	d.refresh()
}

// ///////////////////////////////////////////////
// Event Handling
// ///////////////////////////////////////////////

// handle applies one host event and returns the reply for the client.
func (d *daemon) handle(ev ipc.Event) ipc.Reply {
	slog.Debug("ipc event", "type", string(ev.Type), "command", string(ev.Command))

	switch ev.Type {
	case ipc.EventFocus:
		d.clock.FocusChanged(ev.Focused)

	case ipc.EventDocument:
		lang := ev.Language
		if lang == "" {
			lang = d.cfg.LanguageFor(ev.Path)
		}
		if lang == "" {
			slog.Debug("no language for document", "path", ev.Path)
			break
		}
		d.clock.DocumentChanged(lang)

	case ipc.EventWorkspace:
		name := d.cfg.ProjectName(ev.Name, ev.Path)
		d.clock.SetProject(name, d.cfg.IsIgnored(ev.Path))

	case ipc.EventCommand:
		switch ev.Command {
		case ipc.CommandStart:
			d.clock.Start()
		case ipc.CommandToggle:
			d.clock.TogglePause()
		case ipc.CommandReset:
			d.clock.Reset()
		case ipc.CommandShow:
			snap := d.snapshot()
			if err := d.sink.Open(snap); err != nil {
				slog.Warn("sink open failed", "error", err)
			}
			return ipc.OK(&snap)
		default:
			return ipc.Fail(fmt.Errorf("%w: command %q", ipc.ErrUnknownEvent, ev.Command))
		}

	case ipc.EventStatus:

	default:
		return ipc.Fail(fmt.Errorf("%w: %q", ipc.ErrUnknownEvent, ev.Type))
	}

	snap := d.snapshot()
	return ipc.OK(&snap)
}

// loop runs until a signal arrives. The clock's tick channel is nil while it
// is paused, which parks that case.
func (d *daemon) loop(sigCh <-chan os.Signal, requests <-chan ipc.Request, changes <-chan struct{}) {
	refresh := time.NewTicker(d.cfg.RefreshInterval())
	defer refresh.Stop()

	for {
		select {
		case <-sigCh:
			slog.Info("received shutdown signal")
			return

		case <-d.clock.C():
			d.clock.Tick()

		case req := <-requests:
			req.Respond(d.handle(req.Event))

		case <-refresh.C:
			d.refresh()

		case <-changes:
			d.ledgerChanged()
		}
	}
}

// ///////////////////////////////////////////////
// Startup
// ///////////////////////////////////////////////

type runOptions struct {
	paths   DataPaths
	addr    string
	verbose bool
	paused  bool
}

// buildSinks returns the sinks enabled by cfg.
func buildSinks(cfg *config.Config, paths DataPaths) sink.Multi {
	var out sink.Multi
	if cfg.Sink.File {
		out = append(out, sink.NewFile(paths.Stats()))
	}
	if cfg.Sink.URL != "" {
		out = append(out, sink.NewHTTP(sink.HTTPOptions{
			URL:      cfg.Sink.URL,
			Timeout:  cfg.SinkTimeout(),
			RetryMax: cfg.Sink.RetryMax,
		}))
	}
	return out
}

// seedConfig writes the annotated default config on first run.
func seedConfig(paths DataPaths) {
	if _, err := os.Stat(paths.Config()); !errors.Is(err, os.ErrNotExist) {
		return
	}
	if err := os.WriteFile(paths.Config(), rootpkg.DefaultConfigTOML, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write default config: %v\n", err)
	}
}

// runDaemon is the `codetime run` entry point.
func runDaemon(opts runOptions) error {
	paths := opts.paths
	if err := os.MkdirAll(paths.Root, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	if alive, pid := checkStalePID(paths); alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	seedConfig(paths)
	cfg, err := config.Load(paths.Root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logOpts := logger.Options{
		Path:      paths.Log(),
		Level:     logger.ParseLevel(cfg.Log.Level),
		MaxSizeMB: cfg.Log.MaxSizeMB,
	}
	if opts.verbose {
		logOpts.Mirror = os.Stderr
	}
	log, logCloser, err := logger.New(logOpts)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("codetime starting", "version", resolveVersion(), "data_dir", paths.Root)

	token := pidToken()
	pidFile, err := writePID(paths, token)
	if err != nil {
		logger.Fail(log, "failed to write PID file", "error", err)
		return err
	}
	defer removePID(paths, token, pidFile)

	addr := opts.addr
	if addr == "" {
		addr = ipcAddress(cfg, paths)
	}
	server, err := ipc.Listen(addr)
	if err != nil {
		logger.Fail(log, "failed to open control socket", "addr", addr, "error", err)
		return err
	}
	defer server.Close()
	slog.Info("listening", "addr", addr)

	sinks := buildSinks(cfg, paths)
	defer func() {
		if err := sinks.Close(); err != nil {
			slog.Warn("closing sinks", "error", err)
		}
	}()

	d := newDaemon(cfg, paths, sinks)
	defer d.clock.Dispose()

	var changes <-chan struct{}
	watcher, err := ledger.NewWatcher(d.store.Path())
	if err != nil {
		slog.Warn("ledger watching disabled", "error", err)
	} else {
		defer watcher.Close()
		if watcher.Polling() {
			slog.Info("using polling mode for ledger watching")
		}
		changes = watcher.Events()
	}

	d.clock.Init(!opts.paused)
	d.loop(signalChannel(), server.Requests(), changes)
	slog.Info("codetime stopped", "project", d.clock.Project(), "seconds", d.clock.Seconds())
	return nil
}

// ipcAddress returns the configured control address or the platform default.
func ipcAddress(cfg *config.Config, paths DataPaths) string {
	if cfg != nil && cfg.IPC.Address != "" {
		return cfg.IPC.Address
	}
	return ipc.DefaultAddress(paths)
}
