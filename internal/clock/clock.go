// Package clock implements the session clock: a single logical timer that
// ticks while the editor has focus and commits every tick to the ledger.
//
// A Clock is not safe for concurrent use. The daemon drives it from one
// goroutine, selecting on [Clock.C] and calling [Clock.Tick] when it fires,
// so a tick's ledger write always completes before the next event is handled.
package clock

import (
	"log/slog"
	"time"

	"tools.zach/dev/codetime/internal/logger"
)

// User-facing notification texts.
const (
	MsgStarted     = "Timer started!"
	MsgPaused      = "Timer paused!"
	MsgBreak       = "Time for a break!"
	MsgSaveFailed  = "Failed to save time data"
	MsgResetFailed = "Failed to reset time data"
)

// ///////////////////////////////////////////////
// State
// ///////////////////////////////////////////////

// State is the run state of a [Clock].
type State int

const (
	Stopped State = iota
	Running
	Paused
)

// String returns "stopped", "running" or "paused".
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

// ///////////////////////////////////////////////
// Collaborators
// ///////////////////////////////////////////////

// Recorder persists ticks. [ledger.Store] satisfies it.
type Recorder interface {
	RecordTick(projectName string, seconds int, lang string) error
	RecordPause(projectName string, seconds int) error
	Reset() error
}

// Notifier shows short messages to the user.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
}

// Update is published to subscribers after every tick and state change.
type Update struct {
	Project  string
	Seconds  int
	Language string
	State    State
	// Ticked is true when the update follows a committed tick.
	Ticked bool
}

// Options configures a [Clock].
type Options struct {
	// Interval is the time between ticks. Defaults to one second.
	Interval time.Duration
	// BreakReminder fires [MsgBreak] whenever the counter is a multiple of it.
	// 0 disables the reminder.
	BreakReminder int
	// Project is the initial project name.
	Project string
	// Language is the initial language id, if an editor is already open.
	Language string
}

// ///////////////////////////////////////////////
// Clock
// ///////////////////////////////////////////////

// Clock counts seconds for the active project and commits them to a
// [Recorder]. The counter starts at zero for every Clock and is not read back
// from the ledger.
type Clock struct {
	store  Recorder
	notify Notifier

	interval      time.Duration
	breakReminder int

	ticker   *time.Ticker
	state    State
	disposed bool

	seconds  int
	project  string
	language string
	// ignored projects keep the clock running but are never persisted.
	ignored bool

	subscribers []func(Update)
}

// New returns a stopped Clock. Call [Clock.Init] to begin.
func New(store Recorder, notify Notifier, opts Options) *Clock {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	return &Clock{
		store:         store,
		notify:        notify,
		interval:      opts.Interval,
		breakReminder: opts.BreakReminder,
		project:       opts.Project,
		language:      opts.Language,
	}
}

// Subscribe registers fn to receive every [Update].
func (c *Clock) Subscribe(fn func(Update)) {
	c.subscribers = append(c.subscribers, fn)
}

// C returns the tick channel, or nil when the clock is not running. A nil
// channel blocks forever in a select, so callers can always include it.
func (c *Clock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C
}

// State returns the current run state.
func (c *Clock) State() State { return c.state }

// Seconds returns the in-memory session counter.
func (c *Clock) Seconds() int { return c.seconds }

// Project returns the active project name.
func (c *Clock) Project() string { return c.project }

// Language returns the active language id.
func (c *Clock) Language() string { return c.language }

// Ignored reports whether the active project is excluded from the ledger.
func (c *Clock) Ignored() bool { return c.ignored }

// Snapshot returns the current state as an [Update].
func (c *Clock) Snapshot() Update {
	return Update{Project: c.project, Seconds: c.seconds, Language: c.language, State: c.state}
}

// ///////////////////////////////////////////////
// Transitions
// ///////////////////////////////////////////////

// Init starts the clock when the window is focused and otherwise leaves it
// paused, publishing the paused state.
func (c *Clock) Init(focused bool) {
	if c.disposed {
		return
	}
	if focused {
		c.Start()
		return
	}
	c.state = Paused
	c.publish(false)
}

// Start cancels any running schedule and installs a new one.
func (c *Clock) Start() {
	if c.disposed {
		return
	}
	c.stopTicker()
	c.ticker = time.NewTicker(c.interval)
	c.state = Running
	c.notify.Info(MsgStarted)
	slog.Debug("clock started", "project", c.project, "seconds", c.seconds)
	c.publish(false)
}

// TogglePause pauses a running clock and starts any other.
func (c *Clock) TogglePause() {
	if c.disposed {
		return
	}
	if c.ticker != nil {
		c.pause()
		return
	}
	c.Start()
}

// pause cancels the schedule and records the pause for the active project.
func (c *Clock) pause() {
	c.stopTicker()
	c.state = Paused
	c.notify.Info(MsgPaused)
	slog.Debug("clock paused", "project", c.project, "seconds", c.seconds)

	if !c.ignored {
		if err := c.store.RecordPause(c.project, c.seconds); err != nil {
			slog.Warn("recording pause failed", "project", c.project, "error", err)
			c.notify.Warn(MsgSaveFailed)
		}
	}
	c.publish(false)
}

// FocusChanged pauses on focus loss and resumes on focus gain.
func (c *Clock) FocusChanged(focused bool) {
	if c.disposed {
		return
	}
	switch {
	case focused && c.state != Running:
		c.Start()
	case !focused && c.state == Running:
		c.TogglePause()
	}
}

// DocumentChanged sets the language used by later ticks. An empty id means
// no editor is active and keeps the previous language.
func (c *Clock) DocumentChanged(lang string) {
	if c.disposed || lang == "" {
		return
	}
	c.language = lang
}

// SetProject switches the active project. The session counter restarts at
// zero, as it would for a fresh activation; the run state is unchanged.
func (c *Clock) SetProject(name string, ignored bool) {
	if c.disposed {
		return
	}
	if name == c.project && ignored == c.ignored {
		return
	}
	slog.Info("project changed", "from", c.project, "to", name, "ignored", ignored)
	c.project = name
	c.ignored = ignored
	c.seconds = 0
	c.publish(false)
}

// Reset zeroes the counter, clears the whole ledger and starts the clock.
func (c *Clock) Reset() {
	if c.disposed {
		return
	}
	c.seconds = 0
	if err := c.store.Reset(); err != nil {
		slog.Warn("resetting ledger failed", "error", err)
		c.notify.Warn(MsgResetFailed)
	}
	c.Start()
}

// Dispose stops the clock for good. Later calls are ignored.
func (c *Clock) Dispose() {
	c.stopTicker()
	c.state = Stopped
	c.disposed = true
}

// ///////////////////////////////////////////////
// Ticking
// ///////////////////////////////////////////////

// Tick advances the counter by one and commits it. It does nothing unless the
// clock is running.
func (c *Clock) Tick() {
	if c.disposed || c.state != Running {
		return
	}
	c.seconds++

	if !c.ignored {
		if err := c.store.RecordTick(c.project, c.seconds, c.language); err != nil {
			slog.Warn("recording tick failed", "project", c.project, "seconds", c.seconds, "error", err)
			c.notify.Warn(MsgSaveFailed)
		}
	}
	logger.Trace(slog.Default(), "tick", "project", c.project, "seconds", c.seconds, "language", c.language)

	c.publish(true)

	if c.breakReminder > 0 && c.seconds%c.breakReminder == 0 {
		c.notify.Info(MsgBreak)
	}
}

func (c *Clock) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *Clock) publish(ticked bool) {
	u := c.Snapshot()
	u.Ticked = ticked
	for _, fn := range c.subscribers {
		fn(u)
	}
}
