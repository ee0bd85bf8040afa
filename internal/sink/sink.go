// Package sink delivers statistics snapshots to presentation surfaces.
//
// A sink only displays what it is given: it never reads or writes the ledger.
// The daemon calls [Sink.Open] when a view is first requested, [Sink.Refresh]
// on every refresh interval and after each tick, and [Sink.Notify] for
// user-facing messages such as "Timer paused!".
package sink

import (
	"errors"
	"time"

	"tools.zach/dev/codetime/internal/stats"
)

// Kind identifies the event carried by an [Envelope].
type Kind string

const (
	KindOpen    Kind = "open"
	KindRefresh Kind = "refresh"
	KindNotice  Kind = "notice"
)

// Level is the severity of a [Notice].
type Level string

const (
	LevelInfo Level = "info"
	LevelWarn Level = "warn"
)

// Notice is a short message for the user.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Envelope is the serialized form sent to file and HTTP sinks.
type Envelope struct {
	Kind     Kind            `json:"kind"`
	Time     time.Time       `json:"time"`
	Snapshot *stats.Snapshot `json:"snapshot,omitempty"`
	Notice   *Notice         `json:"notice,omitempty"`
}

// Sink is a presentation surface.
type Sink interface {
	Open(snap stats.Snapshot) error
	Refresh(snap stats.Snapshot) error
	Notify(n Notice) error
	Close() error
}

// ///////////////////////////////////////////////
// Multi
// ///////////////////////////////////////////////

// Multi fans every call out to all of its sinks. Each sink is called even if
// an earlier one fails; the failures are joined.
type Multi []Sink

func (m Multi) Open(snap stats.Snapshot) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Open(snap))
	}
	return errors.Join(errs...)
}

func (m Multi) Refresh(snap stats.Snapshot) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Refresh(snap))
	}
	return errors.Join(errs...)
}

func (m Multi) Notify(n Notice) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Notify(n))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
