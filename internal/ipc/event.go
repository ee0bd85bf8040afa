package ipc

import (
	"errors"
	"fmt"

	"tools.zach/dev/codetime/internal/stats"
)

// ///////////////////////////////////////////////
// Sentinel Errors
// ///////////////////////////////////////////////

var (
	// ErrUnknownEvent is returned for an event type or command the daemon
	// does not handle.
	ErrUnknownEvent = errors.New("unknown event")
	// ErrNotRunning is returned by [Send] when no daemon is listening.
	ErrNotRunning = errors.New("daemon not running")
)

// ///////////////////////////////////////////////
// Events
// ///////////////////////////////////////////////

// EventType names a host notification or query.
type EventType string

const (
	EventFocus     EventType = "focus"
	EventDocument  EventType = "document"
	EventWorkspace EventType = "workspace"
	EventCommand   EventType = "command"
	EventStatus    EventType = "status"
)

// Command is a user-invoked action.
type Command string

const (
	CommandStart  Command = "start"
	CommandShow   Command = "show"
	CommandToggle Command = "toggle"
	CommandReset  Command = "reset"
)

// Commands lists every valid [Command].
var Commands = []Command{CommandStart, CommandShow, CommandToggle, CommandReset}

// Event is the payload of an [OpEvent] frame.
type Event struct {
	Type EventType `json:"type"`

	// Focused is set for focus events.
	Focused bool `json:"focused,omitempty"`
	// Language and Path describe the active document. Either may be empty;
	// the daemon resolves a language from Path when Language is empty.
	Language string `json:"language,omitempty"`
	Path     string `json:"path,omitempty"`
	// Name is the workspace name for workspace events.
	Name    string  `json:"name,omitempty"`
	Command Command `json:"command,omitempty"`
}

// Focus returns a focus event.
func Focus(focused bool) Event { return Event{Type: EventFocus, Focused: focused} }

// Document returns a document event.
func Document(language, path string) Event {
	return Event{Type: EventDocument, Language: language, Path: path}
}

// Workspace returns a workspace event.
func Workspace(name, path string) Event {
	return Event{Type: EventWorkspace, Name: name, Path: path}
}

// Run returns a command event.
func Run(cmd Command) Event { return Event{Type: EventCommand, Command: cmd} }

// Status returns a status query.
func Status() Event { return Event{Type: EventStatus} }

// Validate reports whether the daemon can act on e.
func (e Event) Validate() error {
	switch e.Type {
	case EventFocus, EventWorkspace, EventStatus:
		return nil
	case EventDocument:
		if e.Language == "" && e.Path == "" {
			return errors.New("document event needs a language or a path")
		}
		return nil
	case EventCommand:
		for _, c := range Commands {
			if e.Command == c {
				return nil
			}
		}
		return fmt.Errorf("%w: command %q", ErrUnknownEvent, e.Command)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
	}
}

// ///////////////////////////////////////////////
// Replies
// ///////////////////////////////////////////////

// Reply is the payload of an [OpReply] frame.
type Reply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	// Snapshot is the daemon's view after the event was applied.
	Snapshot *stats.Snapshot `json:"snapshot,omitempty"`
}

// OK returns a successful reply, optionally carrying snap.
func OK(snap *stats.Snapshot) Reply { return Reply{OK: true, Snapshot: snap} }

// Fail returns an error reply.
func Fail(err error) Reply { return Reply{Error: err.Error()} }
