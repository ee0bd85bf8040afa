// Package ledger persists per-project coding time.
//
// The ledger is a single JSON document holding one record per project. Every
// mutation goes through [Store], which re-reads the file, applies the change
// and rewrites the whole document atomically. Nothing is cached between
// calls, so two consecutive operations never observe each other's partial
// writes.
//
// Counters in the ledger are tick counts, not seconds. [Project.TotalTime]
// and every [LanguageTime] value grow by exactly one per committed tick.
package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Ledger is the full persisted tracking state.
type Ledger struct {
	// Projects is ordered by first appearance. Names are unique by lookup
	// only: the first record with a matching name wins.
	Projects []Project `json:"projects"`
}

// Project holds the counters for one named unit of work, usually a workspace.
type Project struct {
	// CurrentSession is the cumulative seconds of the running session as last
	// reported by the clock.
	CurrentSession int `json:"currentSession"`
	// PrevSession is the CurrentSession value observed just before the last pause.
	PrevSession int `json:"prevSession"`
	// TotalTime counts committed ticks.
	TotalTime int `json:"totalTime"`
	// ProjectName is the identity key.
	ProjectName string `json:"projectName"`
	// LanguageTime counts committed ticks per language id.
	LanguageTime LanguageTime `json:"languageTime"`
}

// LanguageCount is a single language entry of [LanguageTime].
type LanguageCount struct {
	Language string
	Ticks    int
}

// LanguageTime maps language ids to tick counts while keeping the order in
// which languages were first seen. It encodes as a JSON object.
type LanguageTime []LanguageCount

// Empty returns a ledger with no projects.
func Empty() *Ledger {
	return &Ledger{Projects: []Project{}}
}

// ///////////////////////////////////////////////
// Ledger Helpers
// ///////////////////////////////////////////////

// Find returns the first project named name, or nil.
func (l *Ledger) Find(name string) *Project {
	for i := range l.Projects {
		if l.Projects[i].ProjectName == name {
			return &l.Projects[i]
		}
	}
	return nil
}

// FindOrCreate returns the project named name, appending a zeroed record when
// none exists. The returned pointer is valid until the next append.
func (l *Ledger) FindOrCreate(name string) *Project {
	if p := l.Find(name); p != nil {
		return p
	}
	l.Projects = append(l.Projects, Project{
		ProjectName:  name,
		LanguageTime: LanguageTime{},
	})
	return &l.Projects[len(l.Projects)-1]
}

// normalize replaces nil collections with empty ones so the file always
// encodes "projects": [] and "languageTime": {}.
func (l *Ledger) normalize() {
	if l.Projects == nil {
		l.Projects = []Project{}
	}
	for i := range l.Projects {
		if l.Projects[i].LanguageTime == nil {
			l.Projects[i].LanguageTime = LanguageTime{}
		}
	}
}

// ///////////////////////////////////////////////
// LanguageTime
// ///////////////////////////////////////////////

// Get returns the tick count for lang, or 0.
func (lt LanguageTime) Get(lang string) int {
	for _, e := range lt {
		if e.Language == lang {
			return e.Ticks
		}
	}
	return 0
}

// Add increments lang by n, appending it when it has not been seen yet.
func (lt *LanguageTime) Add(lang string, n int) {
	for i := range *lt {
		if (*lt)[i].Language == lang {
			(*lt)[i].Ticks += n
			return
		}
	}
	*lt = append(*lt, LanguageCount{Language: lang, Ticks: n})
}

// Sum returns the total tick count across all languages.
func (lt LanguageTime) Sum() int {
	total := 0
	for _, e := range lt {
		total += e.Ticks
	}
	return total
}

// HasActivity reports whether any language has a positive count.
func (lt LanguageTime) HasActivity() bool {
	for _, e := range lt {
		if e.Ticks > 0 {
			return true
		}
	}
	return false
}

// MarshalJSON encodes the entries as a JSON object in insertion order.
func (lt LanguageTime) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range lt {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Language)
		if err != nil {
			return nil, fmt.Errorf("encoding language %q: %w", e.Language, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(e.Ticks))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// errNotObject is returned when languageTime is not a JSON object.
var errNotObject = errors.New("languageTime must be a JSON object")

// UnmarshalJSON decodes a JSON object, keeping key order. A repeated key keeps
// its first position and takes the last value. null decodes to empty.
func (lt *LanguageTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*lt = LanguageTime{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding languageTime: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errNotObject
	}

	out := LanguageTime{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding languageTime key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errNotObject
		}

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("decoding languageTime[%q]: %w", key, err)
		}
		n, err := strconv.Atoi(num.String())
		if err != nil {
			return fmt.Errorf("languageTime[%q] is not an integer: %w", key, err)
		}

		replaced := false
		for i := range out {
			if out[i].Language == key {
				out[i].Ticks = n
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, LanguageCount{Language: key, Ticks: n})
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding languageTime: %w", err)
	}

	*lt = out
	return nil
}
