package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"tools.zach/dev/codetime/internal/atomicfile"
)

// filePerm is the mode used for the ledger file.
const filePerm = 0o644

// ///////////////////////////////////////////////
// Store
// ///////////////////////////////////////////////

// Store reads and writes the ledger file at a fixed path. It holds no ledger
// state of its own; every operation is a full load, mutate, save cycle.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the ledger file path.
func (s *Store) Path() string {
	return s.path
}

// Init writes an empty ledger when the file does not exist yet.
func (s *Store) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat ledger: %w", err)
	}
	return s.Save(Empty())
}

// Load reads the ledger. It never fails: a missing, unreadable or malformed
// file yields an empty ledger. Malformed content is copied to
// "<path>.corrupted" first so it can be inspected.
func (s *Store) Load() *Ledger {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ledger unreadable, using empty ledger", "path", s.path, "error", err)
		}
		return Empty()
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		s.backupCorrupted(data, err)
		return Empty()
	}
	l.normalize()
	return &l
}

// backupCorrupted keeps a copy of an unparseable ledger next to the original.
func (s *Store) backupCorrupted(data []byte, parseErr error) {
	slog.Warn("corrupted ledger, using empty ledger", "path", s.path, "error", parseErr)

	corruptedPath := s.path + ".corrupted"
	if err := os.WriteFile(corruptedPath, data, 0o600); err != nil {
		slog.Warn("failed to back up corrupted ledger", "path", corruptedPath, "error", err)
	}
}

// Save overwrites the ledger file with l, pretty-printed with a two-space
// indent.
func (s *Store) Save(l *Ledger) error {
	l.normalize()
	if err := atomicfile.WriteJSON(s.path, l, filePerm); err != nil {
		return fmt.Errorf("saving ledger: %w", err)
	}
	return nil
}

// ///////////////////////////////////////////////
// Mutations
// ///////////////////////////////////////////////

// RecordTick commits one tick for the named project: CurrentSession becomes
// seconds, TotalTime grows by one and, when lang is non-empty, so does
// LanguageTime[lang].
func (s *Store) RecordTick(projectName string, seconds int, lang string) error {
	l := s.Load()
	p := l.FindOrCreate(projectName)

	p.CurrentSession = seconds
	p.TotalTime++
	if lang != "" {
		p.LanguageTime.Add(lang, 1)
	}

	return s.Save(l)
}

// RecordPause moves the stored CurrentSession into PrevSession and stores
// seconds as the new CurrentSession.
func (s *Store) RecordPause(projectName string, seconds int) error {
	l := s.Load()
	p := l.FindOrCreate(projectName)

	p.PrevSession = p.CurrentSession
	p.CurrentSession = seconds

	return s.Save(l)
}

// Reset replaces the ledger with an empty one.
func (s *Store) Reset() error {
	return s.Save(Empty())
}
