// Package colors assigns chart colors to languages and projects.
//
// A key gets a random color the first time it is asked for; the assignment is
// written to colors.json immediately and never changes afterwards.
package colors

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"sync"

	"tools.zach/dev/codetime/internal/atomicfile"
)

// Default is the fallback color for a key that cannot be assigned.
const Default = "rgba(143,9,9,0.56)"

// Store is a persisted key to color mapping.
type Store struct {
	path string

	mu     sync.Mutex
	colors map[string]string
	// float returns values in [0, 1); swapped in tests.
	float func() float64
}

// Open loads the color file at path. A missing or malformed file yields an
// empty mapping.
func Open(path string) *Store {
	s := &Store{path: path, float: rand.Float64}
	s.colors = load(path)
	return s
}

func load(path string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("color file unreadable, starting empty", "path", path, "error", err)
		}
		return map[string]string{}
	}
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil || m == nil {
		slog.Warn("color file malformed, starting empty", "path", path, "error", err)
		return map[string]string{}
	}
	return m
}

// Init writes an empty mapping when the color file does not exist yet.
func Init(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat colors: %w", err)
	}
	if err := atomicfile.WriteJSON(path, map[string]string{}, 0o644); err != nil {
		return fmt.Errorf("initializing colors: %w", err)
	}
	return nil
}

// Color returns the color for key, assigning and saving a new one on first
// use. A failed save is logged; the color is still returned and kept in memory.
func (s *Store) Color(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.colors[key]; ok && c != "" {
		return c
	}
	c := s.random()
	s.colors[key] = c
	if err := atomicfile.WriteJSON(s.path, s.colors, 0o644); err != nil {
		slog.Warn("Failed to save color data", "path", s.path, "error", err)
	}
	return c
}

// Len returns the number of assigned colors.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.colors)
}

// random returns "rgba(r,g,b,a)" with r, g, b in [0, 255) and a rounded to
// one decimal.
func (s *Store) random() string {
	r := int(s.float() * 255)
	g := int(s.float() * 255)
	b := int(s.float() * 255)
	a := strconv.FormatFloat(s.float(), 'f', 1, 64)
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", r, g, b, a)
}
