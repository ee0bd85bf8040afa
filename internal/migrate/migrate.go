// Package migrate upgrades versioned on-disk documents one schema step at a
// time.
package migrate

import (
	"fmt"
	"log/slog"
	"sort"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Step upgrades a document from Version-1 to Version.
type Step struct {
	// Version is the schema version this step produces.
	Version int
	// Description is a short label for log output.
	Description string
	Upgrade     func(data []byte) ([]byte, error)
}

// Registry holds the steps for one document kind, e.g. the config file.
type Registry struct {
	name    string
	current int
	steps   []Step
}

// NewRegistry returns a registry for documents currently at version
// current. It panics on duplicate step versions or on a step beyond
// current, both of which are programming errors.
func NewRegistry(name string, current int, steps ...Step) *Registry {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for i, s := range sorted {
		if s.Version > current {
			panic(fmt.Sprintf("migrate: %s step v%d is beyond current version %d", name, s.Version, current))
		}
		if i > 0 && sorted[i-1].Version == s.Version {
			panic(fmt.Sprintf("migrate: duplicate %s step v%d (%q)", name, s.Version, s.Description))
		}
	}
	return &Registry{name: name, current: current, steps: sorted}
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Current returns the version documents are upgraded to.
func (r *Registry) Current() int { return r.current }

// Needs reports whether a document at version would be changed by [Registry.Run].
func (r *Registry) Needs(version int) bool {
	return version < r.current
}

// Run applies every step newer than from, in order. It returns the upgraded
// data and the version reached, which is r.Current() on success. Documents
// at or past the current version are returned unchanged.
func (r *Registry) Run(data []byte, from int) ([]byte, int, error) {
	version := from
	for _, s := range r.steps {
		if version >= s.Version {
			continue
		}
		slog.Info("applying migration", "target", r.name, "version", s.Version, "description", s.Description)
		var err error
		data, err = s.Upgrade(data)
		if err != nil {
			return nil, version, fmt.Errorf("migrating %s to v%d: %w", r.name, s.Version, err)
		}
		version = s.Version
	}
	if version < r.current {
		version = r.current
	}
	return data, version, nil
}
