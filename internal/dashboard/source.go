// Package dashboard is the terminal stats view behind `codetime stats`.
//
// It renders the same [stats.Snapshot] the sinks receive, fetched either
// live from the daemon or from the stats file the file sink keeps.
package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"tools.zach/dev/codetime/internal/ipc"
	"tools.zach/dev/codetime/internal/sink"
	"tools.zach/dev/codetime/internal/stats"
)

// Source fetches the snapshot to display.
type Source func() (stats.Snapshot, error)

// IPCSource asks the daemon at addr for its current snapshot.
func IPCSource(addr string) Source {
	return func() (stats.Snapshot, error) {
		rep, err := ipc.Send(addr, ipc.Status())
		if err != nil {
			return stats.Snapshot{}, err
		}
		if rep.Snapshot == nil {
			return stats.Snapshot{}, errors.New("daemon returned no snapshot")
		}
		return *rep.Snapshot, nil
	}
}

// FileSource reads the envelope last written by the file sink.
func FileSource(path string) Source {
	return func() (stats.Snapshot, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return stats.Snapshot{}, fmt.Errorf("reading stats file: %w", err)
		}
		var env sink.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return stats.Snapshot{}, fmt.Errorf("parsing stats file: %w", err)
		}
		if env.Snapshot == nil {
			return stats.Snapshot{}, errors.New("stats file holds no snapshot")
		}
		return *env.Snapshot, nil
	}
}

// Fallback tries each source in order and returns the first success. When
// all fail, the first error is returned.
func Fallback(sources ...Source) Source {
	return func() (stats.Snapshot, error) {
		var first error
		for _, src := range sources {
			snap, err := src()
			if err == nil {
				return snap, nil
			}
			if first == nil {
				first = err
			}
		}
		if first == nil {
			first = errors.New("no snapshot source")
		}
		return stats.Snapshot{}, first
	}
}
