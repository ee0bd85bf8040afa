// Package paths centralizes file and directory names used across the project.
// Every file the daemon keeps in its data directory is named here.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	LedgerFile = "timeTracked.json"
	ColorsFile = "colors.json"
	StatsFile  = "stats.json"
	ConfigFile = "config.toml"
	LogFile    = "codetime.log"
	PIDFile    = "daemon.pid"
	SocketFile = "codetime.sock"
)

const (
	BinaryName = "codetime"
	DataDirRel = ".codetime" // relative to $HOME

	// PipeName is the Windows named pipe the daemon listens on.
	PipeName = `\\.\pipe\codetime`
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// Ledger returns the full path to the time ledger.
func (d DataDir) Ledger() string { return filepath.Join(d.Root, LedgerFile) }

// Colors returns the full path to the persisted chart colors.
func (d DataDir) Colors() string { return filepath.Join(d.Root, ColorsFile) }

// Stats returns the full path to the snapshot written by the file sink.
func (d DataDir) Stats() string { return filepath.Join(d.Root, StatsFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Socket returns the full path to the unix control socket.
func (d DataDir) Socket() string { return filepath.Join(d.Root, SocketFile) }
