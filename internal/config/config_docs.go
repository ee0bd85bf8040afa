package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "tracker.tick_interval_ms")
// to their [FieldDoc] entries. Section paths ("sink") document the section
// header; array-of-table paths ("languages") document the first entry.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version. Do not edit.",
	},

	// ── Tracker ──────────────────────────────────────────────────
	"tracker.tick_interval_ms": {
		Comment: "Milliseconds between ticks. Every tick adds one to the project's total\nand to the active language, so changing this changes what a unit means.",
	},
	"tracker.break_reminder_seconds": {
		Comment: "Remind you to take a break whenever the session counter reaches a\nmultiple of this value. 0 disables the reminder.",
		Alternatives: []string{
			`break_reminder_seconds = 3600`,
			`break_reminder_seconds = 0`,
		},
	},
	"tracker.refresh_interval_seconds": {
		Comment: "How often open sinks (stats.json, HTTP dashboard) are refreshed.",
	},
	"tracker.default_project": {
		Comment: "Project name used when the editor reports no workspace.",
	},

	// ── Languages ────────────────────────────────────────────────
	"languages": {
		Comment: "Language detection for editors that send a file path instead of a\nlanguage id. Rules are checked in order; the first match wins.\nPatterns are doublestar globs tried against the full path and the file name.\nDefining any [[languages]] entry replaces the whole built-in list.",
	},

	// ── Privacy ──────────────────────────────────────────────────
	"privacy.hide_project_name": {
		Comment: "Record every project under hidden_project_text instead of its real name.",
	},
	"privacy.hidden_project_text": {
		Comment: "Name recorded when hide_project_name is true.",
	},
	"privacy.ignore": {
		Comment: "Workspaces that are never written to the ledger. The clock still runs.\nAbsolute paths. Glob patterns supported.",
		Alternatives: []string{
			`# ignore = [`,
			`#   "/home/me/secret-project",`,
			`#   "/home/me/company/**",`,
			`# ]`,
		},
	},
	"privacy.overrides": {
		Comment: "Per-workspace privacy overrides. Each entry matches a glob pattern against the workspace path.\n# [[privacy.overrides]]\n# pattern = \"**/work/*\"\n# hide_project_name = true\n# hidden_text = \"a work project\"",
	},

	// ── Sink ─────────────────────────────────────────────────────
	"sink.file": {
		Comment: "Write the latest statistics snapshot to stats.json in the data directory.",
	},
	"sink.url": {
		Comment: "POST snapshots as JSON to an HTTP dashboard (optional).",
		Alternatives: []string{
			`# url = "http://localhost:8080/codetime"`,
		},
	},
	"sink.timeout_seconds": {
		Comment: "Timeout for each HTTP request.",
	},
	"sink.retry_max": {
		Comment: "Retries for a failed HTTP request before the refresh is dropped.",
	},

	// ── IPC ──────────────────────────────────────────────────────
	"ipc.address": {
		Comment: "Override the control socket path (unix) or pipe name (windows).",
		Alternatives: []string{
			`# address = "/tmp/codetime.sock"`,
			`# address = '\\.\pipe\codetime'`,
		},
	},

	// ── Log ──────────────────────────────────────────────────────
	"log": {
		Comment: "Logging configuration",
	},
	"log.level": {
		Comment: "Minimum log level. Options: \"trace\", \"debug\", \"info\", \"warn\", \"error\"",
		Alternatives: []string{
			`level = "debug"`,
			`level = "warn"`,
		},
	},
	"log.max_size_mb": {
		Comment: "Maximum log file size in megabytes before rotation.",
	},
}
