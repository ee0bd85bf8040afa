// Package config provides configuration loading and defaults for the codetime daemon.
//
// Configuration is loaded from a TOML file in the user's data directory.
// The package covers the session clock, language detection, privacy controls,
// presentation sinks, the IPC endpoint and logging, with sensible defaults.
package config

//go:generate go run ../../cmd/genconfig

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"tools.zach/dev/codetime/internal/atomicfile"
	"tools.zach/dev/codetime/internal/paths"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = 2

// ///////////////////////////////////////////////
// Configuration Types
// ///////////////////////////////////////////////

// Config represents the top-level application configuration.
type Config struct {
	// Version is the config schema version.
	Version int `toml:"version"`
	// Tracker holds session clock settings.
	Tracker TrackerConfig `toml:"tracker"`
	// Languages maps file globs to language ids, first match wins.
	Languages []LanguageRule `toml:"languages"`
	// Privacy holds project-hiding and ignore settings.
	Privacy PrivacyConfig `toml:"privacy"`
	// Sink holds presentation sink settings.
	Sink SinkConfig `toml:"sink"`
	// IPC holds the local control endpoint settings.
	IPC IPCConfig `toml:"ipc"`
	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// TrackerConfig holds session clock settings.
type TrackerConfig struct {
	// TickIntervalMS is the time between ticks in milliseconds.
	TickIntervalMS int `toml:"tick_interval_ms"`
	// BreakReminderSeconds fires a reminder whenever the session counter is a
	// multiple of it. 0 disables the reminder.
	BreakReminderSeconds int `toml:"break_reminder_seconds"`
	// RefreshIntervalSeconds is how often open sinks are refreshed.
	RefreshIntervalSeconds int `toml:"refresh_interval_seconds"`
	// DefaultProject names the project when the editor has no workspace.
	DefaultProject string `toml:"default_project"`
}

// LanguageRule maps files matching Pattern to Language.
type LanguageRule struct {
	// Pattern is a doublestar glob matched against the document path and its base name.
	Pattern string `toml:"pattern"`
	// Language is the language id recorded for matching documents.
	Language string `toml:"language"`
}

// PrivacyOverride applies privacy settings to workspaces matching a glob pattern.
type PrivacyOverride struct {
	// Pattern is a glob pattern matched against the workspace path.
	Pattern string `toml:"pattern"`
	// HideProjectName replaces the project name with HiddenText when true.
	HideProjectName bool `toml:"hide_project_name"`
	// HiddenText is the replacement name.
	HiddenText string `toml:"hidden_text"`
}

// PrivacyConfig holds privacy settings.
type PrivacyConfig struct {
	// HideProjectName replaces all project names with HiddenProjectText.
	HideProjectName bool `toml:"hide_project_name"`
	// HiddenProjectText is the name recorded when HideProjectName is true.
	HiddenProjectText string `toml:"hidden_project_text"`
	// Ignore is a list of glob patterns for workspaces that are never recorded.
	Ignore []string `toml:"ignore"`
	// Overrides provides per-workspace privacy settings matched by glob pattern.
	Overrides []PrivacyOverride `toml:"overrides"`
}

// SinkConfig holds presentation sink settings.
type SinkConfig struct {
	// File enables writing stats.json to the data directory.
	File bool `toml:"file"`
	// URL is an optional HTTP endpoint that receives snapshots as JSON.
	URL string `toml:"url,omitempty"`
	// TimeoutSeconds bounds each HTTP request.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// RetryMax is the number of retries for a failed HTTP request.
	RetryMax int `toml:"retry_max"`
}

// IPCConfig holds local control endpoint settings.
type IPCConfig struct {
	// Address overrides the socket path (unix) or pipe name (windows).
	Address string `toml:"address,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `toml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation.
	MaxSizeMB int `toml:"max_size_mb"`
}

// ///////////////////////////////////////////////
// Default Configuration
// ///////////////////////////////////////////////

// DefaultLanguages returns the built-in language rules.
func DefaultLanguages() []LanguageRule {
	return []LanguageRule{
		{Pattern: "*.go", Language: "go"},
		{Pattern: "*.ts", Language: "typescript"},
		{Pattern: "*.tsx", Language: "typescriptreact"},
		{Pattern: "*.js", Language: "javascript"},
		{Pattern: "*.jsx", Language: "javascriptreact"},
		{Pattern: "*.py", Language: "python"},
		{Pattern: "*.rs", Language: "rust"},
		{Pattern: "*.{c,h}", Language: "c"},
		{Pattern: "*.{cc,cpp,hpp}", Language: "cpp"},
		{Pattern: "*.java", Language: "java"},
		{Pattern: "*.md", Language: "markdown"},
		{Pattern: "*.json", Language: "json"},
		{Pattern: "*.{yml,yaml}", Language: "yaml"},
		{Pattern: "*.toml", Language: "toml"},
		{Pattern: "*.sh", Language: "shellscript"},
		{Pattern: "Makefile", Language: "makefile"},
	}
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Tracker: TrackerConfig{
			TickIntervalMS:         1000,
			BreakReminderSeconds:   1800,
			RefreshIntervalSeconds: 1,
			DefaultProject:         "unknown",
		},
		Languages: DefaultLanguages(),
		Privacy: PrivacyConfig{
			HideProjectName:   false,
			HiddenProjectText: "a project",
			Ignore:            []string{},
			Overrides:         []PrivacyOverride{},
		},
		Sink: SinkConfig{
			File:           true,
			TimeoutSeconds: 5,
			RetryMax:       2,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeMB: 10,
		},
	}
}

// ExampleConfig returns a Config suitable for generating config.default.toml.
// For this project all defaults are good examples.
func ExampleConfig() *Config {
	return DefaultConfig()
}

// ///////////////////////////////////////////////
// Loading and Saving
// ///////////////////////////////////////////////

// Load reads and parses the configuration file from dataDir/config.toml.
// If the file doesn't exist, returns DefaultConfig. Files from an older schema
// are backed up to config.toml.bak, upgraded, and saved back.
func Load(dataDir string) (*Config, error) {
	path := filepath.Join(dataDir, paths.ConfigFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	version, err := PeekVersion(data)
	if err != nil {
		return nil, err
	}
	migrated := false
	if migrations.Needs(version) {
		if err := atomicfile.Write(path+".bak", data, 0o644); err != nil {
			return nil, fmt.Errorf("back up config: %w", err)
		}
		data, version, err = migrations.Run(data, version)
		if err != nil {
			return nil, err
		}
		slog.Info("config migrated", "version", version, "backup", path+".bak")
		migrated = true
	}

	cfg := DefaultConfig()
	// A [[languages]] table in the file replaces the built-in list rather than
	// appending to it.
	cfg.Languages = nil
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if !md.IsDefined("languages") {
		cfg.Languages = DefaultLanguages()
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		slog.Warn("unknown config keys ignored", "keys", fmt.Sprint(undecoded))
	}

	if cfg.Version > CurrentVersion {
		slog.Warn("config written by a newer version", "version", cfg.Version, "supported", CurrentVersion)
	}
	cfg.Version = CurrentVersion

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	if migrated {
		if err := cfg.Save(path); err != nil {
			slog.Warn("failed to save migrated config", "path", path, "error", err)
		}
	}
	return cfg, nil
}

// Save writes the config to disk as TOML using atomic file write.
func (c *Config) Save(path string) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return atomicfile.Write(path, buf.Bytes(), 0o644)
}

// ///////////////////////////////////////////////
// Validation
// ///////////////////////////////////////////////

// validLogLevels is the set of accepted log level strings.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks that all configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.Tracker.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be > 0, got %d", c.Tracker.TickIntervalMS)
	}
	if c.Tracker.BreakReminderSeconds < 0 {
		return fmt.Errorf("break_reminder_seconds must be >= 0, got %d", c.Tracker.BreakReminderSeconds)
	}
	if c.Tracker.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh_interval_seconds must be > 0, got %d", c.Tracker.RefreshIntervalSeconds)
	}
	if strings.TrimSpace(c.Tracker.DefaultProject) == "" {
		return fmt.Errorf("default_project must not be empty")
	}

	for i, r := range c.Languages {
		if r.Language == "" {
			return fmt.Errorf("languages[%d]: language must not be empty", i)
		}
		if !doublestar.ValidatePattern(r.Pattern) {
			return fmt.Errorf("languages[%d]: invalid pattern %q", i, r.Pattern)
		}
	}

	for _, p := range c.Privacy.Ignore {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid privacy.ignore pattern %q", p)
		}
	}
	for i, o := range c.Privacy.Overrides {
		if !doublestar.ValidatePattern(o.Pattern) {
			return fmt.Errorf("privacy.overrides[%d]: invalid pattern %q", i, o.Pattern)
		}
	}

	if c.Sink.URL != "" {
		u, err := url.Parse(c.Sink.URL)
		if err != nil {
			return fmt.Errorf("invalid sink.url %q: %w", c.Sink.URL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("invalid sink.url %q: scheme must be http or https", c.Sink.URL)
		}
	}
	if c.Sink.TimeoutSeconds <= 0 {
		return fmt.Errorf("sink.timeout_seconds must be > 0, got %d", c.Sink.TimeoutSeconds)
	}
	if c.Sink.RetryMax < 0 {
		return fmt.Errorf("sink.retry_max must be >= 0, got %d", c.Sink.RetryMax)
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log.level %q: must be trace, debug, info, warn, or error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("log.max_size_mb must be > 0, got %d", c.Log.MaxSizeMB)
	}

	return nil
}

// ///////////////////////////////////////////////
// Durations
// ///////////////////////////////////////////////

// TickInterval returns the tick interval as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Tracker.TickIntervalMS) * time.Millisecond
}

// RefreshInterval returns the sink refresh interval as a duration.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Tracker.RefreshIntervalSeconds) * time.Second
}

// SinkTimeout returns the per-request HTTP sink timeout.
func (c *Config) SinkTimeout() time.Duration {
	return time.Duration(c.Sink.TimeoutSeconds) * time.Second
}

// ///////////////////////////////////////////////
// Language Detection
// ///////////////////////////////////////////////

// LanguageFor returns the language id for a document path, or "" when no rule
// matches. Each pattern is tried against the slash-separated path and then
// against its base name.
func (c *Config) LanguageFor(docPath string) string {
	if docPath == "" {
		return ""
	}
	p := filepath.ToSlash(docPath)
	base := path.Base(p)
	for _, r := range c.Languages {
		if match(r.Pattern, p) || match(r.Pattern, base) {
			return r.Language
		}
	}
	return ""
}

// ///////////////////////////////////////////////
// Privacy Helpers
// ///////////////////////////////////////////////

// IsIgnored reports whether the workspace path matches any ignore pattern.
func (c *Config) IsIgnored(workspacePath string) bool {
	if workspacePath == "" {
		return false
	}
	p := filepath.ToSlash(workspacePath)
	for _, pattern := range c.Privacy.Ignore {
		if match(pattern, p) {
			return true
		}
	}
	return false
}

// ProjectName returns the name recorded for a workspace. An empty realName
// falls back to the default project; privacy overrides are checked before the
// global setting.
func (c *Config) ProjectName(realName, workspacePath string) string {
	p := filepath.ToSlash(workspacePath)
	for _, o := range c.Privacy.Overrides {
		if p != "" && match(o.Pattern, p) && o.HideProjectName {
			return o.HiddenText
		}
	}
	if c.Privacy.HideProjectName {
		return c.Privacy.HiddenProjectText
	}
	if realName == "" {
		return c.Tracker.DefaultProject
	}
	return realName
}

func match(pattern, name string) bool {
	matched, err := doublestar.Match(pattern, name)
	if err != nil {
		slog.Warn("invalid glob pattern", "pattern", pattern, "error", err)
		return false
	}
	return matched
}
