package config

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
	"tools.zach/dev/codetime/internal/migrate"
)

// migrations upgrades older config files to [CurrentVersion].
var migrations = migrate.NewRegistry("config", CurrentVersion,
	migrate.Step{
		Version:     2,
		Description: "convert [languages] table to ordered [[languages]] rules",
		Upgrade:     languagesToRules,
	},
)

// PeekVersion returns the schema version recorded in a config file. Files
// written before the version key existed count as version 1.
func PeekVersion(data []byte) (int, error) {
	var head struct {
		Version int `toml:"version"`
	}
	if _, err := toml.Decode(string(data), &head); err != nil {
		return 0, fmt.Errorf("parse config: %w", err)
	}
	if head.Version == 0 {
		return 1, nil
	}
	return head.Version, nil
}

// languagesToRules rewrites the v1 form
//
//	[languages]
//	"*.go" = "go"
//
// into a list of {pattern, language} rules sorted by pattern. Files that
// already use [[languages]] are left as they are.
func languagesToRules(data []byte) ([]byte, error) {
	doc := map[string]any{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	if table, ok := doc["languages"].(map[string]any); ok {
		patterns := make([]string, 0, len(table))
		for p := range table {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)

		rules := make([]map[string]any, 0, len(patterns))
		for _, p := range patterns {
			lang, ok := table[p].(string)
			if !ok {
				return nil, fmt.Errorf("languages.%q: want a language string, got %T", p, table[p])
			}
			rules = append(rules, map[string]any{"pattern": p, "language": lang})
		}
		doc["languages"] = rules
	}
	doc["version"] = 2

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
