// Package config resolves tool configuration from file, environment,
// and CLI flags, in that precedence order. Every resolved value keeps
// the source it came from so `mnemo stats` can show where a setting
// was decided.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValueSource identifies where a resolved value came from.
type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
)

// Defaults.
const (
	DefaultNearDupThreshold  = 0.78
	DefaultConflictThreshold = 0.35
	DefaultRetryAttempts     = 6
	DefaultRetryMaxWaitMS    = 2000
)

// Resolved holds the effective configuration.
type Resolved struct {
	ConfigPath string `json:"config_path,omitempty"`

	DBPath       string      `json:"db_path"`
	DBPathSource ValueSource `json:"db_path_source"`

	// Similarity thresholds; fixed constants in spirit but surfaced as
	// configuration since their derivation is undocumented.
	NearDupThreshold  float64 `json:"near_dup_threshold"`
	ConflictThreshold float64 `json:"conflict_threshold"`

	// Busy-retry budget for a contended store.
	RetryAttempts  int `json:"retry_attempts"`
	RetryMaxWaitMS int `json:"retry_max_wait_ms"`

	// PathTags maps path prefixes to extra tag hints for suggest.
	PathTags map[string][]string `json:"path_tags,omitempty"`
}

type fileConfig struct {
	DBPath            string              `yaml:"db_path"`
	NearDupThreshold  float64             `yaml:"near_dup_threshold"`
	ConflictThreshold float64             `yaml:"conflict_threshold"`
	RetryAttempts     int                 `yaml:"retry_attempts"`
	RetryMaxWaitMS    int                 `yaml:"retry_max_wait_ms"`
	PathTags          map[string][]string `yaml:"path_tags"`
}

// DefaultConfigPath is ~/.mnemo/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mnemo", "config.yaml")
}

// DefaultDBPath is ~/.mnemo/mnemo.db.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mnemo", "mnemo.db")
}

// Resolve loads the config file (if present) and applies env and CLI
// overrides. cliDBPath comes from the --db flag; empty means unset.
func Resolve(configPath, cliDBPath string) (Resolved, error) {
	r := Resolved{
		DBPath:            DefaultDBPath(),
		DBPathSource:      SourceDefault,
		NearDupThreshold:  DefaultNearDupThreshold,
		ConflictThreshold: DefaultConflictThreshold,
		RetryAttempts:     DefaultRetryAttempts,
		RetryMaxWaitMS:    DefaultRetryMaxWaitMS,
	}

	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return r, fmt.Errorf("parsing config %s: %w", path, err)
		}
		r.ConfigPath = path
		if fc.DBPath != "" {
			r.DBPath = expandHome(fc.DBPath)
			r.DBPathSource = SourceConfig
		}
		if fc.NearDupThreshold > 0 {
			r.NearDupThreshold = fc.NearDupThreshold
		}
		if fc.ConflictThreshold > 0 {
			r.ConflictThreshold = fc.ConflictThreshold
		}
		if fc.RetryAttempts > 0 {
			r.RetryAttempts = fc.RetryAttempts
		}
		if fc.RetryMaxWaitMS > 0 {
			r.RetryMaxWaitMS = fc.RetryMaxWaitMS
		}
		r.PathTags = fc.PathTags
	case os.IsNotExist(err):
		// No config file is fine; defaults apply.
	default:
		return r, fmt.Errorf("reading config %s: %w", path, err)
	}

	if env := os.Getenv("MNEMO_DB"); env != "" {
		r.DBPath = expandHome(env)
		r.DBPathSource = SourceEnv
	}
	if cliDBPath != "" {
		r.DBPath = expandHome(cliDBPath)
		r.DBPathSource = SourceCLI
	}

	return r, nil
}

func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
