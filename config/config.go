// Package config provides centralized configuration for an ARF instance.
//
// Configuration follows a three-tier hierarchy, highest priority first:
//  1. Environment variables (ARF_*)
//  2. An optional YAML config file
//  3. Built-in defaults
//
// This mirrors the teacher's config package layering, trimmed to ARF's own
// knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v2"
)

// OffsetIndexDriver selects how FileStorage persists its id->offset side
// index.
type OffsetIndexDriver string

const (
	// OffsetIndexMemory keeps the id->offset index in memory only,
	// rebuilding it with a full scan at open time. This is the default and
	// matches spec.md's baseline requirement.
	OffsetIndexMemory OffsetIndexDriver = "memory"

	// OffsetIndexSQLite persists the id->offset index in a SQLite database
	// alongside the log file, avoiding a full rescan on reopen for very
	// large logs.
	OffsetIndexSQLite OffsetIndexDriver = "sqlite"
)

// Config holds all ARF runtime configuration.
type Config struct {
	// DataPath is the directory containing the log file and any side
	// indexes.
	// Environment: ARF_DATA_PATH
	// Default: "./var"
	DataPath string `yaml:"data_path"`

	// OffsetIndexDriver selects the FileStorage offset-index backend.
	// Environment: ARF_OFFSET_INDEX_DRIVER
	// Default: "memory"
	OffsetIndexDriver OffsetIndexDriver `yaml:"offset_index_driver"`

	// FlockEnabled enables an advisory exclusive file lock on the log file
	// to enforce the single-writer policy. This is a cooperative hint, not
	// a durability guarantee.
	// Environment: ARF_FLOCK_ENABLED
	// Default: true
	FlockEnabled bool `yaml:"flock_enabled"`

	// TraceSubsystems lists logger subsystems to enable at startup.
	// Environment: ARF_TRACE_SUBSYSTEMS (comma-separated)
	// Default: none
	TraceSubsystems []string `yaml:"trace_subsystems"`

	// TxScopeSpaceFraction is the fraction of the 16-bit TxScopeID space
	// that may be open (allocated but not yet finalized) simultaneously.
	// Validate checks it lies in (0,1]; TransactionComposer does not read
	// it and applies its own fixed bound of 1<<15 open scopes.
	// Environment: ARF_TXSCOPE_SPACE_FRACTION
	// Default: 0.5
	TxScopeSpaceFraction float64 `yaml:"tx_scope_space_fraction"`
}

// Default returns a Config populated with ARF's built-in defaults.
func Default() *Config {
	return &Config{
		DataPath:             "./var",
		OffsetIndexDriver:    OffsetIndexMemory,
		FlockEnabled:         true,
		TraceSubsystems:      nil,
		TxScopeSpaceFraction: 0.5,
	}
}

// Load builds a Config starting from defaults, overlaying an optional YAML
// file at path (ignored if empty or missing), then overlaying ARF_*
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ARF_DATA_PATH"); v != "" {
		c.DataPath = v
	}
	if v := os.Getenv("ARF_OFFSET_INDEX_DRIVER"); v != "" {
		c.OffsetIndexDriver = OffsetIndexDriver(v)
	}
	if v := os.Getenv("ARF_FLOCK_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.FlockEnabled = b
		}
	}
	if v := os.Getenv("ARF_TRACE_SUBSYSTEMS"); v != "" {
		c.TraceSubsystems = strings.Split(v, ",")
	}
	if v := os.Getenv("ARF_TXSCOPE_SPACE_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.TxScopeSpaceFraction = f
		}
	}
}

// Validate checks the config for internally-consistent values.
func (c *Config) Validate() error {
	if c.OffsetIndexDriver != OffsetIndexMemory && c.OffsetIndexDriver != OffsetIndexSQLite {
		return fmt.Errorf("config: unknown offset index driver %q", c.OffsetIndexDriver)
	}
	if c.TxScopeSpaceFraction <= 0 || c.TxScopeSpaceFraction > 1 {
		return fmt.Errorf("config: tx_scope_space_fraction must be in (0,1], got %v", c.TxScopeSpaceFraction)
	}
	return nil
}
