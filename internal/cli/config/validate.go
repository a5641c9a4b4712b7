package config

import (
	"fmt"

	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// Validate checks the global settings. Target definitions are validated
// when a target is built, so a broken target never blocks another one.
func (c *Config) Validate() error {
	if _, err := core.ParseMode(c.Mode); err != nil {
		return &core.ConfigError{Field: "mode", Reason: err.Error()}
	}
	if _, err := core.ParseStatsVerbosity(c.Stats); err != nil {
		return &core.ConfigError{Field: "stats", Reason: err.Error()}
	}
	switch c.Output {
	case "", OutputText, OutputJSON:
	default:
		return &core.ConfigError{Field: "output", Reason: fmt.Sprintf("unknown output format %q (expected text or json)", c.Output)}
	}
	for name, def := range c.Targets {
		if name == "" {
			return &core.ConfigError{Field: "targets", Reason: "target names must not be empty"}
		}
		if _, err := core.ParseExecMode(def.Exec); err != nil {
			return &core.ConfigError{Target: name, Field: "exec", Reason: err.Error()}
		}
	}
	return nil
}

// ModeOverride returns the global mode override, or "" when unset.
func (c *Config) ModeOverride() core.Mode {
	if c.Mode == "" {
		return ""
	}
	mode, _ := core.ParseMode(c.Mode)
	return mode
}

// StatsOverride returns the global stats override, or "" when unset.
func (c *Config) StatsOverride() core.StatsVerbosity {
	if c.Stats == "" {
		return ""
	}
	stats, _ := core.ParseStatsVerbosity(c.Stats)
	return stats
}
