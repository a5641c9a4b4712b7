// Package config provides configuration management for the leapbundle CLI.
//
// Project settings come from leapbundle.yaml, LEAPBUNDLE_* environment
// variables and command-line flags. Target definitions in the file are
// merged over the built-in targets from internal/config.
package config

import (
	"path/filepath"

	intconfig "github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/internal/state"
)

// TargetDef is an alias for the shared target definition.
type TargetDef = intconfig.TargetDef

// Config holds all CLI configuration options.
type Config struct {
	// ProjectRoot is inferred, never read from the file.
	ProjectRoot string `koanf:"-"`

	Targets   map[string]TargetDef `koanf:"targets"`
	Mode      string               `koanf:"mode"`  // overrides every target when set
	Stats     string               `koanf:"stats"` // overrides every target when set
	Output    string               `koanf:"output"`
	StatePath string               `koanf:"state_path"`
	History   bool                 `koanf:"history"`
	Verbose   bool                 `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultStateFile = state.DirName + "/" + state.FileName
	DefaultOutput    = "text"
)

// Output formats.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// Definitions returns the built-in targets with the project's targets
// merged over them. Unknown names add new targets.
func (c *Config) Definitions() map[string]TargetDef {
	defs := intconfig.DefaultTargets()
	for name, override := range c.Targets {
		if base, ok := defs[name]; ok {
			defs[name] = base.Merge(override)
			continue
		}
		defs[name] = override
	}
	return defs
}

// ResolvedStatePath anchors StatePath on the project root.
func (c *Config) ResolvedStatePath() string {
	path := c.StatePath
	if path == "" {
		path = DefaultStateFile
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.ProjectRoot, path)
}
