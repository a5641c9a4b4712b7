// Package config turns static target definitions into build configurations.
// This package is decoupled from CLI concerns: it validates and resolves,
// it never reads files.
package config

import (
	"fmt"
	"strings"
)

// RuleDef is the declarative form of a core.TransformRule.
type RuleDef struct {
	Test        string         `koanf:"test" yaml:"test" json:"test"`
	Exclude     string         `koanf:"exclude" yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Transformer string         `koanf:"transformer" yaml:"transformer" json:"transformer"`
	Options     map[string]any `koanf:"options" yaml:"options,omitempty" json:"options,omitempty"`
}

// TargetDef is the declarative definition of a build target, as written in
// leapbundle.yaml under targets.<name>.
type TargetDef struct {
	Entry         string            `koanf:"entry" yaml:"entry" json:"entry"`
	OutputDir     string            `koanf:"output_dir" yaml:"output_dir" json:"output_dir"`
	Filename      string            `koanf:"filename" yaml:"filename" json:"filename"`
	Aliases       map[string]string `koanf:"aliases" yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Rules         []RuleDef         `koanf:"rules" yaml:"rules,omitempty" json:"rules,omitempty"`
	Mode          string            `koanf:"mode" yaml:"mode,omitempty" json:"mode,omitempty"`                   // development, production
	SourceMap     string            `koanf:"source_map" yaml:"source_map,omitempty" json:"source_map,omitempty"` // none, inline, external
	CodeSplitting bool              `koanf:"code_splitting" yaml:"code_splitting,omitempty" json:"code_splitting,omitempty"`
	Exec          string            `koanf:"exec" yaml:"exec,omitempty" json:"exec,omitempty"` // once, watch
	DebounceMs    int               `koanf:"debounce_ms" yaml:"debounce_ms,omitempty" json:"debounce_ms,omitempty"`
	WatchPaths    []string          `koanf:"watch_paths" yaml:"watch_paths,omitempty" json:"watch_paths,omitempty"`
	Stats         string            `koanf:"stats" yaml:"stats,omitempty" json:"stats,omitempty"` // normal, verbose

	FailOnBuildErrors bool `koanf:"fail_on_build_errors" yaml:"fail_on_build_errors,omitempty" json:"fail_on_build_errors,omitempty"`

	// Define entries use KEY=VALUE form; keys usually contain dots
	// (process.env.X) which cannot be used as map keys in the config tree.
	Define   []string `koanf:"define" yaml:"define,omitempty" json:"define,omitempty"`
	External []string `koanf:"external" yaml:"external,omitempty" json:"external,omitempty"`
	Platform string   `koanf:"platform" yaml:"platform,omitempty" json:"platform,omitempty"`    // browser, node
	ESTarget string   `koanf:"es_target" yaml:"es_target,omitempty" json:"es_target,omitempty"` // e.g. es2017
}

// ParseDefines splits KEY=VALUE pairs.
func ParseDefines(defs []string) (map[string]string, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(defs))
	for _, d := range defs {
		key, value, ok := strings.Cut(d, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("define %q must have the form KEY=VALUE", d)
		}
		out[key] = value
	}
	return out, nil
}

// Merge returns def with every non-zero field of override applied.
// Maps are merged key by key; slices are replaced.
func (def TargetDef) Merge(override TargetDef) TargetDef {
	merged := def
	if override.Entry != "" {
		merged.Entry = override.Entry
	}
	if override.OutputDir != "" {
		merged.OutputDir = override.OutputDir
	}
	if override.Filename != "" {
		merged.Filename = override.Filename
	}
	if len(override.Aliases) > 0 {
		aliases := make(map[string]string, len(def.Aliases)+len(override.Aliases))
		for k, v := range def.Aliases {
			aliases[k] = v
		}
		for k, v := range override.Aliases {
			aliases[k] = v
		}
		merged.Aliases = aliases
	}
	if len(override.Rules) > 0 {
		merged.Rules = override.Rules
	}
	if override.Mode != "" {
		merged.Mode = override.Mode
	}
	if override.SourceMap != "" {
		merged.SourceMap = override.SourceMap
	}
	if override.CodeSplitting {
		merged.CodeSplitting = true
	}
	if override.Exec != "" {
		merged.Exec = override.Exec
	}
	if override.DebounceMs != 0 {
		merged.DebounceMs = override.DebounceMs
	}
	if len(override.WatchPaths) > 0 {
		merged.WatchPaths = override.WatchPaths
	}
	if override.Stats != "" {
		merged.Stats = override.Stats
	}
	if override.FailOnBuildErrors {
		merged.FailOnBuildErrors = true
	}
	if len(override.Define) > 0 {
		merged.Define = override.Define
	}
	if len(override.External) > 0 {
		merged.External = override.External
	}
	if override.Platform != "" {
		merged.Platform = override.Platform
	}
	if override.ESTarget != "" {
		merged.ESTarget = override.ESTarget
	}
	return merged
}
