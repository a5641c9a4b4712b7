package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// Options carries the context a target definition is resolved in.
type Options struct {
	// ProjectRoot anchors relative paths. Empty means the CWD.
	ProjectRoot string

	// Active maps the absolute output directory of every running target to
	// its name. A new target may not reuse one of these directories.
	Active map[string]string

	// Mode, when set, overrides the definition's optimization mode.
	Mode core.Mode

	// Stats, when set, overrides the definition's stats verbosity.
	Stats core.StatsVerbosity
}

// Build resolves a target definition into a build configuration.
// It performs no I/O; whether the entry module exists is only known when
// a pass runs.
func Build(name string, def TargetDef, opts Options) (*core.Config, error) {
	cfgErr := func(field, format string, args ...any) error {
		return &core.ConfigError{Target: name, Field: field, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(name) == "" {
		return nil, &core.ConfigError{Reason: "target name is required"}
	}
	if strings.TrimSpace(def.Entry) == "" {
		return nil, cfgErr("entry", "entry path is required")
	}
	if strings.TrimSpace(def.OutputDir) == "" {
		return nil, cfgErr("output_dir", "output directory is required")
	}
	if strings.TrimSpace(def.Filename) == "" {
		return nil, cfgErr("filename", "output filename is required")
	}
	if strings.ContainsAny(def.Filename, `/\`) {
		return nil, cfgErr("filename", "output filename %q must not contain a directory", def.Filename)
	}
	if def.CodeSplitting && !strings.Contains(def.Filename, core.NamePlaceholder) {
		return nil, cfgErr("filename", "code splitting emits several files, so the filename needs %s (got %q)", core.NamePlaceholder, def.Filename)
	}

	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, cfgErr("", "cannot resolve project root: %v", err)
	}

	outAbs := AbsOutputDir(root, def.OutputDir)
	if owner, ok := opts.Active[outAbs]; ok && owner != name {
		return nil, cfgErr("output_dir", "output directory %s is already used by target %q", def.OutputDir, owner)
	}

	mode, err := core.ParseMode(def.Mode)
	if err != nil {
		return nil, cfgErr("mode", "%v", err)
	}
	if opts.Mode != "" {
		mode = opts.Mode
	}
	sourceMap, err := core.ParseSourceMapMode(def.SourceMap)
	if err != nil {
		return nil, cfgErr("source_map", "%v", err)
	}
	stats, err := core.ParseStatsVerbosity(def.Stats)
	if err != nil {
		return nil, cfgErr("stats", "%v", err)
	}
	if opts.Stats != "" {
		stats = opts.Stats
	}
	platform, err := parsePlatform(def.Platform)
	if err != nil {
		return nil, cfgErr("platform", "%v", err)
	}
	if def.DebounceMs < 0 {
		return nil, cfgErr("debounce_ms", "debounce must not be negative (got %d)", def.DebounceMs)
	}
	define, err := ParseDefines(def.Define)
	if err != nil {
		return nil, cfgErr("define", "%v", err)
	}

	rules := make([]core.TransformRule, 0, len(def.Rules))
	for i, r := range def.Rules {
		if r.Test == "" {
			return nil, cfgErr("rules", "rule %d: test pattern is required", i)
		}
		if _, err := regexp.Compile(r.Test); err != nil {
			return nil, cfgErr("rules", "rule %d: invalid test pattern: %v", i, err)
		}
		if r.Exclude != "" {
			if _, err := regexp.Compile(r.Exclude); err != nil {
				return nil, cfgErr("rules", "rule %d: invalid exclude pattern: %v", i, err)
			}
		}
		if r.Transformer == "" {
			return nil, cfgErr("rules", "rule %d: transformer is required", i)
		}
		rules = append(rules, core.TransformRule{
			Test:        r.Test,
			Exclude:     r.Exclude,
			Transformer: r.Transformer,
			Options:     r.Options,
		})
	}

	var aliases map[string]string
	if len(def.Aliases) > 0 {
		aliases = make(map[string]string, len(def.Aliases))
		for module, path := range def.Aliases {
			if module == "" || path == "" {
				return nil, cfgErr("aliases", "alias entries need both a module name and a path")
			}
			aliases[module] = path
		}
	}

	return &core.Config{
		Name:              name,
		ProjectRoot:       root,
		EntryPath:         filepath.ToSlash(filepath.Clean(def.Entry)),
		OutputDir:         filepath.ToSlash(filepath.Clean(def.OutputDir)),
		OutputFilename:    def.Filename,
		Aliases:           aliases,
		TransformRules:    rules,
		Mode:              mode,
		SourceMap:         sourceMap,
		CodeSplitting:     def.CodeSplitting,
		Watch:             &core.WatchOptions{DebounceMs: def.DebounceMs, Paths: def.WatchPaths},
		Stats:             stats,
		FailOnBuildErrors: def.FailOnBuildErrors,
		Define:            define,
		External:          def.External,
		Platform:          platform,
		Target:            def.ESTarget,
	}, nil
}

// BuildTarget resolves a definition into a target bound to its execution
// mode. A non-empty exec overrides the definition's mode.
func BuildTarget(name string, def TargetDef, exec core.ExecMode, opts Options) (*core.Target, error) {
	cfg, err := Build(name, def, opts)
	if err != nil {
		return nil, err
	}
	if exec == "" {
		exec, err = core.ParseExecMode(def.Exec)
		if err != nil {
			return nil, &core.ConfigError{Target: name, Field: "exec", Reason: err.Error()}
		}
	}
	return &core.Target{Name: name, Mode: exec, Config: cfg}, nil
}

// AbsOutputDir resolves an output directory against the project root.
func AbsOutputDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

func parsePlatform(s string) (core.Platform, error) {
	switch core.Platform(strings.ToLower(strings.TrimSpace(s))) {
	case "", core.PlatformBrowser:
		return core.PlatformBrowser, nil
	case core.PlatformNode:
		return core.PlatformNode, nil
	}
	return "", fmt.Errorf("unknown platform %q (expected browser or node)", s)
}
