// Package engine runs build targets.
// It builds targets from their definitions, keeps their output directories
// apart, and drives each one through its once or watch lifecycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapbundle/internal/compiler"
	"github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"golang.org/x/sync/errgroup"
)

// CompilerFactory creates the compiler for a configuration.
type CompilerFactory func(cfg *core.Config, logger *slog.Logger) (core.Compiler, error)

// DefaultCompilerFactory creates esbuild-backed compilers.
func DefaultCompilerFactory(cfg *core.Config, logger *slog.Logger) (core.Compiler, error) {
	c, err := compiler.New(cfg, compiler.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuildFailedError is returned when a target with fail_on_build_errors
// finishes a pass with build errors.
type BuildFailedError struct {
	Target string
	Errors int
}

func (e *BuildFailedError) Error() string {
	return fmt.Sprintf("target %q finished with %d build error(s)", e.Target, e.Errors)
}

// Config holds engine configuration.
type Config struct {
	// ProjectRoot anchors every target's relative paths.
	ProjectRoot string
	// Definitions are the known targets by name.
	Definitions map[string]config.TargetDef
	// Mode and Stats, when set, override every definition.
	Mode  core.Mode
	Stats core.StatsVerbosity
	// Reporter prints every pass. Required.
	Reporter Reporter
	// OnResult is notified after every reported pass (optional).
	OnResult core.ResultHandler
	// NewCompiler defaults to DefaultCompilerFactory.
	NewCompiler CompilerFactory
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine owns the running targets of a process.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	active  map[string]string // absolute output dir -> target name
	targets []*Target
	closed  bool
}

// New creates an engine. No target is built until Prepare or Run.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.NewCompiler == nil {
		cfg.NewCompiler = DefaultCompilerFactory
	}
	return &Engine{
		cfg:    cfg,
		logger: logger,
		active: make(map[string]string),
	}
}

// Names returns the defined target names, sorted.
func (e *Engine) Names() []string {
	names := make([]string, 0, len(e.cfg.Definitions))
	for name := range e.cfg.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prepare builds a target and its compiler and claims its output
// directory. A non-empty exec overrides the definition's mode.
func (e *Engine) Prepare(name string, exec core.ExecMode) (*Target, error) {
	def, ok := e.cfg.Definitions[name]
	if !ok {
		return nil, &core.ConfigError{
			Target: name,
			Reason: fmt.Sprintf("unknown target (available: %s)", strings.Join(e.Names(), ", ")),
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, errors.New("engine is closed")
	}

	tgt, err := config.BuildTarget(name, def, exec, config.Options{
		ProjectRoot: e.cfg.ProjectRoot,
		Active:      e.active,
		Mode:        e.cfg.Mode,
		Stats:       e.cfg.Stats,
	})
	if err != nil {
		return nil, err
	}
	outDir := config.AbsOutputDir(tgt.Config.ProjectRoot, tgt.Config.OutputDir)
	if owner, ok := e.active[outDir]; ok {
		return nil, &core.ConfigError{
			Target: name,
			Field:  "output_dir",
			Reason: fmt.Sprintf("target %q is already running on %s", owner, tgt.Config.OutputDir),
		}
	}

	comp, err := e.cfg.NewCompiler(tgt.Config, e.logger.With("target", name))
	if err != nil {
		return nil, err
	}

	e.active[outDir] = name
	target := NewTarget(tgt, comp, TargetOptions{
		Reporter: e.cfg.Reporter,
		OnResult: e.cfg.OnResult,
		Logger:   e.logger,
	})
	e.targets = append(e.targets, target)
	e.logger.Debug("target prepared", "target", name, "mode", tgt.Mode, "output_dir", outDir)
	return target, nil
}

// Run prepares every named target, then runs them concurrently until the
// once-targets finish and ctx is cancelled for the watch-targets.
// Configuration errors abort before any pass runs.
func (e *Engine) Run(ctx context.Context, names []string, exec core.ExecMode) error {
	if len(names) == 0 {
		return &core.ConfigError{Reason: "no target selected"}
	}

	targets := make([]*Target, 0, len(names))
	for _, name := range names {
		t, err := e.Prepare(name, exec)
		if err != nil {
			return err
		}
		targets = append(targets, t)
	}

	var g errgroup.Group
	for _, t := range targets {
		g.Go(func() error {
			res, err := t.Run(ctx)
			if err != nil {
				return err
			}
			if res != nil && res.HasErrors() && t.Config().FailOnBuildErrors {
				return &BuildFailedError{Target: t.Name(), Errors: len(res.Errors)}
			}
			return nil
		})
	}
	return g.Wait()
}

// Targets returns the prepared targets in preparation order.
func (e *Engine) Targets() []*Target {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Target(nil), e.targets...)
}

// Close disposes every compiler and releases the output directories.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	for _, t := range e.targets {
		if err := t.compiler.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close compiler for %s: %w", t.Name(), err))
		}
	}
	e.targets = nil
	e.active = make(map[string]string)
	return errors.Join(errs...)
}
