// Package compiler binds build configurations to the esbuild engine.
//
// New is the compiler factory: it validates the configuration against the
// engine and returns a core.Compiler without touching the filesystem.
// Passes run on Run or Watch.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leapbundle/internal/transform"
	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// newContext creates the engine context. Replaced in tests.
var newContext = api.Context

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry sets the transformer registry. Defaults to the built-ins.
func WithRegistry(r *transform.Registry) Option {
	return func(c *Compiler) {
		if r != nil {
			c.registry = r
		}
	}
}

// Compiler is a core.Compiler backed by an incremental esbuild context.
type Compiler struct {
	cfg      *core.Config
	root     string
	outDir   string
	logger   *slog.Logger
	registry *transform.Registry

	engine api.BuildContext
	vendor *vendorSplitter

	// mu serializes passes; the engine context is not reentrant.
	mu sync.Mutex
}

var _ core.Compiler = (*Compiler)(nil)

// New creates a compiler for cfg. It fails with *core.InvalidConfigError
// when the engine rejects the resulting options.
func New(cfg *core.Config, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, &core.ConfigError{Reason: "configuration is required"}
	}

	c := &Compiler{
		cfg:      cfg,
		logger:   slog.New(slog.DiscardHandler),
		registry: transform.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("target", cfg.Name)

	root := cfg.ProjectRoot
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, &core.InvalidConfigError{Target: cfg.Name, Messages: []string{err.Error()}}
	}
	c.root = root
	c.outDir = cfg.OutputDir
	if !filepath.IsAbs(c.outDir) {
		c.outDir = filepath.Join(root, c.outDir)
	}

	invalid := func(err error) error {
		return &core.InvalidConfigError{Target: cfg.Name, Messages: []string{err.Error()}}
	}

	rules, err := compileRules(cfg.TransformRules, c.registry)
	if err != nil {
		return nil, invalid(err)
	}

	options, err := buildOptions(cfg, root, c.outDir)
	if err != nil {
		return nil, invalid(err)
	}

	plugins := []api.Plugin{
		entryPlugin(root, cfg.EntryPath),
		transformPlugin(root, rules, cfg.SourceMap != core.SourceMapNone),
	}
	if cfg.CodeSplitting {
		scan := scanOptions(options)
		scan.Plugins = []api.Plugin{
			entryPlugin(root, cfg.EntryPath),
			transformPlugin(root, rules, false),
		}
		c.vendor = &vendorSplitter{root: root, scan: scan, logger: c.logger}
		plugins = append(plugins, c.vendor.plugin())
	}
	options.Plugins = plugins

	engine, ctxErr := newContext(options)
	if ctxErr != nil {
		return nil, &core.InvalidConfigError{Target: cfg.Name, Messages: formatEngineMessages(ctxErr.Errors)}
	}
	c.engine = engine

	c.logger.Debug("compiler created",
		"entry", cfg.EntryPath,
		"output", c.outDir,
		"splitting", cfg.CodeSplitting,
		"mode", cfg.Mode,
	)
	return c, nil
}

// Config returns the configuration the compiler is bound to.
func (c *Compiler) Config() *core.Config {
	return c.cfg
}

// OutputDir returns the absolute output directory.
func (c *Compiler) OutputDir() string {
	return c.outDir
}

// Run executes one pass. Build errors are part of the returned Result; the
// error is a *core.CompileError for engine-level failures only.
func (c *Compiler) Run(ctx context.Context) (*core.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	compileErr := func(err error) error {
		return &core.CompileError{Target: c.cfg.Name, Err: err}
	}

	if c.engine == nil {
		return nil, compileErr(errors.New("compiler is closed"))
	}
	if err := ctx.Err(); err != nil {
		return nil, compileErr(err)
	}
	if _, err := openEntry(c.root, c.cfg.EntryPath); err != nil {
		return nil, compileErr(err)
	}

	// Abort the engine if the caller gives up on the pass.
	stop := context.AfterFunc(ctx, c.engine.Cancel)
	defer stop()

	started := time.Now()
	c.logger.Debug("pass started")
	build := c.engine.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, compileErr(err)
	}

	res, err := c.assemble(build, started)
	if err != nil {
		return nil, compileErr(err)
	}

	c.logger.Info("pass finished",
		"outcome", res.Outcome,
		"errors", len(res.Errors),
		"warnings", len(res.Warnings),
		"duration", res.Stats.Duration.Round(time.Millisecond),
	)
	return res, nil
}

// assemble converts an engine result, writes the outputs and collects stats.
func (c *Compiler) assemble(build api.BuildResult, started time.Time) (*core.Result, error) {
	res := &core.Result{
		Outcome:   core.OutcomeSuccess,
		Verbosity: c.cfg.Stats,
	}
	if res.Verbosity == "" {
		res.Verbosity = core.StatsNormal
	}
	res.Errors, res.ErrorDiagnostics = convertMessages(build.Errors)
	res.Warnings, res.WarningDiagnostics = convertMessages(build.Warnings)

	stats := &core.Stats{Target: c.cfg.Name, StartedAt: started}
	if len(build.OutputFiles) > 0 {
		if err := os.MkdirAll(c.outDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		meta, err := parseMetafile(build.Metafile)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("failed to read build metadata: %v", err))
			meta = &metafile{}
		}
		for _, file := range build.OutputFiles {
			if err := writeOutput(file); err != nil {
				res.Errors = append(res.Errors, err.Error())
				res.ErrorDiagnostics = append(res.ErrorDiagnostics, core.Diagnostic{Text: err.Error()})
				continue
			}
			stats.Outputs = append(stats.Outputs, c.describeOutput(file, meta))
		}
		sortOutputs(stats.Outputs)
	}
	if res.Verbosity == core.StatsVerbose && build.Metafile != "" {
		stats.Analysis = api.AnalyzeMetafile(build.Metafile, api.AnalyzeMetafileOptions{Verbose: true})
	}
	stats.Duration = time.Since(started)
	res.Stats = stats

	if len(res.Errors) > 0 {
		res.Outcome = core.OutcomeBuildErrors
	}
	return res, nil
}

func writeOutput(file api.OutputFile) error {
	if err := os.MkdirAll(filepath.Dir(file.Path), 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(file.Path), err)
	}
	if err := os.WriteFile(file.Path, file.Contents, 0o644); err != nil { //nolint:gosec // G306: bundles are public assets
		return fmt.Errorf("failed to write %s: %w", file.Path, err)
	}
	return nil
}

func (c *Compiler) describeOutput(file api.OutputFile, meta *metafile) core.Output {
	out := core.Output{
		Name:  filepath.Base(file.Path),
		Path:  file.Path,
		Bytes: len(file.Contents),
		Kind:  core.OutputAsset,
	}
	key := displayPath(c.root, file.Path)
	switch {
	case filepath.Ext(file.Path) == ".map":
		out.Kind = core.OutputSourceMap
	case meta.Outputs[key].EntryPoint != "":
		out.Kind = core.OutputEntry
	case isScript(file.Path):
		out.Kind = core.OutputChunk
	}
	return out
}

// VendorModules returns the third-party modules moved into the vendor
// chunk by the last pass. Nil when code splitting is off.
func (c *Compiler) VendorModules() []string {
	if c.vendor == nil {
		return nil
	}
	return c.vendor.Modules()
}

// Close disposes the engine context.
func (c *Compiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.engine != nil {
		c.engine.Dispose()
		c.engine = nil
	}
	return nil
}
