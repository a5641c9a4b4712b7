package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/internal/testutil"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onceDef(outDir string) config.TargetDef {
	return config.TargetDef{
		Entry:     "src/index",
		OutputDir: outDir,
		Filename:  "bundle.js",
		Exec:      "once",
	}
}

type fakeFactory struct {
	mu        sync.Mutex
	compilers map[string]*fakeCompiler
	results   map[string]*core.Result
	err       error
}

func (f *fakeFactory) New(cfg *core.Config, _ *slog.Logger) (core.Compiler, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.compilers == nil {
		f.compilers = make(map[string]*fakeCompiler)
	}
	res := f.results[cfg.Name]
	if res == nil {
		res = &core.Result{Outcome: core.OutcomeSuccess}
	}
	c := &fakeCompiler{result: res}
	f.compilers[cfg.Name] = c
	return c, nil
}

func newTestEngine(t *testing.T, defs map[string]config.TargetDef, factory *fakeFactory) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e := New(Config{
		ProjectRoot: t.TempDir(),
		Definitions: defs,
		Reporter:    rec,
		OnResult:    rec.handle,
		NewCompiler: factory.New,
		Logger:      testutil.NewTestLogger(t),
	})
	t.Cleanup(func() { _ = e.Close() })
	return e, rec
}

func TestEngine_Names(t *testing.T) {
	e, _ := newTestEngine(t, config.DefaultTargets(), &fakeFactory{})
	assert.Equal(t, []string{"together", "vendor", "watch-vendor"}, e.Names())
}

func TestEngine_PrepareUnknownTarget(t *testing.T) {
	e, _ := newTestEngine(t, config.DefaultTargets(), &fakeFactory{})

	_, err := e.Prepare("nope", "")

	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "together, vendor, watch-vendor")
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestEngine_OutputDirCollision(t *testing.T) {
	factory := &fakeFactory{}
	e, rec := newTestEngine(t, map[string]config.TargetDef{
		"a": onceDef("dist/shared"),
		"b": onceDef("dist/./shared"),
	}, factory)

	err := e.Run(context.Background(), []string{"a", "b"}, "")

	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "b", cfgErr.Target)
	assert.Equal(t, "output_dir", cfgErr.Field)
	assert.Equal(t, 0, factory.compilers["a"].runs, "configuration errors abort before any pass")
	assert.Equal(t, 0, rec.count())
}

func TestEngine_SameTargetTwiceCollides(t *testing.T) {
	e, _ := newTestEngine(t, map[string]config.TargetDef{"a": onceDef("dist/a")}, &fakeFactory{})

	_, err := e.Prepare("a", core.ExecOnce)
	require.NoError(t, err)
	_, err = e.Prepare("a", core.ExecWatch)

	var cfgErr *core.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "already running")
}

func TestEngine_RunsTargetsConcurrently(t *testing.T) {
	factory := &fakeFactory{results: map[string]*core.Result{
		"b": {Outcome: core.OutcomeBuildErrors, Errors: []string{"x"}},
	}}
	e, rec := newTestEngine(t, map[string]config.TargetDef{
		"a": onceDef("dist/a"),
		"b": onceDef("dist/b"),
	}, factory)

	err := e.Run(context.Background(), []string{"a", "b"}, "")

	require.NoError(t, err, "build errors are not fatal by default")
	assert.Equal(t, 2, rec.count())
	for _, target := range e.Targets() {
		assert.Equal(t, StateCompleted, target.State(), target.Name())
	}
}

func TestEngine_FailOnBuildErrors(t *testing.T) {
	def := onceDef("dist/a")
	def.FailOnBuildErrors = true
	factory := &fakeFactory{results: map[string]*core.Result{
		"a": {Outcome: core.OutcomeBuildErrors, Errors: []string{"x", "y"}},
	}}
	e, _ := newTestEngine(t, map[string]config.TargetDef{"a": def}, factory)

	err := e.Run(context.Background(), []string{"a"}, "")

	var buildErr *BuildFailedError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 2, buildErr.Errors)
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestEngine_ExecOverride(t *testing.T) {
	e, _ := newTestEngine(t, map[string]config.TargetDef{"a": onceDef("dist/a")}, &fakeFactory{})

	target, err := e.Prepare("a", core.ExecWatch)
	require.NoError(t, err)
	assert.Equal(t, core.ExecWatch, target.Mode())
}

func TestEngine_FactoryError(t *testing.T) {
	rejected := &core.InvalidConfigError{Target: "a", Messages: []string{"bad"}}
	e, _ := newTestEngine(t, map[string]config.TargetDef{"a": onceDef("dist/a")}, &fakeFactory{err: rejected})

	err := e.Run(context.Background(), []string{"a"}, "")
	assert.Same(t, rejected, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestEngine_NoTargets(t *testing.T) {
	e, _ := newTestEngine(t, nil, &fakeFactory{})
	assert.Equal(t, ExitConfigError, ExitCode(e.Run(context.Background(), nil, "")))
}

func TestEngine_CloseDisposesCompilers(t *testing.T) {
	factory := &fakeFactory{}
	e, _ := newTestEngine(t, map[string]config.TargetDef{"a": onceDef("dist/a")}, factory)
	require.NoError(t, e.Run(context.Background(), []string{"a"}, ""))

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	assert.Equal(t, 1, factory.compilers["a"].closed)

	_, err := e.Prepare("a", "")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{&core.ConfigError{Target: "a", Reason: "bad"}, ExitConfigError},
		{fmt.Errorf("wrapped: %w", &core.InvalidConfigError{}), ExitConfigError},
		{&core.CompileError{Target: "a", Err: errors.New("x")}, ExitFailure},
		{&BuildFailedError{Target: "a", Errors: 1}, ExitFailure},
		{errors.New("other"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

// The built-in "together" target bundles the sample project end to end.
func TestEngine_TogetherEndToEnd(t *testing.T) {
	root := testutil.NewSampleProject(t)
	rec := &recorder{}
	e := New(Config{
		ProjectRoot: root,
		Definitions: config.DefaultTargets(),
		Reporter:    rec,
		Logger:      testutil.NewTestLogger(t),
	})
	defer func() { _ = e.Close() }()

	err := e.Run(context.Background(), []string{config.TargetTogether}, "")
	require.NoError(t, err)

	res := rec.last()
	assert.Equal(t, core.OutcomeSuccess, res.Outcome, "errors: %v", res.Errors)
	assert.FileExists(t, filepath.Join(root, "dist", "together", "bundle.js"))

	data, err := os.ReadFile(filepath.Join(root, "dist", "together", "bundle.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "2 + 5 = ")
}
