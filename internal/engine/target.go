package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// State is the lifecycle state of a target.
type State string

// Target states. Once-targets move Idle → Running → Completed|Failed;
// watch-targets move Idle → Watching → Stopped.
const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateWatching  State = "watching"
	StateStopped   State = "stopped"
)

// Reporter receives the result of every pass.
type Reporter interface {
	Report(res *core.Result)
}

// TransitionError is returned when an operation is not allowed in the
// target's current state.
type TransitionError struct {
	Target string
	Op     string
	State  State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("target %q: cannot %s while %s", e.Target, e.Op, e.State)
}

// TargetOptions configures a Target.
type TargetOptions struct {
	// Reporter prints every result. Required.
	Reporter Reporter
	// OnResult is notified after the reporter (history, live reload).
	OnResult core.ResultHandler
	Logger   *slog.Logger
}

// Target drives one compiler through its lifecycle.
type Target struct {
	tgt      *core.Target
	compiler core.Compiler
	reporter Reporter
	onResult core.ResultHandler
	logger   *slog.Logger

	mu     sync.Mutex
	state  State
	passes int
}

// NewTarget binds a compiler to a target definition. The target starts Idle.
func NewTarget(tgt *core.Target, compiler core.Compiler, opts TargetOptions) *Target {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Target{
		tgt:      tgt,
		compiler: compiler,
		reporter: opts.Reporter,
		onResult: opts.OnResult,
		logger:   logger.With("target", tgt.Name),
		state:    StateIdle,
	}
}

// Name returns the target name.
func (t *Target) Name() string { return t.tgt.Name }

// Mode returns the execution mode the target was defined with.
func (t *Target) Mode() core.ExecMode { return t.tgt.Mode }

// Config returns the build configuration.
func (t *Target) Config() *core.Config { return t.tgt.Config }

// State returns the current lifecycle state.
func (t *Target) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Passes returns the number of results delivered so far.
func (t *Target) Passes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.passes
}

func (t *Target) transition(op string, from, to State) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != from {
		return &TransitionError{Target: t.tgt.Name, Op: op, State: t.state}
	}
	t.state = to
	return nil
}

func (t *Target) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// RunOnce executes a single pass and reports it. Results with build errors
// complete the target; an engine-level failure is reported, moves the
// target to Failed and is returned as *core.CompileError.
func (t *Target) RunOnce(ctx context.Context) (*core.Result, error) {
	if err := t.transition("run", StateIdle, StateRunning); err != nil {
		return nil, err
	}

	t.logger.Debug("pass started", "mode", core.ExecOnce)
	res, err := t.compiler.Run(ctx)
	if err != nil {
		compileErr := asCompileError(t.tgt.Name, err)
		t.deliver(core.NewCompileErrorResult(compileErr, t.tgt.Config.Stats), core.ExecOnce)
		t.setState(StateFailed)
		t.logger.Debug("pass failed", "error", compileErr)
		return nil, compileErr
	}

	t.deliver(res, core.ExecOnce)
	t.setState(StateCompleted)
	t.logger.Debug("pass completed", "outcome", res.Outcome)
	return res, nil
}

// RunWatch starts watching and blocks until ctx is cancelled. Every
// debounced pass is reported; compile errors do not stop the watch.
func (t *Target) RunWatch(ctx context.Context) error {
	if err := t.transition("watch", StateIdle, StateWatching); err != nil {
		return err
	}

	cfg := t.tgt.Config
	opts := core.WatchOptions{DebounceMs: cfg.DebounceMs()}
	if cfg.Watch != nil {
		opts.Paths = cfg.Watch.Paths
	}

	handle, err := t.compiler.Watch(opts, func(res *core.Result, err error) {
		if err != nil {
			res = core.NewCompileErrorResult(asCompileError(t.tgt.Name, err), cfg.Stats)
		}
		t.deliver(res, core.ExecWatch)
	})
	if err != nil {
		t.setState(StateFailed)
		return asCompileError(t.tgt.Name, err)
	}

	t.logger.Info("watching for changes", "debounce_ms", opts.DebounceMs)
	<-ctx.Done()

	closeErr := handle.Close()
	t.setState(StateStopped)
	t.logger.Info("watch stopped")
	if closeErr != nil {
		return fmt.Errorf("failed to stop watching %s: %w", t.tgt.Name, closeErr)
	}
	return nil
}

// Run dispatches on the target's execution mode.
func (t *Target) Run(ctx context.Context) (*core.Result, error) {
	if t.tgt.Mode == core.ExecWatch {
		return nil, t.RunWatch(ctx)
	}
	return t.RunOnce(ctx)
}

func (t *Target) deliver(res *core.Result, mode core.ExecMode) {
	t.mu.Lock()
	t.passes++
	t.mu.Unlock()

	if t.reporter != nil {
		t.reporter.Report(res)
	}
	if t.onResult != nil {
		t.onResult(t.tgt.Name, mode, res)
	}
}

func asCompileError(target string, err error) *core.CompileError {
	var compileErr *core.CompileError
	if errors.As(err, &compileErr) {
		return compileErr
	}
	return &core.CompileError{Target: target, Err: err}
}
