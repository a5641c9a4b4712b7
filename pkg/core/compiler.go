package core

import "context"

// Compiler is the bundling engine bound to one Config.
//
// Implementations deliver exactly one Result or one engine-level error per
// Run, and one callback per completed pass while watching. At most one pass
// is in flight at any time.
type Compiler interface {
	// Run executes a single pass. Build errors are returned inside the
	// Result; the error is non-nil only for engine-level failures
	// (*CompileError).
	Run(ctx context.Context) (*Result, error)

	// Watch starts watching and calls onResult after every debounced pass.
	// The callback receives a *CompileError instead of a Result when a
	// pass fails at the engine level; watching continues.
	Watch(opts WatchOptions, onResult func(*Result, error)) (WatchHandle, error)

	// Close releases the engine. It does not stop an active watch.
	Close() error
}

// WatchHandle stops a running watch.
type WatchHandle interface {
	Close() error
}

// ResultHandler is notified of every pass result, whatever the mode.
type ResultHandler func(target string, mode ExecMode, res *Result)
