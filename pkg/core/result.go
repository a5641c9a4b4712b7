package core

import (
	"fmt"
	"time"
)

// Outcome classifies a pass.
type Outcome string

// Pass outcomes.
const (
	// OutcomeSuccess means the pass produced output with no errors.
	OutcomeSuccess Outcome = "success"
	// OutcomeCompileError means the engine failed before producing output.
	OutcomeCompileError Outcome = "compile_error"
	// OutcomeBuildErrors means per-module errors were collected; output may be incomplete.
	OutcomeBuildErrors Outcome = "build_errors"
)

// Diagnostic is a located error or warning.
type Diagnostic struct {
	File   string
	Line   int
	Column int
	Text   string
	// Plugin is set when the message originated in a compiler plugin
	// (e.g. a transformer).
	Plugin string
}

// String formats the diagnostic as file:line:col: text.
func (d Diagnostic) String() string {
	if d.File == "" {
		return d.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Text)
}

// OutputKind classifies an artifact.
type OutputKind string

// Output kinds.
const (
	OutputEntry     OutputKind = "entry"
	OutputChunk     OutputKind = "chunk"
	OutputSourceMap OutputKind = "sourcemap"
	OutputAsset     OutputKind = "asset"
)

// Output is one artifact written by a pass.
type Output struct {
	Name  string     `json:"name"`
	Path  string     `json:"path"`
	Bytes int        `json:"bytes"`
	Kind  OutputKind `json:"kind"`
}

// Stats holds compiler statistics for a pass.
type Stats struct {
	Target    string
	StartedAt time.Time
	Duration  time.Duration
	Outputs   []Output
	// Analysis is the compiler's human-readable bundle analysis. Only
	// populated for verbose stats.
	Analysis string
}

// Result is the outcome of one pass.
type Result struct {
	Outcome   Outcome
	Errors    []string
	Warnings  []string
	Verbosity StatsVerbosity

	// ErrorDiagnostics and WarningDiagnostics carry location information
	// for the matching entries of Errors and Warnings.
	ErrorDiagnostics   []Diagnostic
	WarningDiagnostics []Diagnostic

	Stats *Stats
}

// HasErrors reports whether the pass collected any error.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// NewCompileErrorResult converts an engine-level failure into a Result so
// that it flows through the same reporting path as every other pass.
func NewCompileErrorResult(err error, verbosity StatsVerbosity) *Result {
	return &Result{
		Outcome:   OutcomeCompileError,
		Errors:    []string{err.Error()},
		Verbosity: verbosity,
	}
}
