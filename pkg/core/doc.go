// Package core defines the shared language of the leapbundle system.
//
// This package contains:
//   - The build configuration model (Config, TransformRule, WatchOptions)
//   - Build results (Result, Diagnostic, Stats)
//   - The compiler contract (Compiler, WatchHandle)
//   - The error taxonomy (ConfigError, InvalidConfigError, CompileError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
