package core

import (
	"fmt"
	"strings"
)

// ConfigError is returned when a build configuration is malformed. It is
// raised before any compiler is created.
type ConfigError struct {
	Target string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Target == "" {
		if e.Field == "" {
			return "invalid configuration: " + e.Reason
		}
		return fmt.Sprintf("invalid configuration: %s: %s\nHint: Check %s in leapbundle.yaml", e.Field, e.Reason, e.Field)
	}
	if e.Field == "" {
		return fmt.Sprintf("invalid configuration for target %q: %s", e.Target, e.Reason)
	}
	return fmt.Sprintf("invalid configuration for target %q: %s: %s\nHint: Check targets.%s.%s in leapbundle.yaml",
		e.Target, e.Field, e.Reason, e.Target, e.Field)
}

// InvalidConfigError is returned when the compiler engine rejects a
// configuration. Messages are the engine's own, unmodified.
type InvalidConfigError struct {
	Target   string
	Messages []string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("compiler rejected configuration for target %q:\n%s",
		e.Target, strings.Join(e.Messages, "\n"))
}

// CompileError is an engine-level failure during a pass, such as an
// unreadable entry module.
type CompileError struct {
	Target string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile failed for target %q: %v", e.Target, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
