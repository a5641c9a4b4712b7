package engine

import (
	"errors"

	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// Process exit codes.
const (
	// ExitSuccess covers successful passes and non-fatal build errors.
	ExitSuccess = 0
	// ExitFailure is a compile error, or build errors on a target with
	// fail_on_build_errors.
	ExitFailure = 1
	// ExitConfigError is an invalid or rejected configuration.
	ExitConfigError = 2
)

// ExitCode maps an error returned by the engine to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr *core.ConfigError
	var invalidErr *core.InvalidConfigError
	if errors.As(err, &cfgErr) || errors.As(err, &invalidErr) {
		return ExitConfigError
	}
	return ExitFailure
}
