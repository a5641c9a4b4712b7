package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"":             ModeDevelopment,
		"development":  ModeDevelopment,
		" Production ": ModeProduction,
	} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("fast")
	assert.ErrorContains(t, err, `unknown mode "fast"`)
}

func TestParseSourceMapMode(t *testing.T) {
	for in, want := range map[string]SourceMapMode{
		"":         SourceMapNone,
		"none":     SourceMapNone,
		"INLINE":   SourceMapInline,
		"external": SourceMapExternal,
	} {
		got, err := ParseSourceMapMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSourceMapMode("hidden")
	assert.Error(t, err)
}

func TestParseStatsVerbosity(t *testing.T) {
	got, err := ParseStatsVerbosity("")
	require.NoError(t, err)
	assert.Equal(t, StatsNormal, got)

	got, err = ParseStatsVerbosity("verbose")
	require.NoError(t, err)
	assert.Equal(t, StatsVerbose, got)

	_, err = ParseStatsVerbosity("loud")
	assert.Error(t, err)
}

func TestParseExecMode(t *testing.T) {
	got, err := ParseExecMode("")
	require.NoError(t, err)
	assert.Equal(t, ExecOnce, got)

	got, err = ParseExecMode("Watch")
	require.NoError(t, err)
	assert.Equal(t, ExecWatch, got)

	_, err = ParseExecMode("forever")
	assert.Error(t, err)
}

func TestConfig_DebounceMs(t *testing.T) {
	assert.Equal(t, DefaultDebounceMs, (&Config{}).DebounceMs())
	assert.Equal(t, DefaultDebounceMs, (&Config{Watch: &WatchOptions{}}).DebounceMs())
	assert.Equal(t, 50, (&Config{Watch: &WatchOptions{DebounceMs: 50}}).DebounceMs())
}

func TestConfig_OutputName(t *testing.T) {
	literal := &Config{OutputFilename: "[name].bundle.js"}
	assert.Equal(t, "[name].bundle.js", literal.OutputName("vendor"))

	split := &Config{OutputFilename: "[name].bundle.js", CodeSplitting: true}
	assert.Equal(t, "vendor.bundle.js", split.OutputName("vendor"))
	assert.Equal(t, "main.bundle.js", split.OutputName("main"))
}

func TestConfig_Verbose(t *testing.T) {
	assert.False(t, (&Config{}).Verbose())
	assert.True(t, (&Config{Stats: StatsVerbose}).Verbose())
}

func TestConfigError(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "reason only",
			err:  &ConfigError{Reason: "no targets given"},
			want: "invalid configuration: no targets given",
		},
		{
			name: "global field",
			err:  &ConfigError{Field: "mode", Reason: "bad"},
			want: "invalid configuration: mode: bad\nHint: Check mode in leapbundle.yaml",
		},
		{
			name: "target without field",
			err:  &ConfigError{Target: "vendor", Reason: "already running"},
			want: `invalid configuration for target "vendor": already running`,
		},
		{
			name: "target field",
			err:  &ConfigError{Target: "vendor", Field: "entry", Reason: "required"},
			want: "invalid configuration for target \"vendor\": entry: required\nHint: Check targets.vendor.entry in leapbundle.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCompileError(t *testing.T) {
	cause := errors.New("entry not found")
	err := &CompileError{Target: "together", Err: cause}

	assert.Equal(t, `compile failed for target "together": entry not found`, err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestInvalidConfigError(t *testing.T) {
	err := &InvalidConfigError{Target: "vendor", Messages: []string{"a", "b"}}
	assert.Equal(t, "compiler rejected configuration for target \"vendor\":\na\nb", err.Error())
}

func TestDiagnosticString(t *testing.T) {
	assert.Equal(t, "plain", Diagnostic{Text: "plain"}.String())
	assert.Equal(t, "src/a.js:3:7: oops", Diagnostic{File: "src/a.js", Line: 3, Column: 7, Text: "oops"}.String())
}

func TestNewCompileErrorResult(t *testing.T) {
	res := NewCompileErrorResult(errors.New("boom"), StatsVerbose)

	assert.Equal(t, OutcomeCompileError, res.Outcome)
	assert.Equal(t, []string{"boom"}, res.Errors)
	assert.Equal(t, StatsVerbose, res.Verbosity)
	assert.True(t, res.HasErrors())
	assert.False(t, (&Result{}).HasErrors())
}
