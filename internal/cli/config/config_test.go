package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	intconfig "github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("project-dir", "", "")
	flags.String("mode", "", "")
	flags.String("stats", "", "")
	flags.StringP("output", "o", "", "")
	flags.String("state", "", "")
	flags.Bool("no-history", false, "")
	flags.BoolP("verbose", "v", false, "")
	return flags
}

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, intconfig.ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--project-dir", root}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, DefaultOutput, cfg.Output)
	assert.True(t, cfg.History)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join(root, ".leapbundle", "state.db"), cfg.ResolvedStatePath())
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())

	defs := cfg.Definitions()
	assert.Len(t, defs, 3)
	assert.Equal(t, "dist/vendor", defs[intconfig.TargetVendor].OutputDir)
}

func TestLoadConfig_FileOverridesTargets(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	path := writeConfig(t, root, `
mode: production
targets:
  vendor:
    output_dir: public/js
    define:
      - process.env.API_URL="https://api.example.com"
  lib:
    entry: src/lib
    output_dir: dist/lib
    filename: lib.js
    platform: node
    rules:
      - test: '\.txt$'
        transformer: text
`)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, core.ModeProduction, cfg.ModeOverride())

	defs := cfg.Definitions()
	require.Len(t, defs, 4)

	vendor := defs[intconfig.TargetVendor]
	assert.Equal(t, "public/js", vendor.OutputDir)
	assert.True(t, vendor.CodeSplitting, "unset fields keep the built-in value")
	assert.Equal(t, []string{`process.env.API_URL="https://api.example.com"`}, vendor.Define)

	lib := defs["lib"]
	assert.Equal(t, "node", lib.Platform)
	require.Len(t, lib.Rules, 1)
	assert.Equal(t, "text", lib.Rules[0].Transformer)
}

func TestLoadConfig_FindsProjectRootUpward(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	writeConfig(t, root, "stats: verbose\n")
	nested := filepath.Join(root, "src", "components")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
	assert.Equal(t, core.StatsVerbose, cfg.StatsOverride())
}

func TestLoadConfig_Precedence(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	writeConfig(t, root, "output: text\nstate_path: from-file.db\nstats: normal\n")
	t.Setenv("LEAPBUNDLE_STATE_PATH", "from-env.db")
	t.Setenv("LEAPBUNDLE_STATS", "verbose")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--project-dir", root, "-o", "json", "--no-history", "-v"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, OutputJSON, cfg.Output, "flags beat the file")
	assert.Equal(t, "from-env.db", cfg.StatePath, "env beats the file")
	assert.Equal(t, "verbose", cfg.Stats)
	assert.False(t, cfg.History)
	assert.True(t, cfg.Verbose)

	require.NoError(t, flags.Set("state", "/abs/state.db"))
	cfg, err = LoadConfig("", flags)
	require.NoError(t, err)
	assert.Equal(t, "/abs/state.db", cfg.ResolvedStatePath())
}

func TestLoadConfig_DotEnv(t *testing.T) {
	t.Cleanup(ResetConfig)
	root := t.TempDir()
	writeConfig(t, root, "stats: normal\nmode: development\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"),
		[]byte("LEAPBUNDLE_STATS=verbose\nLEAPBUNDLE_MODE=production\nUNRELATED=1\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env.local"),
		[]byte("LEAPBUNDLE_OUTPUT=json\n"), 0o600))
	t.Setenv("LEAPBUNDLE_MODE", "development")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{"--project-dir", root}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "verbose", cfg.Stats, ".env beats the file")
	assert.Equal(t, OutputJSON, cfg.Output, ".env.local is read too")
	assert.Equal(t, "development", cfg.Mode, "the process environment beats .env")
	_, set := os.LookupEnv("UNRELATED")
	assert.False(t, set, "the process environment is not modified")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"mode", "mode: turbo\n", "mode"},
		{"stats", "stats: loud\n", "stats"},
		{"output", "output: xml\n", "output"},
		{"exec", "targets:\n  vendor:\n    exec: forever\n", "exec"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(ResetConfig)
			path := writeConfig(t, t.TempDir(), tt.yaml)

			_, err := LoadConfig(path, nil)

			var cfgErr *core.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLoadConfig_UnreadableFile(t *testing.T) {
	t.Cleanup(ResetConfig)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestGetLogger(t *testing.T) {
	assert.NotNil(t, GetLogger(context.Background()))

	var buf bytes.Buffer
	logger := NewLogger(&buf, true)
	ctx := context.WithValue(context.Background(), LoggerKey(), logger)
	assert.Same(t, logger, GetLogger(ctx))

	logger.Debug("hello")
	assert.Contains(t, buf.String(), "hello")

	buf.Reset()
	NewLogger(&buf, false).Info("quiet")
	assert.Empty(t, buf.String())
}
