package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	intconfig "github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		setupDir  func(t *testing.T, dir string)
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "basic init",
			args:      []string{},
			wantFiles: []string{"leapbundle.yaml"},
		},
		{
			name:      "init with example",
			args:      []string{"--example"},
			wantFiles: []string{"leapbundle.yaml", "src/index.js", "src/calc.js", "index.html"},
		},
		{
			name:      "init into new directory",
			args:      []string{"my-app"},
			wantFiles: []string{"my-app/leapbundle.yaml"},
		},
		{
			name: "existing config without force",
			args: []string{},
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "leapbundle.yaml"), []byte("targets: {}\n"), 0o600))
			},
			wantErr: true,
		},
		{
			name: "existing config with force",
			args: []string{"--force"},
			setupDir: func(t *testing.T, dir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "leapbundle.yaml"), []byte("targets: {}\n"), 0o600))
			},
			wantFiles: []string{"leapbundle.yaml"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.False(t, os.IsNotExist(err), "expected file %q to exist", f)
			}
			assert.Contains(t, buf.String(), "leapbundle project initialized!")
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotNil(t, cmd.Flags().Lookup("force"))
	assert.NotNil(t, cmd.Flags().Lookup("example"))
}

func TestInitCreatesValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, runInit(&out, tmpDir, false, false))

	content, err := os.ReadFile(filepath.Join(tmpDir, "leapbundle.yaml"))
	require.NoError(t, err)

	var pf projectFile
	require.NoError(t, yaml.Unmarshal(content, &pf))
	assert.Equal(t, intconfig.DefaultTargets(), pf.Targets)

	for name, def := range pf.Targets {
		_, err := intconfig.Build(name, def, intconfig.Options{ProjectRoot: tmpDir})
		assert.NoError(t, err, "target %s should build", name)
	}
}

func TestInitExampleKeepsExistingSources(t *testing.T) {
	tmpDir := t.TempDir()
	src := filepath.Join(tmpDir, "src", "index.js")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o750))
	require.NoError(t, os.WriteFile(src, []byte("// mine\n"), 0o600))

	var out bytes.Buffer
	require.NoError(t, runInit(&out, tmpDir, false, true))

	content, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "// mine\n", string(content))
	assert.Contains(t, out.String(), "skipped src/index.js")
}
