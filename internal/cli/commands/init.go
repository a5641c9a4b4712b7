package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	intconfig "github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/internal/report"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// projectFile is the layout of leapbundle.yaml.
type projectFile struct {
	Targets map[string]intconfig.TargetDef `yaml:"targets"`
}

const configHeader = `# leapbundle project configuration.
# Targets listed here are merged over the built-in ones; new names add targets.
`

// exampleFiles is a minimal application for --example.
var exampleFiles = map[string]string{
	"src/index.js": `import { add } from './calc'

document.body.textContent = ` + "`2 + 5 = ${add(2, 5)}`" + `
`,
	"src/calc.js": `export const add = (a, b) => a + b
`,
	"index.html": `<!doctype html>
<html>
  <body>
    <script src="dist/together/bundle.js"></script>
  </body>
</html>
`,
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new leapbundle project",
		Long: `Initialize a new leapbundle project.

This writes leapbundle.yaml with the built-in targets spelled out, ready to
be edited. Use --example to also create a small application in src/.`,
		Example: `  # Initialize in current directory
  leapbundle init

  # Initialize a new directory with a sample application
  leapbundle init my-app --example

  # Force overwrite existing config
  leapbundle init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd.OutOrStdout(), dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	cmd.Flags().BoolVar(&example, "example", false, "Create a sample application in src/")

	return cmd
}

func runInit(w io.Writer, dir string, force, example bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, intconfig.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", intconfig.ConfigFileName)
	}

	data, err := yaml.Marshal(projectFile{Targets: intconfig.DefaultTargets()})
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	styles := report.NewStyles(w, false)
	created := []string{intconfig.ConfigFileName}
	if err := os.WriteFile(configPath, append([]byte(configHeader), data...), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	if example {
		for _, rel := range sortedKeys(exampleFiles) {
			path := filepath.Join(dir, filepath.FromSlash(rel))
			if _, err := os.Stat(path); err == nil && !force {
				_, _ = fmt.Fprintln(w, styles.Muted.Render("skipped "+rel+" (exists)"))
				continue
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", rel, err)
			}
			if err := os.WriteFile(path, []byte(exampleFiles[rel]), 0o600); err != nil {
				return fmt.Errorf("failed to write %s: %w", rel, err)
			}
			created = append(created, rel)
		}
	}

	for _, f := range created {
		_, _ = fmt.Fprintln(w, styles.Success.Render("✓ "+f))
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, styles.Bold.Render("leapbundle project initialized!"))
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Next steps:")
	_, _ = fmt.Fprintln(w, "  leapbundle targets   List the build targets")
	_, _ = fmt.Fprintln(w, "  leapbundle build     Build every once-target")
	_, _ = fmt.Fprintln(w, "  leapbundle watch     Rebuild on change")
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
