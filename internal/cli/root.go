// Package cli provides the command-line interface for leapbundle.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/leapstack-labs/leapbundle/internal/cli/commands"
	"github.com/leapstack-labs/leapbundle/internal/cli/config"
	"github.com/leapstack-labs/leapbundle/internal/engine"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig lists commands that run without a loaded configuration.
var skipConfig = map[string]bool{
	"help":       true,
	"completion": true,
	"__complete": true,
	"version":    true,
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leapbundle",
		Short: "leapbundle - JavaScript bundler",
		Long: `leapbundle bundles a JavaScript application from its entry module.

Each target turns the entry into one bundle or a set of code-split chunks.
Once-targets build a single time; watch-targets rebuild whenever a source
file changes and report every pass.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig[cmd.Name()] {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			logger.Debug("project root", "path", cfg.ProjectRoot)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
JavaScript bundler built with Go and esbuild
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leapbundle.yaml)")
	rootCmd.PersistentFlags().String("project-dir", "", "Project root directory (default: nearest directory with leapbundle.yaml)")
	rootCmd.PersistentFlags().String("mode", "", "Override the optimization mode of every target (development|production)")
	rootCmd.PersistentFlags().String("stats", "", "Override the stats verbosity of every target (normal|verbose)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (text|json)")
	rootCmd.PersistentFlags().String("state", "", "Path to the build history database")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record build passes")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputText, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.ModeDevelopment), string(core.ModeProduction)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("stats", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(core.StatsNormal), string(core.StatsVerbose)}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewTargetsCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command with args under ctx. Cancelling ctx stops
// watch-targets.
func Execute(ctx context.Context, args []string) error {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	printError(rootCmd.ErrOrStderr(), err)
	return err
}

// printError writes err to w unless the reporter has already shown it.
func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	var compileErr *core.CompileError
	var buildErr *engine.BuildFailedError
	if errors.As(err, &compileErr) || errors.As(err, &buildErr) {
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leapbundle.

To load completions:

Bash:
  $ source <(leapbundle completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ leapbundle completion bash > /etc/bash_completion.d/leapbundle
  # macOS:
  $ leapbundle completion bash > $(brew --prefix)/etc/bash_completion.d/leapbundle

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ leapbundle completion zsh > "${fpath[1]}/_leapbundle"

Fish:
  $ leapbundle completion fish | source

PowerShell:
  PS> leapbundle completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
