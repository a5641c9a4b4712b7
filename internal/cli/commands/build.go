package commands

import (
	"fmt"
	"strings"

	intconfig "github.com/leapstack-labs/leapbundle/internal/config"
	"github.com/leapstack-labs/leapbundle/internal/devserver"
	"github.com/leapstack-labs/leapbundle/internal/engine"
	"github.com/leapstack-labs/leapbundle/internal/metrics"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [target...]",
		Short: "Build targets once",
		Long: `Run a single pass for each target and report the result.

Without arguments, every target defined with exec: once is built.
Targets run concurrently; each writes to its own output directory.`,
		Example: `  # Build the standalone and vendor-split bundles
  leapbundle build

  # Build one target in production mode
  leapbundle build vendor --mode production

  # Machine-readable results for CI
  leapbundle build -o json`,
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = targetsWithExec(getConfig().Definitions(), core.ExecOnce)
			}
			return runTargets(cmd, names, core.ExecOnce, "")
		},
	}
	return cmd
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var serve string

	cmd := &cobra.Command{
		Use:   "watch [target...]",
		Short: "Rebuild targets whenever their sources change",
		Long: `Build each target, then rebuild after every debounced batch of file
changes until interrupted. Errors are reported and watching continues.

Without arguments, every target defined with exec: watch is watched.
With --serve, the target's output directory is served over HTTP and
browsers connected to /__reload are reloaded after every successful pass.
Pass metrics are exposed in the Prometheus format at /__metrics.`,
		Example: `  # Watch the vendor-split bundle
  leapbundle watch

  # Watch the standalone bundle and serve it on port 8080
  leapbundle watch together --serve :8080`,
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = targetsWithExec(getConfig().Definitions(), core.ExecWatch)
			}
			return runTargets(cmd, names, core.ExecWatch, serve)
		},
	}

	cmd.Flags().StringVar(&serve, "serve", "", "Serve the output directory on this address (e.g. :8080)")
	return cmd
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <target...>",
		Short: "Run targets in their configured mode",
		Long: `Run each named target the way it is defined: once-targets build a
single time, watch-targets keep rebuilding until interrupted.`,
		Example:           `  leapbundle run together watch-vendor`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd, args, "", "")
		},
	}
	return cmd
}

// runTargets runs the named targets until they finish or the command
// context is cancelled.
func runTargets(cmd *cobra.Command, names []string, exec core.ExecMode, serve string) error {
	cmdCtx, cleanup := NewCommandContext(cmd)
	defer cleanup()

	cfg := cmdCtx.Cfg
	defs := cfg.Definitions()
	if len(names) == 0 {
		return &core.ConfigError{Reason: fmt.Sprintf("no target selected (available: %s)", strings.Join(sortedNames(defs), ", "))}
	}

	var (
		srv      *devserver.Server
		recorder *metrics.Recorder
	)
	if serve != "" {
		if len(names) != 1 {
			return &core.ConfigError{Field: "serve", Reason: "--serve needs exactly one target"}
		}
		def, ok := defs[names[0]]
		if !ok {
			return &core.ConfigError{Target: names[0], Reason: "unknown target"}
		}
		recorder = metrics.NewRecorder(nil)
		srv = devserver.New(devserver.Config{
			Addr:    serve,
			Root:    intconfig.AbsOutputDir(cfg.ProjectRoot, def.OutputDir),
			Metrics: recorder.Handler(),
			Logger:  cmdCtx.Logger,
		})
	}

	var onServe, onMetrics core.ResultHandler
	if srv != nil {
		onServe = srv.OnResult
		onMetrics = recorder.Observe
	}

	eng := engine.New(engine.Config{
		ProjectRoot: cfg.ProjectRoot,
		Definitions: defs,
		Mode:        cfg.ModeOverride(),
		Stats:       cfg.StatsOverride(),
		Reporter:    cmdCtx.Reporter,
		OnResult:    cmdCtx.OnResult(onMetrics, onServe),
		Logger:      cmdCtx.Logger,
	})
	defer func() { _ = eng.Close() }()

	ctx := commandContext(cmd)
	if srv == nil {
		return eng.Run(ctx, names, exec)
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return srv.Serve(egctx) })
	eg.Go(func() error { return eng.Run(egctx, names, exec) })
	return eg.Wait()
}

// completeTargets offers target names for shell completion.
func completeTargets(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return sortedNames(getConfig().Definitions()), cobra.ShellCompDirectiveNoFileComp
}
