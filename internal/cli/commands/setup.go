package commands

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/leapstack-labs/leapbundle/internal/cli/config"
	"github.com/leapstack-labs/leapbundle/internal/report"
	"github.com/leapstack-labs/leapbundle/internal/state"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Reporter *report.Reporter
	// Store is nil when history is disabled or could not be opened.
	Store *state.SQLiteStore
}

// NewCommandContext creates a CommandContext. History problems are logged
// and disable recording; they never fail the command.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func()) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	cmdCtx := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Reporter: report.New(cmd.OutOrStdout(), report.WithFormat(report.Format(cfg.Output))),
	}

	if cfg.History {
		store, err := openStore(cfg, logger)
		if err != nil {
			logger.Warn("build history disabled", "error", err)
		} else {
			cmdCtx.Store = store
		}
	}

	cleanup := func() {
		if cmdCtx.Store != nil {
			_ = cmdCtx.Store.Close()
		}
	}
	return cmdCtx, cleanup
}

// OnResult fans a pass out to the history store and any extra handlers.
func (c *CommandContext) OnResult(extra ...core.ResultHandler) core.ResultHandler {
	var handlers []core.ResultHandler
	if c.Store != nil {
		handlers = append(handlers, c.Store.Recorder())
	}
	for _, h := range extra {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	if len(handlers) == 0 {
		return nil
	}
	return func(target string, mode core.ExecMode, res *core.Result) {
		for _, h := range handlers {
			h(target, mode, res)
		}
	}
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.ResolvedStatePath()); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// getConfig returns the current configuration, or defaults anchored on
// the working directory when none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return &config.Config{
		ProjectRoot: cwd,
		Output:      config.DefaultOutput,
		StatePath:   config.DefaultStateFile,
		History:     true,
	}
}

// targetsWithExec returns the sorted names of the targets defined with
// the given execution mode.
func targetsWithExec(defs map[string]config.TargetDef, exec core.ExecMode) []string {
	var names []string
	for name, def := range defs {
		mode, err := core.ParseExecMode(def.Exec)
		if err == nil && mode == exec {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
