package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapbundle/internal/cli/config"
	"github.com/leapstack-labs/leapbundle/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [target]",
		Short: "Show recorded build passes",
		Long: `Show the most recent build passes recorded in the project's history
database (.leapbundle/state.db by default), newest first.`,
		Example: `  # Last 20 passes of every target
  leapbundle history

  # Last 5 passes of the vendor target
  leapbundle history vendor --limit 5`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeTargets,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) > 0 {
				target = args[0]
			}
			return runHistory(cmd, target, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of passes to show (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, target string, limit int) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open build history: %w", err)
	}
	defer func() { _ = store.Close() }()

	passes, err := store.ListPasses(commandContext(cmd), target, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(passes)
	}
	if len(passes) == 0 {
		_, err := fmt.Fprintln(out, "No build passes recorded yet.")
		return err
	}
	_, err = fmt.Fprintln(out, renderHistory(passes, time.Now()))
	return err
}

func renderHistory(passes []*state.Pass, now time.Time) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Target", "Mode", "Outcome", "Errors", "Warnings", "Duration", "Started"})
	for _, p := range passes {
		id := p.ID
		if len(id) > 8 {
			id = id[:8]
		}
		t.AppendRow(table.Row{
			id,
			p.Target,
			string(p.Mode),
			string(p.Outcome),
			len(p.Errors),
			len(p.Warnings),
			p.Duration.Round(time.Millisecond).String(),
			humanize.RelTime(p.StartedAt, now, "ago", "from now"),
		})
	}
	return t.Render()
}
