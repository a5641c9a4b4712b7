package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapbundle/internal/cli/config"
	"github.com/spf13/cobra"
)

// NewTargetsCommand creates the targets command.
func NewTargetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the defined build targets",
		Long: `List the built-in targets merged with the targets of leapbundle.yaml.

Use --output json for the full definitions.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()
			defs := cfg.Definitions()
			if cfg.Output == config.OutputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTargets(defs))
			return err
		},
	}
	return cmd
}

func renderTargets(defs map[string]config.TargetDef) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Target", "Exec", "Entry", "Output", "Split", "Source map", "Mode", "Stats"})
	for _, name := range sortedNames(defs) {
		def := defs[name]
		t.AppendRow(table.Row{
			name,
			orDefault(def.Exec, "once"),
			def.Entry,
			def.OutputDir + "/" + def.Filename,
			yesNo(def.CodeSplitting),
			orDefault(def.SourceMap, "none"),
			orDefault(def.Mode, "development"),
			orDefault(def.Stats, "normal"),
		})
	}
	return t.Render()
}

func sortedNames(defs map[string]config.TargetDef) []string {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
