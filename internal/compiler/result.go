package compiler

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leapbundle/pkg/core"
)

var unresolvedRe = regexp.MustCompile(`^Could not resolve "(.+)"$`)

// normalizeText rewrites engine phrasing into the messages users of the
// build scripts expect.
func normalizeText(text string) string {
	if m := unresolvedRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("Cannot resolve module '%s'", m[1])
	}
	return text
}

// convertMessages returns the message texts and their located form.
func convertMessages(msgs []api.Message) ([]string, []core.Diagnostic) {
	if len(msgs) == 0 {
		return nil, nil
	}
	texts := make([]string, 0, len(msgs))
	diags := make([]core.Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		text := normalizeText(m.Text)
		d := core.Diagnostic{Text: text, Plugin: m.PluginName}
		if m.Location != nil {
			d.File = m.Location.File
			d.Line = m.Location.Line
			d.Column = m.Location.Column
		}
		texts = append(texts, text)
		diags = append(diags, d)
	}
	return texts, diags
}

// formatEngineMessages renders messages exactly as the engine words them.
func formatEngineMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil && m.Location.File != "" {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		out = append(out, m.Text)
	}
	if len(out) == 0 {
		out = append(out, "configuration rejected")
	}
	return out
}

var kindOrder = map[core.OutputKind]int{
	core.OutputEntry:     0,
	core.OutputChunk:     1,
	core.OutputAsset:     2,
	core.OutputSourceMap: 3,
}

func sortOutputs(outputs []core.Output) {
	sort.SliceStable(outputs, func(i, j int) bool {
		if kindOrder[outputs[i].Kind] != kindOrder[outputs[j].Kind] {
			return kindOrder[outputs[i].Kind] < kindOrder[outputs[j].Kind]
		}
		return outputs[i].Name < outputs[j].Name
	})
}

func isScript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}
