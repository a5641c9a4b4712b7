// Package report turns build results into status output.
//
// The reporter is mode-agnostic: one-shot and watch passes go through the
// same Report call, and identical results always produce identical output.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapbundle/pkg/core"
	"golang.org/x/term"
)

// Format selects how results are written.
type Format string

// Output formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// fallbackLine replaces output that could not be formatted.
const fallbackLine = "leapbundle: build finished, but its result could not be displayed"

// Reporter writes build results to a sink.
type Reporter struct {
	mu     sync.Mutex // serializes writes from concurrent targets
	out    io.Writer
	format Format
	styles *Styles
}

// Option configures a Reporter.
type Option func(*reporterOptions)

type reporterOptions struct {
	format Format
	color  *bool
}

// WithFormat selects the output format. Defaults to text.
func WithFormat(f Format) Option {
	return func(o *reporterOptions) { o.format = f }
}

// WithColor forces colour on or off. By default colour is used only when
// the sink is a terminal.
func WithColor(enabled bool) Option {
	return func(o *reporterOptions) { o.color = &enabled }
}

// New creates a reporter writing to w, or to stdout when w is nil.
func New(w io.Writer, opts ...Option) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	o := reporterOptions{format: FormatText}
	for _, opt := range opts {
		opt(&o)
	}
	color := isTerminal(w)
	if o.color != nil {
		color = *o.color
	}
	if o.format == "" {
		o.format = FormatText
	}
	return &Reporter{out: w, format: o.format, styles: NewStyles(w, color)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// Report writes res. It never panics: anything that goes wrong while
// formatting is replaced by a single generic line.
func (r *Reporter) Report(res *core.Result) {
	var text string
	func() {
		defer func() {
			if recover() != nil {
				text = ""
			}
		}()
		if res == nil {
			return
		}
		text = r.Format(res)
	}()
	if text == "" {
		text = fallbackLine + "\n"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.out, text)
}

// Format renders res without writing it.
func (r *Reporter) Format(res *core.Result) string {
	if r.format == FormatJSON {
		return r.formatJSON(res)
	}

	var b strings.Builder
	switch res.Outcome {
	case core.OutcomeCompileError:
		// Engine-level failure: the raw error is all there is to say.
		for _, e := range res.Errors {
			b.WriteString(r.styles.Error.Render(e))
			b.WriteString("\n")
		}

	case core.OutcomeBuildErrors:
		for _, line := range diagnosticLines(res.Errors, res.ErrorDiagnostics) {
			b.WriteString(r.styles.Error.Render("error: " + line))
			b.WriteString("\n")
		}
		r.writeWarnings(&b, res)

	case core.OutcomeSuccess:
		b.WriteString(r.styles.Success.Render(confirmation(res)))
		b.WriteString("\n")
		r.writeWarnings(&b, res)
		if res.Verbosity == core.StatsVerbose && res.Stats != nil {
			r.writeStats(&b, res.Stats)
		}

	default:
		return ""
	}
	return b.String()
}

func (r *Reporter) writeWarnings(b *strings.Builder, res *core.Result) {
	for _, line := range diagnosticLines(res.Warnings, res.WarningDiagnostics) {
		b.WriteString(r.styles.Warning.Render("warning: " + line))
		b.WriteString("\n")
	}
}

func (r *Reporter) writeStats(b *strings.Builder, stats *core.Stats) {
	if len(stats.Outputs) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Output", "Kind", "Size"})
		var total int
		for _, o := range stats.Outputs {
			t.AppendRow(table.Row{o.Name, string(o.Kind), humanize.Bytes(uint64(o.Bytes))}) //nolint:gosec // G115: sizes are non-negative
			total += o.Bytes
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d files", len(stats.Outputs)), "", humanize.Bytes(uint64(total))}) //nolint:gosec // G115: sizes are non-negative
		b.WriteString(t.Render())
		b.WriteString("\n")
	}
	if analysis := strings.TrimSpace(stats.Analysis); analysis != "" {
		b.WriteString(r.styles.Header.Render("Bundle analysis"))
		b.WriteString("\n")
		b.WriteString(r.styles.Muted.Render(analysis))
		b.WriteString("\n")
	}
}

func confirmation(res *core.Result) string {
	if res.Stats == nil {
		return "✓ Build succeeded"
	}
	name := res.Stats.Target
	if name == "" {
		name = "bundle"
	}
	return fmt.Sprintf("✓ %s built successfully in %s (%d %s)",
		name, res.Stats.Duration.Round(time.Millisecond), len(res.Stats.Outputs), plural(len(res.Stats.Outputs), "file", "files"))
}

// diagnosticLines prefers located diagnostics when they line up with the
// plain messages.
func diagnosticLines(texts []string, diags []core.Diagnostic) []string {
	if len(diags) == len(texts) {
		lines := make([]string, len(diags))
		for i, d := range diags {
			lines[i] = d.String()
		}
		return lines
	}
	return texts
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// jsonResult is the machine-readable form of a Result.
type jsonResult struct {
	Event      string        `json:"event"`
	Target     string        `json:"target,omitempty"`
	Outcome    core.Outcome  `json:"outcome"`
	Errors     []string      `json:"errors"`
	Warnings   []string      `json:"warnings"`
	DurationMS int64         `json:"duration_ms,omitempty"`
	Outputs    []core.Output `json:"outputs,omitempty"`
}

func (r *Reporter) formatJSON(res *core.Result) string {
	out := jsonResult{
		Event:    "pass",
		Outcome:  res.Outcome,
		Errors:   nonNil(res.Errors),
		Warnings: nonNil(res.Warnings),
	}
	if res.Stats != nil {
		out.Target = res.Stats.Target
		out.DurationMS = res.Stats.Duration.Milliseconds()
		out.Outputs = res.Stats.Outputs
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
