package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Enumerations
// =============================================================================

// Mode selects the optimization profile of a build.
type Mode string

// Build modes.
const (
	// ModeDevelopment keeps output readable and defines NODE_ENV=development.
	ModeDevelopment Mode = "development"
	// ModeProduction minifies output and defines NODE_ENV=production.
	ModeProduction Mode = "production"
)

// SourceMapMode selects how source maps are emitted.
type SourceMapMode string

// Source map modes.
const (
	// SourceMapNone emits no source map.
	SourceMapNone SourceMapMode = "none"
	// SourceMapInline appends a data URL source map to each output file.
	SourceMapInline SourceMapMode = "inline"
	// SourceMapExternal writes a .map file next to each output file.
	SourceMapExternal SourceMapMode = "external"
)

// StatsVerbosity controls how much detail a successful pass reports.
type StatsVerbosity string

// Stats verbosity levels.
const (
	StatsNormal  StatsVerbosity = "normal"
	StatsVerbose StatsVerbosity = "verbose"
)

// ExecMode is how a target is executed.
type ExecMode string

// Execution modes.
const (
	// ExecOnce runs a single pass and terminates.
	ExecOnce ExecMode = "once"
	// ExecWatch runs a pass on every debounced batch of file changes.
	ExecWatch ExecMode = "watch"
)

// Platform is the runtime the bundle is produced for.
type Platform string

// Supported platforms.
const (
	PlatformBrowser Platform = "browser"
	PlatformNode    Platform = "node"
)

// ParseMode converts a string to a Mode. The empty string maps to development.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDevelopment:
		return ModeDevelopment, nil
	case ModeProduction:
		return ModeProduction, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected development or production)", s)
}

// ParseSourceMapMode converts a string to a SourceMapMode. The empty string maps to none.
func ParseSourceMapMode(s string) (SourceMapMode, error) {
	switch SourceMapMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SourceMapNone:
		return SourceMapNone, nil
	case SourceMapInline:
		return SourceMapInline, nil
	case SourceMapExternal:
		return SourceMapExternal, nil
	}
	return "", fmt.Errorf("unknown source map mode %q (expected none, inline or external)", s)
}

// ParseStatsVerbosity converts a string to a StatsVerbosity. The empty string maps to normal.
func ParseStatsVerbosity(s string) (StatsVerbosity, error) {
	switch StatsVerbosity(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatsNormal:
		return StatsNormal, nil
	case StatsVerbose:
		return StatsVerbose, nil
	}
	return "", fmt.Errorf("unknown stats verbosity %q (expected normal or verbose)", s)
}

// ParseExecMode converts a string to an ExecMode. The empty string maps to once.
func ParseExecMode(s string) (ExecMode, error) {
	switch ExecMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ExecOnce:
		return ExecOnce, nil
	case ExecWatch:
		return ExecWatch, nil
	}
	return "", fmt.Errorf("unknown execution mode %q (expected once or watch)", s)
}

// =============================================================================
// Build configuration
// =============================================================================

// DefaultDebounceMs is the quiet period applied when WatchOptions.DebounceMs is zero.
const DefaultDebounceMs = 300

// NamePlaceholder is substituted with the chunk name in OutputFilename
// when code splitting is enabled.
const NamePlaceholder = "[name]"

// TransformRule applies a transformer to every loaded file whose path
// matches Test and does not match Exclude.
type TransformRule struct {
	// Test is a regular expression matched against the absolute file path.
	Test string
	// Exclude is an optional regular expression; matching files are left to
	// the compiler's default loaders.
	Exclude string
	// Transformer is the registered transformer name (e.g. "esbuild", "text").
	Transformer string
	// Options are passed to the transformer untouched.
	Options map[string]any
}

// WatchOptions configures watch mode.
type WatchOptions struct {
	// DebounceMs is the quiet period after a change before a pass starts.
	// Zero means DefaultDebounceMs.
	DebounceMs int
	// Paths are extra directories to watch, relative to the project root.
	// The entry module's directory is always watched.
	Paths []string
}

// Config describes one build target. It is pure data; nothing here touches
// the filesystem.
type Config struct {
	// Name is the target name, used for logging and reporting.
	Name string

	// ProjectRoot anchors every relative path below. Defaults to the CWD.
	ProjectRoot string

	// EntryPath is the entry module, relative to ProjectRoot. The extension
	// may be omitted (".js", ".jsx", ".mjs", ".ts", ".tsx" and index files
	// are tried). Required.
	EntryPath string

	// OutputDir receives all artifacts. Must be unique among active targets.
	OutputDir string

	// OutputFilename is the artifact name. With CodeSplitting, "[name]" is
	// replaced per output chunk; without it the name is used literally.
	OutputFilename string

	// Aliases redirect a module name to a filesystem path.
	Aliases map[string]string

	// TransformRules are applied in order; the first matching rule wins.
	TransformRules []TransformRule

	// Mode defaults to development.
	Mode Mode

	// SourceMap defaults to none.
	SourceMap SourceMapMode

	// CodeSplitting moves third-party modules into a separate vendor chunk.
	// Off by default.
	CodeSplitting bool

	// Watch holds watch mode settings; nil means defaults.
	Watch *WatchOptions

	// Stats defaults to normal. Verbose adds output statistics to every
	// successful report.
	Stats StatsVerbosity

	// FailOnBuildErrors makes build errors (e.g. unresolved imports) fatal
	// for the process exit code. Off by default.
	FailOnBuildErrors bool

	// Define replaces global identifiers with constant expressions.
	Define map[string]string

	// External module names are left as imports and never bundled.
	External []string

	// Platform defaults to browser.
	Platform Platform

	// Target is the language target (e.g. "es2017"); empty means esnext.
	Target string
}

// DebounceMs returns the effective watch debounce.
func (c *Config) DebounceMs() int {
	if c.Watch == nil || c.Watch.DebounceMs == 0 {
		return DefaultDebounceMs
	}
	return c.Watch.DebounceMs
}

// Verbose reports whether verbose statistics are requested.
func (c *Config) Verbose() bool {
	return c.Stats == StatsVerbose
}

// OutputName resolves the output file name for a chunk. Without code
// splitting the configured name is returned untouched.
func (c *Config) OutputName(chunk string) string {
	if !c.CodeSplitting {
		return c.OutputFilename
	}
	return strings.ReplaceAll(c.OutputFilename, NamePlaceholder, chunk)
}

// Target binds a Config to an execution mode.
type Target struct {
	Name   string
	Mode   ExecMode
	Config *Config
}
