package config

// Default configuration values.
const (
	DefaultEntry         = "src/index"
	DefaultTogetherName  = "bundle.js"
	DefaultSplitName     = "[name].bundle.js"
	DefaultScriptTest    = `\.(js|jsx|mjs|ts|tsx)$`
	DefaultExclude       = `node_modules`
	DefaultTransformer   = "esbuild"
	DefaultWatchDebounce = 100
)

// Names of the built-in targets.
const (
	TargetTogether    = "together"
	TargetVendor      = "vendor"
	TargetWatchVendor = "watch-vendor"
)

// DefaultRules returns the script transform applied by every built-in target.
func DefaultRules() []RuleDef {
	return []RuleDef{
		{
			Test:        DefaultScriptTest,
			Exclude:     DefaultExclude,
			Transformer: DefaultTransformer,
			Options:     map[string]any{"jsx": "transform"},
		},
	}
}

// DefaultAliases pins react to the project's own copy so that nested
// packages never pull in a second instance.
func DefaultAliases() map[string]string {
	return map[string]string{
		"react": "node_modules/react",
	}
}

// DefaultTargets returns the built-in target definitions. Each output
// directory is a distinct target; running "together" in watch mode reuses
// the same target rather than defining a second one on dist/together.
func DefaultTargets() map[string]TargetDef {
	return map[string]TargetDef{
		TargetTogether: {
			Entry:      DefaultEntry,
			OutputDir:  "dist/together",
			Filename:   DefaultTogetherName,
			Aliases:    DefaultAliases(),
			Rules:      DefaultRules(),
			Mode:       "development",
			SourceMap:  "none",
			Exec:       "once",
			Stats:      "verbose",
			DebounceMs: DefaultWatchDebounce,
		},
		TargetVendor: {
			Entry:         DefaultEntry,
			OutputDir:     "dist/vendor",
			Filename:      DefaultSplitName,
			Aliases:       DefaultAliases(),
			Rules:         DefaultRules(),
			Mode:          "development",
			SourceMap:     "inline",
			CodeSplitting: true,
			Exec:          "once",
			Stats:         "verbose",
		},
		TargetWatchVendor: {
			Entry:         DefaultEntry,
			OutputDir:     "dist/watch-vendor",
			Filename:      DefaultSplitName,
			Aliases:       DefaultAliases(),
			Rules:         DefaultRules(),
			Mode:          "development",
			SourceMap:     "inline",
			CodeSplitting: true,
			Exec:          "watch",
			DebounceMs:    DefaultWatchDebounce,
			Stats:         "verbose",
		},
	}
}
