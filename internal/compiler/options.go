package compiler

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leapbundle/internal/transform"
	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// Virtual module names resolved by the compiler's own plugins.
const (
	entryModule  = "leapbundle:entry"
	vendorModule = "leapbundle:vendor"
)

// Chunk names substituted into the output filename pattern.
const (
	mainChunk    = "main"
	vendorChunk  = "vendor"
	vendorsChunk = "vendors-[hash]"
)

// buildOptions maps a Config onto esbuild options. Plugins are attached by
// the caller.
func buildOptions(cfg *core.Config, root, outDir string) (api.BuildOptions, error) {
	target, err := transform.ParseTarget(cfg.Target)
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts := api.BuildOptions{
		AbsWorkingDir: root,
		Bundle:        true,
		Write:         false, // outputs are written by the compiler after classification
		Metafile:      true,
		Alias:         relativeAliases(cfg.Aliases, root),
		External:      cfg.External,
		Platform:      platform(cfg.Platform),
		Target:        target,
		Sourcemap:     sourceMap(cfg.SourceMap),
		TreeShaking:   api.TreeShakingTrue,
		LogLevel:      api.LogLevelSilent,
		Define:        defines(cfg),
	}

	if cfg.Mode == core.ModeProduction {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	if cfg.CodeSplitting {
		opts.Format = api.FormatESModule
		opts.Splitting = true
		opts.Outdir = outDir
		opts.ChunkNames = stripJSExt(cfg.OutputName(vendorsChunk))
		if ext := filepath.Ext(cfg.OutputFilename); ext != "" && ext != ".js" {
			opts.OutExtension = map[string]string{".js": ext}
		}
		opts.EntryPointsAdvanced = []api.EntryPoint{
			{InputPath: entryModule, OutputPath: stripJSExt(cfg.OutputName(mainChunk))},
			{InputPath: vendorModule, OutputPath: stripJSExt(cfg.OutputName(vendorChunk))},
		}
	} else {
		opts.Format = api.FormatIIFE
		opts.Outfile = filepath.Join(outDir, cfg.OutputFilename)
		opts.EntryPointsAdvanced = []api.EntryPoint{{InputPath: entryModule}}
	}

	return opts, nil
}

// scanOptions derives the single-entry, in-memory build used to discover
// vendor modules before a split pass.
func scanOptions(opts api.BuildOptions) api.BuildOptions {
	scan := opts
	scan.Splitting = false
	scan.Sourcemap = api.SourceMapNone
	scan.MinifyWhitespace = false
	scan.MinifyIdentifiers = false
	scan.MinifySyntax = false
	scan.ChunkNames = ""
	scan.OutExtension = nil
	scan.EntryPointsAdvanced = []api.EntryPoint{{InputPath: entryModule, OutputPath: mainChunk}}
	scan.Plugins = nil
	return scan
}

func stripJSExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// relativeAliases rewrites alias targets as ./-relative paths, which the
// engine resolves from the working directory.
func relativeAliases(aliases map[string]string, root string) map[string]string {
	if len(aliases) == 0 {
		return nil
	}
	out := make(map[string]string, len(aliases))
	for module, path := range aliases {
		target := path
		if filepath.IsAbs(target) {
			if rel, err := filepath.Rel(root, target); err == nil {
				target = rel
			}
		}
		target = filepath.ToSlash(target)
		if !filepath.IsAbs(target) && !strings.HasPrefix(target, "./") && !strings.HasPrefix(target, "../") {
			target = "./" + target
		}
		out[module] = target
	}
	return out
}

func defines(cfg *core.Config) map[string]string {
	mode := cfg.Mode
	if mode == "" {
		mode = core.ModeDevelopment
	}
	out := map[string]string{
		"process.env.NODE_ENV": fmt.Sprintf("%q", string(mode)),
	}
	for k, v := range cfg.Define {
		out[k] = v
	}
	return out
}

func platform(p core.Platform) api.Platform {
	if p == core.PlatformNode {
		return api.PlatformNode
	}
	return api.PlatformBrowser
}

func sourceMap(m core.SourceMapMode) api.SourceMap {
	switch m {
	case core.SourceMapInline:
		return api.SourceMapInline
	case core.SourceMapExternal:
		// Linked keeps the sourceMappingURL comment so browsers find the .map file.
		return api.SourceMapLinked
	default:
		return api.SourceMapNone
	}
}
