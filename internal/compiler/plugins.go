package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/leapstack-labs/leapbundle/internal/transform"
	"github.com/leapstack-labs/leapbundle/pkg/core"
)

const vendorNamespace = "leapbundle-vendor"

func exactFilter(name string) string {
	return "^" + regexp.QuoteMeta(name) + "$"
}

// entryPlugin resolves the virtual entry module to the configured entry
// file. Resolution happens per pass, so creating a compiler never touches
// the filesystem.
func entryPlugin(root, entry string) api.Plugin {
	return api.Plugin{
		Name: "leapbundle-entry",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: exactFilter(entryModule)},
				func(api.OnResolveArgs) (api.OnResolveResult, error) {
					path, err := resolveEntry(root, entry)
					if err != nil {
						return api.OnResolveResult{}, err
					}
					return api.OnResolveResult{Path: path}, nil
				})
		},
	}
}

// compiledRule is a TransformRule with its patterns compiled and its
// transformer looked up.
type compiledRule struct {
	filter      string
	exclude     *regexp.Regexp
	name        string
	transformer transform.Transformer
	options     map[string]any
}

func compileRules(rules []core.TransformRule, registry *transform.Registry) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if _, err := regexp.Compile(r.Test); err != nil {
			return nil, fmt.Errorf("invalid transform test %q: %w", r.Test, err)
		}
		cr := compiledRule{
			filter:  r.Test,
			name:    r.Transformer,
			options: r.Options,
		}
		if r.Exclude != "" {
			re, err := regexp.Compile(r.Exclude)
			if err != nil {
				return nil, fmt.Errorf("invalid transform exclude %q: %w", r.Exclude, err)
			}
			cr.exclude = re
		}
		t, ok := registry.Lookup(r.Transformer)
		if !ok {
			return nil, &transform.UnknownTransformerError{Name: r.Transformer, Available: registry.Names()}
		}
		cr.transformer = t
		out = append(out, cr)
	}
	return out, nil
}

// transformPlugin runs matching files through their rule's transformer.
// Callbacks are registered in rule order and the engine uses the first one
// that returns contents, so the first matching rule wins; excluded files
// fall through to the default loaders.
func transformPlugin(root string, rules []compiledRule, sourceMaps bool) api.Plugin {
	return api.Plugin{
		Name: "leapbundle-transform",
		Setup: func(build api.PluginBuild) {
			for _, rule := range rules {
				build.OnLoad(api.OnLoadOptions{Filter: rule.filter, Namespace: "file"},
					func(args api.OnLoadArgs) (api.OnLoadResult, error) {
						if rule.exclude != nil && rule.exclude.MatchString(filepath.ToSlash(args.Path)) {
							return api.OnLoadResult{}, nil
						}

						src, err := os.ReadFile(args.Path) //nolint:gosec // G304: path comes from the module graph
						if err != nil {
							return api.OnLoadResult{}, fmt.Errorf("failed to read %s: %w", args.Path, err)
						}

						out, err := rule.transformer.Transform(transform.Input{
							Path:      args.Path,
							Contents:  src,
							Options:   rule.options,
							SourceMap: sourceMaps,
						})
						file := displayPath(root, args.Path)
						if err != nil {
							var terr *transform.Error
							if errors.As(err, &terr) {
								return api.OnLoadResult{Errors: toEngineMessages(file, terr.Messages)}, nil
							}
							return api.OnLoadResult{}, err
						}

						contents := out.Contents
						return api.OnLoadResult{
							Contents:   &contents,
							Loader:     out.Loader,
							ResolveDir: filepath.Dir(args.Path),
							Warnings:   toEngineMessages(file, out.Warnings),
						}, nil
					})
			}
		},
	}
}

func toEngineMessages(file string, msgs []transform.Message) []api.Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]api.Message, len(msgs))
	for i, m := range msgs {
		out[i] = api.Message{Text: m.Text}
		if m.Line > 0 {
			out[i].Location = &api.Location{File: file, Line: m.Line, Column: m.Column}
		}
	}
	return out
}

// displayPath renders path relative to root when it lies inside it.
func displayPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// vendorSplitter produces the virtual vendor entry. Before every pass it
// bundles the application entry in memory, collects the node_modules
// modules imported from application code, and re-exports them from the
// vendor entry. Modules reachable from both entries end up in a shared
// chunk, which is the vendor bundle.
type vendorSplitter struct {
	root   string
	scan   api.BuildOptions
	logger *slog.Logger

	mu      sync.Mutex
	modules []string
}

// Modules returns the vendor modules found by the last scan, as
// project-relative paths.
func (v *vendorSplitter) Modules() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.modules...)
}

func (v *vendorSplitter) refresh() {
	result := api.Build(v.scan)
	if len(result.Errors) > 0 {
		// The real pass reports the same errors; keep the previous list.
		v.logger.Debug("vendor scan failed", "errors", len(result.Errors))
		return
	}
	meta, err := parseMetafile(result.Metafile)
	if err != nil {
		v.logger.Warn("failed to parse vendor scan metafile", "error", err)
		return
	}
	modules := meta.vendorImports()

	v.mu.Lock()
	v.modules = modules
	v.mu.Unlock()
	v.logger.Debug("vendor modules discovered", "count", len(modules))
}

func (v *vendorSplitter) entrySource() string {
	modules := v.Modules()
	if len(modules) == 0 {
		return "export {};\n"
	}
	var b strings.Builder
	for i, m := range modules {
		abs := filepath.ToSlash(filepath.Join(v.root, filepath.FromSlash(m)))
		quoted, _ := json.Marshal(abs)
		fmt.Fprintf(&b, "export * as v%d from %s;\n", i, quoted)
	}
	return b.String()
}

func (v *vendorSplitter) plugin() api.Plugin {
	return api.Plugin{
		Name: "leapbundle-vendor",
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				v.refresh()
				return api.OnStartResult{}, nil
			})
			build.OnResolve(api.OnResolveOptions{Filter: exactFilter(vendorModule)},
				func(api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: vendorChunk, Namespace: vendorNamespace}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: vendorNamespace},
				func(api.OnLoadArgs) (api.OnLoadResult, error) {
					contents := v.entrySource()
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: v.root,
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}
}
