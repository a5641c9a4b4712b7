package compiler

import (
	"encoding/json"
	"sort"
	"strings"
)

// metafile mirrors the parts of the esbuild metafile JSON we read.
type metafile struct {
	Inputs  map[string]metafileInput  `json:"inputs"`
	Outputs map[string]metafileOutput `json:"outputs"`
}

type metafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []metafileImport `json:"imports"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

type metafileOutput struct {
	Bytes      int      `json:"bytes"`
	Imports    []any    `json:"imports"`
	Exports    []string `json:"exports"`
	EntryPoint string   `json:"entryPoint,omitempty"`
}

func parseMetafile(raw string) (*metafile, error) {
	if raw == "" {
		return &metafile{}, nil
	}
	var m metafile
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// isVendorPath reports whether a metafile path points into node_modules.
func isVendorPath(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.HasPrefix(p, "node_modules/") || strings.Contains(p, "/node_modules/")
}

// vendorImports returns the node_modules modules imported directly from
// application code, as metafile paths, sorted and de-duplicated.
func (m *metafile) vendorImports() []string {
	seen := make(map[string]struct{})
	for path, input := range m.Inputs {
		if isVendorPath(path) {
			continue
		}
		for _, imp := range input.Imports {
			if imp.External || !isVendorPath(imp.Path) {
				continue
			}
			seen[imp.Path] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
