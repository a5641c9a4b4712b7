package compiler

import (
	"fmt"
	"os"
	"path/filepath"
)

// entryExtensions are tried, in order, when the entry path has no extension.
var entryExtensions = []string{".js", ".jsx", ".mjs", ".ts", ".tsx"}

// resolveEntry finds the entry module on disk. The path is taken relative to
// root and may omit its extension or name a directory holding an index file.
func resolveEntry(root, entry string) (string, error) {
	base := entry
	if !filepath.IsAbs(base) {
		base = filepath.Join(root, entry)
	}

	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return base, nil
	}
	for _, ext := range entryExtensions {
		candidate := base + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	for _, ext := range entryExtensions {
		candidate := filepath.Join(base, "index"+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("entry module %q not found in %s", entry, root)
}

// openEntry resolves the entry module and confirms it can be read, so an
// unreadable entry fails the pass before the engine runs.
func openEntry(root, entry string) (string, error) {
	path, err := resolveEntry(root, entry)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("entry module %q is not readable: %w", entry, err)
	}
	return path, f.Close()
}
