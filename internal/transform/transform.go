// Package transform provides the per-file transform pipeline applied by
// transform rules before a module reaches the bundler.
package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
)

// Input is a source module handed to a transformer.
type Input struct {
	// Path is the absolute file path.
	Path     string
	Contents []byte
	// Options are the rule's transformer options.
	Options map[string]any
	// SourceMap requests an inline source map in the transformed code.
	SourceMap bool
}

// Output is transformed code plus the loader the bundler should parse it with.
type Output struct {
	Contents string
	Loader   api.Loader
	Warnings []Message
}

// Message is a transformer diagnostic. Line is 1-based, Column 0-based.
type Message struct {
	Text   string
	Line   int
	Column int
}

// Error is returned when a transformer rejects a module. Its messages are
// reported verbatim in the pass result.
type Error struct {
	Transformer string
	Path        string
	Messages    []Message
}

func (e *Error) Error() string {
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.Text
	}
	return fmt.Sprintf("%s: %s", e.Transformer, strings.Join(texts, "; "))
}

// Transformer converts one source module.
type Transformer interface {
	Transform(in Input) (Output, error)
}

// Func adapts a function to the Transformer interface.
type Func func(in Input) (Output, error)

// Transform calls f.
func (f Func) Transform(in Input) (Output, error) {
	return f(in)
}

// Registry maps transformer names to implementations.
type Registry struct {
	mu           sync.RWMutex
	transformers map[string]Transformer
}

// NewRegistry returns a registry holding the built-in transformers.
func NewRegistry() *Registry {
	r := &Registry{transformers: make(map[string]Transformer)}
	r.Register("esbuild", Esbuild{})
	r.Register("text", Func(Text))
	return r
}

// Register adds or replaces a transformer.
func (r *Registry) Register(name string, t Transformer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transformers[name] = t
}

// Lookup returns the transformer registered under name.
func (r *Registry) Lookup(name string) (Transformer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transformers[name]
	return t, ok
}

// Names returns the registered transformer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transformers))
	for name := range r.transformers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownTransformerError is returned when a rule names a transformer that
// is not registered.
type UnknownTransformerError struct {
	Name      string
	Available []string
}

func (e *UnknownTransformerError) Error() string {
	return fmt.Sprintf("unknown transformer %q\nAvailable transformers: %v", e.Name, e.Available)
}

// stringOption reads a string option, accepting any fmt-able value.
func stringOption(opts map[string]any, key string) string {
	v, ok := opts[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
