package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFiles writes files (path relative to root → contents) under root.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// SampleProject is a small application importing a local module and three
// third-party packages, with JSX in a plain .js file.
func SampleProject() map[string]string {
	return map[string]string{
		"src/index.js": `import React from 'react'
import ReactDOM from 'react-dom'
import { add } from './calc'
import { get } from 'lodash'

const result = get({ name: 'Joe' }, 'name')

const App = () => (
  <div>
    <span>2 + 5 = {add(2, 5)}</span>
    <span>Name is {result}</span>
  </div>
)

ReactDOM.render(<App />, document.getElementById('root'))
`,
		"src/calc.js": `export function add(a, b) {
  return a + b
}
`,
		"node_modules/react/package.json": `{"name": "react", "version": "0.0.0-test", "main": "index.js"}`,
		"node_modules/react/index.js": `export function createElement(type, props, ...children) {
  return { type, props: props || {}, children }
}
export default { createElement }
`,
		"node_modules/react-dom/package.json": `{"name": "react-dom", "version": "0.0.0-test", "main": "index.js"}`,
		"node_modules/react-dom/index.js": `export function render(el, container) {
  return container ? el : null
}
export default { render }
`,
		"node_modules/lodash/package.json": `{"name": "lodash", "version": "0.0.0-test", "main": "index.js"}`,
		"node_modules/lodash/index.js": `export function get(obj, key) {
  return obj == null ? undefined : obj[key]
}
`,
	}
}

// NewSampleProject writes SampleProject into a fresh temp dir and returns it.
func NewSampleProject(t testing.TB) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, SampleProject())
	return root
}
