package transform

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Esbuild transpiles TypeScript and JSX down to plain JavaScript.
//
// Options:
//   - jsx: "transform" (default), "automatic" or "preserve"
//   - jsxFactory, jsxFragment: classic runtime factory names
//   - jsxImportSource: module providing the automatic runtime
//   - target: language target such as "es2017"
type Esbuild struct{}

// Transform implements Transformer.
func (Esbuild) Transform(in Input) (Output, error) {
	jsx, err := jsxMode(stringOption(in.Options, "jsx"))
	if err != nil {
		return Output{}, err
	}
	target, err := ParseTarget(stringOption(in.Options, "target"))
	if err != nil {
		return Output{}, err
	}

	opts := api.TransformOptions{
		Loader:          sourceLoader(in.Path),
		Sourcefile:      in.Path,
		JSX:             jsx,
		JSXFactory:      stringOption(in.Options, "jsxFactory"),
		JSXFragment:     stringOption(in.Options, "jsxFragment"),
		JSXImportSource: stringOption(in.Options, "jsxImportSource"),
		Target:          target,
		Format:          api.FormatDefault,
		LogLevel:        api.LogLevelSilent,
	}
	if in.SourceMap {
		opts.Sourcemap = api.SourceMapInline
	}

	result := api.Transform(string(in.Contents), opts)
	if len(result.Errors) > 0 {
		return Output{}, &Error{
			Transformer: "esbuild",
			Path:        in.Path,
			Messages:    convertMessages(result.Errors),
		}
	}

	loader := api.LoaderJS
	if jsx == api.JSXPreserve {
		loader = api.LoaderJSX
	}
	return Output{
		Contents: string(result.Code),
		Loader:   loader,
		Warnings: convertMessages(result.Warnings),
	}, nil
}

// sourceLoader picks the parser for a file. Plain .js files may contain JSX.
func sourceLoader(path string) api.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return api.LoaderTS
	case ".tsx":
		return api.LoaderTSX
	default:
		return api.LoaderJSX
	}
}

func jsxMode(s string) (api.JSX, error) {
	switch strings.ToLower(s) {
	case "", "transform", "classic":
		return api.JSXTransform, nil
	case "automatic":
		return api.JSXAutomatic, nil
	case "preserve":
		return api.JSXPreserve, nil
	}
	return api.JSXTransform, fmt.Errorf("unknown jsx mode %q (expected transform, automatic or preserve)", s)
}

// ParseTarget converts a language target name to the engine's constant.
// The empty string maps to esnext.
func ParseTarget(s string) (api.Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "esnext":
		return api.ESNext, nil
	case "es5":
		return api.ES5, nil
	case "es2015", "es6":
		return api.ES2015, nil
	case "es2016":
		return api.ES2016, nil
	case "es2017":
		return api.ES2017, nil
	case "es2018":
		return api.ES2018, nil
	case "es2019":
		return api.ES2019, nil
	case "es2020":
		return api.ES2020, nil
	case "es2021":
		return api.ES2021, nil
	case "es2022":
		return api.ES2022, nil
	}
	return api.ESNext, fmt.Errorf("unknown language target %q", s)
}

func convertMessages(msgs []api.Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = Message{Text: m.Text}
		if m.Location != nil {
			out[i].Line = m.Location.Line
			out[i].Column = m.Location.Column
		}
	}
	return out
}
