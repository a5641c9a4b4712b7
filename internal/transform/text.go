package transform

import (
	"encoding/json"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
)

// Text turns any file into a module whose default export is the file's
// contents as a string.
func Text(in Input) (Output, error) {
	quoted, err := json.Marshal(string(in.Contents))
	if err != nil {
		return Output{}, fmt.Errorf("text: failed to encode %s: %w", in.Path, err)
	}
	return Output{
		Contents: "export default " + string(quoted) + ";\n",
		Loader:   api.LoaderJS,
	}, nil
}
