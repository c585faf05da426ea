package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/ecobuild/internal/model"
)

// readProject decodes a project description from path, or from stdin when
// path is "-". Files ending in .yaml or .yml are read as YAML, everything
// else as JSON.
func readProject(path string, stdin io.Reader) (model.RawProjectInput, error) {
	var in model.RawProjectInput

	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return in, eris.Wrapf(err, "read project %s", path)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(r).Decode(&in); err != nil {
			return in, eris.Wrapf(err, "decode project %s", path)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&in); err != nil {
			return in, eris.Wrapf(err, "decode project %s", path)
		}
	}
	return in, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode output")
	}
	return nil
}
