// Package document loads the data document to be validated and extracts
// the fields echoed in the success report.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Document is a loaded data document.
type Document struct {
	Path  string
	Value any
	Size  int
}

// Summary holds the fields reported after a successful validation.
// Absent or mistyped fields leave the Has flags false.
type Summary struct {
	Name       string
	HasName    bool
	Version    string
	HasVersion bool
	Packages   int
}

// Load reads and decodes the document at path. Files with a .yaml or .yml
// extension are decoded as YAML; everything else as JSON.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var v any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		v, err = decodeYAML(data)
	default:
		v, err = jsonschema.UnmarshalJSON(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return &Document{Path: path, Value: v, Size: len(data)}, nil
}

// decodeYAML converts YAML to the same value shapes JSON decoding yields.
func decodeYAML(data []byte) (any, error) {
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(js))
}

// Summarize extracts name, version and the package count from v.
func Summarize(v any) Summary {
	var s Summary
	obj, ok := v.(map[string]any)
	if !ok {
		return s
	}
	s.Name, s.HasName = scalar(obj["name"])
	s.Version, s.HasVersion = scalar(obj["version"])
	if pkgs, ok := obj["packages"].([]any); ok {
		s.Packages = len(pkgs)
	}
	return s
}

// scalar renders a string or number field. Other types count as absent.
func scalar(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	}
	return "", false
}
