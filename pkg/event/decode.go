package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"mercator-hq/beacon/pkg/errorchain"
)

// ErrNotAnObject is returned for payloads whose top level is not an object.
var ErrNotAnObject = errors.New("payload is not an object")

// Payload formats accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatOf picks the payload format from a file name; anything that is not
// .yaml or .yml is read as JSON.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses an error object captured by a host, for example
//
//	{"name": "Error", "message": "checkout failed",
//	 "cause": {"name": "java.io.IOException", "message": "disk full",
//	           "stackElements": [{"className": "com.example.Store", ...}]}}
//
// The top level becomes an errorchain.Object. Nested causes stay plain maps
// and are error-like as long as they carry an error property.
func Decode(data []byte, format string) (errorchain.Object, error) {
	var raw any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML payload: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported payload format %q", format)
	}

	m, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return errorchain.Object(m), nil
}
