package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"emojiharvest/pkg/collector"

	"gopkg.in/yaml.v3"
)

// Format names an output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts json, yaml or yml, case-insensitively
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Encode serialises a result as a flat name to URL mapping with keys in
// sorted order. JSON output is indented by two spaces.
func Encode(result collector.ResultSet, format Format) ([]byte, error) {
	if result == nil {
		result = collector.ResultSet{}
	}

	var buf bytes.Buffer
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(map[string]string(result)); err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]string(result)); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to encode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return buf.Bytes(), nil
}

// Decode reads a result written by Encode
func Decode(data []byte, format Format) (collector.ResultSet, error) {
	out := collector.ResultSet{}
	var err error
	switch format {
	case FormatJSON, "":
		err = json.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", format, err)
	}
	return out, nil
}
