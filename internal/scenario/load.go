package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/schema"
)

// Load reads a scenario from a .yaml, .yml or .cue file.
//
// The document is checked against the embedded #Scenario schema before it
// is decoded, then the construction invariants are enforced. A missing
// name defaults to the file's base name without extension.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("failed to read scenario file: %w", err)}
	}

	var s *Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		s, err = ParseCUE(data, filepath.Base(path))
	case ".yaml", ".yml":
		s, err = ParseYAML(data)
	default:
		err = fmt.Errorf("unsupported scenario file extension %q", filepath.Ext(path))
	}
	if err != nil {
		if IsInvariantError(err) {
			return nil, err
		}
		return nil, &LoadError{Path: path, Err: err}
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// ParseYAML decodes and validates a YAML scenario document.
func ParseYAML(data []byte) (*Scenario, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := schema.Validate(schema.KindScenario, raw); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	// Strict decode (catches typos the schema would also reject, with line numbers)
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseCUE compiles a CUE scenario document and validates it.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	exported, err := schema.Compile(schema.KindScenario, data, filename)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var s Scenario
	dec := json.NewDecoder(bytes.NewReader(exported))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
