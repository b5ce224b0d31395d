package execution

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/schema"
)

// Load reads a result document (YAML or JSON, which YAML subsumes).
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read result file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse validates a result document against the #Result schema and decodes it.
func Parse(data []byte) (*Result, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := schema.Validate(schema.KindResult, raw); err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	var r Result
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &r, nil
}

// Write encodes the result as YAML.
func Write(w io.Writer, r *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return enc.Close()
}

// Save writes the result to path as YAML.
func Save(path string, r *Result) error {
	var buf bytes.Buffer
	if err := Write(&buf, r); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}
	return nil
}
