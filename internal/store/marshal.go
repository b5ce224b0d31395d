package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/durlin/internal/ir"
	"github.com/roach88/durlin/internal/scenario"
)

// marshalScenario converts a scenario to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so the body matches the scenario hash input.
func marshalScenario(sc *scenario.Scenario) (string, error) {
	data, err := ir.MarshalCanonical(sc.ToIR())
	if err != nil {
		return "", fmt.Errorf("marshal scenario: %w", err)
	}
	return string(data), nil
}

// marshalCut stores a crash cut as a canonical JSON array.
func marshalCut(cut []int) (string, error) {
	arr := make(ir.IRArray, len(cut))
	for i, n := range cut {
		arr[i] = ir.IRInt(n)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal cut: %w", err)
	}
	return string(data), nil
}

// marshalCells stores cell names as a canonical JSON array. Nil becomes [].
func marshalCells(cells []string) (string, error) {
	arr := make(ir.IRArray, len(cells))
	for i, c := range cells {
		arr[i] = ir.IRString(c)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal cells: %w", err)
	}
	return string(data), nil
}

func unmarshalCut(data string) ([]int, error) {
	cut := []int{}
	if err := json.Unmarshal([]byte(data), &cut); err != nil {
		return nil, fmt.Errorf("unmarshal cut: %w", err)
	}
	return cut, nil
}

// unmarshalCells returns nil for an empty array, matching CrashEvent's
// omitempty fields.
func unmarshalCells(data string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, fmt.Errorf("unmarshal cells: %w", err)
	}
	if len(cells) == 0 {
		return nil, nil
	}
	return cells, nil
}
