package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// UnmarshalIRValue deserializes JSON into an IRValue with strict validation.
// Floats are rejected; null decodes to IRNull.
func UnmarshalIRValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return FromAny(raw)
}

// FromAny converts a decoded Go value into an IRValue.
//
// It accepts the shapes produced by encoding/json (with UseNumber),
// gopkg.in/yaml.v3 and the CUE JSON exporter: nil, bool, string, the
// integer kinds, json.Number, []any, map[string]any and existing IRValues.
// Floats are rejected unless they hold an exact integer.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case int:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("number out of int64 range: %d", val)
		}
		return IRInt(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in IR: %s", val)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", val)
		}
		return IRInt(n), nil
	case float64:
		// yaml.v3 decodes "1.0" as float64; only exact integers survive.
		if val != math.Trunc(val) || math.Abs(val) > 1<<53 {
			return nil, fmt.Errorf("floats are forbidden in IR: %v", val)
		}
		return IRInt(int64(val)), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ToAny converts an IRValue back into plain Go values (the inverse of FromAny).
func ToAny(v IRValue) any {
	switch val := v.(type) {
	case nil, IRNull:
		return nil
	case IRString:
		return string(val)
	case IRInt:
		return int64(val)
	case IRBool:
		return bool(val)
	case IRArray:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = ToAny(elem)
		}
		return out
	case IRObject:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = ToAny(elem)
		}
		return out
	default:
		return nil
	}
}

// Format renders a value as canonical JSON for diagnostics.
// Values that cannot be encoded render as "<invalid>".
func Format(v IRValue) string {
	b, err := MarshalCanonical(v)
	if err != nil {
		return "<invalid>"
	}
	return string(b)
}
