package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON. Scenario hashes, state
// hashes and verifier memo keys are all computed over this encoding.
//
// Compared with json.Marshal, object keys are sorted by UTF-16 code units,
// strings are NFC normalized, and <, >, &, U+2028 and U+2029 are written
// literally. Plain Go values are accepted through FromAny; floats are
// rejected.
func MarshalCanonical(v any) ([]byte, error) {
	val, ok := v.(IRValue)
	if !ok {
		if f, isFloat := v.(float64); isFloat {
			return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", f)
		}
		var err error
		if val, err = FromAny(v); err != nil {
			return nil, err
		}
	}
	var enc canonicalEncoder
	if err := enc.value(val); err != nil {
		return nil, err
	}
	return enc.buf.Bytes(), nil
}

type canonicalEncoder struct {
	buf bytes.Buffer
}

func (e *canonicalEncoder) value(v IRValue) error {
	switch val := v.(type) {
	case nil, IRNull:
		e.buf.WriteString("null")
	case IRBool:
		e.buf.WriteString(strconv.FormatBool(bool(val)))
	case IRInt:
		e.buf.WriteString(strconv.FormatInt(int64(val), 10))
	case IRString:
		return e.string(string(val))
	case IRArray:
		e.buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		e.buf.WriteByte(']')
	case IRObject:
		e.buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.string(k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			e.buf.WriteByte(':')
			if err := e.value(val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// string writes s NFC normalized. Only control characters, the quote and
// the backslash are escaped.
func (e *canonicalEncoder) string(s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	// Encode appends a newline.
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	e.buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes json.Encoder
// emits back into literal characters. A sequence preceded by an odd run of
// backslashes is text, not an escape, and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && data[i+1] == 'u' &&
			string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			run := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				run++
			}
			if run%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}
