package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// IRValue is a sealed interface over the values an actor can take as an
// argument or produce as a result, and that a sequential specification
// reports as its state snapshot.
//
// Only IRNull, IRString, IRInt, IRBool, IRArray and IRObject implement it.
// There is no float type: floats break the determinism of hashes.
type IRValue interface {
	irValue()
}

// IRNull is the absent value. pop on an empty stack returns IRNull.
type IRNull struct{}

// IRString is a string value.
type IRString string

// IRInt is an integer value, always int64.
type IRInt int64

// IRBool is a boolean value.
type IRBool bool

// IRArray is an ordered list of values.
type IRArray []IRValue

// IRObject maps string keys to values. Iterate with SortedKeys.
type IRObject map[string]IRValue

func (IRNull) irValue()   {}
func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// SortedKeys returns the keys in RFC 8785 order, comparing UTF-16 code
// units rather than bytes.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// Equal reports whether a and b have the same canonical encoding without
// building it. A nil IRValue equals IRNull.
func Equal(a, b IRValue) bool {
	if a == nil {
		a = IRNull{}
	}
	if b == nil {
		b = IRNull{}
	}
	switch x := a.(type) {
	case IRArray:
		y, ok := b.(IRArray)
		return ok && slices.EqualFunc(x, y, Equal)
	case IRObject:
		y, ok := b.(IRObject)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, found := y[k]
			if !found || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case IRString:
		y, ok := b.(IRString)
		return ok && norm.NFC.String(string(x)) == norm.NFC.String(string(y))
	case IRNull, IRInt, IRBool:
		return a == b
	default:
		return false
	}
}

// MarshalJSON emits null.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON emits the canonical encoding, so keys come out sorted.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(obj)
}

// MarshalJSON emits the canonical encoding.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(arr)
}

// UnmarshalJSON decodes an object, rejecting floats.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	o, ok := v.(IRObject)
	if !ok {
		return fmt.Errorf("want JSON object, got %s", Format(v))
	}
	*obj = o
	return nil
}

// UnmarshalJSON decodes an array, rejecting floats.
func (arr *IRArray) UnmarshalJSON(data []byte) error {
	v, err := UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	a, ok := v.(IRArray)
	if !ok {
		return fmt.Errorf("want JSON array, got %s", Format(v))
	}
	*arr = a
	return nil
}

var (
	_ json.Marshaler   = IRObject(nil)
	_ json.Marshaler   = IRArray(nil)
	_ json.Unmarshaler = (*IRObject)(nil)
	_ json.Unmarshaler = (*IRArray)(nil)
)
