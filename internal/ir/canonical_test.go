package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(42), "42"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool", IRBool(false), "false"},
		{"null", IRNull{}, "null"},
		{"nil", nil, "null"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"nested", IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRInt(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
		{"go types", map[string]any{"n": 1, "s": "x", "l": []any{true, nil}}, `{"l":[true,null],"n":1,"s":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRObject{"<k>": IRString("a & <b>")})
	require.NoError(t, err)
	assert.Equal(t, `{"<k>":"a & <b>"}`, string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	require.Error(t, err)

	_, err = MarshalCanonical([]any{1, float32(2)})
	require.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9.
	decomposed, err := MarshalCanonical(IRString("cafe\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(IRString("caf\u00e9"))
	require.NoError(t, err)
	assert.Equal(t, string(composed), string(decomposed))
}

func TestMarshalCanonicalU2028U2029(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"line separator", "a\u2028b", "\"a\u2028b\""},
		{"paragraph separator", "a\u2029b", "\"a\u2029b\""},
		{"literal escape text", `seq \u2028`, `"seq \\u2028"`},
		{"mixed", "lit \\u2028 real \u2028", "\"lit \\\\u2028 real \u2028\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	v := IRObject{"stack": IRArray{IRInt(3), IRInt(1)}, "top": IRInt(3)}
	first, err := MarshalCanonical(v)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(v)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
