package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFromAnyYAMLShapes(t *testing.T) {
	var raw any
	require.NoError(t, yaml.Unmarshal([]byte(`{a: 1, b: [true, "x", null], c: 2.0}`), &raw))

	v, err := FromAny(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":[true,"x",null],"c":2}`, Format(v))
}

func TestFromAnyRejectsFractions(t *testing.T) {
	_, err := FromAny(2.5)
	require.Error(t, err)

	_, err = FromAny(json.Number("3.0"))
	require.Error(t, err)

	_, err = FromAny(struct{}{})
	require.Error(t, err)
}

func TestToAnyInverse(t *testing.T) {
	v := IRObject{"xs": IRArray{IRInt(1), IRNull{}}, "ok": IRBool(true)}
	back, err := FromAny(ToAny(v))
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, `null`, Format(IRNull{}))
	assert.Equal(t, `"a<b"`, Format(IRString("a<b")))
	assert.Equal(t, `[1,2]`, Format(IRArray{IRInt(1), IRInt(2)}))
}
