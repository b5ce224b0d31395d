package execution

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/ir"
)

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		input string
		want  Outcome
	}{
		{"void", Void()},
		{"crashed", Crashed()},
		{"suspended", Suspended()},
		{"none", Suspended()},
		{"exception(NoSuchElementException)", Exception("NoSuchElementException")},
		{"null", Null()},
		{"5", Int(5)},
		{"true", Bool(true)},
		{"[1, 2]", Value(ir.IRArray{ir.IRInt(1), ir.IRInt(2)})},
		{"hello", Value(ir.IRString("hello"))},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutcome(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}

	_, err := ParseOutcome("1.5")
	require.Error(t, err)
}

func TestOutcomeEqual(t *testing.T) {
	assert.True(t, Null().Equal(Value(nil)))
	assert.True(t, Exception("E").Equal(Exception("E")))
	assert.False(t, Exception("E").Equal(Exception("F")))
	assert.False(t, Int(1).Equal(Void()))
	assert.False(t, Null().Equal(Suspended()))
	assert.True(t, Crashed().Equal(Crashed()))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "null", Null().String())
	assert.Equal(t, "void", Void().String())
	assert.Equal(t, "exception(E)", Exception("E").String())
	assert.Equal(t, `"s"`, Value(ir.IRString("s")).String())
	assert.Equal(t, "<unset>", Outcome{}.String())
}

func TestOutcomeYAMLRoundTrip(t *testing.T) {
	outcomes := []Outcome{
		Void(),
		Null(),
		Int(5),
		Crashed(),
		Suspended(),
		Exception("IllegalStateException"),
		Value(ir.IRString("void")),
		Value(ir.IRString("plain")),
		Value(ir.IRArray{ir.IRInt(1)}),
		Value(ir.IRObject{"k": ir.IRInt(1)}),
	}

	out, err := yaml.Marshal(outcomes)
	require.NoError(t, err)

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &doc))
	back, err := decodeLane(doc.Content[0])
	require.NoError(t, err)
	require.Len(t, back, len(outcomes))
	for i := range outcomes {
		assert.True(t, outcomes[i].Equal(back[i]), "index %d: %s vs %s", i, outcomes[i], back[i])
	}
}

func TestOutcomeYAMLMappingForms(t *testing.T) {
	var got []Outcome
	require.NoError(t, yaml.Unmarshal([]byte(`[{value: crashed}, {exception: Boom}, {value: null}]`), &got))
	assert.Equal(t, []Outcome{Value(ir.IRString("crashed")), Exception("Boom"), Null()}, got)
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	outcomes := []Outcome{Void(), Null(), Int(-3), Exception("E"), Value(ir.IRString("suspended"))}

	b, err := json.Marshal(outcomes)
	require.NoError(t, err)
	assert.Equal(t, `["void",null,-3,"exception(E)",{"value":"suspended"}]`, string(b))

	var back []Outcome
	require.NoError(t, json.Unmarshal(b, &back))
	for i := range outcomes {
		assert.True(t, outcomes[i].Equal(back[i]))
	}
}

func TestOutcomeToIR(t *testing.T) {
	assert.Equal(t, ir.IRObject{"kind": ir.IRString("value"), "value": ir.IRNull{}}, Value(nil).ToIR())
	assert.Equal(t, ir.IRObject{"kind": ir.IRString("exception"), "class": ir.IRString("E")}, Exception("E").ToIR())
}
