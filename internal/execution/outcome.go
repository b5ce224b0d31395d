package execution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/ir"
)

// Kind classifies how an actor finished.
type Kind string

const (
	// KindValue: the actor returned a value (possibly null).
	KindValue Kind = "value"

	// KindVoid: the actor returned normally without a value.
	KindVoid Kind = "void"

	// KindException: the actor failed with a classified error.
	KindException Kind = "exception"

	// KindNoResult: the actor suspended and was never resumed.
	KindNoResult Kind = "suspended"

	// KindCrashed: a crash interrupted the actor before it returned.
	KindCrashed Kind = "crashed"
)

// Outcome is the recorded (or expected) result of one actor.
type Outcome struct {
	Kind Kind

	// Value is set for KindValue. A nil Value is treated as IRNull.
	Value ir.IRValue

	// Class names the error for KindException.
	Class string
}

// Value returns a value outcome.
func Value(v ir.IRValue) Outcome {
	if v == nil {
		v = ir.IRNull{}
	}
	return Outcome{Kind: KindValue, Value: v}
}

// Null returns the value outcome for "nothing to return".
func Null() Outcome {
	return Value(ir.IRNull{})
}

// Int returns a value outcome holding an integer.
func Int(n int64) Outcome {
	return Value(ir.IRInt(n))
}

// Bool returns a value outcome holding a boolean.
func Bool(b bool) Outcome {
	return Value(ir.IRBool(b))
}

// Void returns the outcome of an actor without a return value.
func Void() Outcome {
	return Outcome{Kind: KindVoid}
}

// Exception returns an exception outcome with the given class.
func Exception(class string) Outcome {
	return Outcome{Kind: KindException, Class: class}
}

// Suspended returns the "no result" outcome of a parked actor.
func Suspended() Outcome {
	return Outcome{Kind: KindNoResult}
}

// Crashed returns the outcome of an actor interrupted by a crash.
func Crashed() Outcome {
	return Outcome{Kind: KindCrashed}
}

// Equal reports whether two outcomes are indistinguishable.
func (o Outcome) Equal(other Outcome) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case KindValue:
		return ir.Equal(o.Value, other.Value)
	case KindException:
		return o.Class == other.Class
	default:
		return true
	}
}

// String renders the outcome as it appears in result files.
func (o Outcome) String() string {
	switch o.Kind {
	case KindValue:
		return ir.Format(o.Value)
	case KindException:
		return "exception(" + o.Class + ")"
	case "":
		return "<unset>"
	default:
		return string(o.Kind)
	}
}

// ToIR returns the outcome as an IR object, used for canonical storage.
func (o Outcome) ToIR() ir.IRObject {
	obj := ir.IRObject{"kind": ir.IRString(o.Kind)}
	switch o.Kind {
	case KindValue:
		v := o.Value
		if v == nil {
			v = ir.IRNull{}
		}
		obj["value"] = v
	case KindException:
		obj["class"] = ir.IRString(o.Class)
	}
	return obj
}

var exceptionForm = regexp.MustCompile(`^exception\(([^()]+)\)$`)

// parseKeyword maps the reserved scalar spellings to outcomes.
func parseKeyword(s string) (Outcome, bool) {
	switch s {
	case "void":
		return Void(), true
	case "crashed":
		return Crashed(), true
	case "suspended", "none":
		return Suspended(), true
	}
	if m := exceptionForm.FindStringSubmatch(s); m != nil {
		return Exception(m[1]), true
	}
	return Outcome{}, false
}

// ParseOutcome parses the textual form used in result files and on the
// command line. Reserved words ("void", "crashed", "suspended",
// "exception(Class)") take precedence; anything else is read as a YAML
// scalar value, so "null", "5" and "true" are values.
func ParseOutcome(s string) (Outcome, error) {
	if o, ok := parseKeyword(s); ok {
		return o, nil
	}
	var raw any
	if err := yaml.Unmarshal([]byte(s), &raw); err != nil {
		return Outcome{}, fmt.Errorf("invalid outcome %q: %w", s, err)
	}
	v, err := ir.FromAny(raw)
	if err != nil {
		return Outcome{}, fmt.Errorf("invalid outcome %q: %w", s, err)
	}
	return Value(v), nil
}

// outcomeDoc is the explicit mapping form: {value: X} or {exception: Class}.
type outcomeDoc struct {
	Value     any     `yaml:"value" json:"value"`
	Exception *string `yaml:"exception,omitempty" json:"exception,omitempty"`
}

// UnmarshalYAML accepts reserved scalars, plain values and the mapping forms.
// A string result that collides with a reserved word must use {value: "void"}.
func (o *Outcome) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!str" {
			if kw, ok := parseKeyword(node.Value); ok {
				*o = kw
				return nil
			}
		}
		var raw any
		if err := node.Decode(&raw); err != nil {
			return err
		}
		v, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*o = Value(v)
		return nil

	case yaml.MappingNode:
		var doc outcomeDoc
		if err := node.Decode(&doc); err != nil {
			return err
		}
		return o.fromDoc(doc)

	default:
		var raw any
		if err := node.Decode(&raw); err != nil {
			return err
		}
		v, err := ir.FromAny(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*o = Value(v)
		return nil
	}
}

func (o *Outcome) fromDoc(doc outcomeDoc) error {
	if doc.Exception != nil {
		if *doc.Exception == "" {
			return fmt.Errorf("exception outcome needs a class")
		}
		*o = Exception(*doc.Exception)
		return nil
	}
	v, err := ir.FromAny(doc.Value)
	if err != nil {
		return err
	}
	*o = Value(v)
	return nil
}

// MarshalYAML emits the shortest form that reads back unambiguously.
func (o Outcome) MarshalYAML() (any, error) {
	switch o.Kind {
	case KindValue:
		if s, ok := o.Value.(ir.IRString); ok {
			if _, reserved := parseKeyword(string(s)); reserved {
				return map[string]any{"value": string(s)}, nil
			}
		}
		if _, isObj := o.Value.(ir.IRObject); isObj {
			return map[string]any{"value": ir.ToAny(o.Value)}, nil
		}
		return ir.ToAny(o.Value), nil
	case "":
		return nil, fmt.Errorf("cannot marshal unset outcome")
	default:
		return o.String(), nil
	}
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON documents.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if kw, ok := parseKeyword(s); ok {
			*o = kw
			return nil
		}
		*o = Value(ir.IRString(s))
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		var doc outcomeDoc
		if err := dec.Decode(&doc); err != nil {
			return err
		}
		return o.fromDoc(doc)
	}
	v, err := ir.UnmarshalIRValue(data)
	if err != nil {
		return err
	}
	*o = Value(v)
	return nil
}

// MarshalJSON uses the same shapes as MarshalYAML.
func (o Outcome) MarshalJSON() ([]byte, error) {
	v, err := o.MarshalYAML()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
