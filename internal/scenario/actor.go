package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/durlin/internal/ir"
)

// Actor is one operation invocation run against the system under test.
type Actor struct {
	// Name is the operation name, e.g. "push".
	Name string

	// Args are the ordered arguments.
	Args []ir.IRValue

	// Suspendable marks an operation that may park until another actor
	// resumes it.
	Suspendable bool
}

// NewActor builds a non-suspendable actor from plain Go arguments.
// It panics if an argument cannot be represented as an IRValue.
func NewActor(name string, args ...any) Actor {
	a := Actor{Name: name}
	for _, arg := range args {
		v, err := ir.FromAny(arg)
		if err != nil {
			panic(fmt.Sprintf("scenario.NewActor(%s): %v", name, err))
		}
		a.Args = append(a.Args, v)
	}
	return a
}

// Suspending returns a copy of the actor marked suspendable.
func (a Actor) Suspending() Actor {
	a.Suspendable = true
	return a
}

// String renders the actor as "name(arg, arg)".
func (a Actor) String() string {
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = ir.Format(arg)
	}
	return a.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ToIR returns the actor as a canonical IR object.
func (a Actor) ToIR() ir.IRObject {
	args := make(ir.IRArray, len(a.Args))
	copy(args, a.Args)
	return ir.IRObject{
		"name":        ir.IRString(a.Name),
		"args":        args,
		"suspendable": ir.IRBool(a.Suspendable),
	}
}

var (
	compactActor = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)
	operationRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ParseActor parses the compact form "push(1)" or "put(\"k\", [1, 2])".
// Arguments are read as a YAML flow sequence, so bare words become strings.
func ParseActor(s string) (Actor, error) {
	m := compactActor.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Actor{}, fmt.Errorf("invalid actor %q: want name(args...)", s)
	}

	a := Actor{Name: m[1]}
	inner := strings.TrimSpace(m[2])
	if inner == "" {
		return a, nil
	}

	var raw []any
	if err := yaml.Unmarshal([]byte("["+inner+"]"), &raw); err != nil {
		return Actor{}, fmt.Errorf("invalid arguments in %q: %w", s, err)
	}
	for i, r := range raw {
		v, err := ir.FromAny(r)
		if err != nil {
			return Actor{}, fmt.Errorf("actor %q arg %d: %w", s, i, err)
		}
		a.Args = append(a.Args, v)
	}
	return a, nil
}

// actorDoc is the structured file form of an actor.
type actorDoc struct {
	Op          string `yaml:"op" json:"op"`
	Args        []any  `yaml:"args,omitempty" json:"args,omitempty"`
	Suspendable bool   `yaml:"suspendable,omitempty" json:"suspendable,omitempty"`
}

func (d actorDoc) actor() (Actor, error) {
	if !operationRe.MatchString(d.Op) {
		return Actor{}, fmt.Errorf("invalid operation name %q", d.Op)
	}
	a := Actor{Name: d.Op, Suspendable: d.Suspendable}
	for i, r := range d.Args {
		v, err := ir.FromAny(r)
		if err != nil {
			return Actor{}, fmt.Errorf("actor %s arg %d: %w", d.Op, i, err)
		}
		a.Args = append(a.Args, v)
	}
	return a, nil
}

// UnmarshalYAML accepts either the compact string or the structured mapping.
func (a *Actor) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		parsed, err := ParseActor(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*a = parsed
		return nil
	}

	var doc actorDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}
	parsed, err := doc.actor()
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*a = parsed
	return nil
}

// MarshalYAML emits the compact form unless the actor is suspendable.
func (a Actor) MarshalYAML() (any, error) {
	if !a.Suspendable {
		return a.String(), nil
	}
	return a.doc(), nil
}

// UnmarshalJSON mirrors UnmarshalYAML for JSON exported from CUE.
func (a *Actor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseActor(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	var doc actorDoc
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	parsed, err := doc.actor()
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON always emits the structured form.
func (a Actor) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.doc())
}

func (a Actor) doc() actorDoc {
	d := actorDoc{Op: a.Name, Suspendable: a.Suspendable}
	for _, arg := range a.Args {
		d.Args = append(d.Args, ir.ToAny(arg))
	}
	return d
}
