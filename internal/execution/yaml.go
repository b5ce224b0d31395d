package execution

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the phase lanes node by node. yaml.v3 skips custom
// unmarshalers for null nodes, so a lane entry of null would otherwise come
// back unset instead of as the null value.
func (r *Result) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: result must be a mapping", node.Line)
	}
	var out Result
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "init":
			out.Init, err = decodeLane(val)
		case "post":
			out.Post, err = decodeLane(val)
		case "parallel":
			out.Parallel, err = decodeLanes(val)
		case "crashes":
			err = decodeStrict(val, &out.Crashes)
		case "hung":
			err = val.Decode(&out.Hung)
		case "timing":
			out.Timing = &Timing{}
			err = decodeStrict(val, out.Timing)
		default:
			err = fmt.Errorf("line %d: field %s not found in result", key.Line, key.Value)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key.Value, err)
		}
	}
	*r = out
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// decodeLane decodes one sequence of outcomes. A null entry is the null
// value; a null lane is empty.
func decodeLane(n *yaml.Node) ([]Outcome, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: want a sequence of outcomes", n.Line)
	}
	lane := make([]Outcome, 0, len(n.Content))
	for _, item := range n.Content {
		if isNull(item) {
			lane = append(lane, Null())
			continue
		}
		var o Outcome
		if err := item.Decode(&o); err != nil {
			return nil, err
		}
		lane = append(lane, o)
	}
	return lane, nil
}

func decodeLanes(n *yaml.Node) ([][]Outcome, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: want a sequence of lanes", n.Line)
	}
	lanes := make([][]Outcome, 0, len(n.Content))
	for t, item := range n.Content {
		lane, err := decodeLane(item)
		if err != nil {
			return nil, fmt.Errorf("lane %d: %w", t, err)
		}
		lanes = append(lanes, lane)
	}
	return lanes, nil
}

// decodeStrict decodes n into out rejecting unknown fields, which
// Node.Decode does not do on its own.
func decodeStrict(n *yaml.Node, out any) error {
	data, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}
