package seqspec

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

// Set is a set of values, e.g. the indices of a bit vector.
//
//	add(k)      -> bool, true if k was absent
//	remove(k)   -> bool, true if k was present
//	contains(k) -> bool
type Set struct {
	members map[string]ir.IRValue
}

// NewSet returns an empty set.
func NewSet() Spec {
	return &Set{members: make(map[string]ir.IRValue)}
}

func (s *Set) Apply(op string, args []ir.IRValue) (execution.Outcome, error) {
	if op != "add" && op != "remove" && op != "contains" {
		return execution.Outcome{}, unknownOp("set", op)
	}
	if err := arity("set", op, args, 1); err != nil {
		return execution.Outcome{}, err
	}

	key := ir.Format(args[0])
	_, present := s.members[key]
	switch op {
	case "add":
		if !present {
			s.members[key] = args[0]
		}
		return execution.Bool(!present), nil
	case "remove":
		delete(s.members, key)
		return execution.Bool(present), nil
	default:
		return execution.Bool(present), nil
	}
}

// Snapshot lists members ordered by their canonical encoding.
func (s *Set) Snapshot() ir.IRValue {
	keys := maps.Keys(s.members)
	slices.Sort(keys)
	out := make(ir.IRArray, len(keys))
	for i, k := range keys {
		out[i] = s.members[k]
	}
	return out
}

func (s *Set) Clone() Spec {
	return &Set{members: maps.Clone(s.members)}
}
