package nvm

import "sync/atomic"

type node[T any] struct {
	value T
	next  *node[T]
}

type stackConfig struct {
	name  string
	flush bool
}

// StackOption configures a Stack.
type StackOption func(*stackConfig)

// WithName names the head cell. The default is "head".
func WithName(name string) StackOption {
	return func(c *stackConfig) { c.name = name }
}

// WithoutFlush builds a stack that never flushes its head, so completed
// operations can vanish at a crash. It exists to exhibit durability bugs.
func WithoutFlush() StackOption {
	return func(c *stackConfig) { c.flush = false }
}

// Stack is a lock-free Treiber stack whose head pointer lives in a durable
// cell. Nodes are immutable once published, so the head cell is the only
// durable state.
type Stack[T any] struct {
	head  *Cell[*node[T]]
	flush bool

	// size is volatile and rebuilt from the persisted head on recovery.
	size atomic.Int64
}

// NewStack creates an empty stack in r.
func NewStack[T any](r *Region, opts ...StackOption) *Stack[T] {
	cfg := stackConfig{name: "head", flush: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Stack[T]{
		head:  NewCell[*node[T]](r, cfg.name, nil),
		flush: cfg.flush,
	}
	r.OnRecover(s.recount)
	return s
}

// Push adds v on top. It retries until its CAS wins, then flushes the head.
func (s *Stack[T]) Push(v T) {
	for {
		head := s.head.Load()
		n := &node[T]{value: v, next: head}
		if s.head.CompareAndSet(head, n) {
			if s.flush {
				s.head.Flush()
			}
			s.size.Add(1)
			return
		}
	}
}

// Pop removes and returns the top value. ok is false when the stack is empty.
func (s *Stack[T]) Pop() (value T, ok bool) {
	for {
		head := s.head.Load()
		if head == nil {
			return value, false
		}
		if s.head.CompareAndSet(head, head.next) {
			if s.flush {
				s.head.Flush()
			}
			s.size.Add(-1)
			return head.value, true
		}
	}
}

// Len returns the cached number of items.
func (s *Stack[T]) Len() int {
	return int(s.size.Load())
}

// Snapshot returns the values from top to bottom.
func (s *Stack[T]) Snapshot() []T {
	var out []T
	for n := s.head.Load(); n != nil; n = n.next {
		out = append(out, n.value)
	}
	return out
}

func (s *Stack[T]) recount() {
	var n int64
	for p := s.head.Persisted(); p != nil; p = p.next {
		n++
	}
	s.size.Store(n)
}
