package nvm

import "sync/atomic"

type box[T any] struct {
	v T
}

// Cell is a durable memory location holding a T.
//
// The cell is clean while its current and persisted values are the same
// write; Store and a successful CompareAndSet make it dirty, Flush makes it
// clean. All operations are safe for concurrent use.
type Cell[T comparable] struct {
	region    *Region
	name      string
	current   atomic.Pointer[box[T]]
	persisted atomic.Pointer[box[T]]
	seq       atomic.Uint64
}

// NewCell creates a clean cell in r holding initial. Cell names are unique
// within a region; a duplicate name panics.
func NewCell[T comparable](r *Region, name string, initial T) *Cell[T] {
	c := &Cell[T]{region: r, name: name}
	b := &box[T]{v: initial}
	c.current.Store(b)
	c.persisted.Store(b)
	r.register(c)
	return c
}

// Name returns the cell's name within its region.
func (c *Cell[T]) Name() string { return c.name }

// Load returns the current value.
func (c *Cell[T]) Load() T {
	return c.current.Load().v
}

// Store writes v without flushing it.
func (c *Cell[T]) Store(v T) {
	c.current.Store(&box[T]{v: v})
	c.seq.Store(c.region.nextWrite())
	c.region.hit(Point{Cell: c.name, Kind: AfterWrite})
}

// CompareAndSet atomically replaces the current value with update if it
// equals expect. It reports whether the swap happened.
func (c *Cell[T]) CompareAndSet(expect, update T) bool {
	next := &box[T]{v: update}
	for {
		cur := c.current.Load()
		if cur.v != expect {
			return false
		}
		if c.current.CompareAndSwap(cur, next) {
			c.seq.Store(c.region.nextWrite())
			c.region.hit(Point{Cell: c.name, Kind: AfterWrite})
			return true
		}
	}
}

// Flush persists the current value. Flush never blocks other threads.
func (c *Cell[T]) Flush() {
	c.region.hit(Point{Cell: c.name, Kind: BeforeFlush})
	c.persisted.Store(c.current.Load())
}

// Persisted returns the value a crash would revert to.
func (c *Cell[T]) Persisted() T {
	return c.persisted.Load().v
}

// IsDirty reports whether the cell holds an unflushed write.
func (c *Cell[T]) IsDirty() bool {
	return c.dirty()
}

func (c *Cell[T]) cellName() string  { return c.name }
func (c *Cell[T]) dirty() bool       { return c.current.Load() != c.persisted.Load() }
func (c *Cell[T]) lastWrite() uint64 { return c.seq.Load() }
func (c *Cell[T]) revert()           { c.current.Store(c.persisted.Load()) }
func (c *Cell[T]) persist()          { c.persisted.Store(c.current.Load()) }
