// Package nvm simulates byte-addressable persistent memory at the
// granularity of named cells.
//
// Every Cell keeps two values: the current one, visible to all threads,
// and the persisted one, which is what survives a crash. A write makes the
// cell dirty; Flush makes it clean again. Region.Crash decides, per
// CrashMode, which pending writes survive, and Region.Recover lets objects
// rebuild volatile caches from what persisted.
//
// Crashes are never asynchronous. A Strategy injects them by installing a
// probe with SetProbe and panicking with ErrInjectedCrash at the program
// point it wants to interrupt.
package nvm

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrInjectedCrash is the panic value a probe uses to interrupt the actor
// that hit it. The Strategy recovers it and crashes the region.
var ErrInjectedCrash = errors.New("nvm: injected crash")

// PointKind identifies an instrumentation point inside a cell operation.
type PointKind int

const (
	// AfterWrite fires after a store or successful CAS became visible.
	AfterWrite PointKind = iota + 1

	// BeforeFlush fires right before a flush persists the cell.
	BeforeFlush
)

func (k PointKind) String() string {
	switch k {
	case AfterWrite:
		return "after-write"
	case BeforeFlush:
		return "before-flush"
	default:
		return fmt.Sprintf("PointKind(%d)", int(k))
	}
}

// Point is passed to the probe at every instrumentation point.
type Point struct {
	Cell string
	Kind PointKind
}

// CrashReport describes one crash: the cells that were dirty and the
// subset that reverted to their persisted value.
type CrashReport struct {
	Mode  CrashMode
	Dirty []string
	Lost  []string
}

// durable is the type-erased view a region keeps of its cells.
type durable interface {
	cellName() string
	dirty() bool
	lastWrite() uint64
	revert()
	persist()
}

// Region owns a set of durable cells that crash together.
type Region struct {
	mu        sync.Mutex
	cells     []durable
	names     map[string]bool
	probe     atomic.Pointer[func(Point)]
	writes    atomic.Uint64
	onRecover []func()
	crashes   []CrashReport
}

// NewRegion returns an empty region.
func NewRegion() *Region {
	return &Region{names: make(map[string]bool)}
}

// SetProbe installs fn as the instrumentation hook. nil removes it.
func (r *Region) SetProbe(fn func(Point)) {
	if fn == nil {
		r.probe.Store(nil)
		return
	}
	r.probe.Store(&fn)
}

func (r *Region) hit(p Point) {
	if fn := r.probe.Load(); fn != nil {
		(*fn)(p)
	}
}

func (r *Region) register(c durable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.names[c.cellName()] {
		panic(fmt.Sprintf("nvm: duplicate cell name %q", c.cellName()))
	}
	r.names[c.cellName()] = true
	r.cells = append(r.cells, c)
}

func (r *Region) nextWrite() uint64 {
	return r.writes.Add(1)
}

// Cells lists the cell names in creation order.
func (r *Region) Cells() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.cellName()
	}
	return out
}

// Dirty lists the cells holding unflushed writes, in creation order.
func (r *Region) Dirty() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dirtyLocked()
}

func (r *Region) dirtyLocked() []string {
	var out []string
	for _, c := range r.cells {
		if c.dirty() {
			out = append(out, c.cellName())
		}
	}
	return out
}

// Crash simulates a power failure. Every dirty cell either keeps its
// pending value or reverts to its persisted one, as mode dictates; after the
// crash every cell is clean.
func (r *Region) Crash(mode CrashMode) CrashReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := CrashReport{Mode: mode, Dirty: r.dirtyLocked()}

	var dirty []durable
	for _, c := range r.cells {
		if c.dirty() {
			dirty = append(dirty, c)
		}
	}

	lost := make(map[durable]bool)
	switch mode {
	case ModeLoseAll:
		for _, c := range dirty {
			lost[c] = true
		}
	case ModeLoseLast:
		var last durable
		for _, c := range dirty {
			if last == nil || c.lastWrite() > last.lastWrite() {
				last = c
			}
		}
		if last != nil {
			lost[last] = true
		}
	}

	for _, c := range dirty {
		if lost[c] {
			c.revert()
			report.Lost = append(report.Lost, c.cellName())
		} else {
			c.persist()
		}
	}
	r.crashes = append(r.crashes, report)
	return report
}

// OnRecover registers fn to run on every Recover, in registration order.
func (r *Region) OnRecover(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRecover = append(r.onRecover, fn)
}

// Recover runs the recovery hooks. Hooks must derive everything they
// rebuild from cell values, which after a crash equal the persisted ones.
func (r *Region) Recover() {
	r.mu.Lock()
	hooks := slices.Clone(r.onRecover)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Crashes returns the reports of every crash so far.
func (r *Region) Crashes() []CrashReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.crashes)
}
