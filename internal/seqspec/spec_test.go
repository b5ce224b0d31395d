package seqspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/durlin/internal/execution"
	"github.com/roach88/durlin/internal/ir"
)

type step struct {
	op   string
	args []ir.IRValue
	want execution.Outcome
}

func run(t *testing.T, s Spec, steps []step) {
	t.Helper()
	for i, st := range steps {
		got, err := s.Apply(st.op, st.args)
		require.NoError(t, err, "step %d %s", i, st.op)
		assert.True(t, st.want.Equal(got), "step %d %s: want %s, got %s", i, st.op, st.want, got)
	}
}

func args(vs ...int64) []ir.IRValue {
	out := make([]ir.IRValue, len(vs))
	for i, v := range vs {
		out[i] = ir.IRInt(v)
	}
	return out
}

func TestStack(t *testing.T) {
	s := NewStack()
	run(t, s, []step{
		{"pop", nil, execution.Null()},
		{"push", args(1), execution.Void()},
		{"push", args(2), execution.Void()},
		{"peek", nil, execution.Int(2)},
		{"size", nil, execution.Int(2)},
		{"pop", nil, execution.Int(2)},
		{"pop", nil, execution.Int(1)},
		{"pop", nil, execution.Null()},
	})
}

func TestStackSnapshotBottomToTop(t *testing.T) {
	s := NewStack()
	run(t, s, []step{{"push", args(1), execution.Void()}, {"push", args(2), execution.Void()}})
	assert.Equal(t, `[1,2]`, ir.Format(s.Snapshot()))
}

func TestQueue(t *testing.T) {
	q := NewQueue()
	run(t, q, []step{
		{"remove", nil, execution.Exception("NoSuchElementException")},
		{"dequeue", nil, execution.Null()},
		{"enqueue", args(1), execution.Void()},
		{"enqueue", args(2), execution.Void()},
		{"peek", nil, execution.Int(1)},
		{"remove", nil, execution.Int(1)},
		{"dequeue", nil, execution.Int(2)},
	})
}

func TestRegister(t *testing.T) {
	r := NewRegister()
	run(t, r, []step{
		{"read", nil, execution.Null()},
		{"cas", []ir.IRValue{ir.IRNull{}, ir.IRInt(1)}, execution.Bool(true)},
		{"cas", []ir.IRValue{ir.IRNull{}, ir.IRInt(2)}, execution.Bool(false)},
		{"write", args(3), execution.Void()},
		{"read", nil, execution.Int(3)},
	})
}

func TestCounter(t *testing.T) {
	c := NewCounter()
	run(t, c, []step{
		{"inc", nil, execution.Int(1)},
		{"add", args(5), execution.Int(6)},
		{"get", nil, execution.Int(6)},
	})

	_, err := c.Apply("add", []ir.IRValue{ir.IRString("x")})
	require.Error(t, err)
	assert.True(t, IsApplyError(err))
}

func TestSetLikeBitVector(t *testing.T) {
	s := NewSet()
	run(t, s, []step{
		{"add", args(3), execution.Bool(true)},
		{"add", args(3), execution.Bool(false)},
		{"contains", args(3), execution.Bool(true)},
		{"add", args(1), execution.Bool(true)},
		{"remove", args(3), execution.Bool(true)},
		{"remove", args(3), execution.Bool(false)},
		{"contains", args(3), execution.Bool(false)},
	})
	assert.Equal(t, `[1]`, ir.Format(s.Snapshot()))
}

func TestChannelSuspendsWhenEmpty(t *testing.T) {
	c := NewChannel()
	run(t, c, []step{
		{"receive", nil, execution.Suspended()},
		{"send", args(1), execution.Void()},
		{"receive", nil, execution.Suspended()},
	})
	assert.Equal(t, `{"buffer":[],"waiters":1}`, ir.Format(c.Snapshot()))

	c = NewChannel()
	run(t, c, []step{
		{"send", args(7), execution.Void()},
		{"receive", nil, execution.Int(7)},
	})
}

func TestCloneIsIndependent(t *testing.T) {
	for _, name := range Builtin().Names() {
		t.Run(name, func(t *testing.T) {
			f, err := Builtin().Lookup(name)
			require.NoError(t, err)

			s := f()
			before := ir.Format(s.Snapshot())
			c := s.Clone()

			// Mutate the clone with whichever write operation the specification has.
			for _, op := range []string{"push", "enqueue", "write", "add", "send"} {
				if _, err := c.Apply(op, args(9)); err == nil {
					break
				}
			}
			if _, err := c.Apply("inc", nil); err != nil {
				require.True(t, IsApplyError(err))
			}

			assert.Equal(t, before, ir.Format(s.Snapshot()), "original must not change")
			assert.NotEqual(t, before, ir.Format(c.Snapshot()))
		})
	}
}

func TestApplyErrors(t *testing.T) {
	s := NewStack()

	_, err := s.Apply("shift", nil)
	var ae *ApplyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, CodeUnknownOperation, ae.Code)

	_, err = s.Apply("push", nil)
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, CodeBadArity, ae.Code)
	assert.Contains(t, err.Error(), "stack.push")
}

func TestRegistry(t *testing.T) {
	r := Builtin()
	assert.Equal(t, []string{"channel", "counter", "queue", "register", "set", "stack"}, r.Names())

	_, err := r.Lookup("deque")
	require.Error(t, err)
	assert.True(t, IsApplyError(err))

	r.Register("deque", NewQueue)
	f, err := r.Lookup("deque")
	require.NoError(t, err)
	assert.NotNil(t, f())
}
