package verifier

import "sync"

// worklist is a LIFO of unexplored nodes shared by the search workers.
type worklist struct {
	// cond guards items, ongoing and closed. Waiters wait for
	// len(items) > 0, or for ongoing == 0, or for closed.
	cond *sync.Cond

	items []*node

	// ongoing counts workers currently expanding a node; they may still
	// push children.
	ongoing int

	closed bool
}

func newWorklist() *worklist {
	return &worklist{cond: sync.NewCond(new(sync.Mutex))}
}

// push adds nodes so that the first one is popped first.
func (w *worklist) push(nodes ...*node) {
	if len(nodes) == 0 {
		return
	}
	w.cond.L.Lock()
	defer w.cond.L.Unlock()

	for i := len(nodes) - 1; i >= 0; i-- {
		w.items = append(w.items, nodes[i])
	}
	w.cond.Broadcast()
}

// pop returns the next node, blocking while other workers may still add
// some. It returns nil once the search space is exhausted or the list was
// closed.
func (w *worklist) pop() *node {
	w.cond.L.Lock()
	defer w.cond.L.Unlock()

	for len(w.items) == 0 && w.ongoing > 0 && !w.closed {
		w.cond.Wait()
	}
	if w.closed || len(w.items) == 0 {
		return nil
	}

	n := w.items[len(w.items)-1]
	w.items = w.items[:len(w.items)-1]
	w.ongoing++
	return n
}

// done marks the end of an expansion started by pop.
func (w *worklist) done() {
	w.cond.L.Lock()
	defer w.cond.L.Unlock()

	w.ongoing--
	w.cond.Broadcast()
}

// close wakes every waiter and makes pop return nil from now on.
func (w *worklist) close() {
	w.cond.L.Lock()
	defer w.cond.L.Unlock()

	w.closed = true
	w.cond.Broadcast()
}
