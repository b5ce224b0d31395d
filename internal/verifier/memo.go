package verifier

import (
	"sync"
	"sync/atomic"
)

// memo is the set of visited search nodes. Insertion is at most once; two
// workers racing on the same key see exactly one winner.
type memo struct {
	seen sync.Map
	hits atomic.Int64
}

// visit records key and reports whether it was new.
func (m *memo) visit(key string) bool {
	if _, loaded := m.seen.LoadOrStore(key, struct{}{}); loaded {
		m.hits.Add(1)
		return false
	}
	return true
}
