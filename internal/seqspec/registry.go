package seqspec

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry maps specification names to factories.
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	if !ok {
		return nil, &ApplyError{Code: CodeUnknownSpec, Spec: name, Message: "no such specification"}
	}
	return f, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := maps.Keys(r.factories)
	slices.Sort(names)
	return names
}

// Builtin returns a registry holding every built-in specification.
func Builtin() *Registry {
	r := NewRegistry()
	r.Register("stack", NewStack)
	r.Register("queue", NewQueue)
	r.Register("register", NewRegister)
	r.Register("counter", NewCounter)
	r.Register("set", NewSet)
	r.Register("channel", NewChannel)
	return r
}
