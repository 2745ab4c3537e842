package page

// Registry maps logical resource names to live handles. Teardown is total
// over the registry: every entry present is released exactly once, and all
// operations are safe on a nil or already-cleared registry.
type Registry struct {
	m map[string]Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Handle)}
}

// Put stores h under name. An existing entry under the same name is
// released first, so re-arming a named timer can never leak its
// predecessor. If the registry is already torn down, h is released
// immediately rather than silently outliving it.
func (r *Registry) Put(name string, h Handle) {
	if r == nil || r.m == nil {
		h.Release()
		return
	}
	if prev, ok := r.m[name]; ok {
		prev.Release()
	}
	r.m[name] = h
}

// Release releases and removes the named entry if present.
func (r *Registry) Release(name string) {
	if r == nil || r.m == nil {
		return
	}
	if h, ok := r.m[name]; ok {
		h.Release()
		delete(r.m, name)
	}
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	if r == nil || r.m == nil {
		return false
	}
	_, ok := r.m[name]
	return ok
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return len(r.m)
}

// ReleaseAll releases every entry and clears the registry. A later read
// observes nothing live. No-op on a nil or empty registry.
func (r *Registry) ReleaseAll() {
	if r == nil || r.m == nil {
		return
	}
	for name, h := range r.m {
		h.Release()
		delete(r.m, name)
	}
	r.m = nil
}
