package providers

import (
	"fmt"
	"sort"
)

type Registry struct {
	backends map[string]Capability
}

func NewRegistry() *Registry {
	return &Registry{backends: map[string]Capability{}}
}

func (r *Registry) Register(name string, c Capability) {
	r.backends[name] = c
}

func (r *Registry) Get(name string) (Capability, error) {
	c, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("backend not registered: %s", name)
	}
	return c, nil
}

// Names lists registered backends in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.backends))
	for name := range r.backends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
