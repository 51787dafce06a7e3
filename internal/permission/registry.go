package permission

import (
	"sort"
	"sync"
)

// Endpoint describes one registered HTTP handler: its route metadata and the
// permission codes the route declares. Handlers register themselves while
// mounting; the synchronizer consumes the resulting table at boot.
type Endpoint struct {
	Controller string
	Handler    string
	HTTPMethod string
	Route      string
	Codes      []string
	// Action overrides verb inference when a handler declares its operation
	// explicitly.
	Action string
}

// Registry is the startup-time endpoint table.
type Registry struct {
	mu        sync.Mutex
	endpoints []Endpoint
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add records an endpoint.
func (r *Registry) Add(e Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints = append(r.endpoints, e)
}

// Endpoints returns a copy sorted by route then method, stable across runs.
func (r *Registry) Endpoints() []Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Route != out[j].Route {
			return out[i].Route < out[j].Route
		}
		return out[i].HTTPMethod < out[j].HTTPMethod
	})
	return out
}
