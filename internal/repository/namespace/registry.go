package namespace

import "sync"

// Registry hands out one Repo per tenant/namespace pair, created on first use.
type Registry struct {
	mu    sync.Mutex
	repos map[string]*Repo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{repos: make(map[string]*Repo)}
}

// Get returns the namespace repository for tenant/ns.
func (g *Registry) Get(tenant, ns string) *Repo {
	key := tenant + "/" + ns
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.repos[key]
	if !ok {
		r = New()
		g.repos[key] = r
	}
	return r
}
