package search

import (
	"context"
	"sort"
	"strings"
)

// Provider is one search back end. Implementations translate the generic
// Query into their upstream wire format and normalize the response into
// Results. Search must respect ctx cancellation on every outbound request.
type Provider interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Registry holds the configured providers keyed by lower-case name. Lookup
// of an unregistered name is an explicit unknown_provider error rather than
// a silent fallback to some default back end.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its lower-cased name, replacing any
// previous registration of the same name.
func (r *Registry) Register(p Provider) {
	r.providers[strings.ToLower(p.Name())] = p
}

// Get looks a provider up by name, case-insensitively.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names lists the registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
