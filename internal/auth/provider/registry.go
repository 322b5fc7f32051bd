package provider

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownProvider is returned by Get for names nobody registered.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// Registry looks providers up by name.
type Registry struct {
	byName map[string]OAuthProvider
}

// NewRegistry fails on empty or repeated names.
func NewRegistry(list ...OAuthProvider) (*Registry, error) {
	byName := make(map[string]OAuthProvider, len(list))
	for _, p := range list {
		name := p.Name()
		if name == "" {
			return nil, errors.New("oauth provider without a name")
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("oauth provider %q registered twice", name)
		}
		byName[name] = p
	}
	return &Registry{byName: byName}, nil
}

func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names lists registered providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
