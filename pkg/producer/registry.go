package producer

import "fmt"

// Registry is the set of known producer definitions, keyed by provided name.
// It is an explicit instance owned by its container; nothing is registered
// globally. Registration order is preserved and used as the tie-break when
// ordering the dependency graph, so identical registration sequences yield
// identical builds.
type Registry struct {
	byName map[string]Definition
	order  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Definition),
	}
}

// Add registers a definition. The definition is validated and its provided
// name must not collide with an earlier registration.
func (r *Registry) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid producer definition: %w", err)
	}
	if _, exists := r.byName[def.Name]; exists {
		return &DuplicateProducerError{Name: def.Name}
	}
	r.byName[def.Name] = def
	r.order = append(r.order, def.Name)
	return nil
}

// Get looks up a definition by provided name.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.byName[name]
	if !ok {
		return Definition{}, &UnknownProducerError{Name: name}
	}
	return def, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Definitions returns the registered definitions in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the provided names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.order)
}
