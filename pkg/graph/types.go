package graph

import (
	"fmt"
	"strings"

	"github.com/chazu/loom/pkg/producer"
)

// Node is one producer in the dependency graph: its provided name and the
// provided names it depends on, required and optional alike. Optional
// dependencies still contribute edges; the graph must be fully resolvable
// even if an artifact later turns out disabled.
type Node struct {
	// ID is the producer's provided name.
	ID string

	// DependsOn lists the provided names that must build before this node.
	DependsOn []string
}

// CyclicDependencyError reports a dependency cycle among producers. No
// partial order is ever returned alongside it.
type CyclicDependencyError struct {
	// Members are the provided names participating in one offending cycle,
	// in registration order.
	Members []string
}

func (e *CyclicDependencyError) Error() string {
	if len(e.Members) == 0 {
		return "dependency cycle detected"
	}
	return fmt.Sprintf("dependency cycle detected among producers: %s", strings.Join(e.Members, ", "))
}

// validate checks the node set for duplicate IDs and dangling dependency
// targets. Dangling targets surface as UnknownProducerError so a typo in a
// dependency name reads the same as any other missing-producer lookup.
func validate(nodes []Node) error {
	ids := make(map[string]bool, len(nodes))
	for _, node := range nodes {
		if node.ID == "" {
			return fmt.Errorf("node ID is required")
		}
		if ids[node.ID] {
			return fmt.Errorf("duplicate node ID: %s", node.ID)
		}
		ids[node.ID] = true
	}

	for _, node := range nodes {
		for _, depID := range node.DependsOn {
			if !ids[depID] {
				return fmt.Errorf("producer %q: %w", node.ID, &producer.UnknownProducerError{Name: depID})
			}
		}
	}

	return nil
}
