package graph

import (
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// DAG is the ordered dependency graph a build walks. It wraps the underlying
// graph structure from dominikbraun/graph together with the computed
// topological order.
type DAG struct {
	graph graph.Graph[string, string]

	// nodeMap provides quick lookup of nodes by ID
	nodeMap map[string]*Node

	// position is each node's registration index, used as the ordering
	// tie-break.
	position map[string]int

	// order contains the topologically sorted node IDs
	order []string
}

// Build converts a registration-ordered node list into an ordered DAG. It
// validates the node set, detects cycles, and computes a topological order
// that is stable across runs: among nodes whose dependencies are all
// satisfied, earlier registration wins.
func Build(nodes []Node) (*DAG, error) {
	if err := validate(nodes); err != nil {
		return nil, err
	}

	// A producer that names itself is the smallest possible cycle; catch it
	// here so the error can name it precisely.
	for i := range nodes {
		for _, depID := range nodes[i].DependsOn {
			if depID == nodes[i].ID {
				return nil, &CyclicDependencyError{Members: []string{nodes[i].ID}}
			}
		}
	}

	dg := graph.New(graph.StringHash, graph.Directed())

	nodeMap := make(map[string]*Node, len(nodes))
	position := make(map[string]int, len(nodes))
	for i := range nodes {
		node := &nodes[i]
		nodeMap[node.ID] = node
		position[node.ID] = i
		if err := dg.AddVertex(node.ID); err != nil {
			return nil, fmt.Errorf("failed to add vertex %s: %w", node.ID, err)
		}
	}

	// In dominikbraun/graph, AddEdge(source, target) means source -> target.
	// If a node depends on depID, depID must build first, so the edge runs
	// depID -> node.
	for _, node := range nodes {
		for _, depID := range node.DependsOn {
			if err := dg.AddEdge(depID, node.ID); err != nil {
				return nil, fmt.Errorf("failed to add edge %s -> %s: %w", depID, node.ID, err)
			}
		}
	}

	order, err := graph.StableTopologicalSort(dg, func(a, b string) bool {
		return position[a] < position[b]
	})
	if err != nil {
		return nil, cycleError(dg, position)
	}

	return &DAG{
		graph:    dg,
		nodeMap:  nodeMap,
		position: position,
		order:    order,
	}, nil
}

// cycleError reconstructs at least one offending cycle's member names after
// a failed topological sort.
func cycleError(dg graph.Graph[string, string], position map[string]int) error {
	sccs, sccErr := graph.StronglyConnectedComponents(dg)
	if sccErr != nil {
		return &CyclicDependencyError{}
	}

	// The first non-trivial component, with members listed in registration
	// order so the message is reproducible.
	for _, component := range sccs {
		if len(component) < 2 {
			continue
		}
		members := make([]string, len(component))
		copy(members, component)
		sortByPosition(members, position)
		return &CyclicDependencyError{Members: members}
	}

	return &CyclicDependencyError{}
}

func sortByPosition(ids []string, position map[string]int) {
	sort.Slice(ids, func(i, j int) bool {
		return position[ids[i]] < position[ids[j]]
	})
}

// GetNode retrieves a node by ID.
func (d *DAG) GetNode(id string) (*Node, bool) {
	node, found := d.nodeMap[id]
	return node, found
}

// Order returns the topologically sorted node IDs. Nodes earlier in the
// list never depend on nodes later in the list.
func (d *DAG) Order() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Dependencies returns the IDs of nodes the given node depends on, in
// declaration order.
func (d *DAG) Dependencies(id string) ([]string, error) {
	node, found := d.nodeMap[id]
	if !found {
		return nil, fmt.Errorf("node %s not found", id)
	}
	return node.DependsOn, nil
}

// Dependents returns the IDs of nodes that depend on the given node, in
// registration order.
func (d *DAG) Dependents(id string) ([]string, error) {
	if _, found := d.nodeMap[id]; !found {
		return nil, fmt.Errorf("node %s not found", id)
	}

	var dependents []string
	for _, nodeID := range d.order {
		node := d.nodeMap[nodeID]
		for _, depID := range node.DependsOn {
			if depID == id {
				dependents = append(dependents, nodeID)
				break
			}
		}
	}
	sortByPosition(dependents, d.position)
	return dependents, nil
}

// Size returns the number of nodes in the DAG.
func (d *DAG) Size() int {
	return len(d.nodeMap)
}

// Roots returns nodes with no dependencies, in registration order.
func (d *DAG) Roots() []string {
	var roots []string
	for _, id := range d.order {
		if len(d.nodeMap[id].DependsOn) == 0 {
			roots = append(roots, id)
		}
	}
	sortByPosition(roots, d.position)
	return roots
}
