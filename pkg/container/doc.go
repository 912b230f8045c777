// Package container provides the orchestrator that owns the producer
// registry and the artifact map. A container moves through a two-state
// lifecycle, Created then Built, computing the dependency graph, walking the
// topological order, driving each producer through its lifecycle hooks, and
// exposing the finished artifacts.
package container
