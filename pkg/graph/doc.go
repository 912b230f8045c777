// Package graph derives the dependency graph over registered producers and
// computes the deterministic topological order a build follows. It enforces
// acyclicity and reports the members of an offending cycle when ordering is
// impossible.
package graph
