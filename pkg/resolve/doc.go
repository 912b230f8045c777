// Package resolve slices the artifact map down to exactly what a producer
// declared. It enforces declared-names-only visibility and the rule that a
// required dependency whose artifact is absent or empty counts as missing.
package resolve
