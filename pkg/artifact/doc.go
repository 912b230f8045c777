// Package artifact provides the artifact map: the container's record of what
// each producer yielded. It distinguishes a present artifact from an explicit
// absence (a disabled producer), and can fingerprint the built set for
// change detection.
package artifact
