package producer

import (
	"github.com/chazu/loom/pkg/artifact"
)

// Producer is the instance contract the container drives. An instance is
// constructed fresh for each build attempt and produces at most one
// artifact.
type Producer interface {
	// Enabled reports whether this producer should build. Disabled
	// producers are skipped: no artifact is stored under their name, but
	// the name is still recorded as explicitly absent.
	Enabled() bool

	// Build produces the artifact. Invoked only when Enabled returns true,
	// after validation and requirement loading.
	Build() (artifact.Artifact, error)
}

// RequirementsLoader is an optional capability: a one-time side-effecting
// hook (loading an external capability, opening a handle) invoked at most
// once per build, before Build, and never retried.
type RequirementsLoader interface {
	LoadRequirements() error
}

// ConfigValidator is an optional capability: producers that implement it
// have their configuration checked before building. A non-nil error aborts
// the whole build immediately. Implementations typically delegate to the
// schema package.
type ConfigValidator interface {
	ValidateConfig() error
}

// Base is the embeddable default implementation of Producer. It matches the
// contract's defaults: disabled unless overridden, and a Build that fails
// with NotImplementedError rather than silently producing nothing.
//
// Typical producers embed Base, keep their Inputs, and override Enabled and
// Build:
//
//	type clock struct {
//	    producer.Base
//	    in producer.Inputs
//	}
//
//	func (clock) Enabled() bool { return true }
//	func (c clock) Build() (artifact.Artifact, error) { ... }
type Base struct{}

// Enabled returns false. Producers opt in by overriding.
func (Base) Enabled() bool { return false }

// Build fails with NotImplementedError. Embedding Base without overriding
// Build is a producer-author mistake surfaced at build time with the method
// named.
func (Base) Build() (artifact.Artifact, error) {
	return nil, &NotImplementedError{Method: "Build"}
}
