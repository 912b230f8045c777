package producer

import (
	"fmt"

	"github.com/chazu/loom/pkg/artifact"
)

// Dependencies is the resolved slice of the artifact map a producer receives:
// exactly the names it declared, nothing else. Optional names that did not
// resolve are present with a nil value.
type Dependencies map[string]artifact.Artifact

// Lookup returns the artifact resolved for name. The boolean is false when
// name resolved to an explicit absence (or was never declared).
func (d Dependencies) Lookup(name string) (artifact.Artifact, bool) {
	v, ok := d[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Inputs is what a producer is constructed with: the shared host context,
// its merged configuration slice, and its resolved dependencies.
type Inputs struct {
	// Context is the opaque, read-only value the host supplied at container
	// construction. The core never inspects or mutates it.
	Context any

	// Config is the producer's configuration slice: the definition's
	// defaults deep-merged with the raw configuration supplied by the host,
	// where raw values win over defaults at every nested key.
	Config map[string]any

	// Deps contains an entry for every declared required and optional name.
	Deps Dependencies
}

// Constructor builds a producer instance from its inputs. It is called once
// per build attempt, after dependency resolution and before any lifecycle
// hook.
type Constructor func(in Inputs) Producer

// Definition is the static registration unit for one producer: the name it
// provides, the names it depends on, its configuration defaults, and its
// constructor. Dependency names are declared here as data, evaluated at
// registration time, rather than inferred from the constructor.
type Definition struct {
	// Name is the unique provided name the artifact is registered under.
	Name string

	// Requires lists provided names this producer cannot build without,
	// in declaration order.
	Requires []string

	// Optional lists provided names this producer can use but does not
	// need. Disjoint from Requires.
	Optional []string

	// Defaults is the default configuration structure merged under the raw
	// configuration slice. May be nil.
	Defaults map[string]any

	// New constructs the producer instance.
	New Constructor
}

// DependsOn returns the declared dependency names, required first then
// optional, preserving declaration order.
func (d Definition) DependsOn() []string {
	out := make([]string, 0, len(d.Requires)+len(d.Optional))
	out = append(out, d.Requires...)
	out = append(out, d.Optional...)
	return out
}

// Validate checks the integrity of the definition: a non-empty name, a
// constructor, and required/optional lists that are internally unique and
// mutually disjoint.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("producer name is required")
	}
	if d.New == nil {
		return fmt.Errorf("producer %q has no constructor", d.Name)
	}

	seen := make(map[string]string, len(d.Requires)+len(d.Optional))
	for _, name := range d.Requires {
		if name == "" {
			return fmt.Errorf("producer %q declares an empty required dependency name", d.Name)
		}
		if seen[name] != "" {
			return fmt.Errorf("producer %q declares dependency %q twice", d.Name, name)
		}
		seen[name] = "required"
	}
	for _, name := range d.Optional {
		if name == "" {
			return fmt.Errorf("producer %q declares an empty optional dependency name", d.Name)
		}
		switch seen[name] {
		case "required":
			return fmt.Errorf("producer %q declares %q as both required and optional", d.Name, name)
		case "optional":
			return fmt.Errorf("producer %q declares dependency %q twice", d.Name, name)
		}
		seen[name] = "optional"
	}

	return nil
}
