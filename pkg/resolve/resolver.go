package resolve

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/chazu/loom/pkg/artifact"
	"github.com/chazu/loom/pkg/producer"
)

// MissingDependencyError reports required dependencies a producer could not
// be given. The message enumerates every missing name, comma-joined, in
// declaration order, and names the requesting producer.
type MissingDependencyError struct {
	// Producer is the requesting producer's provided name.
	Producer string

	// Missing lists the unmet required names in declaration order.
	Missing []string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("producer %q is missing required dependencies: %s",
		e.Producer, strings.Join(e.Missing, ", "))
}

// Resolve returns the slice of artifacts the definition declared, drawn from
// the artifacts built so far. Keys the producer did not declare are dropped,
// so a producer can never see more than it asked for.
//
// A required name counts as missing when it is absent from the map OR when
// it is present but maps to an absent or empty artifact (nil, false, "",
// or a zero-length collection). The two cases are deliberately equivalent:
// a disabled dependency records no real artifact, and a producer that
// requires it must fail the same way as if the dependency were never built.
// Producer authors should treat an empty artifact as no artifact at all.
//
// An optional name that is missing resolves to an explicit nil entry with no
// error.
func Resolve(def producer.Definition, artifacts *artifact.Map) (producer.Dependencies, error) {
	deps := make(producer.Dependencies, len(def.Requires)+len(def.Optional))

	var missing []string
	for _, name := range def.Requires {
		value, ok := artifacts.Get(name)
		if !ok || isAbsent(value) {
			missing = append(missing, name)
			continue
		}
		deps[name] = value
	}
	if len(missing) > 0 {
		return nil, &MissingDependencyError{Producer: def.Name, Missing: missing}
	}

	for _, name := range def.Optional {
		value, ok := artifacts.Get(name)
		if !ok || isAbsent(value) {
			deps[name] = nil
			continue
		}
		deps[name] = value
	}

	return deps, nil
}

// isAbsent reports whether an artifact value counts as no artifact for
// dependency purposes: nil, false, the empty string, a zero-length map,
// slice or array, or a nil pointer, interface or channel.
func isAbsent(value artifact.Artifact) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case bool:
		return !v
	case string:
		return v == ""
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}

	return false
}
