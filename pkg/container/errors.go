package container

import (
	"errors"
	"fmt"
)

// ErrNotBuilt is returned when artifacts are requested from a container
// whose Build has not been called.
var ErrNotBuilt = errors.New("container has not been built")

// DuplicateBuildError reports a second Build call. A container builds
// exactly once; this trips even when the first build failed, so a failed
// build cannot be silently retried on the same container.
type DuplicateBuildError struct{}

func (e *DuplicateBuildError) Error() string {
	return "container has already been built; construct a fresh container to build again"
}

// RegistrationAfterBuildError reports a Register call on a container whose
// build has already started.
type RegistrationAfterBuildError struct {
	// Name is the provided name of the rejected registration.
	Name string
}

func (e *RegistrationAfterBuildError) Error() string {
	return fmt.Sprintf("cannot register producer %q: container has already been built", e.Name)
}

// ProducerPanicError reports a panic escaping a producer's lifecycle hook.
// The panic is contained and converted so the build aborts with the
// offending producer named instead of unwinding into the host.
type ProducerPanicError struct {
	// Producer is the provided name of the panicking producer.
	Producer string

	// Hook is the lifecycle hook that panicked.
	Hook string

	// Value is the recovered panic value.
	Value any
}

func (e *ProducerPanicError) Error() string {
	return fmt.Sprintf("producer %q panicked in %s: %v", e.Producer, e.Hook, e.Value)
}
