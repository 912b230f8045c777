package producer

import "fmt"

// UnknownProducerError reports a lookup of a provided name no registered
// producer supplies. It is the primary "did you forget to define it"
// diagnostic, raised by registry lookups, by graph construction for dangling
// dependency names, and by the container's Fetch.
type UnknownProducerError struct {
	// Name is the provided name that was requested.
	Name string
}

func (e *UnknownProducerError) Error() string {
	return fmt.Sprintf("unknown producer %q", e.Name)
}

// DuplicateProducerError reports two registrations claiming the same
// provided name.
type DuplicateProducerError struct {
	Name string
}

func (e *DuplicateProducerError) Error() string {
	return fmt.Sprintf("producer %q is already registered", e.Name)
}

// NotImplementedError reports a lifecycle method the producer was expected
// to override but did not, such as Build on a type that embeds Base.
type NotImplementedError struct {
	// Producer is the provided name, filled in by the container when known.
	Producer string

	// Method is the unimplemented method name.
	Method string
}

func (e *NotImplementedError) Error() string {
	if e.Producer == "" {
		return fmt.Sprintf("producer does not implement %s", e.Method)
	}
	return fmt.Sprintf("producer %q does not implement %s", e.Producer, e.Method)
}
