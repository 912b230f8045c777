package schema

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// FieldError describes one validation failure at a configuration path.
type FieldError struct {
	// Path is the dotted path to the offending field, empty for
	// document-level failures.
	Path string

	// Message is a human-readable description of the failure.
	Message string
}

// Result is the structured outcome of a validation check.
type Result struct {
	// Valid is true when the configuration satisfied the schema.
	Valid bool

	// Errors holds one entry per failure when Valid is false.
	Errors []FieldError
}

// ValidationError is the hard-failure form of an invalid configuration. The
// container propagates it unmodified, aborting the build.
type ValidationError struct {
	// Producer is the provided name of the producer whose configuration
	// failed, filled in by the caller when known.
	Producer string

	// Errors holds the individual failures.
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Path != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Path, fe.Message))
			continue
		}
		msgs = append(msgs, fe.Message)
	}
	if e.Producer == "" {
		return fmt.Sprintf("configuration validation failed: %s", strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("producer %q configuration validation failed: %s",
		e.Producer, strings.Join(msgs, "; "))
}

// Validator checks a configuration value. Implementations own the schema
// language; callers only see the success/failure contract.
type Validator interface {
	// Validate returns a structured result and never fails hard.
	Validate(config map[string]any) *Result

	// MustValidate returns a *ValidationError when the configuration is
	// invalid, nil otherwise.
	MustValidate(config map[string]any) error
}

// CueValidator validates configurations against a CUE schema definition.
type CueValidator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewCueValidator compiles a CUE schema from source. The schema is the
// constraint the whole configuration map must satisfy, for example:
//
//	{
//	    level:   "debug" | "info" | "warn" | "error"
//	    format?: "json" | "text"
//	}
func NewCueValidator(source string) (*CueValidator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(source)
	if schema.Err() != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", schema.Err())
	}
	return &CueValidator{ctx: ctx, schema: schema}, nil
}

// Validate checks config against the schema and reports every failure.
func (v *CueValidator) Validate(config map[string]any) *Result {
	encoded := v.ctx.Encode(config)
	if encoded.Err() != nil {
		return &Result{Errors: []FieldError{{Message: encoded.Err().Error()}}}
	}

	unified := v.schema.Unify(encoded)
	err := unified.Validate(cue.Concrete(false))
	if err == nil {
		return &Result{Valid: true}
	}

	return &Result{Errors: fieldErrors(err)}
}

// MustValidate checks config against the schema and returns a
// *ValidationError on failure.
func (v *CueValidator) MustValidate(config map[string]any) error {
	result := v.Validate(config)
	if result.Valid {
		return nil
	}
	return &ValidationError{Errors: result.Errors}
}

// fieldErrors flattens a CUE error into per-field failures.
func fieldErrors(err error) []FieldError {
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		out = append(out, FieldError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}
