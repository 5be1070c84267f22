package booking

import (
	"errors"
	"strings"
)

// Error kinds. Every failure the core reports wraps exactly one of these.
var (
	ErrInvalidRange      = errors.New("invalid range")
	ErrOverlapConflict   = errors.New("overlap conflict")
	ErrMissingField      = errors.New("missing field")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid transition")
)

// FieldError is one violated rule. An empty Field means the error applies to
// the reservation as a whole.
type FieldError struct {
	Field   string
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// ValidationErrors collects every violated rule for a candidate so callers can
// report all of them at once.
type ValidationErrors struct {
	Errors []*FieldError
}

func (v *ValidationErrors) Add(field string, kind error, message string) {
	v.Errors = append(v.Errors, &FieldError{Field: field, Kind: kind, Message: message})
}

func (v *ValidationErrors) Error() string {
	return strings.Join(v.Messages(), "; ")
}

func (v *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v.Errors))
	for i, e := range v.Errors {
		errs[i] = e
	}
	return errs
}

func (v *ValidationErrors) Messages() []string {
	msgs := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		msgs[i] = e.Message
	}
	return msgs
}

// Has reports whether any collected error is of the given kind.
func (v *ValidationErrors) Has(kind error) bool {
	for _, e := range v.Errors {
		if errors.Is(e.Kind, kind) {
			return true
		}
	}
	return false
}

// Err returns nil when nothing was collected.
func (v *ValidationErrors) Err() error {
	if len(v.Errors) == 0 {
		return nil
	}
	return v
}
