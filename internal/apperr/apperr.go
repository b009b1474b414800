// Package apperr defines the error taxonomy shared by the tenant,
// registry, cache and audit components. Handlers translate these into
// HTTP status codes; nothing in this package retries anything.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers true absence and cross-tenant ownership
	// mismatches alike, so a caller cannot probe for records owned
	// by another tenant.
	ErrNotFound = errors.New("not found")

	// ErrConflict signals a uniqueness violation (tenant host,
	// object key, field key, object name).
	ErrConflict = errors.New("conflict")

	// ErrRejected signals a tenant that resolved but is inactive.
	// A rejected request must not fall through to system-admin
	// behavior.
	ErrRejected = errors.New("tenant rejected")
)

// ValidationError reports a malformed or type-inconsistent attribute
// on a field definition or an invalid cache key.
type ValidationError struct {
	Attribute string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Attribute, e.Reason)
}

// Validation builds a ValidationError for the named attribute.
func Validation(attribute, reason string) error {
	return &ValidationError{Attribute: attribute, Reason: reason}
}

// Validationf builds a ValidationError with a formatted reason.
func Validationf(attribute, format string, args ...interface{}) error {
	return &ValidationError{Attribute: attribute, Reason: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// NotFoundf wraps ErrNotFound with context.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}

// Conflictf wraps ErrConflict with context.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrConflict)...)
}
