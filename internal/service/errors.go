package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/backoffice/internal/repository"
)

// ErrNotFound is returned when an identifier does not resolve.  It is the
// repository sentinel so errors.Is works across layers.
var ErrNotFound = repository.ErrNotFound

// ValidationError reports a malformed or out-of-range field.  It is always
// returned before any write happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SecondaryEffectError describes a derived write that failed after the
// primary mutation had already succeeded.  It is logged and reported as a
// warning; it never fails the request.
type SecondaryEffectError struct {
	Effect string
	Err    error
}

func (e *SecondaryEffectError) Error() string {
	return e.Effect + " failed: " + e.Err.Error()
}

func (e *SecondaryEffectError) Unwrap() error { return e.Err }
