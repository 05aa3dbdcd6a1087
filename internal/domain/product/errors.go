package product

import (
	"github.com/go-faster/errors"
)

// ErrInvalidJSON is returned by ParseInput when the body is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON in request body")

// ValidationError reports input that failed a field rule. Message is safe to
// show to API clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
