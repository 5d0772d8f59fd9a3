package service

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound covers both absent entities and entities owned by
	// someone else; the two are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	ErrInvalidStatus = errors.New("invalid order status")
)

// ValidationError marks malformed or incomplete caller input. The
// caller can fix it and retry; it is never retried automatically.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
