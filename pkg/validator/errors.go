package validator

import "errors"

var (
	ErrValidationFailed = errors.New("validation failed")

	// ErrFieldRequired is the message of Required failures.
	ErrFieldRequired = errors.New("field is required")
)
