package courier

import "errors"

var (
	// Dispatch errors.
	ErrServiceNotFound = errors.New("courier: service not found")
	ErrInvalidPayload  = errors.New("courier: invalid payload")

	// Retry errors.
	ErrRetryExhausted = errors.New("courier: retry budget exhausted")

	// Status store errors.
	ErrStatusNotFound = errors.New("courier: status record not found")
)
