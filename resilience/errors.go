package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrRetriesExhausted is returned when every retry attempt has failed.
	ErrRetriesExhausted = errors.New("resilience: retries exhausted")

	// ErrTimeout is returned when an operation exceeds its time bound.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrBreakerOpen is returned when the probe breaker is open and the
	// operation was not attempted.
	ErrBreakerOpen = errors.New("resilience: breaker is open")
)
