package loop

import "errors"

var (
	// ErrIterationBudgetExceeded is returned when the model keeps asking for
	// tools after the last permitted round trip. The partial Result is still returned.
	ErrIterationBudgetExceeded = errors.New("iteration budget exceeded")

	// ErrEmptyResponse is returned when the model collaborator returns neither a response nor an error.
	ErrEmptyResponse = errors.New("model returned an empty response")
)
