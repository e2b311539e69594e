package random

import (
	"errors"
	"fmt"
)

// -- Sentinels --

var (
	ErrInvalidRange     = errors.New("invalid range")
	ErrEmptyChoiceSet   = errors.New("choices cannot be empty")
	ErrLengthMismatch   = errors.New("weights and choices differ in length")
	ErrNegativeWeight   = errors.New("weights must be non-negative")
	ErrWeightSumInvalid = errors.New("weights must sum to 1")
	ErrBoundRequired    = errors.New("min and max are required")
)

// InvalidRangeError is returned when min is greater than max.
type InvalidRangeError struct {
	Min, Max int64
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: min %d is greater than max %d", e.Min, e.Max)
}

func (e *InvalidRangeError) Is(target error) bool {
	return target == ErrInvalidRange
}

// LengthMismatchError is returned when weights do not pair up with choices.
type LengthMismatchError struct {
	Choices, Weights int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("got %d weights for %d choices", e.Weights, e.Choices)
}

func (e *LengthMismatchError) Is(target error) bool {
	return target == ErrLengthMismatch
}

// NegativeWeightError points at the first weight that is negative or NaN.
type NegativeWeightError struct {
	Index  int
	Weight float64
}

func (e *NegativeWeightError) Error() string {
	return fmt.Sprintf("weight %v at index %d must be a non-negative number", e.Weight, e.Index)
}

func (e *NegativeWeightError) Is(target error) bool {
	return target == ErrNegativeWeight
}

// WeightSumError is returned when the weights do not sum to 1 within SumTolerance.
type WeightSumError struct {
	Sum float64
}

func (e *WeightSumError) Error() string {
	return fmt.Sprintf("weights sum to %g, expected 1 (±%g)", e.Sum, SumTolerance)
}

func (e *WeightSumError) Is(target error) bool {
	return target == ErrWeightSumInvalid
}
