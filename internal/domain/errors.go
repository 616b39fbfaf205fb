package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument signals a rejected input value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEncodingFailed signals a text encoder failure.
	ErrEncodingFailed = errors.New("text encoding failed")
	// ErrDimensionMismatch signals a stored vector whose dimension does not
	// match the configured one. Treated as data corruption, never coerced.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// DimensionMismatchError wraps ErrDimensionMismatch with both dimensions.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", ErrDimensionMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(want, got int) error {
	return &DimensionMismatchError{Want: want, Got: got}
}
