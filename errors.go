package consdex

import "github.com/kailas-cloud/consdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrInvalidArgument   = domain.ErrInvalidArgument
	ErrEncodingFailed    = domain.ErrEncodingFailed
	ErrDimensionMismatch = domain.ErrDimensionMismatch
)
