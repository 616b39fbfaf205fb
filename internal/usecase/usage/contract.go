package usage

import (
	"context"
	"time"
)

// EmbeddingCounter counts stored narrative vectors.
type EmbeddingCounter interface {
	Count(ctx context.Context) (int, error)
}

// TokenReader reads the UTC-bucketed encoder token counters.
type TokenReader interface {
	Tokens(ctx context.Context, now time.Time) (daily, monthly int64, err error)
}
