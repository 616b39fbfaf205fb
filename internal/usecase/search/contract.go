package search

import (
	"context"

	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// EmbeddingSource reads stored narrative vectors.
type EmbeddingSource interface {
	All(ctx context.Context) ([]domain.StoredVector, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.StoredVector, error)
}

// ReportSource reads report metadata for candidate filtering and result joins.
type ReportSource interface {
	IDsBySecurity(ctx context.Context, code string) ([]int64, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]domrep.Report, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
