package ingest

import (
	"context"

	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// Repository defines the storage contract for analyst reports.
type Repository interface {
	Insert(ctx context.Context, rep domrep.Report) (stored domrep.Report, created bool, err error)
}

// EmbeddingWriter persists narrative vectors keyed by report id.
type EmbeddingWriter interface {
	Put(ctx context.Context, id int64, vector []float32) error
}

// Embedder vectorizes narrative text, in one call per text or batched.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// ConsensusInvalidator drops cached consensus snapshots once new rows land.
type ConsensusInvalidator interface {
	Invalidate(ctx context.Context, securityCode string) error
}
