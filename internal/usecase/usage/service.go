package usage

import (
	"context"
	"fmt"
	"time"
)

// Snapshot is a point-in-time view of the vector inventory and encoder
// token consumption.
type Snapshot struct {
	StoredEmbeddings int
	Model            string
	Dimensions       int
	DailyTokens      int64
	MonthlyTokens    int64
}

// Service reports encoder usage statistics.
type Service struct {
	embeddings EmbeddingCounter
	tokens     TokenReader
	model      string
	dimensions int
}

// New creates a usage service. Model and dimensions describe the configured
// encoder; they are reported verbatim.
func New(embeddings EmbeddingCounter, tokens TokenReader, model string, dimensions int) *Service {
	return &Service{embeddings: embeddings, tokens: tokens, model: model, dimensions: dimensions}
}

// Snapshot counts stored vectors and reads the token buckets covering now.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	count, err := s.embeddings.Count(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("count embeddings: %w", err)
	}

	daily, monthly, err := s.tokens.Tokens(ctx, time.Now().UTC())
	if err != nil {
		return Snapshot{}, fmt.Errorf("read token counters: %w", err)
	}

	return Snapshot{
		StoredEmbeddings: count,
		Model:            s.model,
		Dimensions:       s.dimensions,
		DailyTokens:      daily,
		MonthlyTokens:    monthly,
	}, nil
}
