// Package embedding decorates domain.Embedder implementations with the
// service-level concerns the raw encoder client should not know about.
package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
)

// DefaultMaxAPIBatchSize caps the number of texts per encoder API call.
// Larger ingest batches are split transparently.
const DefaultMaxAPIBatchSize = 256

// UsageRecorder persists consumed encoder tokens into period counters.
type UsageRecorder interface {
	Record(ctx context.Context, now time.Time, tokens int64) error
}

// InstrumentedEmbedder adds token-usage recording and structured logging
// around an inner embedder. Prometheus transport metrics live in
// transport/openai; this layer owns the durable counters. Recording is
// best-effort: a failed counter write never fails the embedding call.
type InstrumentedEmbedder struct {
	inner    domain.Embedder
	provider string
	model    string
	usage    UsageRecorder
	logger   *zap.Logger
}

// NewInstrumentedEmbedder wraps inner. A nil usage recorder disables the
// durable counters but keeps the logging.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string,
	usage UsageRecorder, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:    inner,
		provider: provider,
		model:    model,
		usage:    usage,
		logger:   logger,
	}
}

// Embed delegates to the inner embedder, then records and logs what the
// call cost.
func (e *InstrumentedEmbedder) Embed(
	ctx context.Context, text string,
) (domain.EmbeddingResult, error) {
	start := time.Now()
	res, err := e.inner.Embed(ctx, text)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Error("Encoder call failed",
			zap.String("provider", e.provider),
			zap.String("model", e.model),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	e.recordUsage(ctx, res.TotalTokens)

	e.logger.Debug("Encoder call completed",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", elapsed),
		zap.Int("dimensions", len(res.Embedding)),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("total_tokens", res.TotalTokens),
	)

	return res, nil
}

// BatchEmbed splits texts into encoder-sized chunks, delegates each, and
// records the aggregate usage once at the end.
func (e *InstrumentedEmbedder) BatchEmbed(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	out := domain.BatchEmbeddingResult{}
	for offset := 0; offset < len(texts); offset += DefaultMaxAPIBatchSize {
		chunk := texts[offset:min(offset+DefaultMaxAPIBatchSize, len(texts))]

		res, err := e.dispatchBatch(ctx, chunk)
		if err != nil {
			e.logger.Error("Encoder batch failed",
				zap.String("provider", e.provider),
				zap.String("model", e.model),
				zap.Int("offset", offset),
				zap.Int("size", len(chunk)),
				zap.Error(err),
			)
			return domain.BatchEmbeddingResult{}, fmt.Errorf("encode batch: %w", err)
		}

		out.Embeddings = append(out.Embeddings, res.Embeddings...)
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	e.recordUsage(ctx, out.TotalTokens)

	e.logger.Debug("Encoder batch completed",
		zap.String("provider", e.provider),
		zap.String("model", e.model),
		zap.Duration("duration", time.Since(start)),
		zap.Int("batch_size", len(texts)),
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("total_tokens", out.TotalTokens),
	)

	return out, nil
}

// dispatchBatch prefers the inner encoder's native batch call and falls
// back to sequential embeds when there is none.
func (e *InstrumentedEmbedder) dispatchBatch(
	ctx context.Context, texts []string,
) (domain.BatchEmbeddingResult, error) {
	be, ok := e.inner.(domain.BatchEmbedder)
	if !ok {
		res, err := domain.BatchFallback(ctx, e.inner, texts)
		if err != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch fallback: %w", err)
		}
		return res, nil
	}

	res, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("inner batch embed: %w", err)
	}
	return res, nil
}

func (e *InstrumentedEmbedder) recordUsage(ctx context.Context, tokens int) {
	if e.usage == nil || tokens <= 0 {
		return
	}
	if err := e.usage.Record(ctx, time.Now().UTC(), int64(tokens)); err != nil {
		e.logger.Warn("Failed to record token usage",
			zap.String("provider", e.provider),
			zap.Int("tokens", tokens),
			zap.Error(err),
		)
	}
}
