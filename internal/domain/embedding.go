package domain

import (
	"context"
	"fmt"
)

// EmbeddingResult is one vector plus the token usage the encoder billed
// for producing it. Usage rides along so decorators can record it
// without a second channel.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult holds the vectors for a batch call, in input
// order, with usage aggregated over the whole batch.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Embedder turns text into a vector. Implementations must be
// deterministic for a given (model, text) pair and emit vectors of the
// configured dimension; search correctness depends on both.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes several texts in one round-trip. Ingestion
// prefers it over per-text Embed calls when the encoder offers it.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker reports whether the encoder behind an Embedder is
// reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// BatchFallback emulates BatchEmbed with sequential Embed calls,
// preserving input order. It is the path for encoders without native
// batch support.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	out := BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("embed %d/%d: %w", i+1, len(texts), err)
		}
		out.Embeddings[i] = res.Embedding
		out.PromptTokens += res.PromptTokens
		out.TotalTokens += res.TotalTokens
	}

	return out, nil
}

// InstructionEmbedder prepends a fixed instruction to every text before
// it reaches the inner encoder. Separate instances carry the document
// and query prefixes, since asymmetric models want different ones.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder wraps inner with the given instruction prefix.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prefixes text with the instruction and delegates.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("embed with instruction: %w", err)
	}
	return res, nil
}

// BatchEmbed prefixes every text and delegates, emulating the batch via
// BatchFallback when the inner encoder only supports single Embed.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, text := range texts {
		prefixed[i] = e.instruction + text
	}

	be, ok := e.inner.(BatchEmbedder)
	if !ok {
		res, err := BatchFallback(ctx, e.inner, prefixed)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch fallback with instruction: %w", err)
		}
		return res, nil
	}

	res, err := be.BatchEmbed(ctx, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("batch embed with instruction: %w", err)
	}
	return res, nil
}
