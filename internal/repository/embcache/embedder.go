// Package embcache wraps an embedder with a key-value cache keyed by
// model and text, so re-ingested or re-queried narratives never pay for
// a second encoder call.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config holds cache settings.
type Config struct {
	// Prefix is the key namespace; empty falls back to the package default.
	Prefix string
	// Model is hashed into the cache key so models never share entries.
	Model string
	// TTL bounds entry lifetime; zero disables expiry.
	TTL time.Duration
}

// CachedEmbedder decorates a domain.Embedder with a lookaside cache.
// The cache is strictly an optimization: read and write failures are
// logged and the call proceeds as a miss.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	prefix     string
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New builds the decorator around inner. cacheTotal carries a "result"
// label (hit or miss); nil disables counting.
func New(
	inner domain.Embedder,
	s store,
	cfg Config,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		prefix:     prefix,
		model:      cfg.Model,
		ttl:        cfg.TTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed serves text from the cache when possible. A hit carries zero
// token counts since no encoder call happened; a miss delegates to the
// inner embedder and stores the fresh vector.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)
	if vec, ok := c.lookup(ctx, key); ok {
		c.count("hit")
		return domain.EmbeddingResult{Embedding: vec}, nil
	}
	c.count("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("encode text: %w", err)
	}
	c.save(ctx, key, result.Embedding)
	return result, nil
}

// BatchEmbed serves cached texts locally and fetches the misses from the
// inner embedder in a single batch call, preserving input order. Token
// usage reflects the misses only.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	embeddings := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.lookup(ctx, c.cacheKey(text)); ok {
			c.count("hit")
			embeddings[i] = vec
			continue
		}
		c.count("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	result, err := c.batchInner(ctx, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed misses: %w", err)
	}
	if len(result.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"batch embed returned %d vectors for %d texts", len(result.Embeddings), len(missTexts))
	}

	for j, i := range missIdx {
		embeddings[i] = result.Embeddings[j]
		c.save(ctx, c.cacheKey(missTexts[j]), result.Embeddings[j])
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: result.PromptTokens,
		TotalTokens:  result.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) batchInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := c.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, c.inner, texts)
}

func (c *CachedEmbedder) count(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return c.prefix + "embcache:" + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedEmbedder) lookup(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		return nil, false
	case err != nil:
		c.logger.Warn("Embedding cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	case len(data) == 0:
		return nil, false
	}

	vec, err := decodeVector(data)
	if err != nil {
		c.logger.Warn("Dropping malformed embedding cache entry",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) save(ctx context.Context, key string, vec []float32) {
	data := encodeVector(vec)
	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Cache entries are raw little-endian float32 components. Durable vector
// blobs carry a dimension tag; cache entries skip it and rely on length
// validation to catch truncation.

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 0, len(vec)*4)
	for _, f := range vec {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("embedding cache entry has %d bytes, not a whole number of float32s", len(data))
	}
	vec := make([]float32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(data[i:])))
	}
	return vec, nil
}
