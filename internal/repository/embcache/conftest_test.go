package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
)

// vecFor derives a small distinct vector from the text so a test can tell
// which text an embedding belongs to.
func vecFor(text string) []float32 {
	var sum float32
	for _, b := range []byte(text) {
		sum += float32(b)
	}
	return []float32{sum, float32(len(text))}
}

// fakeEncoder implements domain.Embedder only. The texts slice records every
// single-embed call, which makes the batch fallback path visible to
// assertions.
type fakeEncoder struct {
	texts []string
	cost  int // tokens charged per text
	err   error
}

func (f *fakeEncoder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	f.texts = append(f.texts, text)
	return domain.EmbeddingResult{
		Embedding:    vecFor(text),
		PromptTokens: f.cost,
		TotalTokens:  f.cost,
	}, nil
}

// fakeBatchEncoder adds native batch support on top of fakeEncoder.
type fakeBatchEncoder struct {
	fakeEncoder
	batches  [][]string
	batchErr error
	short    bool // drop the last vector to simulate a miscounted response
}

func (f *fakeBatchEncoder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batches = append(f.batches, texts)
	if f.batchErr != nil {
		return domain.BatchEmbeddingResult{}, f.batchErr
	}
	res := domain.BatchEmbeddingResult{
		Embeddings:   make([][]float32, 0, len(texts)),
		PromptTokens: f.cost * len(texts),
		TotalTokens:  f.cost * len(texts),
	}
	for _, text := range texts {
		res.Embeddings = append(res.Embeddings, vecFor(text))
	}
	if f.short && len(res.Embeddings) > 0 {
		res.Embeddings = res.Embeddings[:len(res.Embeddings)-1]
	}
	return res, nil
}

// memStore is a map-backed stand-in for the cache keyspace. The error fields
// inject store failures; ttls records the expiry each SetWithTTL carried.
type memStore struct {
	entries map[string][]byte
	ttls    map[string]time.Duration
	plain   int // Set calls without a TTL
	getErr  error
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.plain++
	m.entries[key] = value
	return nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

func newCacheUnderTest(t *testing.T, inner domain.Embedder, cfg Config) (*CachedEmbedder, *memStore) {
	t.Helper()
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	ms := newMemStore()
	return New(inner, ms, cfg, nil, zap.NewNop()), ms
}
