package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
)

// store is the consumer interface for embedding blobs (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo persists report narrative vectors, one blob per report id. Every
// stored vector carries a dimension tag and must match the configured
// dimension; a mismatch on either side is surfaced, never coerced.
type Repo struct {
	store      store
	prefix     string
	dimensions int
}

// New creates an embedding repository for vectors of the given dimension.
func New(s store, prefix string, dimensions int) *Repo {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Repo{store: s, prefix: prefix, dimensions: dimensions}
}

// Put stores the vector for a report id, overwriting any previous one.
func (r *Repo) Put(ctx context.Context, id int64, vec []float32) error {
	if len(vec) != r.dimensions {
		return fmt.Errorf("store embedding %d: %w", id, domain.NewDimensionMismatch(r.dimensions, len(vec)))
	}
	if err := r.store.Set(ctx, r.key(id), domain.EncodeVector(vec)); err != nil {
		return fmt.Errorf("store embedding %d: %w", id, err)
	}
	return nil
}

// Get returns the vector for a report id.
func (r *Repo) Get(ctx context.Context, id int64) ([]float32, error) {
	data, err := r.store.Get(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("embedding %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load embedding %d: %w", id, err)
	}
	vec, err := domain.DecodeVector(data, r.dimensions)
	if err != nil {
		return nil, fmt.Errorf("embedding %d: %w", id, err)
	}
	return vec, nil
}

// All returns every stored embedding, ascending by report id.
func (r *Repo) All(ctx context.Context) ([]domain.StoredVector, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"embedding:*")
	if err != nil {
		return nil, fmt.Errorf("scan embeddings: %w", err)
	}
	ids := make([]int64, 0, len(keys))
	for _, key := range keys {
		rawID := strings.TrimPrefix(key, r.prefix+"embedding:")
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt embedding key %q: %w", key, err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return r.load(ctx, ids)
}

// GetByIDs returns embeddings for the given report ids, preserving id order.
// Ids without a stored vector are omitted.
func (r *Repo) GetByIDs(ctx context.Context, ids []int64) ([]domain.StoredVector, error) {
	return r.load(ctx, ids)
}

// Count returns the number of stored embeddings.
func (r *Repo) Count(ctx context.Context) (int, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"embedding:*")
	if err != nil {
		return 0, fmt.Errorf("scan embeddings: %w", err)
	}
	return len(keys), nil
}

// Dimensions returns the configured vector dimension.
func (r *Repo) Dimensions() int {
	return r.dimensions
}

func (r *Repo) load(ctx context.Context, ids []int64) ([]domain.StoredVector, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(id)
	}
	blobs, err := r.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load %d embeddings: %w", len(ids), err)
	}
	vectors := make([]domain.StoredVector, 0, len(ids))
	for i, blob := range blobs {
		if blob == nil {
			continue
		}
		vec, err := domain.DecodeVector(blob, r.dimensions)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", ids[i], err)
		}
		vectors = append(vectors, domain.StoredVector{ReportID: ids[i], Vector: vec})
	}
	return vectors, nil
}

func (r *Repo) key(id int64) string {
	return fmt.Sprintf("%sembedding:%d", r.prefix, id)
}
