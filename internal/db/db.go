package db

import (
	"context"
	"time"
)

// Store is the full database surface. Repositories depend on narrow
// consumer interfaces of their own; Store exists for composition roots
// that wire everything at once.
//
//nolint:interfacebloat // composition-root facade; consumers take the narrow slices below
type Store interface {
	Pinger
	KVStore
	HashStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger answers liveness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore covers the string-key operations: report claim keys and the id
// sequence (SetNX/Incr), vector and cache blobs (Get/Set/SetWithTTL), and
// token counters (IncrBy/Expire).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetNX(ctx context.Context, key string, value []byte) (bool, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// HashSetItem is one key with its field set, for pipelined HSET.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// HashStore covers the hash operations backing report rows and the
// security/recency indexes.
type HashStore interface {
	HSetMulti(ctx context.Context, items []HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}
