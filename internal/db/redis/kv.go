package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/consdex/internal/db"
)

// Get returns the value at key, or db.ErrKeyNotFound when the key is
// absent. Absence is the common path for claim lookups and cache reads,
// so it is a sentinel rather than a wrapped driver error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.do(ctx, s.b().Get().Key(key).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// GetMulti fetches several keys in one MGET. The result is positional:
// absent keys leave a nil slot, so callers can tell a miss from an
// empty value.
func (s *Store) GetMulti(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	arr, err := s.do(ctx, s.b().Mget().Key(keys...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMGet, Err: err}
	}

	out := make([][]byte, len(arr))
	for i, msg := range arr {
		if msg.IsNil() {
			continue
		}
		data, err := msg.AsBytes()
		if err != nil {
			return nil, &db.Error{Op: db.OpMGet, Err: err}
		}
		out[i] = data
	}
	return out, nil
}

// Set stores value at key without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.write(ctx, db.OpSet, s.b().Set().Key(key).Value(string(value)).Build())
}

// SetNX writes only when the key is still unset and reports whether this
// call won. Losing is not an error; report ingestion uses the false
// return to detect a concurrent duplicate.
func (s *Store) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	err := s.do(ctx, s.b().Set().Key(key).Value(string(value)).Nx().Build()).Error()
	switch {
	case rueidis.IsRedisNil(err):
		return false, nil
	case err != nil:
		return false, &db.Error{Op: db.OpSet, Err: err}
	}
	return true, nil
}

// SetWithTTL stores value at key with an expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.write(ctx, db.OpSet, s.b().Set().Key(key).Value(string(value)).Ex(ttl).Build())
}

// Incr adds one to the integer at key and returns the new value. This
// backs the report id sequence.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	val, err := s.do(ctx, s.b().Incr().Key(key).Build()).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	return val, nil
}

// IncrBy adds val to the integer at key, creating it at zero first.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	return s.write(ctx, db.OpIncrBy, s.b().Incrby().Key(key).Increment(val).Build())
}

// Expire puts a TTL on key. With nx the TTL is applied only when the key
// has none yet, which keeps a counter's window anchored to its first
// increment.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	exp := s.b().Expire().Key(key).Seconds(int64(ttl.Seconds()))
	if nx {
		return s.write(ctx, db.OpExpire, exp.Nx().Build())
	}
	return s.write(ctx, db.OpExpire, exp.Build())
}

// Del removes a key. Deleting an absent key is a no-op, which is what
// cache invalidation wants.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.write(ctx, db.OpDel, s.b().Del().Key(key).Build())
}

// Scan walks the keyspace with SCAN/MATCH and collects every key that
// matches pattern. Page size 100 keeps each round-trip bounded without
// pinning the server.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(100).Build()
		res, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, res.Elements...)
		cursor = res.Cursor
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// write runs a command whose reply carries no data, tagging any failure
// with the operation name.
func (s *Store) write(ctx context.Context, op string, cmd rueidis.Completed) error {
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}
