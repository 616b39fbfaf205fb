package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/consdex/internal/db"
)

// HSetMulti writes several hashes in one DoMulti pipeline. Report
// ingestion relies on this to land the report row and its security and
// recency index entries together in a single round-trip.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	pipe := make([]rueidis.Completed, 0, len(items))
	for _, item := range items {
		hset := s.b().Hset().Key(item.Key).FieldValue()
		for field, value := range item.Fields {
			hset = hset.FieldValue(field, value)
		}
		pipe = append(pipe, hset.Build())
	}

	for i, reply := range s.client.DoMulti(ctx, pipe...) {
		if err := reply.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", items[i].Key, err)}
		}
	}
	return nil
}

// HGetAll returns every field of the hash at key. A missing key comes
// back as an empty map, matching the server's behavior.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	return fields, nil
}

// HGetAllMulti pipelines HGETALL over keys and returns the field maps in
// key order. Missing keys yield empty maps at their positions.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	pipe := make([]rueidis.Completed, 0, len(keys))
	for _, key := range keys {
		pipe = append(pipe, s.b().Hgetall().Key(key).Build())
	}

	rows := make([]map[string]string, 0, len(keys))
	for i, reply := range s.client.DoMulti(ctx, pipe...) {
		fields, err := reply.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		rows = append(rows, fields)
	}
	return rows, nil
}
