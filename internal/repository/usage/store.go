package usage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
)

// store is the consumer interface for usage counters (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Counter retention. Buckets outlive their period so a snapshot taken right
// after rollover still sees the closing bucket.
const (
	dailyTTL   = 48 * time.Hour
	monthlyTTL = 62 * 24 * time.Hour
)

// Store keeps encoder token counters in daily and monthly UTC buckets
// (INCRBY + GET, TTL armed on first write).
type Store struct {
	store  store
	prefix string
}

// New creates a usage counter store.
func New(s store, prefix string) *Store {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Store{store: s, prefix: prefix}
}

// Record adds tokens to the buckets covering now.
func (s *Store) Record(ctx context.Context, now time.Time, tokens int64) error {
	if tokens <= 0 {
		return nil
	}
	if err := s.incr(ctx, s.dayKey(now), tokens, dailyTTL); err != nil {
		return err
	}
	return s.incr(ctx, s.monthKey(now), tokens, monthlyTTL)
}

// Tokens returns the daily and monthly counters covering now.
// Absent buckets read as zero.
func (s *Store) Tokens(ctx context.Context, now time.Time) (daily, monthly int64, err error) {
	daily, err = s.get(ctx, s.dayKey(now))
	if err != nil {
		return 0, 0, err
	}
	monthly, err = s.get(ctx, s.monthKey(now))
	if err != nil {
		return 0, 0, err
	}
	return daily, monthly, nil
}

func (s *Store) incr(ctx context.Context, key string, tokens int64, ttl time.Duration) error {
	if err := s.store.IncrBy(ctx, key, tokens); err != nil {
		return fmt.Errorf("usage INCRBY %s: %w", key, err)
	}
	// NX: the TTL is armed once and never reset by later increments.
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return fmt.Errorf("usage EXPIRE %s: %w", key, err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) (int64, error) {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage GET %s: %w", key, err)
	}
	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("usage GET %s parse: %w", key, err)
	}
	return val, nil
}

func (s *Store) dayKey(t time.Time) string {
	return fmt.Sprintf("%susage:tokens:day:%s", s.prefix, t.UTC().Format("2006-01-02"))
}

func (s *Store) monthKey(t time.Time) string {
	return fmt.Sprintf("%susage:tokens:month:%s", s.prefix, t.UTC().Format("2006-01"))
}
