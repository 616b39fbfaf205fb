// Package redis implements db.Store on top of rueidis. The service runs
// against Valkey in production; the command set used here (strings,
// hashes, SCAN) is identical on both servers, so one driver covers both.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/consdex/internal/db"
)

var _ db.Store = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	// Addrs seeds the client; rueidis discovers the rest of a cluster.
	Addrs    []string
	Username string
	Password string
	// DB selects the logical database on standalone servers.
	DB int
}

// Store is a rueidis-backed db.Store.
type Store struct {
	client rueidis.Client
}

// NewStore connects to the addresses in cfg. Client-side caching is
// disabled: report rows are written once and read through repository
// caches with explicit TTLs, so tracking invalidation buys nothing here.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("no database addresses configured")
	}

	opt := rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	}
	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client}, nil
}

// Ping round-trips a PING command.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

// WaitForReady blocks until the store answers a ping or the timeout
// expires. It probes immediately, then retries on a short interval, so
// startup against an already-running store costs one round-trip.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	const probeInterval = 100 * time.Millisecond

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		if err := s.Ping(probeCtx); err == nil {
			return nil
		}
		select {
		case <-probeCtx.Done():
			return fmt.Errorf("database not ready after %s: %w", timeout, probeCtx.Err())
		case <-ticker.C:
		}
	}
}
