// Package consensus caches computed summaries between ingests.
package consensus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/consdex/internal/db"
	"github.com/kailas-cloud/consdex/internal/domain"
	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// store is the narrow database surface the cache needs (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Cache stores consensus summaries as JSON under per-security keys.
type Cache struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates a summary cache. An empty prefix falls back to the default
// namespace. A zero ttl stores entries without expiry; ingest-side
// invalidation then carries retention alone.
func New(s store, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = domain.KeyPrefix
	}
	return &Cache{store: s, prefix: prefix, ttl: ttl}
}

// Get returns the cached summary for a security, reporting a plain miss when
// no entry exists. A corrupt entry surfaces as an error so callers can log
// it before recomputing.
func (c *Cache) Get(ctx context.Context, securityCode string) (domcons.Summary, bool, error) {
	raw, err := c.store.Get(ctx, c.key(securityCode))
	if errors.Is(err, db.ErrKeyNotFound) {
		return domcons.Summary{}, false, nil
	}
	if err != nil {
		return domcons.Summary{}, false, fmt.Errorf("get cached summary %s: %w", securityCode, err)
	}

	sum, err := parseSummary(raw)
	if err != nil {
		return domcons.Summary{}, false, fmt.Errorf("parse cached summary %s: %w", securityCode, err)
	}
	return sum, true, nil
}

// Put stores a summary under the security's cache key.
func (c *Cache) Put(ctx context.Context, securityCode string, sum domcons.Summary) error {
	raw, err := json.Marshal(buildSummary(sum))
	if err != nil {
		return fmt.Errorf("encode summary %s: %w", securityCode, err)
	}

	key := c.key(securityCode)
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, raw, c.ttl)
	} else {
		err = c.store.Set(ctx, key, raw)
	}
	if err != nil {
		return fmt.Errorf("put cached summary %s: %w", securityCode, err)
	}
	return nil
}

// Del drops the security's cache entry. Deleting an absent key is a no-op.
func (c *Cache) Del(ctx context.Context, securityCode string) error {
	if err := c.store.Del(ctx, c.key(securityCode)); err != nil {
		return fmt.Errorf("del cached summary %s: %w", securityCode, err)
	}
	return nil
}

func (c *Cache) key(securityCode string) string {
	return fmt.Sprintf("%sconsensus:%s", c.prefix, securityCode)
}

// summaryDTO is the cached JSON form. Dates are civil dates; the
// distribution always carries all three rating buckets.
type summaryDTO struct {
	SecurityCode       string         `json:"security_code"`
	TotalReports       int            `json:"total_reports"`
	Distribution       map[string]int `json:"rating_distribution"`
	AverageTargetPrice float64        `json:"average_target_price"`
	LatestReportDate   string         `json:"latest_report_date"`
}

func buildSummary(sum domcons.Summary) summaryDTO {
	dist := make(map[string]int, len(sum.Distribution))
	for rating, n := range sum.Distribution {
		dist[string(rating)] = n
	}
	return summaryDTO{
		SecurityCode:       sum.SecurityCode,
		TotalReports:       sum.TotalReports,
		Distribution:       dist,
		AverageTargetPrice: sum.AverageTargetPrice,
		LatestReportDate:   sum.LatestReportDate.Format(domrep.DateLayout),
	}
}

func parseSummary(raw []byte) (domcons.Summary, error) {
	var dto summaryDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domcons.Summary{}, err
	}

	latest, err := time.Parse(domrep.DateLayout, dto.LatestReportDate)
	if err != nil {
		return domcons.Summary{}, fmt.Errorf("bad latest report date %q: %w", dto.LatestReportDate, err)
	}

	dist := map[domrep.Rating]int{
		domrep.RatingBuy:  dto.Distribution[string(domrep.RatingBuy)],
		domrep.RatingHold: dto.Distribution[string(domrep.RatingHold)],
		domrep.RatingSell: dto.Distribution[string(domrep.RatingSell)],
	}

	return domcons.Summary{
		SecurityCode:       dto.SecurityCode,
		TotalReports:       dto.TotalReports,
		Distribution:       dist,
		AverageTargetPrice: dto.AverageTargetPrice,
		LatestReportDate:   latest,
	}, nil
}
