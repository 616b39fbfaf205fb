package consensus

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// Listing page size bounds.
const (
	DefaultRecentLimit = 20
	MaxRecentLimit     = 100

	DefaultSecuritiesLimit = 50
	MaxSecuritiesLimit     = 200
)

// SecurityCount pairs a security code with its stored report count.
type SecurityCount struct {
	Code    string
	Reports int
}

// Service serves consensus summaries and report listings.
type Service struct {
	repo   Repository
	cache  SummaryCache
	logger *zap.Logger
}

// New creates a consensus service. A nil cache disables summary caching.
func New(repo Repository, cache SummaryCache, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Summarize aggregates a security's reports into a consensus summary,
// serving from cache when possible. Cache failures degrade to a recompute,
// never to a failed request.
func (s *Service) Summarize(ctx context.Context, securityCode string) (domcons.Summary, error) {
	securityCode = strings.TrimSpace(securityCode)
	if securityCode == "" {
		return domcons.Summary{}, fmt.Errorf("security code is required: %w", domain.ErrInvalidArgument)
	}

	if s.cache != nil {
		sum, ok, err := s.cache.Get(ctx, securityCode)
		if err != nil {
			s.logger.Warn("Summary cache read failed",
				zap.String("security_code", securityCode),
				zap.Error(err),
			)
		} else if ok {
			return sum, nil
		}
	}

	reports, err := s.repo.ListBySecurity(ctx, securityCode)
	if err != nil {
		return domcons.Summary{}, fmt.Errorf("list reports: %w", err)
	}

	sum, err := domcons.Summarize(securityCode, reports)
	if err != nil {
		return domcons.Summary{}, err
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, securityCode, sum); err != nil {
			s.logger.Warn("Summary cache write failed",
				zap.String("security_code", securityCode),
				zap.Error(err),
			)
		}
	}
	return sum, nil
}

// Invalidate drops the security's cached summary so the next Summarize
// recomputes it. Ingest calls this after every created row.
func (s *Service) Invalidate(ctx context.Context, securityCode string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, securityCode)
}

// Recent lists the newest reports, optionally filtered to one security.
// Ordering is created timestamp descending with id descending as tie-break.
func (s *Service) Recent(ctx context.Context, securityCode string, limit int) ([]domrep.Report, error) {
	limit = clampLimit(limit, DefaultRecentLimit, MaxRecentLimit)

	if securityCode = strings.TrimSpace(securityCode); securityCode != "" {
		reports, err := s.repo.ListBySecurity(ctx, securityCode)
		if err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		sortNewestFirst(reports)
		if len(reports) > limit {
			reports = reports[:limit]
		}
		return reports, nil
	}

	reports, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent reports: %w", err)
	}
	return reports, nil
}

// Securities lists distinct security codes with report counts, paginated by
// offset. Codes sort ascending so pages stay stable between calls. The
// second return value is the total number of distinct codes.
func (s *Service) Securities(ctx context.Context, limit, offset int) ([]SecurityCount, int, error) {
	limit = clampLimit(limit, DefaultSecuritiesLimit, MaxSecuritiesLimit)
	if offset < 0 {
		offset = 0
	}

	counts, err := s.repo.CountBySecurity(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count securities: %w", err)
	}

	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	total := len(codes)
	if offset >= total {
		return []SecurityCount{}, total, nil
	}
	codes = codes[offset:]
	if len(codes) > limit {
		codes = codes[:limit]
	}

	page := make([]SecurityCount, len(codes))
	for i, code := range codes {
		page[i] = SecurityCount{Code: code, Reports: counts[code]}
	}
	return page, total, nil
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func sortNewestFirst(reports []domrep.Report) {
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt().Equal(reports[j].CreatedAt()) {
			return reports[i].CreatedAt().After(reports[j].CreatedAt())
		}
		return reports[i].ID() > reports[j].ID()
	})
}
