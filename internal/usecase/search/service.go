package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/consdex/internal/domain"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
)

// Config bounds search requests.
type Config struct {
	DefaultLimit     int
	MaxLimit         int
	DefaultThreshold float64
}

// DefaultConfig returns the standard search bounds.
func DefaultConfig() Config {
	return Config{DefaultLimit: 10, MaxLimit: 50, DefaultThreshold: 0.5}
}

// Service ranks stored report narratives against a query by cosine similarity.
type Service struct {
	reports    ReportSource
	embeddings EmbeddingSource
	embed      Embedder
	cfg        Config
}

// New creates a search service.
func New(reports ReportSource, embeddings EmbeddingSource, embed Embedder, cfg Config) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = DefaultConfig().DefaultThreshold
	}
	return &Service{reports: reports, embeddings: embeddings, embed: embed, cfg: cfg}
}

// Search embeds the query once, scores every candidate vector, and returns
// matches at or above the threshold ordered by similarity descending with
// report-id ascending as the tie-break.
func (s *Service) Search(ctx context.Context, req domsearch.Request) ([]domsearch.Match, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidArgument)
	}

	limit := req.Limit
	if limit == 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit < 1 || limit > s.cfg.MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidArgument, s.cfg.MaxLimit)
	}

	threshold := s.cfg.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("%w: threshold must be between 0 and 1", domain.ErrInvalidArgument)
		}
	}

	embResult, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	domain.UsageFromContext(ctx).AddTokens(embResult.TotalTokens)

	candidates, err := s.candidates(ctx, req.SecurityCode)
	if err != nil {
		return nil, err
	}

	matches := make([]domsearch.Match, 0, len(candidates))
	for _, c := range candidates {
		sim := domain.Cosine(embResult.Embedding, c.Vector)
		if sim < threshold {
			continue
		}
		matches = append(matches, domsearch.Match{ReportID: c.ReportID, Similarity: sim})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ReportID < matches[j].ReportID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	return s.attachReports(ctx, matches)
}

// candidates enumerates the vectors to score. With a security code the
// report index narrows the scan; otherwise every stored vector is read.
func (s *Service) candidates(ctx context.Context, securityCode string) ([]domain.StoredVector, error) {
	if securityCode == "" {
		vectors, err := s.embeddings.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("load vectors: %w", err)
		}
		return vectors, nil
	}

	ids, err := s.reports.IDsBySecurity(ctx, securityCode)
	if err != nil {
		return nil, fmt.Errorf("load security index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	vectors, err := s.embeddings.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	return vectors, nil
}

// attachReports joins report metadata onto the surviving matches. Reports
// missing behind a stale vector are dropped rather than failing the search.
func (s *Service) attachReports(ctx context.Context, matches []domsearch.Match) ([]domsearch.Match, error) {
	if len(matches) == 0 {
		return []domsearch.Match{}, nil
	}

	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ReportID)
	}

	reports, err := s.reports.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	out := matches[:0]
	for _, m := range matches {
		rep, ok := reports[m.ReportID]
		if !ok {
			continue
		}
		m.SecurityCode = rep.SecurityCode()
		m.Firm = rep.Firm()
		m.Rating = rep.Rating()
		m.TargetPrice = rep.TargetPrice()
		m.ReportDate = rep.ReportDate()
		out = append(out, m)
	}
	return out, nil
}
