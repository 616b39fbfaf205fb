package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	dominsight "github.com/kailas-cloud/consdex/internal/domain/insight"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
)

// relatedLimit caps the supporting reports attached to a security analysis.
const relatedLimit = 5

// Config bounds exploratory searches.
type Config struct {
	// ExploreThreshold is the similarity floor for Explore when the request
	// carries none. Exploration casts a wider net than targeted search.
	ExploreThreshold float64
}

// DefaultConfig returns the standard insight bounds.
func DefaultConfig() Config {
	return Config{ExploreThreshold: 0.3}
}

// Analysis is the full consensus picture for one security.
type Analysis struct {
	SecurityCode string
	Summary      domcons.Summary
	Opinion      dominsight.Opinion
	Related      []domsearch.Match
	AnalyzedAt   time.Time
}

// Exploration is a query-driven sweep across all stored narratives.
type Exploration struct {
	Query             string
	Results           []domsearch.Match
	RelatedSecurities []string
	AverageSimilarity float64
}

// Service derives investment insight from stored consensus and narratives.
type Service struct {
	consensus ConsensusReader
	search    Searcher
	cfg       Config
	logger    *zap.Logger
}

// New creates an insight service.
func New(consensus ConsensusReader, search Searcher, cfg Config, logger *zap.Logger) *Service {
	if cfg.ExploreThreshold <= 0 {
		cfg.ExploreThreshold = DefaultConfig().ExploreThreshold
	}
	return &Service{consensus: consensus, search: search, cfg: cfg, logger: logger}
}

// Analyze summarizes a security's consensus, derives a recommendation from
// the rating distribution, and attaches the closest stored narratives for
// that security. The related search is supplementary: its failure is logged
// and the analysis stands without it.
func (s *Service) Analyze(ctx context.Context, securityCode string) (Analysis, error) {
	securityCode = strings.TrimSpace(securityCode)
	if securityCode == "" {
		return Analysis{}, fmt.Errorf("security code is required: %w", domain.ErrInvalidArgument)
	}

	summary, err := s.consensus.Summarize(ctx, securityCode)
	if err != nil {
		return Analysis{}, fmt.Errorf("summarize consensus: %w", err)
	}

	related, err := s.search.Search(ctx, domsearch.Request{
		Query:        fmt.Sprintf("종목코드 %s 투자 분석", securityCode),
		Limit:        relatedLimit,
		SecurityCode: securityCode,
	})
	if err != nil {
		s.logger.Warn("Related report search failed",
			zap.String("security_code", securityCode),
			zap.Error(err),
		)
		related = nil
	}

	return Analysis{
		SecurityCode: securityCode,
		Summary:      summary,
		Opinion:      dominsight.Derive(summary),
		Related:      related,
		AnalyzedAt:   time.Now().UTC(),
	}, nil
}

// Explore runs a similarity search across every stored narrative and
// aggregates what came back: the securities touched, in rank order, and the
// mean similarity of the matches. Unlike Analyze's targeted lookup it uses
// a lower default threshold so thin corpora still surface neighbors.
func (s *Service) Explore(ctx context.Context, req domsearch.Request) (Exploration, error) {
	if req.Threshold == nil {
		th := s.cfg.ExploreThreshold
		req.Threshold = &th
	}

	matches, err := s.search.Search(ctx, req)
	if err != nil {
		return Exploration{}, fmt.Errorf("explore narratives: %w", err)
	}

	return Exploration{
		Query:             strings.TrimSpace(req.Query),
		Results:           matches,
		RelatedSecurities: relatedSecurities(matches),
		AverageSimilarity: averageSimilarity(matches),
	}, nil
}

// relatedSecurities lists distinct security codes in match-rank order.
func relatedSecurities(matches []domsearch.Match) []string {
	codes := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, ok := seen[m.SecurityCode]; ok {
			continue
		}
		seen[m.SecurityCode] = struct{}{}
		codes = append(codes, m.SecurityCode)
	}
	return codes
}

func averageSimilarity(matches []domsearch.Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	var sum float64
	for _, m := range matches {
		sum += m.Similarity
	}
	return sum / float64(len(matches))
}
