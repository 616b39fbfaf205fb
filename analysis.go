package consdex

import (
	"context"
	"time"

	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
	insightuc "github.com/kailas-cloud/consdex/internal/usecase/insight"
)

// Opinion is a derived overall recommendation for a security, with a
// confidence grade backing it.
type Opinion struct {
	Recommendation string
	Confidence     string
}

// Analysis is the full consensus picture for one security.
type Analysis struct {
	SecurityCode string
	Consensus    Consensus
	Opinion      Opinion
	Related      []Match
	AnalyzedAt   time.Time
}

// Analyze summarizes a security's consensus, derives a recommendation from
// the rating distribution and attaches the closest stored narratives for
// that security. A security with no reports yields ErrNotFound.
func (c *Client) Analyze(ctx context.Context, securityCode string) (res Analysis, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analyze", start, err) }()

	out, err := c.insightSvc.Analyze(ctx, securityCode)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		SecurityCode: out.SecurityCode,
		Consensus:    toConsensus(out.Summary),
		Opinion: Opinion{
			Recommendation: out.Opinion.Recommendation,
			Confidence:     string(out.Opinion.Confidence),
		},
		Related:    toMatches(out.Related),
		AnalyzedAt: out.AnalyzedAt,
	}, nil
}

// insightUseCase is the internal interface for analysis and exploration.
type insightUseCase interface {
	Analyze(ctx context.Context, securityCode string) (insightuc.Analysis, error)
	Explore(ctx context.Context, req domsearch.Request) (insightuc.Exploration, error)
}
