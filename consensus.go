package consdex

import (
	"context"
	"time"

	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	consensusuc "github.com/kailas-cloud/consdex/internal/usecase/consensus"
)

// Consensus aggregates analyst ratings for one security. Distribution
// always carries all three buckets (buy, hold, sell), zero counts included.
type Consensus struct {
	SecurityCode       string
	TotalReports       int
	Distribution       map[string]int
	AverageTargetPrice float64
	LatestReportDate   time.Time
}

// SecurityCount pairs a security code with its stored report count.
type SecurityCount struct {
	SecurityCode string
	Reports      int
}

// Consensus returns the rating distribution, mean target price and latest
// report date for a security. A security with no reports yields ErrNotFound.
func (c *Client) Consensus(ctx context.Context, securityCode string) (res Consensus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("consensus", start, err) }()

	sum, err := c.consensusSvc.Summarize(ctx, securityCode)
	if err != nil {
		return Consensus{}, err
	}
	return toConsensus(sum), nil
}

// RecentReports lists stored reports newest first, restricted to one
// security when securityCode is non-empty. Zero limit selects the default.
func (c *Client) RecentReports(ctx context.Context, securityCode string, limit int) (res []Report, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recent_reports", start, err) }()

	reps, err := c.consensusSvc.Recent(ctx, securityCode, limit)
	if err != nil {
		return nil, err
	}
	return toReports(reps), nil
}

// Securities pages through covered securities ordered by report count
// descending. It returns the page and the total number of covered
// securities.
func (c *Client) Securities(ctx context.Context, limit, offset int) (res []SecurityCount, total int, err error) {
	start := time.Now()
	defer func() { c.obs.observe("securities", start, err) }()

	counts, total, err := c.consensusSvc.Securities(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SecurityCount, len(counts))
	for i, sc := range counts {
		out[i] = SecurityCount{SecurityCode: sc.Code, Reports: sc.Reports}
	}
	return out, total, nil
}

func toConsensus(sum domcons.Summary) Consensus {
	dist := make(map[string]int, len(sum.Distribution))
	for rating, n := range sum.Distribution {
		dist[string(rating)] = n
	}
	return Consensus{
		SecurityCode:       sum.SecurityCode,
		TotalReports:       sum.TotalReports,
		Distribution:       dist,
		AverageTargetPrice: sum.AverageTargetPrice,
		LatestReportDate:   sum.LatestReportDate,
	}
}

// consensusUseCase is the internal interface for consensus aggregation.
type consensusUseCase interface {
	Summarize(ctx context.Context, securityCode string) (domcons.Summary, error)
	Recent(ctx context.Context, securityCode string, limit int) ([]domrep.Report, error)
	Securities(ctx context.Context, limit, offset int) ([]consensusuc.SecurityCount, int, error)
}
