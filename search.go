package consdex

import (
	"context"
	"time"

	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
)

// SearchRequest describes one similarity search over stored report
// narratives.
type SearchRequest struct {
	Query string
	// Limit caps the number of matches. Zero selects the default.
	Limit int
	// Threshold is the minimum similarity to keep. Nil selects the default.
	Threshold *float64
	// SecurityCode restricts candidates to one security when non-empty.
	SecurityCode string
}

// Match is one report ranked against a query.
type Match struct {
	ReportID     int64
	SecurityCode string
	Firm         string
	Rating       string
	TargetPrice  float64
	ReportDate   time.Time
	Similarity   float64
}

// Exploration is a query-driven sweep across all stored narratives.
type Exploration struct {
	Query             string
	Results           []Match
	RelatedSecurities []string
	AverageSimilarity float64
}

// Search embeds the query and returns stored reports ranked by cosine
// similarity descending, together with the securities they cover.
func (c *Client) Search(ctx context.Context, req SearchRequest) (res Exploration, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	out, err := c.insightSvc.Explore(ctx, domsearch.Request{
		Query:        req.Query,
		Limit:        req.Limit,
		Threshold:    req.Threshold,
		SecurityCode: req.SecurityCode,
	})
	if err != nil {
		return Exploration{}, err
	}
	return Exploration{
		Query:             out.Query,
		Results:           toMatches(out.Results),
		RelatedSecurities: out.RelatedSecurities,
		AverageSimilarity: out.AverageSimilarity,
	}, nil
}

func toMatches(ms []domsearch.Match) []Match {
	out := make([]Match, len(ms))
	for i, m := range ms {
		out[i] = Match{
			ReportID:     m.ReportID,
			SecurityCode: m.SecurityCode,
			Firm:         m.Firm,
			Rating:       string(m.Rating),
			TargetPrice:  m.TargetPrice,
			ReportDate:   m.ReportDate,
			Similarity:   m.Similarity,
		}
	}
	return out
}
