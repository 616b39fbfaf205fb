// Package consensus aggregates analyst reports into per-security summaries.
package consensus

import (
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/consdex/internal/domain"
	"github.com/kailas-cloud/consdex/internal/domain/report"
)

// Summary is the aggregate view of one security's analyst reports.
type Summary struct {
	SecurityCode       string
	TotalReports       int
	Distribution       map[report.Rating]int
	AverageTargetPrice float64
	LatestReportDate   time.Time
}

// Summarize folds reports into a Summary in a single pass. All three rating
// buckets are always present, zero counts included. The mean target price is
// unweighted and rounded to two decimals. Zero reports yield ErrNotFound:
// an absent consensus is an explicit outcome, not an empty aggregate.
func Summarize(securityCode string, reports []report.Report) (Summary, error) {
	if len(reports) == 0 {
		return Summary{}, fmt.Errorf("no reports for security %q: %w", securityCode, domain.ErrNotFound)
	}

	dist := map[report.Rating]int{
		report.RatingBuy:  0,
		report.RatingHold: 0,
		report.RatingSell: 0,
	}

	var priceSum float64
	var latest time.Time
	for _, r := range reports {
		dist[r.Rating()]++
		priceSum += r.TargetPrice()
		if r.ReportDate().After(latest) {
			latest = r.ReportDate()
		}
	}

	return Summary{
		SecurityCode:       securityCode,
		TotalReports:       len(reports),
		Distribution:       dist,
		AverageTargetPrice: round2(priceSum / float64(len(reports))),
		LatestReportDate:   latest,
	}, nil
}

// BuyRatio returns the share of buy ratings.
func (s Summary) BuyRatio() float64 {
	if s.TotalReports == 0 {
		return 0
	}
	return float64(s.Distribution[report.RatingBuy]) / float64(s.TotalReports)
}

// SellRatio returns the share of sell ratings.
func (s Summary) SellRatio() float64 {
	if s.TotalReports == 0 {
		return 0
	}
	return float64(s.Distribution[report.RatingSell]) / float64(s.TotalReports)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
