package search

import (
	"time"

	"github.com/kailas-cloud/consdex/internal/domain/report"
)

// Request describes one similarity search over stored report narratives.
type Request struct {
	Query string
	// Limit caps the number of matches. Zero selects the service default.
	Limit int
	// Threshold is the minimum similarity to keep. Nil selects the service default.
	Threshold *float64
	// SecurityCode restricts candidates to one security when non-empty.
	SecurityCode string
}

// Match is one report ranked against a query.
type Match struct {
	ReportID     int64
	SecurityCode string
	Firm         string
	Rating       report.Rating
	TargetPrice  float64
	ReportDate   time.Time
	Similarity   float64
}
