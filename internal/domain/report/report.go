package report

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Field size limits, matching the upstream feed's column widths.
const (
	MaxSecurityCodeLen = 20
	MaxFirmLen         = 120
	MaxRatingRawLen    = 64
)

// DateLayout is the canonical report date form (civil date, no time zone).
const DateLayout = "2006-01-02"

// Report is one analyst report for a security (immutable value object).
// The triple (security code, firm, report date) identifies it uniquely;
// numeric ids are assigned by storage in insertion order.
type Report struct {
	id           int64
	securityCode string
	firm         string
	ratingRaw    string
	rating       Rating
	targetPrice  float64
	reportDate   time.Time
	createdAt    time.Time
}

// New validates inputs and creates a Report. The normalized rating is
// derived here so every constructed report carries one. The id and created
// timestamp stay zero until storage assigns them.
func New(securityCode, firm, ratingRaw string, targetPrice float64, reportDate time.Time) (Report, error) {
	securityCode = strings.TrimSpace(securityCode)
	firm = strings.TrimSpace(firm)

	if securityCode == "" {
		return Report{}, fmt.Errorf("security code is required")
	}
	if len(securityCode) > MaxSecurityCodeLen {
		return Report{}, fmt.Errorf("security code too long (max %d)", MaxSecurityCodeLen)
	}
	if firm == "" {
		return Report{}, fmt.Errorf("security firm is required")
	}
	if len(firm) > MaxFirmLen {
		return Report{}, fmt.Errorf("security firm too long (max %d)", MaxFirmLen)
	}
	// '|' delimits the identity triple in storage keys.
	if strings.ContainsRune(securityCode, '|') || strings.ContainsRune(firm, '|') {
		return Report{}, fmt.Errorf("security code and firm must not contain '|'")
	}
	if len(ratingRaw) > MaxRatingRawLen {
		return Report{}, fmt.Errorf("raw rating too long (max %d)", MaxRatingRawLen)
	}
	if targetPrice < 0 || math.IsNaN(targetPrice) || math.IsInf(targetPrice, 0) {
		return Report{}, fmt.Errorf("target price must be a non-negative number")
	}
	if reportDate.IsZero() {
		return Report{}, fmt.Errorf("report date is required")
	}

	return Report{
		securityCode: securityCode,
		firm:         firm,
		ratingRaw:    ratingRaw,
		rating:       NormalizeRating(ratingRaw),
		targetPrice:  targetPrice,
		reportDate:   truncateToDay(reportDate),
	}, nil
}

// Reconstruct creates a Report without validation (storage hydration).
// The stored normalized rating is trusted as-is: reports are immutable, so
// re-normalizing on read could silently rewrite history after a keyword change.
func Reconstruct(
	id int64, securityCode, firm, ratingRaw string, rating Rating,
	targetPrice float64, reportDate, createdAt time.Time,
) Report {
	return Report{
		id:           id,
		securityCode: securityCode,
		firm:         firm,
		ratingRaw:    ratingRaw,
		rating:       rating,
		targetPrice:  targetPrice,
		reportDate:   reportDate,
		createdAt:    createdAt,
	}
}

// WithIdentity returns a copy carrying the storage-assigned id and created timestamp.
func (r Report) WithIdentity(id int64, createdAt time.Time) Report {
	r.id = id
	r.createdAt = createdAt
	return r
}

// ID returns the storage-assigned report identifier (0 before persistence).
func (r Report) ID() int64 { return r.id }

// SecurityCode returns the exchange listing code the report covers.
func (r Report) SecurityCode() string { return r.securityCode }

// Firm returns the issuing securities firm.
func (r Report) Firm() string { return r.firm }

// RatingRaw returns the analyst's original rating string.
func (r Report) RatingRaw() string { return r.ratingRaw }

// Rating returns the normalized rating.
func (r Report) Rating() Rating { return r.rating }

// TargetPrice returns the analyst's target price.
func (r Report) TargetPrice() float64 { return r.targetPrice }

// ReportDate returns the report's publication date (midnight UTC).
func (r Report) ReportDate() time.Time { return r.reportDate }

// CreatedAt returns the ingestion timestamp (zero before persistence).
func (r Report) CreatedAt() time.Time { return r.createdAt }

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
