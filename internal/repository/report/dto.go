package report

import (
	"fmt"
	"strconv"
	"time"

	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// Row field names. rating_norm is the normalized rating derived at ingest;
// rating_raw preserves the analyst's original wording.
const (
	fieldSecurityCode = "security_code"
	fieldFirm         = "firm"
	fieldRatingRaw    = "rating_raw"
	fieldRatingNorm   = "rating_norm"
	fieldTargetPrice  = "target_price"
	fieldReportDate   = "report_date"
	fieldCreatedAt    = "created_at"
)

// buildRowFields converts a report into a flat map[string]string for HSET.
func buildRowFields(rep domrep.Report) map[string]string {
	return map[string]string{
		fieldSecurityCode: rep.SecurityCode(),
		fieldFirm:         rep.Firm(),
		fieldRatingRaw:    rep.RatingRaw(),
		fieldRatingNorm:   string(rep.Rating()),
		fieldTargetPrice:  strconv.FormatFloat(rep.TargetPrice(), 'f', -1, 64),
		fieldReportDate:   rep.ReportDate().Format(domrep.DateLayout),
		fieldCreatedAt:    rep.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

// parseRowFields hydrates a stored row. A malformed field is an error; rows
// are never partially repaired.
func parseRowFields(id int64, m map[string]string) (domrep.Report, error) {
	rating, err := domrep.ParseRating(m[fieldRatingNorm])
	if err != nil {
		return domrep.Report{}, fmt.Errorf("report %d: %w", id, err)
	}
	price, err := strconv.ParseFloat(m[fieldTargetPrice], 64)
	if err != nil {
		return domrep.Report{}, fmt.Errorf("report %d: bad target price %q: %w", id, m[fieldTargetPrice], err)
	}
	date, err := time.Parse(domrep.DateLayout, m[fieldReportDate])
	if err != nil {
		return domrep.Report{}, fmt.Errorf("report %d: bad report date %q: %w", id, m[fieldReportDate], err)
	}
	created, err := time.Parse(time.RFC3339Nano, m[fieldCreatedAt])
	if err != nil {
		return domrep.Report{}, fmt.Errorf("report %d: bad created timestamp %q: %w", id, m[fieldCreatedAt], err)
	}
	return domrep.Reconstruct(
		id, m[fieldSecurityCode], m[fieldFirm], m[fieldRatingRaw], rating,
		price, date, created,
	), nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
