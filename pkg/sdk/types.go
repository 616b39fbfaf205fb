package sdk

import "time"

// DateLayout is the wire format for report dates.
const DateLayout = "2006-01-02"

// ReportInput is the body of POST /reports.
type ReportInput struct {
	SecurityCode string  `json:"security_code"`
	Firm         string  `json:"security_firm"`
	Rating       string  `json:"rating"`
	TargetPrice  float64 `json:"target_price"`
	// ReportDate is formatted per DateLayout.
	ReportDate string `json:"report_date"`
	Narrative  string `json:"narrative,omitempty"`
}

// Report mirrors the service's stored report representation. Rating is the
// normalized bucket (buy, hold, sell); RatingRaw preserves the label as
// published.
type Report struct {
	ID           int64     `json:"id"`
	SecurityCode string    `json:"security_code"`
	Firm         string    `json:"security_firm"`
	RatingRaw    string    `json:"rating_raw"`
	Rating       string    `json:"rating_norm"`
	TargetPrice  float64   `json:"target_price"`
	ReportDate   string    `json:"report_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// IngestResult is the response of POST /reports.
type IngestResult struct {
	Report   Report `json:"report"`
	Created  bool   `json:"created"`
	Embedded bool   `json:"embedded"`
}

// BatchResult is the response of POST /data/collect.
type BatchResult struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// Consensus is the response of GET /consensus/{code}.
type Consensus struct {
	SecurityCode       string         `json:"security_code"`
	TotalReports       int            `json:"total_reports"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	AverageTargetPrice float64        `json:"average_target_price"`
	LatestReportDate   string         `json:"latest_report_date"`
}

// SearchRequest is the body of POST /search. A nil Threshold selects the
// service default; zero limit does the same.
type SearchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	SecurityCode string   `json:"security_code,omitempty"`
}

// Match is one report ranked against a query.
type Match struct {
	ReportID     int64   `json:"report_id"`
	SecurityCode string  `json:"security_code"`
	Firm         string  `json:"security_firm"`
	Rating       string  `json:"rating"`
	TargetPrice  float64 `json:"target_price"`
	ReportDate   string  `json:"report_date"`
	Similarity   float64 `json:"similarity"`
}

// SearchResult is the response of POST /search.
type SearchResult struct {
	Query             string   `json:"query"`
	Results           []Match  `json:"results"`
	Count             int      `json:"count"`
	RelatedSecurities []string `json:"related_securities"`
	AverageSimilarity float64  `json:"average_similarity"`
}

// Opinion is the derived recommendation inside an Analysis.
type Opinion struct {
	Recommendation string `json:"recommendation"`
	Confidence     string `json:"confidence"`
}

// Analysis is the response of POST /analysis/stock.
type Analysis struct {
	SecurityCode   string    `json:"security_code"`
	Consensus      Consensus `json:"consensus"`
	Opinion        Opinion   `json:"opinion"`
	RelatedReports []Match   `json:"related_reports"`
	AnalyzedAt     time.Time `json:"analyzed_at"`
}

// RecentReports is the response of GET /reports/recent.
type RecentReports struct {
	Reports []Report `json:"reports"`
	Count   int      `json:"count"`
}

// SecurityCount pairs a security code with its stored report count.
type SecurityCount struct {
	SecurityCode string `json:"security_code"`
	ReportCount  int    `json:"report_count"`
}

// Securities is the response of GET /stocks.
type Securities struct {
	Securities []SecurityCount `json:"securities"`
	Total      int             `json:"total"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// Stats is the response of GET /embeddings/stats.
type Stats struct {
	TotalEmbeddings int    `json:"total_embeddings"`
	Model           string `json:"model"`
	Dimensions      int    `json:"dimensions"`
	DailyTokens     int64  `json:"daily_tokens"`
	MonthlyTokens   int64  `json:"monthly_tokens"`
}

// Health is the response of GET /health.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// analyzeRequest is the body of POST /analysis/stock.
type analyzeRequest struct {
	SecurityCode string `json:"security_code"`
}
