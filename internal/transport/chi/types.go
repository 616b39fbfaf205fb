package chi

import (
	"time"

	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
	consensusuc "github.com/kailas-cloud/consdex/internal/usecase/consensus"
	insightuc "github.com/kailas-cloud/consdex/internal/usecase/insight"
	usageuc "github.com/kailas-cloud/consdex/internal/usecase/usage"
)

// errorCode tags the error envelope so clients can branch without parsing
// messages.
type errorCode string

const (
	codeBadRequest       errorCode = "bad_request"
	codeValidationFailed errorCode = "validation_failed"
	codeNotFound         errorCode = "not_found"
	codeEncodingFailed   errorCode = "encoding_failed"
	codeCorruptedVector  errorCode = "corrupted_vector"
	codeInternalError    errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// createReportRequest is the POST /reports body.
type createReportRequest struct {
	SecurityCode string  `json:"security_code"`
	SecurityFirm string  `json:"security_firm"`
	Rating       string  `json:"rating"`
	TargetPrice  float64 `json:"target_price"`
	ReportDate   string  `json:"report_date"`
	Narrative    string  `json:"narrative,omitempty"`
}

type reportDTO struct {
	ID           int64     `json:"id"`
	SecurityCode string    `json:"security_code"`
	SecurityFirm string    `json:"security_firm"`
	RatingRaw    string    `json:"rating_raw"`
	RatingNorm   string    `json:"rating_norm"`
	TargetPrice  float64   `json:"target_price"`
	ReportDate   string    `json:"report_date"`
	CreatedAt    time.Time `json:"created_at"`
}

type createReportResponse struct {
	Report   reportDTO `json:"report"`
	Created  bool      `json:"created"`
	Embedded bool      `json:"embedded"`
}

type collectResponse struct {
	Processed  int `json:"processed"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

type consensusDTO struct {
	SecurityCode       string         `json:"security_code"`
	TotalReports       int            `json:"total_reports"`
	RatingDistribution map[string]int `json:"rating_distribution"`
	AverageTargetPrice float64        `json:"average_target_price"`
	LatestReportDate   string         `json:"latest_report_date"`
}

// searchRequest is the POST /search body. Threshold distinguishes absent
// from zero, so the service default applies only when the field is omitted.
type searchRequest struct {
	Query        string   `json:"query"`
	Limit        int      `json:"limit,omitempty"`
	Threshold    *float64 `json:"threshold,omitempty"`
	SecurityCode string   `json:"security_code,omitempty"`
}

type matchDTO struct {
	ReportID     int64   `json:"report_id"`
	SecurityCode string  `json:"security_code"`
	SecurityFirm string  `json:"security_firm"`
	Rating       string  `json:"rating"`
	TargetPrice  float64 `json:"target_price"`
	ReportDate   string  `json:"report_date"`
	Similarity   float64 `json:"similarity"`
}

type searchResponse struct {
	Query             string     `json:"query"`
	Results           []matchDTO `json:"results"`
	Count             int        `json:"count"`
	RelatedSecurities []string   `json:"related_securities"`
	AverageSimilarity float64    `json:"average_similarity"`
}

// analyzeRequest is the POST /analysis/stock body.
type analyzeRequest struct {
	SecurityCode string `json:"security_code"`
}

type opinionDTO struct {
	Recommendation string `json:"recommendation"`
	Confidence     string `json:"confidence"`
}

type analysisResponse struct {
	SecurityCode   string       `json:"security_code"`
	Consensus      consensusDTO `json:"consensus"`
	Opinion        opinionDTO   `json:"opinion"`
	RelatedReports []matchDTO   `json:"related_reports"`
	AnalyzedAt     time.Time    `json:"analyzed_at"`
}

type recentReportsResponse struct {
	Reports []reportDTO `json:"reports"`
	Count   int         `json:"count"`
}

type securityDTO struct {
	SecurityCode string `json:"security_code"`
	ReportCount  int    `json:"report_count"`
}

type securitiesResponse struct {
	Securities []securityDTO `json:"securities"`
	Total      int           `json:"total"`
	Limit      int           `json:"limit"`
	Offset     int           `json:"offset"`
}

type statsResponse struct {
	TotalEmbeddings int    `json:"total_embeddings"`
	Model           string `json:"model"`
	Dimensions      int    `json:"dimensions"`
	DailyTokens     int64  `json:"daily_tokens"`
	MonthlyTokens   int64  `json:"monthly_tokens"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// --- Domain to wire conversions ---

func toReportDTO(rep domrep.Report) reportDTO {
	return reportDTO{
		ID:           rep.ID(),
		SecurityCode: rep.SecurityCode(),
		SecurityFirm: rep.Firm(),
		RatingRaw:    rep.RatingRaw(),
		RatingNorm:   string(rep.Rating()),
		TargetPrice:  rep.TargetPrice(),
		ReportDate:   rep.ReportDate().Format(domrep.DateLayout),
		CreatedAt:    rep.CreatedAt(),
	}
}

func toConsensusDTO(sum domcons.Summary) consensusDTO {
	dist := make(map[string]int, len(sum.Distribution))
	for rating, n := range sum.Distribution {
		dist[string(rating)] = n
	}
	return consensusDTO{
		SecurityCode:       sum.SecurityCode,
		TotalReports:       sum.TotalReports,
		RatingDistribution: dist,
		AverageTargetPrice: sum.AverageTargetPrice,
		LatestReportDate:   sum.LatestReportDate.Format(domrep.DateLayout),
	}
}

func toMatchDTOs(matches []domsearch.Match) []matchDTO {
	out := make([]matchDTO, len(matches))
	for i, m := range matches {
		out[i] = matchDTO{
			ReportID:     m.ReportID,
			SecurityCode: m.SecurityCode,
			SecurityFirm: m.Firm,
			Rating:       string(m.Rating),
			TargetPrice:  m.TargetPrice,
			ReportDate:   m.ReportDate.Format(domrep.DateLayout),
			Similarity:   m.Similarity,
		}
	}
	return out
}

func toSearchResponse(exp insightuc.Exploration) searchResponse {
	return searchResponse{
		Query:             exp.Query,
		Results:           toMatchDTOs(exp.Results),
		Count:             len(exp.Results),
		RelatedSecurities: exp.RelatedSecurities,
		AverageSimilarity: exp.AverageSimilarity,
	}
}

func toAnalysisResponse(a insightuc.Analysis) analysisResponse {
	return analysisResponse{
		SecurityCode:   a.SecurityCode,
		Consensus:      toConsensusDTO(a.Summary),
		Opinion:        opinionDTO{Recommendation: a.Opinion.Recommendation, Confidence: string(a.Opinion.Confidence)},
		RelatedReports: toMatchDTOs(a.Related),
		AnalyzedAt:     a.AnalyzedAt,
	}
}

func toSecurityDTOs(counts []consensusuc.SecurityCount) []securityDTO {
	out := make([]securityDTO, len(counts))
	for i, c := range counts {
		out[i] = securityDTO{SecurityCode: c.Code, ReportCount: c.Reports}
	}
	return out
}

func toStatsResponse(snap usageuc.Snapshot) statsResponse {
	return statsResponse{
		TotalEmbeddings: snap.StoredEmbeddings,
		Model:           snap.Model,
		Dimensions:      snap.Dimensions,
		DailyTokens:     snap.DailyTokens,
		MonthlyTokens:   snap.MonthlyTokens,
	}
}
