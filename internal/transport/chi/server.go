// Package chi provides the HTTP transport layer for the consdex API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
	healthuc "github.com/kailas-cloud/consdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/consdex/internal/usecase/ingest"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the usecases over REST.
type Server struct {
	ingest        Ingestor
	consensus     ConsensusReader
	insight       Analyzer
	usage         UsageReader
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest Ingestor,
	consensus ConsensusReader,
	insight Analyzer,
	usage UsageReader,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest:    ingest,
		consensus: consensus,
		insight:   insight,
		usage:     usage,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		dimensionMismatchHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEncodingFailed, http.StatusBadGateway, codeEncodingFailed),
	}
	return s
}

// Register mounts all API routes on the given router. The caller picks the
// prefix, so route paths and auth exemptions stay together in main.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/reports", s.handleCreateReport)
	r.Get("/reports/recent", s.handleRecentReports)
	r.Post("/data/collect", s.handleCollect)
	r.Get("/consensus/{code}", s.handleConsensus)
	r.Post("/search", s.handleSearch)
	r.Post("/analysis/stock", s.handleAnalyze)
	r.Get("/stocks", s.handleSecurities)
	r.Get("/embeddings/stats", s.handleStats)
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// handleCreateReport handles POST /reports. Replaying an already stored
// report answers 200 with the stored row instead of 201.
func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reportDate, err := parseReportDate(req.ReportDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ingest.Ingest(ctx, ingestuc.Input{
		SecurityCode: req.SecurityCode,
		Firm:         req.SecurityFirm,
		Rating:       req.Rating,
		TargetPrice:  req.TargetPrice,
		ReportDate:   reportDate,
		Narrative:    req.Narrative,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, status, createReportResponse{
		Report:   toReportDTO(res.Report),
		Created:  res.Created,
		Embedded: res.Embedded,
	})
}

// handleRecentReports handles GET /reports/recent.
func (s *Server) handleRecentReports(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}

	reports, err := s.consensus.Recent(r.Context(), r.URL.Query().Get("security_code"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dtos := make([]reportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = toReportDTO(rep)
	}

	writeJSON(w, http.StatusOK, recentReportsResponse{Reports: dtos, Count: len(dtos)})
}

// handleCollect handles POST /data/collect.
func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.ingest.CollectSamples(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, collectResponse{
		Processed:  res.Processed,
		Duplicates: res.Duplicates,
		Failed:     res.Failed,
		Total:      res.Total,
	})
}

// handleConsensus handles GET /consensus/{code}.
func (s *Server) handleConsensus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	summary, err := s.consensus.Summarize(r.Context(), code)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConsensusDTO(summary))
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	exp, err := s.insight.Explore(ctx, domsearch.Request{
		Query:        req.Query,
		Limit:        req.Limit,
		Threshold:    req.Threshold,
		SecurityCode: req.SecurityCode,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, toSearchResponse(exp))
}

// handleAnalyze handles POST /analysis/stock.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	analysis, err := s.insight.Analyze(ctx, req.SecurityCode)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

// handleSecurities handles GET /stocks.
func (s *Server) handleSecurities(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	counts, total, err := s.consensus.Securities(r.Context(), limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, securitiesResponse{
		Securities: toSecurityDTOs(counts),
		Total:      total,
		Limit:      len(counts),
		Offset:     offset,
	})
}

// handleStats handles GET /embeddings/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.usage.Snapshot(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(snap))
}

func parseReportDate(raw string) (time.Time, error) {
	t, err := time.Parse(domrep.DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, errors.New("report_date must be formatted as " + domrep.DateLayout)
	}
	return t, nil
}

// queryInt reads an optional integer query parameter. Absent values come
// back as zero so the usecase applies its default. Returns false after
// writing the error response when the value does not parse.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Query parameter "+name+" must be an integer")
		return 0, false
	}
	return v, true
}

// writeJSON renders v with the given status. Encoding failures are
// ignored; the status line is already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// setEmbeddingHeaders exposes consumed encoder tokens on responses whose
// handling embedded text.
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage == nil || !usage.Used {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
}

// safeDomainMessage maps known domain errors to their sentinel text and
// everything else to a generic message, so wrapped internals never leak
// to clients.
func safeDomainMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrNotFound,
		domain.ErrInvalidArgument,
		domain.ErrEncodingFailed,
		domain.ErrDimensionMismatch,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if errors.Is(err, sentinel) {
			writeError(w, status, code, msg)
			return true
		}
		return false
	}
}

// dimensionMismatchHandler reports a corrupted stored vector. The mismatch
// is server-side data damage, not a client fault, so it maps to 500 and
// carries both dimensions for the operator.
func dimensionMismatchHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		return false
	}
	var dme *domain.DimensionMismatchError
	if !errors.As(err, &dme) {
		writeError(w, http.StatusInternalServerError, codeCorruptedVector, msg)
		return true
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"code":    codeCorruptedVector,
		"message": msg,
		"want":    dme.Want,
		"got":     dme.Got,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	s.logger.Warn("Domain error", zap.Error(err))
	for _, handle := range s.errorHandlers {
		if handle(w, err, msg) {
			return
		}
	}
	// Nothing claimed the error: report it as internal.
	s.logger.Error("Unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
