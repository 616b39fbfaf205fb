package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	"github.com/kailas-cloud/consdex/internal/metrics"
)

// Input is one analyst report to ingest. Narrative is the free-text analysis
// body that feeds similarity search; it may be empty.
type Input struct {
	SecurityCode string
	Firm         string
	Rating       string
	TargetPrice  float64
	ReportDate   time.Time
	Narrative    string
}

// Result reports the outcome of a single ingest.
type Result struct {
	Report   domrep.Report
	Created  bool
	Embedded bool
}

// BatchResult aggregates outcomes of a batch ingest.
type BatchResult struct {
	Processed  int
	Duplicates int
	Failed     int
	Total      int
}

// Service ingests analyst reports and derives their narrative embeddings.
type Service struct {
	repo       Repository
	embeddings EmbeddingWriter
	embedder   Embedder
	consensus  ConsensusInvalidator
	logger     *zap.Logger
}

// New creates an ingest service. A nil invalidator disables consensus cache
// invalidation.
func New(
	repo Repository, embeddings EmbeddingWriter,
	embedder Embedder, consensus ConsensusInvalidator, logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		embeddings: embeddings,
		embedder:   embedder,
		consensus:  consensus,
		logger:     logger,
	}
}

// Ingest validates and stores one report, then derives its narrative vector.
// Re-ingesting an identity triple returns the originally stored row with
// Created false; duplicates never touch the embedding store. The vector is
// best effort: its failure is logged and counted but the report row stands.
func (s *Service) Ingest(ctx context.Context, in Input) (Result, error) {
	rep, err := domrep.New(in.SecurityCode, in.Firm, in.Rating, in.TargetPrice, in.ReportDate)
	if err != nil {
		metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultFailed).Inc()
		return Result{}, fmt.Errorf("invalid report: %w: %w", domain.ErrInvalidArgument, err)
	}

	stored, created, err := s.repo.Insert(ctx, rep)
	if err != nil {
		metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultFailed).Inc()
		return Result{}, fmt.Errorf("insert report: %w", err)
	}

	if !created {
		metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultDuplicate).Inc()
		s.logger.Debug("Duplicate report resolved to stored row",
			zap.Int64("report_id", stored.ID()),
			zap.String("security_code", stored.SecurityCode()),
			zap.String("security_firm", stored.Firm()),
		)
		return Result{Report: stored}, nil
	}

	metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultCreated).Inc()

	embedded := false
	if in.Narrative != "" {
		embedded = s.embedNarrative(ctx, stored.ID(), in.Narrative)
	}
	s.invalidate(ctx, stored.SecurityCode())

	return Result{Report: stored, Created: true, Embedded: embedded}, nil
}

// IngestBatch stores many reports, then derives vectors for the newly created
// subset with a single batch call. Per-item failures are counted and skipped;
// the batch never aborts halfway.
func (s *Service) IngestBatch(ctx context.Context, inputs []Input) (BatchResult, error) {
	out := BatchResult{Total: len(inputs)}

	var created []pending
	var codes []string
	seen := make(map[string]struct{})

	for i, in := range inputs {
		rep, err := domrep.New(in.SecurityCode, in.Firm, in.Rating, in.TargetPrice, in.ReportDate)
		if err != nil {
			out.Failed++
			metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultFailed).Inc()
			s.logger.Warn("Skipping invalid report", zap.Int("index", i), zap.Error(err))
			continue
		}

		stored, wasCreated, err := s.repo.Insert(ctx, rep)
		if err != nil {
			out.Failed++
			metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultFailed).Inc()
			s.logger.Warn("Skipping failed insert", zap.Int("index", i), zap.Error(err))
			continue
		}
		if !wasCreated {
			out.Duplicates++
			metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultDuplicate).Inc()
			continue
		}

		out.Processed++
		metrics.ReportsIngestedTotal.WithLabelValues(metrics.IngestResultCreated).Inc()
		if _, ok := seen[stored.SecurityCode()]; !ok {
			seen[stored.SecurityCode()] = struct{}{}
			codes = append(codes, stored.SecurityCode())
		}
		if in.Narrative != "" {
			created = append(created, pending{id: stored.ID(), narrative: in.Narrative})
		}
	}

	s.embedBatch(ctx, created)

	for _, code := range codes {
		s.invalidate(ctx, code)
	}
	return out, nil
}

// pending is a created report whose narrative still needs a vector.
type pending struct {
	id        int64
	narrative string
}

// embedNarrative derives and stores the vector for one new report. Failure
// degrades the report to metadata-only search.
func (s *Service) embedNarrative(ctx context.Context, id int64, narrative string) bool {
	res, err := s.embedder.Embed(ctx, narrative)
	if err != nil {
		metrics.IngestEmbeddingFailuresTotal.Inc()
		s.logger.Warn("Narrative embedding failed",
			zap.Int64("report_id", id),
			zap.Error(err),
		)
		return false
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	if err := s.embeddings.Put(ctx, id, res.Embedding); err != nil {
		metrics.IngestEmbeddingFailuresTotal.Inc()
		s.logger.Warn("Narrative embedding store failed",
			zap.Int64("report_id", id),
			zap.Error(err),
		)
		return false
	}
	return true
}

// embedBatch vectorizes created narratives with one provider call. A batch
// failure costs only the vectors; every report row is already durable.
func (s *Service) embedBatch(ctx context.Context, created []pending) {
	if len(created) == 0 {
		return
	}

	texts := make([]string, len(created))
	for i, p := range created {
		texts[i] = p.narrative
	}

	res, err := s.embedder.BatchEmbed(ctx, texts)
	if err != nil {
		metrics.IngestEmbeddingFailuresTotal.Add(float64(len(created)))
		s.logger.Warn("Batch narrative embedding failed",
			zap.Int("count", len(created)),
			zap.Error(err),
		)
		return
	}
	if len(res.Embeddings) != len(created) {
		metrics.IngestEmbeddingFailuresTotal.Add(float64(len(created)))
		s.logger.Warn("Batch narrative embedding returned wrong count",
			zap.Int("want", len(created)),
			zap.Int("got", len(res.Embeddings)),
		)
		return
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	for i, p := range created {
		if err := s.embeddings.Put(ctx, p.id, res.Embeddings[i]); err != nil {
			metrics.IngestEmbeddingFailuresTotal.Inc()
			s.logger.Warn("Narrative embedding store failed",
				zap.Int64("report_id", p.id),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.consensus == nil {
		return
	}
	if err := s.consensus.Invalidate(ctx, code); err != nil {
		s.logger.Warn("Consensus cache invalidation failed",
			zap.String("security_code", code),
			zap.Error(err),
		)
	}
}
