package consdex

import (
	"context"
	"time"

	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	ingestuc "github.com/kailas-cloud/consdex/internal/usecase/ingest"
)

// ReportInput describes one analyst report to ingest.
type ReportInput struct {
	SecurityCode string
	Firm         string
	Rating       string
	TargetPrice  float64
	ReportDate   time.Time
	// Narrative is the free-text analysis body; it may be empty. Non-empty
	// narratives are vectorized for similarity search.
	Narrative string
}

// Report is one stored analyst report. Rating is the normalized bucket
// (buy, hold, sell); RatingRaw preserves the label as published.
type Report struct {
	ID           int64
	SecurityCode string
	Firm         string
	RatingRaw    string
	Rating       string
	TargetPrice  float64
	ReportDate   time.Time
	CreatedAt    time.Time
}

// IngestResult reports the outcome of a single ingest.
type IngestResult struct {
	Report   Report
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

// IngestReport validates and stores one analyst report. Re-ingesting the
// same security, firm and report date returns the stored row with Created
// false. Narrative vectorization is best effort: Embedded reports whether
// it happened.
func (c *Client) IngestReport(ctx context.Context, in ReportInput) (res IngestResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	out, err := c.ingestSvc.Ingest(ctx, toIngestInput(in))
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{
		Report:   toReport(out.Report),
		Created:  out.Created,
		Embedded: out.Embedded,
	}, nil
}

// IngestBatch stores many reports in one pass. Individual failures are
// counted in the result, not returned as errors.
func (c *Client) IngestBatch(ctx context.Context, ins []ReportInput) (res BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest_batch", start, err) }()

	batch := make([]ingestuc.Input, len(ins))
	for i, in := range ins {
		batch[i] = toIngestInput(in)
	}
	out, err := c.ingestSvc.IngestBatch(ctx, batch)
	if err != nil {
		return BatchResult{}, err
	}
	return toBatchResult(out), nil
}

// CollectSamples ingests the built-in sample reports. Intended for demos
// and local development; re-running it only produces duplicates.
func (c *Client) CollectSamples(ctx context.Context) (res BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("collect_samples", start, err) }()

	out, err := c.ingestSvc.CollectSamples(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	return toBatchResult(out), nil
}

func toIngestInput(in ReportInput) ingestuc.Input {
	return ingestuc.Input{
		SecurityCode: in.SecurityCode,
		Firm:         in.Firm,
		Rating:       in.Rating,
		TargetPrice:  in.TargetPrice,
		ReportDate:   in.ReportDate,
		Narrative:    in.Narrative,
	}
}

func toReport(rep domrep.Report) Report {
	return Report{
		ID:           rep.ID(),
		SecurityCode: rep.SecurityCode(),
		Firm:         rep.Firm(),
		RatingRaw:    rep.RatingRaw(),
		Rating:       string(rep.Rating()),
		TargetPrice:  rep.TargetPrice(),
		ReportDate:   rep.ReportDate(),
		CreatedAt:    rep.CreatedAt(),
	}
}

func toReports(reps []domrep.Report) []Report {
	out := make([]Report, len(reps))
	for i, rep := range reps {
		out[i] = toReport(rep)
	}
	return out
}

func toBatchResult(out ingestuc.BatchResult) BatchResult {
	return BatchResult{
		Processed:  out.Processed,
		Duplicates: out.Duplicates,
		Failed:     out.Failed,
		Total:      out.Total,
	}
}

// ingestUseCase is the internal interface for report ingestion.
type ingestUseCase interface {
	Ingest(ctx context.Context, in ingestuc.Input) (ingestuc.Result, error)
	IngestBatch(ctx context.Context, ins []ingestuc.Input) (ingestuc.BatchResult, error)
	CollectSamples(ctx context.Context) (ingestuc.BatchResult, error)
}
