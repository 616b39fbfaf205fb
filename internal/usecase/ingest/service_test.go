package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// --- Mocks ---

type insertOutcome struct {
	stored  domrep.Report
	created bool
	err     error
}

// mockRepo assigns sequential ids by default; set outcomes to script each
// Insert call in order.
type mockRepo struct {
	outcomes []insertOutcome
	calls    int
	inserted []domrep.Report
}

func (m *mockRepo) Insert(_ context.Context, rep domrep.Report) (domrep.Report, bool, error) {
	i := m.calls
	m.calls++
	m.inserted = append(m.inserted, rep)
	if m.outcomes == nil {
		created := rep.WithIdentity(int64(m.calls), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		return created, true, nil
	}
	o := m.outcomes[i]
	if o.err != nil {
		return domrep.Report{}, false, o.err
	}
	return o.stored, o.created, nil
}

type mockEmbedder struct {
	result      domain.EmbeddingResult
	err         error
	batchResult domain.BatchEmbeddingResult
	batchErr    error
	calls       int
	batchCalls  int
	batchTexts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return m.result, nil
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.batchTexts = append([]string(nil), texts...)
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	if m.batchResult.Embeddings != nil {
		return m.batchResult, nil
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = m.result.Embedding
		out.PromptTokens += m.result.PromptTokens
		out.TotalTokens += m.result.TotalTokens
	}
	return out, nil
}

type mockEmbeddingWriter struct {
	err   error
	calls int
	puts  map[int64][]float32
}

func (m *mockEmbeddingWriter) Put(_ context.Context, id int64, vector []float32) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.puts == nil {
		m.puts = make(map[int64][]float32)
	}
	m.puts[id] = vector
	return nil
}

type mockInvalidator struct {
	err   error
	codes []string
}

func (m *mockInvalidator) Invalidate(_ context.Context, code string) error {
	m.codes = append(m.codes, code)
	return m.err
}

type testFixture struct {
	repo   *mockRepo
	writer *mockEmbeddingWriter
	embed  *mockEmbedder
	inv    *mockInvalidator
	svc    *Service
}

func newTestService() *testFixture {
	f := &testFixture{
		repo:   &mockRepo{},
		writer: &mockEmbeddingWriter{},
		embed:  &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 7}},
		inv:    &mockInvalidator{},
	}
	f.svc = New(f.repo, f.writer, f.embed, f.inv, zap.NewNop())
	return f
}

func testInput() Input {
	return Input{
		SecurityCode: "005930",
		Firm:         "미래에셋증권",
		Rating:       "Buy",
		TargetPrice:  85000,
		ReportDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Narrative:    "삼성전자는 메모리 반도체 업황 회복과 함께 견조한 실적이 예상됩니다.",
	}
}

func storedReport(t *testing.T, id int64, in Input) domrep.Report {
	t.Helper()
	rep, err := domrep.New(in.SecurityCode, in.Firm, in.Rating, in.TargetPrice, in.ReportDate)
	if err != nil {
		t.Fatalf("domrep.New: %v", err)
	}
	return rep.WithIdentity(id, time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
}

// --- Ingest ---

func TestIngest_CreatesReportAndEmbedding(t *testing.T) {
	f := newTestService()

	res, err := f.svc.Ingest(context.Background(), testInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !res.Created {
		t.Error("expected Created true")
	}
	if !res.Embedded {
		t.Error("expected Embedded true")
	}
	if res.Report.ID() != 1 {
		t.Errorf("expected report id 1, got %d", res.Report.ID())
	}
	if res.Report.Rating() != domrep.RatingBuy {
		t.Errorf("expected normalized rating buy, got %s", res.Report.Rating())
	}
	if got := f.writer.puts[1]; len(got) != 3 {
		t.Errorf("expected stored vector of 3 components, got %v", got)
	}
	if len(f.inv.codes) != 1 || f.inv.codes[0] != "005930" {
		t.Errorf("expected consensus invalidation for 005930, got %v", f.inv.codes)
	}
}

func TestIngest_InvalidInput(t *testing.T) {
	f := newTestService()

	in := testInput()
	in.SecurityCode = ""

	_, err := f.svc.Ingest(context.Background(), in)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if f.repo.calls != 0 {
		t.Errorf("expected no Insert calls, got %d", f.repo.calls)
	}
}

func TestIngest_InsertError(t *testing.T) {
	f := newTestService()
	f.repo.outcomes = []insertOutcome{{err: errors.New("store down")}}

	_, err := f.svc.Ingest(context.Background(), testInput())
	if err == nil {
		t.Fatal("expected error")
	}
	if f.embed.calls != 0 {
		t.Errorf("expected no Embed calls after insert failure, got %d", f.embed.calls)
	}
}

func TestIngest_DuplicateSkipsEmbedding(t *testing.T) {
	f := newTestService()
	in := testInput()
	f.repo.outcomes = []insertOutcome{{stored: storedReport(t, 42, in), created: false}}

	res, err := f.svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Created {
		t.Error("expected Created false for duplicate")
	}
	if res.Report.ID() != 42 {
		t.Errorf("expected originally stored id 42, got %d", res.Report.ID())
	}
	if f.embed.calls != 0 {
		t.Errorf("duplicate must not re-embed, got %d Embed calls", f.embed.calls)
	}
	if f.writer.calls != 0 {
		t.Errorf("duplicate must not touch embedding store, got %d Put calls", f.writer.calls)
	}
	if len(f.inv.codes) != 0 {
		t.Errorf("duplicate must not invalidate consensus, got %v", f.inv.codes)
	}
}

func TestIngest_EmbedFailureKeepsReport(t *testing.T) {
	f := newTestService()
	f.embed.err = errors.New("provider unavailable")

	res, err := f.svc.Ingest(context.Background(), testInput())
	if err != nil {
		t.Fatalf("embedding failure must not fail ingest: %v", err)
	}

	if !res.Created {
		t.Error("expected Created true")
	}
	if res.Embedded {
		t.Error("expected Embedded false")
	}
	if f.writer.calls != 0 {
		t.Errorf("expected no Put calls, got %d", f.writer.calls)
	}
	if len(f.inv.codes) != 1 {
		t.Errorf("consensus must still be invalidated, got %v", f.inv.codes)
	}
}

func TestIngest_PutFailureKeepsReport(t *testing.T) {
	f := newTestService()
	f.writer.err = errors.New("write refused")

	res, err := f.svc.Ingest(context.Background(), testInput())
	if err != nil {
		t.Fatalf("embedding store failure must not fail ingest: %v", err)
	}
	if res.Embedded {
		t.Error("expected Embedded false")
	}
}

func TestIngest_EmptyNarrativeSkipsEmbedding(t *testing.T) {
	f := newTestService()
	in := testInput()
	in.Narrative = ""

	res, err := f.svc.Ingest(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embedded {
		t.Error("expected Embedded false")
	}
	if f.embed.calls != 0 {
		t.Errorf("expected no Embed calls, got %d", f.embed.calls)
	}
}

func TestIngest_RecordsTokenUsage(t *testing.T) {
	f := newTestService()
	ctx, usage := domain.NewContextWithUsage(context.Background())

	if _, err := f.svc.Ingest(ctx, testInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 7 {
		t.Errorf("expected 7 tokens recorded, got %d", usage.TotalTokens)
	}
}

func TestIngest_NilInvalidator(t *testing.T) {
	f := newTestService()
	f.svc = New(f.repo, f.writer, f.embed, nil, zap.NewNop())

	if _, err := f.svc.Ingest(context.Background(), testInput()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- IngestBatch ---

func TestIngestBatch_SingleBatchCall(t *testing.T) {
	f := newTestService()

	res, err := f.svc.IngestBatch(context.Background(), sampleInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Processed: 3, Duplicates: 0, Failed: 0, Total: 3}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}
	if f.embed.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", f.embed.batchCalls)
	}
	if f.embed.calls != 0 {
		t.Errorf("expected 0 single Embed calls, got %d", f.embed.calls)
	}
	if len(f.embed.batchTexts) != 3 {
		t.Errorf("expected 3 narratives in batch, got %d", len(f.embed.batchTexts))
	}
	if len(f.writer.puts) != 3 {
		t.Errorf("expected 3 stored vectors, got %d", len(f.writer.puts))
	}

	wantCodes := []string{"005930", "000660", "035420"}
	if len(f.inv.codes) != len(wantCodes) {
		t.Fatalf("expected %d invalidations, got %v", len(wantCodes), f.inv.codes)
	}
	for i, code := range wantCodes {
		if f.inv.codes[i] != code {
			t.Errorf("invalidation[%d]: expected %s, got %s", i, code, f.inv.codes[i])
		}
	}
}

func TestIngestBatch_MixedOutcomes(t *testing.T) {
	f := newTestService()

	first := testInput()
	second := testInput()
	second.Firm = "삼성증권"
	invalid := testInput()
	invalid.SecurityCode = ""
	third := testInput()
	third.Firm = "NH투자증권"

	f.repo.outcomes = []insertOutcome{
		{stored: storedReport(t, 1, first), created: true},
		{stored: storedReport(t, 9, second), created: false},
		{err: errors.New("store down")},
	}

	res, err := f.svc.IngestBatch(context.Background(), []Input{first, second, invalid, third})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Processed: 1, Duplicates: 1, Failed: 2, Total: 4}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}
	if len(f.embed.batchTexts) != 1 {
		t.Errorf("only the created row should be embedded, got %d narratives", len(f.embed.batchTexts))
	}
	if len(f.inv.codes) != 1 {
		t.Errorf("expected 1 invalidation, got %v", f.inv.codes)
	}
}

func TestIngestBatch_EmbedFailureKeepsRows(t *testing.T) {
	f := newTestService()
	f.embed.batchErr = errors.New("provider unavailable")

	res, err := f.svc.IngestBatch(context.Background(), sampleInputs())
	if err != nil {
		t.Fatalf("batch embedding failure must not fail ingest: %v", err)
	}
	if res.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", res.Processed)
	}
	if f.writer.calls != 0 {
		t.Errorf("expected no Put calls, got %d", f.writer.calls)
	}
}

func TestIngestBatch_WrongEmbeddingCount(t *testing.T) {
	f := newTestService()
	f.embed.batchResult = domain.BatchEmbeddingResult{Embeddings: [][]float32{{0.1, 0.2, 0.3}}}

	res, err := f.svc.IngestBatch(context.Background(), sampleInputs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Processed != 3 {
		t.Errorf("expected 3 processed, got %d", res.Processed)
	}
	if f.writer.calls != 0 {
		t.Errorf("mismatched batch must store nothing, got %d Put calls", f.writer.calls)
	}
}

func TestIngestBatch_AllDuplicates(t *testing.T) {
	f := newTestService()
	inputs := sampleInputs()
	f.repo.outcomes = []insertOutcome{
		{stored: storedReport(t, 1, inputs[0]), created: false},
		{stored: storedReport(t, 2, inputs[1]), created: false},
		{stored: storedReport(t, 3, inputs[2]), created: false},
	}

	res, err := f.svc.IngestBatch(context.Background(), inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Processed: 0, Duplicates: 3, Failed: 0, Total: 3}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}
	if f.embed.batchCalls != 0 {
		t.Errorf("duplicates must not be embedded, got %d batch calls", f.embed.batchCalls)
	}
	if len(f.inv.codes) != 0 {
		t.Errorf("duplicates must not invalidate consensus, got %v", f.inv.codes)
	}
}

func TestIngestBatch_RecordsAggregateTokens(t *testing.T) {
	f := newTestService()
	ctx, usage := domain.NewContextWithUsage(context.Background())

	if _, err := f.svc.IngestBatch(ctx, sampleInputs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usage.TotalTokens != 21 {
		t.Errorf("expected 21 tokens (3 texts x 7), got %d", usage.TotalTokens)
	}
}

func TestIngestBatch_Empty(t *testing.T) {
	f := newTestService()

	res, err := f.svc.IngestBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != (BatchResult{}) {
		t.Errorf("expected zero result, got %+v", res)
	}
	if f.embed.batchCalls != 0 {
		t.Errorf("expected no batch calls, got %d", f.embed.batchCalls)
	}
}

// --- CollectSamples ---

func TestCollectSamples_IngestsCannedSet(t *testing.T) {
	f := newTestService()

	res, err := f.svc.CollectSamples(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Processed: 3, Duplicates: 0, Failed: 0, Total: 3}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}
	if len(f.repo.inserted) != 3 {
		t.Fatalf("expected 3 inserts, got %d", len(f.repo.inserted))
	}
	if f.repo.inserted[0].SecurityCode() != "005930" {
		t.Errorf("expected first sample 005930, got %s", f.repo.inserted[0].SecurityCode())
	}
	if f.repo.inserted[1].Rating() != domrep.RatingBuy {
		t.Errorf("expected strong buy to normalize to buy, got %s", f.repo.inserted[1].Rating())
	}
}

func TestCollectSamples_RerunResolvesDuplicates(t *testing.T) {
	f := newTestService()
	inputs := sampleInputs()
	f.repo.outcomes = []insertOutcome{
		{stored: storedReport(t, 1, inputs[0]), created: false},
		{stored: storedReport(t, 2, inputs[1]), created: false},
		{stored: storedReport(t, 3, inputs[2]), created: false},
	}

	res, err := f.svc.CollectSamples(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := BatchResult{Processed: 0, Duplicates: 3, Failed: 0, Total: 3}
	if res != want {
		t.Errorf("expected %+v, got %+v", want, res)
	}
	if f.embed.batchCalls != 0 {
		t.Errorf("rerun must not re-embed, got %d batch calls", f.embed.batchCalls)
	}
}
