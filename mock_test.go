package consdex

import (
	"context"

	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
	consensusuc "github.com/kailas-cloud/consdex/internal/usecase/consensus"
	healthuc "github.com/kailas-cloud/consdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/consdex/internal/usecase/ingest"
	insightuc "github.com/kailas-cloud/consdex/internal/usecase/insight"
	usageuc "github.com/kailas-cloud/consdex/internal/usecase/usage"
)

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestFn  func(ctx context.Context, in ingestuc.Input) (ingestuc.Result, error)
	batchFn   func(ctx context.Context, ins []ingestuc.Input) (ingestuc.BatchResult, error)
	collectFn func(ctx context.Context) (ingestuc.BatchResult, error)
}

func (m *mockIngestUC) Ingest(ctx context.Context, in ingestuc.Input) (ingestuc.Result, error) {
	return m.ingestFn(ctx, in)
}

func (m *mockIngestUC) IngestBatch(
	ctx context.Context, ins []ingestuc.Input,
) (ingestuc.BatchResult, error) {
	return m.batchFn(ctx, ins)
}

func (m *mockIngestUC) CollectSamples(ctx context.Context) (ingestuc.BatchResult, error) {
	return m.collectFn(ctx)
}

// --- consensusUseCase mock ---

type mockConsensusUC struct {
	summarizeFn  func(ctx context.Context, securityCode string) (domcons.Summary, error)
	recentFn     func(ctx context.Context, securityCode string, limit int) ([]domrep.Report, error)
	securitiesFn func(ctx context.Context, limit, offset int) ([]consensusuc.SecurityCount, int, error)
}

func (m *mockConsensusUC) Summarize(ctx context.Context, securityCode string) (domcons.Summary, error) {
	return m.summarizeFn(ctx, securityCode)
}

func (m *mockConsensusUC) Recent(
	ctx context.Context, securityCode string, limit int,
) ([]domrep.Report, error) {
	return m.recentFn(ctx, securityCode, limit)
}

func (m *mockConsensusUC) Securities(
	ctx context.Context, limit, offset int,
) ([]consensusuc.SecurityCount, int, error) {
	return m.securitiesFn(ctx, limit, offset)
}

// --- insightUseCase mock ---

type mockInsightUC struct {
	analyzeFn func(ctx context.Context, securityCode string) (insightuc.Analysis, error)
	exploreFn func(ctx context.Context, req domsearch.Request) (insightuc.Exploration, error)
}

func (m *mockInsightUC) Analyze(ctx context.Context, securityCode string) (insightuc.Analysis, error) {
	return m.analyzeFn(ctx, securityCode)
}

func (m *mockInsightUC) Explore(
	ctx context.Context, req domsearch.Request,
) (insightuc.Exploration, error) {
	return m.exploreFn(ctx, req)
}

// --- usageUseCase mock ---

type mockUsageUC struct {
	snapshotFn func(ctx context.Context) (usageuc.Snapshot, error)
}

func (m *mockUsageUC) Snapshot(ctx context.Context) (usageuc.Snapshot, error) {
	return m.snapshotFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}
