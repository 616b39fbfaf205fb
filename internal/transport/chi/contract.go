package chi

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

// Ingestor accepts analyst reports for storage and encoding.
type Ingestor interface {
	Ingest(ctx context.Context, in ingestuc.Input) (ingestuc.Result, error)
	CollectSamples(ctx context.Context) (ingestuc.BatchResult, error)
}

// ConsensusReader serves aggregated ratings and report listings.
type ConsensusReader interface {
	Summarize(ctx context.Context, securityCode string) (domcons.Summary, error)
	Recent(ctx context.Context, securityCode string, limit int) ([]domrep.Report, error)
	Securities(ctx context.Context, limit, offset int) ([]consensusuc.SecurityCount, int, error)
}

// Analyzer produces the combined consensus-plus-similar-reports view.
type Analyzer interface {
	Analyze(ctx context.Context, securityCode string) (insightuc.Analysis, error)
	Explore(ctx context.Context, req domsearch.Request) (insightuc.Exploration, error)
}

// UsageReader reports stored embedding counts and token spend.
type UsageReader interface {
	Snapshot(ctx context.Context) (usageuc.Snapshot, error)
}

// HealthChecker probes the store and the encoder.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
