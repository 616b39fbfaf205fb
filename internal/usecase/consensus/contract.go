package consensus

import (
	"context"

	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domrep "github.com/kailas-cloud/consdex/internal/domain/report"
)

// Repository reads persisted analyst reports.
type Repository interface {
	ListBySecurity(ctx context.Context, code string) ([]domrep.Report, error)
	ListRecent(ctx context.Context, limit int) ([]domrep.Report, error)
	CountBySecurity(ctx context.Context) (map[string]int, error)
}

// SummaryCache holds computed summaries between ingests.
type SummaryCache interface {
	Get(ctx context.Context, securityCode string) (domcons.Summary, bool, error)
	Put(ctx context.Context, securityCode string, sum domcons.Summary) error
	Del(ctx context.Context, securityCode string) error
}
