package consdex

import (
	"context"
	"time"

	usageuc "github.com/kailas-cloud/consdex/internal/usecase/usage"
)

// UsageSnapshot is a point-in-time view of the vector inventory and encoder
// token consumption. Token counters cover the current UTC day and month.
type UsageSnapshot struct {
	StoredEmbeddings int
	Model            string
	Dimensions       int
	DailyTokens      int64
	MonthlyTokens    int64
}

// Usage reports the stored vector count and encoder token consumption.
func (c *Client) Usage(ctx context.Context) (res UsageSnapshot, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	snap, err := c.usageSvc.Snapshot(ctx)
	if err != nil {
		return UsageSnapshot{}, err
	}
	return UsageSnapshot{
		StoredEmbeddings: snap.StoredEmbeddings,
		Model:            snap.Model,
		Dimensions:       snap.Dimensions,
		DailyTokens:      snap.DailyTokens,
		MonthlyTokens:    snap.MonthlyTokens,
	}, nil
}

// usageUseCase is the internal interface for usage snapshots.
type usageUseCase interface {
	Snapshot(ctx context.Context) (usageuc.Snapshot, error)
}
