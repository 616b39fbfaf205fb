package insight

import (
	"context"

	domcons "github.com/kailas-cloud/consdex/internal/domain/consensus"
	domsearch "github.com/kailas-cloud/consdex/internal/domain/search"
)

// ConsensusReader summarizes stored analyst opinion for one security.
type ConsensusReader interface {
	Summarize(ctx context.Context, securityCode string) (domcons.Summary, error)
}

// Searcher ranks stored report narratives against a query.
type Searcher interface {
	Search(ctx context.Context, req domsearch.Request) ([]domsearch.Match, error)
}
