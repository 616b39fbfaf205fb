package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage accumulates encoder token usage across one request. The
// handler seeds the context before invoking a service; services add
// tokens after each encoder call; the handler reads the total back for
// the X-Embedding-Tokens response header.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool // set whenever the encoder ran, even a 0-token cache hit
}

// NewContextWithUsage returns ctx carrying a fresh collector, plus the
// collector itself so the caller can read it after the request.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext returns the collector in ctx, or nil when the request
// was not set up to track usage.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records n consumed tokens and marks the encoder as used.
// Safe on a nil receiver, so call sites can chain it straight off
// UsageFromContext without checking.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
