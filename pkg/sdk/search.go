package sdk

import (
	"context"
	"net/http"
)

// Search ranks stored report narratives against a free-text query by
// cosine similarity. Failures to vectorize the query yield
// ErrEncodingFailed.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResult, error) {
	var out SearchResult
	if err := c.do(ctx, http.MethodPost, "/search", req, &out); err != nil {
		return SearchResult{}, err
	}
	return out, nil
}

// Analyze returns the consensus picture, the derived recommendation and
// the closest stored narratives for one security.
func (c *Client) Analyze(ctx context.Context, securityCode string) (Analysis, error) {
	var out Analysis
	if err := c.do(ctx, http.MethodPost, "/analysis/stock", analyzeRequest{SecurityCode: securityCode}, &out); err != nil {
		return Analysis{}, err
	}
	return out, nil
}
