package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Stats reports the service's embedding inventory and encoder token
// consumption.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.do(ctx, http.MethodGet, "/embeddings/stats", nil, &out); err != nil {
		return Stats{}, err
	}
	return out, nil
}

// Health probes the service. The service answers 200 when healthy and 503
// otherwise with the same body shape, so degraded and unhealthy states
// decode as a result rather than an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/health", nil)
	if err != nil {
		return Health{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("GET /health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return Health{}, decodeAPIError(resp)
	}

	var out Health
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Health{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
