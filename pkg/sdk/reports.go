package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateReport stores one analyst report. Created reports and re-ingested
// duplicates share the same response shape; Created distinguishes them.
func (c *Client) CreateReport(ctx context.Context, in ReportInput) (IngestResult, error) {
	var out IngestResult
	if err := c.do(ctx, http.MethodPost, "/reports", in, &out); err != nil {
		return IngestResult{}, err
	}
	return out, nil
}

// CollectSamples triggers ingestion of the service's built-in sample
// reports. Re-running it only produces duplicates.
func (c *Client) CollectSamples(ctx context.Context) (BatchResult, error) {
	var out BatchResult
	if err := c.do(ctx, http.MethodPost, "/data/collect", nil, &out); err != nil {
		return BatchResult{}, err
	}
	return out, nil
}

// RecentReports lists stored reports newest first, restricted to one
// security when securityCode is non-empty. Zero limit selects the service
// default.
func (c *Client) RecentReports(ctx context.Context, securityCode string, limit int) (RecentReports, error) {
	q := url.Values{}
	if securityCode != "" {
		q.Set("security_code", securityCode)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/reports/recent"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out RecentReports
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return RecentReports{}, err
	}
	return out, nil
}
