package sdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Consensus fetches the aggregated rating view for one security. A security
// with no stored reports yields ErrNotFound.
func (c *Client) Consensus(ctx context.Context, securityCode string) (Consensus, error) {
	var out Consensus
	if err := c.do(ctx, http.MethodGet, "/consensus/"+url.PathEscape(securityCode), nil, &out); err != nil {
		return Consensus{}, err
	}
	return out, nil
}

// Securities pages through covered securities ordered by report count
// descending. Zero limit and offset select the service defaults.
func (c *Client) Securities(ctx context.Context, limit, offset int) (Securities, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := "/stocks"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var out Securities
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return Securities{}, err
	}
	return out, nil
}
