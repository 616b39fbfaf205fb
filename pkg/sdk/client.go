package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	apiPrefix      = "/api/v1"
)

// Doer executes HTTP requests. *http.Client satisfies it; inject another
// implementation for tests or instrumented transports.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Client.
type Option interface {
	apply(*Client)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sets the bearer token sent with every request. Leave unset
// against a service that runs without authentication.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) {
		c.apiKey = key
	})
}

// WithHTTPClient replaces the underlying HTTP client. The default is an
// http.Client with a 30 second timeout.
func WithHTTPClient(d Doer) Option {
	return optionFunc(func(c *Client) {
		c.http = d
	})
}

// Client talks to a consdex service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    Doer
}

// New creates a Client for the service at baseURL (scheme and host without
// the /api/v1 path), e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c
}

// do sends one API request and decodes a 2xx response into out. Non-2xx
// responses decode as the service's error envelope and return *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
