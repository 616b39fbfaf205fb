package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/domain"
	"github.com/kailas-cloud/consdex/internal/metrics"
)

// Embedder vectorizes report narratives through an OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	provider   string
	logger     *zap.Logger
}

// Config holds the encoder provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible encoder.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		provider:   provider,
		logger:     cfg.Logger,
	}
}

// Model returns the configured embedding model name.
func (e *Embedder) Model() string { return string(e.model) }

// Dimensions returns the configured vector width.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements domain.Embedder. Returns the vector and token usage with
// transport-level metrics.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	req := e.request([]string{text})

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		e.countError("api_error")
		return domain.EmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Data) == 0 {
		e.countError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty embedding response: %w", domain.ErrEncodingFailed)
	}

	e.countSuccess(duration, resp.Usage)

	return domain.EmbeddingResult{
		Embedding:    resp.Data[0].Embedding,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single API call. The
// response carries an index per vector; output order is rebuilt from those
// indexes, never from response order.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{Embeddings: [][]float32{}}, nil
	}

	req := e.request(texts)

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		e.countError("api_error")
		return domain.BatchEmbeddingResult{}, parseAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		e.countError("partial_response")
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"embedding response carries %d vectors for %d inputs: %w",
			len(resp.Data), len(texts), domain.ErrEncodingFailed,
		)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || embeddings[d.Index] != nil {
			e.countError("bad_index")
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"embedding response index %d invalid: %w", d.Index, domain.ErrEncodingFailed,
			)
		}
		embeddings[d.Index] = d.Embedding
	}

	e.countSuccess(duration, resp.Usage)

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.Usage.PromptTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}, nil
}

// HealthCheck probes the provider with a models listing, the cheapest
// authenticated call the API offers.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("encoder probe: %w", err)
	}
	return nil
}

func (e *Embedder) request(input []string) openai.EmbeddingRequest {
	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}
	return req
}

func (e *Embedder) countError(errType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), errType).Inc()
}

func (e *Embedder) countSuccess(duration time.Duration, usage openai.Usage) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())
	if usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "prompt").Add(float64(usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model), "total").Add(float64(usage.TotalTokens))
	}
}

// parseAPIError turns a go-openai client error into one naming the
// upstream status and reason. Every branch wraps domain.ErrEncodingFailed
// so the transport layer maps encoder trouble to a 502.
func parseAPIError(err error) error {
	var (
		reqErr *openai.RequestError
		apiErr *openai.APIError
	)
	switch {
	case errors.As(err, &reqErr):
		// Non-envelope bodies (gateways, proxies) land here; surface the
		// detail field when present, the raw body otherwise.
		reason := extractDetail(reqErr.Body)
		if reason == "" {
			reason = string(reqErr.Body)
		}
		return fmt.Errorf("encoder API status %d: %s: %w",
			reqErr.HTTPStatusCode, reason, domain.ErrEncodingFailed)
	case errors.As(err, &apiErr):
		return fmt.Errorf("encoder API status %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrEncodingFailed)
	default:
		return fmt.Errorf("encoder request failed: %w", domain.ErrEncodingFailed)
	}
}

// extractDetail pulls the "detail" field some OpenAI-compatible gateways
// put in error bodies instead of the standard error envelope.
func extractDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Detail
}
