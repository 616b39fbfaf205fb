package consdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/db"
	dbRedis "github.com/kailas-cloud/consdex/internal/db/redis"
	"github.com/kailas-cloud/consdex/internal/domain"
	embeddingrepo "github.com/kailas-cloud/consdex/internal/repository/embedding"
	reportrepo "github.com/kailas-cloud/consdex/internal/repository/report"
	usagerepo "github.com/kailas-cloud/consdex/internal/repository/usage"
	openaiEmb "github.com/kailas-cloud/consdex/internal/transport/openai"
	consensusuc "github.com/kailas-cloud/consdex/internal/usecase/consensus"
	embeddinguc "github.com/kailas-cloud/consdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/consdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/consdex/internal/usecase/ingest"
	insightuc "github.com/kailas-cloud/consdex/internal/usecase/insight"
	searchuc "github.com/kailas-cloud/consdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/consdex/internal/usecase/usage"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the consdex embedded entry point. It runs the full consensus
// engine in-process against a Redis or Valkey store, without the HTTP
// service.
type Client struct {
	store        db.Store
	ingestSvc    ingestUseCase
	consensusSvc consensusUseCase
	insightSvc   insightUseCase
	usageSvc     usageUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New creates a consdex Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	vec := domain.DefaultVectorConfig()
	cfg := &clientConfig{
		model:      vec.Model,
		dimensions: vec.Dimensions,
		keyPrefix:  domain.KeyPrefix,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("consdex: database address required (use WithRedis or WithValkey)")
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("consdex: database not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}
	return wireClient(store, cfg, obs), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "redis", "valkey":
		// Valkey speaks the Redis wire protocol for the command set used
		// here, so both drivers share the rueidis-backed store.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("consdex: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("consdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	// Use-case logging stays quiet in embedded mode; the observer reports
	// per-operation outcomes instead.
	logger := zap.NewNop()

	reportRepo := reportrepo.New(store, cfg.keyPrefix)
	embeddingRepo := embeddingrepo.New(store, cfg.keyPrefix, cfg.dimensions)
	usageRepo := usagerepo.New(store, cfg.keyPrefix)

	base, checker, provider := buildEncoder(cfg, logger)
	emb := embeddinguc.NewInstrumentedEmbedder(base, provider, cfg.model, usageRepo, logger)

	// No summary cache in embedded mode: consensus is recomputed per call,
	// so there is nothing to invalidate on ingest either.
	consensusSvc := consensusuc.New(reportRepo, nil, logger)
	ingestSvc := ingestuc.New(reportRepo, embeddingRepo, emb, nil, logger)
	searchSvc := searchuc.New(reportRepo, embeddingRepo, emb, searchuc.Config{})
	insightSvc := insightuc.New(consensusSvc, searchSvc, insightuc.Config{}, logger)
	usageSvc := usageuc.New(embeddingRepo, usageRepo, cfg.model, cfg.dimensions)
	healthSvc := healthuc.New(store, checker)

	return &Client{
		store:        store,
		ingestSvc:    ingestSvc,
		consensusSvc: consensusSvc,
		insightSvc:   insightSvc,
		usageSvc:     usageSvc,
		healthSvc:    healthSvc,
		obs:          obs,
	}
}

// buildEncoder picks the configured narrative encoder. WithEmbedder wins
// over WithOpenAI; with neither, embedding calls fail and ingest stays
// metadata-only. The health checker is non-nil only for the built-in
// encoder, which knows how to probe its provider.
func buildEncoder(cfg *clientConfig, logger *zap.Logger) (domain.Embedder, healthuc.EncoderChecker, string) {
	switch {
	case cfg.embedder != nil:
		a := &embedderAdapter{inner: cfg.embedder}
		if b, ok := cfg.embedder.(BatchEmbedder); ok {
			a.batch = b
		}
		return a, nil, "custom"
	case cfg.openAIKey != "":
		e := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.openAIKey,
			BaseURL:    cfg.openAIBaseURL,
			Model:      cfg.model,
			Dimensions: cfg.dimensions,
			Logger:     logger,
		})
		return e, e, "openai"
	default:
		return noopEmbedder{}, nil, "none"
	}
}

// Close tears down the database connection. The Client must not be
// used afterwards.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping verifies the store is reachable and answering commands.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps the public Embedder to satisfy internal domain
// contracts. batch is set when the wrapped provider batches natively;
// otherwise batch ingest falls back to one call per text.
type embedderAdapter struct {
	inner Embedder
	batch BatchEmbedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("custom embedder: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embedding,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if a.batch == nil {
		return domain.BatchFallback(ctx, a, texts)
	}
	res, err := a.batch.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("custom embedder batch: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   res.Embeddings,
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// noopEmbedder fails every call with ErrEncodingFailed (used when no
// encoder is configured). Report metadata operations keep working.
type noopEmbedder struct{}

func (noopEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf(
		"embedder not configured (use WithOpenAI or WithEmbedder for narrative search): %w",
		domain.ErrEncodingFailed,
	)
}

func (noopEmbedder) BatchEmbed(_ context.Context, _ []string) (domain.BatchEmbeddingResult, error) {
	return domain.BatchEmbeddingResult{}, fmt.Errorf(
		"embedder not configured (use WithOpenAI or WithEmbedder for narrative search): %w",
		domain.ErrEncodingFailed,
	)
}
