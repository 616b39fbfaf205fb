package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/consdex/internal/config"
	"github.com/kailas-cloud/consdex/internal/db"
	dbRedis "github.com/kailas-cloud/consdex/internal/db/redis"
	"github.com/kailas-cloud/consdex/internal/domain"
	logpkg "github.com/kailas-cloud/consdex/internal/logger"
	"github.com/kailas-cloud/consdex/internal/metrics"
	consensusrepo "github.com/kailas-cloud/consdex/internal/repository/consensus"
	"github.com/kailas-cloud/consdex/internal/repository/embcache"
	embeddingrepo "github.com/kailas-cloud/consdex/internal/repository/embedding"
	reportrepo "github.com/kailas-cloud/consdex/internal/repository/report"
	usagerepo "github.com/kailas-cloud/consdex/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/consdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/consdex/internal/transport/openai"
	consensusuc "github.com/kailas-cloud/consdex/internal/usecase/consensus"
	embeddinguc "github.com/kailas-cloud/consdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/consdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/consdex/internal/usecase/ingest"
	insightuc "github.com/kailas-cloud/consdex/internal/usecase/insight"
	searchuc "github.com/kailas-cloud/consdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/consdex/internal/usecase/usage"
	"github.com/kailas-cloud/consdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting consdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Valkey speaks the same wire protocol, so both drivers share the
	// rueidis-backed store.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterIngestMetrics()

	prefix := cfg.Storage.KeyPrefix
	usageStore := usagerepo.New(store, prefix)

	// Build embedder chains — composition root. Documents and queries get
	// separate instruction prefixes around one shared provider client.
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	docEmbedder := buildEmbedder(base, cfg, cfg.Embedding.DocumentInstruction, store, usageStore, logger)
	queryEmbedder := buildEmbedder(base, cfg, cfg.Embedding.QueryInstruction, store, usageStore, logger)
	logger.Info("Embedders created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Create repositories (domain-native, no adapters)
	reportRepo := reportrepo.New(store, prefix)
	embeddingRepo := embeddingrepo.New(store, prefix, cfg.Embedding.Dimensions)

	// Pass nil interface (not typed nil pointer!) if caching is disabled.
	// Go gotcha: (*consensusrepo.Cache)(nil) wrapped in SummaryCache != nil.
	var summaryCache consensusuc.SummaryCache
	if cfg.Consensus.CacheTTLSec > 0 {
		summaryCache = consensusrepo.New(store, prefix, time.Duration(cfg.Consensus.CacheTTLSec)*time.Second)
	}

	// Create use case services
	consensusSvc := consensusuc.New(reportRepo, summaryCache, logger)
	ingestSvc := ingestuc.New(reportRepo, embeddingRepo, docEmbedder, consensusSvc, logger)
	searchSvc := searchuc.New(reportRepo, embeddingRepo, queryEmbedder, searchuc.Config{
		DefaultLimit:     cfg.Search.DefaultLimit,
		MaxLimit:         cfg.Search.MaxLimit,
		DefaultThreshold: cfg.Search.DefaultThreshold,
	})
	insightSvc := insightuc.New(consensusSvc, searchSvc, insightuc.Config{
		ExploreThreshold: cfg.Search.ExploreThreshold,
	}, logger)
	usageSvc := usageuc.New(embeddingRepo, usageStore, cfg.Embedding.Model, cfg.Embedding.Dimensions)

	// Probe the provider client directly: the decorators never forward
	// HealthCheck, and a cache hit must not mask a dead encoder.
	healthSvc := healthuc.New(store, base)

	if cfg.Ingest.SeedSamples {
		res, err := ingestSvc.CollectSamples(ctx)
		if err != nil {
			logger.Error("Sample seeding failed", zap.Error(err))
		} else {
			logger.Info("Sample reports seeded",
				zap.Int("processed", res.Processed),
				zap.Int("duplicates", res.Duplicates),
				zap.Int("failed", res.Failed),
			)
		}
	}

	// Create chi server
	server := chiTransport.NewServer(ingestSvc, consensusSvc, insightSvc, usageSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.Route("/api/v1", server.Register)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// embedder is the full encoder contract the composition wires: single texts
// for queries, batches for ingest.
type embedder interface {
	domain.Embedder
	domain.BatchEmbedder
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented -> Instruction
func buildEmbedder(
	base *openaiEmb.Embedder,
	cfg config.Config,
	instruction string,
	store db.Store,
	usage embeddinguc.UsageRecorder,
	logger *zap.Logger,
) embedder {
	// Cached
	var chain embedder = base
	if cfg.Embedding.CacheTTLSec > 0 {
		chain = embcache.New(base, store, embcache.Config{
			Prefix: cfg.Storage.KeyPrefix,
			Model:  cfg.Embedding.Model,
			TTL:    time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	// Instrumented (token accounting + metrics)
	instrumented := embeddinguc.NewInstrumentedEmbedder(chain, "openai", cfg.Embedding.Model, usage, logger)

	// Instruction prefix (outermost — cache key includes instruction)
	if instruction != "" {
		return domain.NewInstructionEmbedder(instrumented, instruction)
	}

	return instrumented
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
