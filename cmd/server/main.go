// Command server starts the assessment recommendation HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ai "github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai/gemini"
	openaiemb "github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai/openai"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai/tokencount"
	rediscache "github.com/PrRahil/shl-assessment-recommender/internal/adapter/cache"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/catalog"
	httpserver "github.com/PrRahil/shl-assessment-recommender/internal/adapter/httpserver"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	qdrantcli "github.com/PrRahil/shl-assessment-recommender/internal/adapter/vector/qdrant"
	"github.com/PrRahil/shl-assessment-recommender/internal/app"
	"github.com/PrRahil/shl-assessment-recommender/internal/config"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
	"github.com/PrRahil/shl-assessment-recommender/internal/service/intent"
	"github.com/PrRahil/shl-assessment-recommender/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	// Register all Prometheus metrics once per process so that /metrics
	// exposes HTTP, AI, and pipeline instrumentation.
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	// Catalog
	store, err := catalog.Load(cfg.CatalogPath, cfg.LegacyCatalogPath)
	if err != nil {
		slog.Error("catalog load failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Embeddings with in-process cache
	maxElapsed, initial, maxInterval, multiplier := cfg.GetEmbedBackoffConfig()
	embedderBase, err := openaiemb.New(openaiemb.Config{
		APIKey:                 cfg.OpenAIAPIKey,
		BaseURL:                cfg.OpenAIBaseURL,
		Model:                  cfg.EmbeddingsModel,
		BackoffMaxElapsedTime:  maxElapsed,
		BackoffInitialInterval: initial,
		BackoffMaxInterval:     maxInterval,
		BackoffMultiplier:      multiplier,
	})
	if err != nil {
		slog.Error("embedder init failed", slog.Any("error", err))
		os.Exit(1)
	}
	embedder := ai.NewEmbedCache(embedderBase, cfg.EmbedCacheSize)

	// Vector index
	qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)

	// Oracle (optional: without a key every query takes the deterministic path)
	var oracle domain.Oracle
	if cfg.GeminiAPIKey != "" {
		oracle, err = gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OracleTimeout)
		if err != nil {
			slog.Error("gemini init failed", slog.Any("error", err))
			os.Exit(1)
		}
	} else {
		slog.Warn("GEMINI_API_KEY not set, oracle disabled")
	}

	// Intent lexicon
	lexicon := intent.DefaultLexicon()
	if cfg.IntentLexiconPath != "" {
		if loaded, lerr := intent.LoadLexicon(cfg.IntentLexiconPath); lerr != nil {
			slog.Warn("intent lexicon load failed, using defaults", slog.Any("error", lerr))
		} else {
			lexicon = loaded
		}
	}

	// Result cache (optional)
	var resultCache domain.ResultCache
	var redisPinger app.RedisPinger
	if cfg.RedisURL != "" {
		rc, rerr := rediscache.New(cfg.RedisURL, cfg.ResultCacheTTL)
		if rerr != nil {
			slog.Error("redis cache init failed", slog.Any("error", rerr))
			os.Exit(1)
		}
		defer func() { _ = rc.Close() }()
		resultCache = rc
		redisPinger = rc
	}

	// Pipeline
	indexer := usecase.NewIndexer(store, embedder, qcli, cfg.QdrantCollection, cfg.VectorSize)
	retriever := usecase.NewRetriever(embedder, qcli, store, cfg.QdrantCollection, cfg.TopKRetrieval)
	var selector *usecase.Selector
	if oracle != nil {
		selector = usecase.NewSelector(oracle, tokencount.DefaultCounter, cfg.MaxContextTokens)
	}
	fallback := usecase.NewFallback(intent.NewClassifier(lexicon))
	svc := usecase.NewRecommendService(indexer, retriever, selector, fallback, resultCache)

	// Build the index before accepting traffic; a failure here is retried
	// lazily on the first request instead of crashing the process.
	if err := svc.Warmup(ctx); err != nil {
		slog.Warn("index warmup failed, will retry on first request", slog.Any("error", err))
	}

	qdrantCheck, redisCheck := app.BuildReadinessChecks(cfg, redisPinger)
	srv := httpserver.NewServer(cfg, svc, qdrantCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
