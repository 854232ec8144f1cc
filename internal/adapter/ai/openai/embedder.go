// Package openai provides the embedding provider over the OpenAI-compatible
// embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// Embedder calls an OpenAI-compatible embeddings endpoint. Transient failures
// are retried with exponential backoff; 4xx responses other than rate limits
// abort immediately.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel

	maxElapsedTime  time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	BackoffMaxElapsedTime  time.Duration
	BackoffInitialInterval time.Duration
	BackoffMaxInterval     time.Duration
	BackoffMultiplier      float64
}

// New creates an OpenAI-compatible embedding provider.
func New(cfg Config) (*Embedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key missing", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: embeddings model missing", domain.ErrInvalidArgument)
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Embedder{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           openai.EmbeddingModel(cfg.Model),
		maxElapsedTime:  cfg.BackoffMaxElapsedTime,
		initialInterval: cfg.BackoffInitialInterval,
		maxInterval:     cfg.BackoffMaxInterval,
		multiplier:      cfg.BackoffMultiplier,
	}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrInvalidArgument)
	}

	var resp openai.EmbeddingResponse
	op := func() error {
		req := openai.EmbeddingRequest{
			Input:          texts,
			Model:          e.model,
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		}
		start := time.Now()
		out, err := e.client.CreateEmbeddings(ctx, req)
		observability.AIRequestsTotal.WithLabelValues("openai", "embed").Inc()
		observability.AIRequestDuration.WithLabelValues("openai", "embed").Observe(time.Since(start).Seconds())
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				if apiErr.HTTPStatusCode == 429 {
					slog.Warn("embeddings rate limited", slog.String("provider", "openai"), slog.String("model", string(e.model)))
					return err
				}
				if apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
					// Client error: non-retryable
					return backoff.Permanent(err)
				}
			}
			return err
		}
		resp = out
		return nil
	}

	bo := backoff.WithContext(e.backoffConfig(), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		slog.Error("embeddings failed after retries", slog.String("provider", "openai"), slog.Any("error", err))
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embeddings: index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func (e *Embedder) backoffConfig() *backoff.ExponentialBackOff {
	expo := backoff.NewExponentialBackOff()
	if e.maxElapsedTime > 0 {
		expo.MaxElapsedTime = e.maxElapsedTime
	}
	if e.initialInterval > 0 {
		expo.InitialInterval = e.initialInterval
	}
	if e.maxInterval > 0 {
		expo.MaxInterval = e.maxInterval
	}
	if e.multiplier > 0 {
		expo.Multiplier = e.multiplier
	}
	return expo
}
