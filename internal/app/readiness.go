package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PrRahil/shl-assessment-recommender/internal/config"
)

// RedisPinger is the minimal interface for a Redis-backed cache capable of Ping.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// BuildReadinessChecks returns readiness checks for qdrant and redis. The
// redis check is nil when no cache is configured so the probe skips it.
func BuildReadinessChecks(cfg config.Config, rdb RedisPinger) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	qdrantCheck := func(ctx context.Context) error {
		client := &http.Client{Timeout: 2 * time.Second}
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, cfg.QdrantURL+"/collections", nil)
		if cfg.QdrantAPIKey != "" {
			req.Header.Set("api-key", cfg.QdrantAPIKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		return fmt.Errorf("qdrant status %d", resp.StatusCode)
	}

	var redisCheck func(ctx context.Context) error
	if rdb != nil {
		redisCheck = func(ctx context.Context) error {
			return rdb.Ping(ctx)
		}
	}
	return qdrantCheck, redisCheck
}
