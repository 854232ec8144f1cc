// Package usecase implements the recommendation pipeline: retrieval,
// oracle-driven selection, and the deterministic fallback.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// RecommendService orchestrates one recommend call end to end. It is safe for
// concurrent use; the first call (or an explicit Warmup) builds the index.
type RecommendService struct {
	indexer   *Indexer
	retriever *Retriever
	selector  *Selector
	fallback  *Fallback
	cache     domain.ResultCache

	mu      sync.Mutex
	indexed bool
}

// NewRecommendService wires the pipeline. cache may be nil.
func NewRecommendService(indexer *Indexer, retriever *Retriever, selector *Selector, fallback *Fallback, cache domain.ResultCache) *RecommendService {
	return &RecommendService{
		indexer:   indexer,
		retriever: retriever,
		selector:  selector,
		fallback:  fallback,
		cache:     cache,
	}
}

// Warmup loads the index ahead of the first query.
func (s *RecommendService) Warmup(ctx context.Context) error {
	return s.ensureIndexed(ctx)
}

// Ready reports whether the index has been built.
func (s *RecommendService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexed
}

// Recommend returns 5 to 10 recommendations for the query. The set is marked
// degraded when the candidate pool could not supply five items; it is never
// padded with duplicates.
func (s *RecommendService) Recommend(ctx context.Context, query string) (domain.RecommendationSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.RecommendationSet{}, fmt.Errorf("query must not be empty: %w", domain.ErrInvalidArgument)
	}

	if err := s.ensureIndexed(ctx); err != nil {
		return domain.RecommendationSet{}, err
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, query); err != nil {
			slog.Warn("result cache lookup failed", slog.Any("error", err))
		} else if cached != nil {
			observability.ObserveRecommendation("cached", len(cached.Items), scores(cached.Items))
			return *cached, nil
		}
	}

	candidates := s.retriever.Retrieve(ctx, query)
	if len(candidates) == 0 {
		slog.Warn("no candidates retrieved", slog.String("query", query))
		observability.ObserveRecommendation("empty", 0, nil)
		return domain.RecommendationSet{Items: []domain.Recommendation{}, Degraded: true}, nil
	}

	items, outcome := s.selectWithFallback(ctx, query, candidates)
	set := domain.RecommendationSet{
		Items:    items,
		Degraded: len(items) < minRecommendations,
	}
	if set.Degraded {
		outcome = "degraded"
	}
	observability.ObserveRecommendation(outcome, len(items), scores(items))

	if s.cache != nil {
		if err := s.cache.Set(ctx, query, set); err != nil {
			slog.Warn("result cache store failed", slog.Any("error", err))
		}
	}
	return set, nil
}

// selectWithFallback runs the oracle path and falls back deterministically on
// any error or panic. The fallback itself cannot fail.
func (s *RecommendService) selectWithFallback(ctx context.Context, query string, candidates []domain.Candidate) (items []domain.Recommendation, outcome string) {
	if s.selector != nil {
		items, err := s.oracleSelect(ctx, query, candidates)
		if err == nil {
			return items, "oracle"
		}
		slog.Warn("oracle selection failed, falling back", slog.Any("error", err))
	}
	return s.fallback.Select(query, candidates), "fallback"
}

func (s *RecommendService) oracleSelect(ctx context.Context, query string, candidates []domain.Candidate) (items []domain.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("selector panic: %v: %w", r, domain.ErrInternal)
		}
	}()
	return s.selector.Select(ctx, query, candidates)
}

func (s *RecommendService) ensureIndexed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed {
		return nil
	}
	if err := s.indexer.EnsureIndexed(ctx); err != nil {
		return fmt.Errorf("ensure indexed: %w", err)
	}
	s.indexed = true
	return nil
}

func scores(items []domain.Recommendation) []float64 {
	out := make([]float64, len(items))
	for i, it := range items {
		out[i] = it.RelevanceScore
	}
	return out
}
