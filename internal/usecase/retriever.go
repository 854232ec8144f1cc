package usecase

import (
	"context"
	"log/slog"

	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// Retriever turns a query into a similarity-ordered candidate pool. Retrieval
// failures are not fatal: an empty pool is returned and the caller decides
// what an empty result means.
type Retriever struct {
	embedder   domain.Embedder
	index      domain.VectorIndex
	store      CatalogStore
	collection string
	topK       int
}

// NewRetriever wires a retriever over the embedder, index, and catalog.
func NewRetriever(embedder domain.Embedder, index domain.VectorIndex, store CatalogStore, collection string, topK int) *Retriever {
	if topK <= 0 {
		topK = 25
	}
	return &Retriever{
		embedder:   embedder,
		index:      index,
		store:      store,
		collection: collection,
		topK:       topK,
	}
}

// Retrieve returns up to topK candidates, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string) []domain.Candidate {
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		slog.Error("query embedding failed", slog.Any("error", err))
		return nil
	}

	hits, err := r.index.Search(ctx, r.collection, vecs[0], r.topK)
	if err != nil {
		slog.Error("vector search failed", slog.Any("error", err))
		return nil
	}

	candidates := make([]domain.Candidate, 0, len(hits))
	for _, hit := range hits {
		rec, ok := r.recordFor(hit.Payload)
		if !ok {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			CatalogRecord: rec,
			Similarity:    clamp01(1 - hit.Distance),
		})
	}
	observability.CandidatePoolSize.Observe(float64(len(candidates)))
	slog.Debug("candidates retrieved", slog.Int("count", len(candidates)), slog.Int("top_k", r.topK))
	return candidates
}

// recordFor resolves a search payload back to a catalog record. The catalog
// is authoritative; the payload only fills in when the URL no longer resolves
// (for example after a catalog file swap before the next rebuild).
func (r *Retriever) recordFor(payload map[string]any) (domain.CatalogRecord, bool) {
	url := payloadString(payload, "url")
	if rec, ok := r.store.FindByURL(url); ok {
		return rec, true
	}
	name := payloadString(payload, "name")
	if name == "" {
		return domain.CatalogRecord{}, false
	}
	return domain.CatalogRecord{
		Name:            name,
		URL:             url,
		Category:        payloadString(payload, "category"),
		Domain:          payloadString(payload, "domain"),
		Description:     payloadString(payload, "description"),
		RemoteCapable:   payloadString(payload, "remote"),
		AdaptiveCapable: payloadString(payload, "adaptive"),
		DurationMinutes: payloadInt(payload, "duration"),
		IsTechnical:     payloadBool(payload, "is_technical"),
		IsBehavioral:    payloadBool(payload, "is_behavioral"),
		IsSkills:        payloadBool(payload, "is_skills"),
	}, true
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func payloadBool(payload map[string]any, key string) bool {
	if v, ok := payload[key].(bool); ok {
		return v
	}
	return false
}

func payloadInt(payload map[string]any, key string) int {
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
