package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// CatalogStore is the read view over the loaded catalog.
type CatalogStore interface {
	Records() []domain.CatalogRecord
	FindByURL(url string) (domain.CatalogRecord, bool)
	Len() int
}

const embedBatchSize = 16

// Indexer builds and maintains the vector collection from the catalog.
type Indexer struct {
	store      CatalogStore
	embedder   domain.Embedder
	index      domain.VectorIndex
	collection string
	vectorSize int
}

// NewIndexer wires an indexer over the given store, embedder, and index.
func NewIndexer(store CatalogStore, embedder domain.Embedder, index domain.VectorIndex, collection string, vectorSize int) *Indexer {
	return &Indexer{
		store:      store,
		embedder:   embedder,
		index:      index,
		collection: collection,
		vectorSize: vectorSize,
	}
}

// EnsureIndexed makes the collection consistent with the catalog. A collection
// holding at least as many points as the catalog is accepted as current; a
// smaller one is considered stale and rebuilt from scratch.
func (ix *Indexer) EnsureIndexed(ctx context.Context) error {
	if ix.store.Len() == 0 {
		return fmt.Errorf("catalog is empty: %w", domain.ErrDataUnavailable)
	}
	count, err := ix.index.Count(ctx, ix.collection)
	if err != nil {
		return fmt.Errorf("count points: %w", err)
	}
	if count >= ix.store.Len() {
		slog.Info("index is current",
			slog.Int("points", count), slog.Int("catalog", ix.store.Len()))
		return nil
	}
	slog.Info("index is stale, rebuilding",
		slog.Int("points", count), slog.Int("catalog", ix.store.Len()))
	return ix.Reindex(ctx)
}

// Reindex drops the collection and rebuilds it from the full catalog.
// Point ids derive from the record URL, so a rebuild of the same catalog
// produces the same points.
func (ix *Indexer) Reindex(ctx context.Context) error {
	records := ix.store.Records()
	if len(records) == 0 {
		return fmt.Errorf("catalog is empty: %w", domain.ErrDataUnavailable)
	}

	if err := ix.index.DeleteCollection(ctx, ix.collection); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := ix.index.EnsureCollection(ctx, ix.collection, ix.vectorSize, "Cosine"); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	for start := 0; start < len(records); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		texts := make([]string, len(batch))
		payloads := make([]map[string]any, len(batch))
		ids := make([]any, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Document()
			payloads[i] = pointPayload(rec)
			ids[i] = pointID(rec)
		}

		vectors, err := ix.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if err := ix.index.UpsertPoints(ctx, ix.collection, vectors, payloads, ids); err != nil {
			return fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}

	slog.Info("index rebuilt", slog.Int("points", len(records)), slog.String("collection", ix.collection))
	return nil
}

// pointID derives a stable UUID from the record URL so upserts replace rather
// than duplicate.
func pointID(rec domain.CatalogRecord) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(rec.URL)).String()
}

func pointPayload(rec domain.CatalogRecord) map[string]any {
	return map[string]any{
		"name":          rec.Name,
		"url":           rec.URL,
		"category":      rec.Category,
		"domain":        rec.Domain,
		"description":   rec.Description,
		"remote":        rec.RemoteCapable,
		"adaptive":      rec.AdaptiveCapable,
		"duration":      rec.DurationMinutes,
		"is_technical":  rec.IsTechnical,
		"is_behavioral": rec.IsBehavioral,
		"is_skills":     rec.IsSkills,
	}
}
