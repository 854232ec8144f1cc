package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

// memStore is a CatalogStore over a fixed record slice.
type memStore struct {
	records []domain.CatalogRecord
}

func (m *memStore) Records() []domain.CatalogRecord { return m.records }
func (m *memStore) Len() int                        { return len(m.records) }

func (m *memStore) FindByURL(url string) (domain.CatalogRecord, bool) {
	for _, r := range m.records {
		if r.URL == url {
			return r, true
		}
	}
	return domain.CatalogRecord{}, false
}

// stubEmbedder returns a fixed-size zero-ish vector per text.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedder down")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

// memIndex is an in-memory VectorIndex. Search returns the stored points in
// insertion order with the configured distances.
type memIndex struct {
	collections map[string][]storedPoint
	distances   []float64
	searchErr   error
	countErr    error
}

type storedPoint struct {
	id      any
	payload map[string]any
}

func newMemIndex() *memIndex {
	return &memIndex{collections: map[string][]storedPoint{}}
}

func (ix *memIndex) EnsureCollection(_ context.Context, name string, _ int, _ string) error {
	if _, ok := ix.collections[name]; !ok {
		ix.collections[name] = nil
	}
	return nil
}

func (ix *memIndex) DeleteCollection(_ context.Context, name string) error {
	delete(ix.collections, name)
	return nil
}

func (ix *memIndex) Count(_ context.Context, name string) (int, error) {
	if ix.countErr != nil {
		return 0, ix.countErr
	}
	return len(ix.collections[name]), nil
}

func (ix *memIndex) UpsertPoints(_ context.Context, collection string, vectors [][]float32, payloads []map[string]any, ids []any) error {
	if len(vectors) != len(payloads) {
		return errors.New("length mismatch")
	}
	pts := ix.collections[collection]
	for i := range payloads {
		var id any
		if ids != nil {
			id = ids[i]
		}
		replaced := false
		for j := range pts {
			if id != nil && pts[j].id == id {
				pts[j].payload = payloads[i]
				replaced = true
				break
			}
		}
		if !replaced {
			pts = append(pts, storedPoint{id: id, payload: payloads[i]})
		}
	}
	ix.collections[collection] = pts
	return nil
}

func (ix *memIndex) Search(_ context.Context, collection string, _ []float32, topK int) ([]domain.SearchHit, error) {
	if ix.searchErr != nil {
		return nil, ix.searchErr
	}
	pts := ix.collections[collection]
	if len(pts) > topK {
		pts = pts[:topK]
	}
	hits := make([]domain.SearchHit, len(pts))
	for i, p := range pts {
		d := float64(i) * 0.01
		if i < len(ix.distances) {
			d = ix.distances[i]
		}
		hits[i] = domain.SearchHit{Payload: p.payload, Distance: d}
	}
	return hits, nil
}

// stubOracle returns a canned response or error.
type stubOracle struct {
	response string
	err      error
	prompts  []string
}

func (o *stubOracle) Generate(_ context.Context, prompt string) (string, error) {
	o.prompts = append(o.prompts, prompt)
	if o.err != nil {
		return "", o.err
	}
	return o.response, nil
}

// memCache is an in-memory ResultCache.
type memCache struct {
	m map[string]domain.RecommendationSet
}

func newMemCache() *memCache { return &memCache{m: map[string]domain.RecommendationSet{}} }

func (c *memCache) Get(_ context.Context, query string) (*domain.RecommendationSet, error) {
	if set, ok := c.m[query]; ok {
		return &set, nil
	}
	return nil, nil
}

func (c *memCache) Set(_ context.Context, query string, set domain.RecommendationSet) error {
	c.m[query] = set
	return nil
}

// makeCandidates builds a pool where indexes in technical are technical
// knowledge tests and indexes in behavioral are personality tests.
func makeCandidates(n int, technical, behavioral map[int]bool) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := 0; i < n; i++ {
		rec := domain.CatalogRecord{
			Name:        fmt.Sprintf("Assessment %d", i+1),
			URL:         fmt.Sprintf("https://example.com/products/assessment-%d/", i+1),
			Category:    "A",
			Domain:      "General Assessment",
			Description: "Ability Test - Cognitive Skills",
		}
		if technical[i] {
			rec.Category = "K"
			rec.IsTechnical = true
			rec.IsSkills = true
		}
		if behavioral[i] {
			rec.Category = "P"
			rec.IsBehavioral = true
		}
		out[i] = domain.Candidate{CatalogRecord: rec, Similarity: 1 - float64(i)*0.01}
	}
	return out
}

func makeRecords(n int) []domain.CatalogRecord {
	out := make([]domain.CatalogRecord, n)
	for i := 0; i < n; i++ {
		out[i] = domain.CatalogRecord{
			ID:       fmt.Sprintf("shl_test_%d", i),
			Name:     fmt.Sprintf("Assessment %d", i+1),
			URL:      fmt.Sprintf("https://example.com/products/assessment-%d/", i+1),
			Category: "K",
		}
	}
	return out
}
