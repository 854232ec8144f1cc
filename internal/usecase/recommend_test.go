package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
	"github.com/PrRahil/shl-assessment-recommender/internal/service/intent"
)

// pipeline wires a full service over in-memory fakes.
func pipeline(t *testing.T, records []domain.CatalogRecord, oracle domain.Oracle, cache domain.ResultCache) *RecommendService {
	t.Helper()
	store := &memStore{records: records}
	ix := newMemIndex()
	embedder := &stubEmbedder{}
	indexer := NewIndexer(store, embedder, ix, "assessments", 2)
	retriever := NewRetriever(embedder, ix, store, "assessments", 25)
	var selector *Selector
	if oracle != nil {
		selector = NewSelector(oracle, nil, 0)
	}
	fallback := NewFallback(intent.NewClassifier(intent.DefaultLexicon()))
	return NewRecommendService(indexer, retriever, selector, fallback, cache)
}

func technicalRecords(total, technical int) []domain.CatalogRecord {
	records := makeRecords(total)
	for i := range records {
		if i < technical {
			records[i].Name = records[i].Name + " Programming"
			records[i].Category = "K"
			records[i].IsTechnical = true
			records[i].IsSkills = true
		} else {
			records[i].Category = "A"
		}
	}
	return records
}

func TestRecommendOraclePath(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{response: "[1, 2, 3, 4, 5, 6, 7]"}
	svc := pipeline(t, makeRecords(25), oracle, nil)

	set, err := svc.Recommend(context.Background(), "java developers")
	require.NoError(t, err)
	assert.Len(t, set.Items, 7)
	assert.False(t, set.Degraded)
	assert.True(t, svc.Ready())
}

func TestRecommendFallsBackOnOracleError(t *testing.T) {
	t.Parallel()

	// 6 technical among 25; the technical-only query admits exactly those 6
	// that land in the 15-candidate window.
	oracle := &stubOracle{err: errors.New("deadline exceeded")}
	svc := pipeline(t, technicalRecords(25, 6), oracle, nil)

	set, err := svc.Recommend(context.Background(), "python programming role")
	require.NoError(t, err)
	require.Len(t, set.Items, 6)
	assert.False(t, set.Degraded)
	for _, item := range set.Items {
		assert.Equal(t, "K", item.Category)
	}
}

func TestRecommendFallsBackOnUnparseableResponse(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{response: "I think the first few look good."}
	svc := pipeline(t, makeRecords(25), oracle, nil)

	set, err := svc.Recommend(context.Background(), "general aptitude screening")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(set.Items), 5)
	assert.LessOrEqual(t, len(set.Items), 10)
}

func TestRecommendWithoutOracleUsesFallback(t *testing.T) {
	t.Parallel()

	svc := pipeline(t, makeRecords(25), nil, nil)

	set, err := svc.Recommend(context.Background(), "any role")
	require.NoError(t, err)
	assert.Len(t, set.Items, 10)
}

func TestRecommendDegradedSmallPool(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{response: "[1, 2, 3]"}
	svc := pipeline(t, makeRecords(3), oracle, nil)

	set, err := svc.Recommend(context.Background(), "any role")
	require.NoError(t, err)
	assert.Len(t, set.Items, 3)
	assert.True(t, set.Degraded, "pool below the floor degrades instead of padding")
}

func TestRecommendEmptyQuery(t *testing.T) {
	t.Parallel()

	svc := pipeline(t, makeRecords(5), nil, nil)
	_, err := svc.Recommend(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRecommendResultCache(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{response: "[1, 2, 3, 4, 5]"}
	cache := newMemCache()
	svc := pipeline(t, makeRecords(25), oracle, cache)

	first, err := svc.Recommend(context.Background(), "java developers")
	require.NoError(t, err)
	require.Len(t, oracle.prompts, 1)

	second, err := svc.Recommend(context.Background(), "java developers")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, oracle.prompts, 1, "second call must be served from cache")
}

func TestRecommendSelectorPanicFallsBack(t *testing.T) {
	t.Parallel()

	svc := pipeline(t, makeRecords(25), panicOracle{}, nil)

	set, err := svc.Recommend(context.Background(), "any role")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(set.Items), 5)
}

type panicOracle struct{}

func (panicOracle) Generate(context.Context, string) (string, error) { panic("oracle blew up") }
