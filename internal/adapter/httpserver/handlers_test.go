package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrRahil/shl-assessment-recommender/internal/config"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

type fakeRecommender struct {
	set   domain.RecommendationSet
	err   error
	ready bool
	query string
}

func (f *fakeRecommender) Recommend(_ context.Context, query string) (domain.RecommendationSet, error) {
	f.query = query
	if f.err != nil {
		return domain.RecommendationSet{}, f.err
	}
	return f.set, nil
}

func (f *fakeRecommender) Ready() bool { return f.ready }

func sampleSet(n int) domain.RecommendationSet {
	items := make([]domain.Recommendation, n)
	for i := range items {
		items[i] = domain.Recommendation{
			Name:           "Assessment",
			Description:    "Knowledge Test - Technical Skills",
			Category:       "K",
			RelevanceScore: 0.8,
			URL:            "https://example.com/products/assessment/",
		}
	}
	return domain.RecommendationSet{Items: items}
}

func TestRecommendHandlerOK(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{set: sampleSet(7), ready: true}
	srv := NewServer(config.Config{}, rec, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader(`{"query":"java developers"}`))
	w := httptest.NewRecorder()
	srv.RecommendHandler()(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "java developers", rec.query)
	body := w.Body.String()
	assert.Contains(t, body, `"recommended_assessments"`)
	assert.Contains(t, body, `"relevance_score"`)
	assert.Contains(t, body, `"degraded":false`)
}

func TestRecommendHandlerValidation(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.Config{}, &fakeRecommender{}, nil, nil)

	tests := []struct {
		name string
		body string
	}{
		{"missing query", `{}`},
		{"empty query", `{"query":""}`},
		{"invalid json", `{"query":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.RecommendHandler()(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_ARGUMENT")
		})
	}
}

func TestRecommendHandlerDataUnavailable(t *testing.T) {
	t.Parallel()

	rec := &fakeRecommender{err: domain.ErrDataUnavailable}
	srv := NewServer(config.Config{}, rec, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader(`{"query":"anything"}`))
	w := httptest.NewRecorder()
	srv.RecommendHandler()(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "DATA_UNAVAILABLE")
}

func TestRecommendHandlerAcceptNegotiation(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.Config{}, &fakeRecommender{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader(`{"query":"x"}`))
	req.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	srv.RecommendHandler()(w, req)

	assert.Equal(t, http.StatusNotAcceptable, w.Code)
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	srv := NewServer(config.Config{}, &fakeRecommender{ready: true}, nil, nil)
	w := httptest.NewRecorder()
	srv.HealthHandler()(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ready":true`)
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		srv := NewServer(config.Config{}, &fakeRecommender{ready: true},
			func(context.Context) error { return nil }, nil)
		w := httptest.NewRecorder()
		srv.ReadyzHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("index not built", func(t *testing.T) {
		t.Parallel()
		srv := NewServer(config.Config{}, &fakeRecommender{ready: false}, nil, nil)
		w := httptest.NewRecorder()
		srv.ReadyzHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("qdrant down", func(t *testing.T) {
		t.Parallel()
		srv := NewServer(config.Config{}, &fakeRecommender{ready: true},
			func(context.Context) error { return errors.New("connection refused") }, nil)
		w := httptest.NewRecorder()
		srv.ReadyzHandler()(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "connection refused")
	})
}
