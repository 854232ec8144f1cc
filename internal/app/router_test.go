package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/PrRahil/shl-assessment-recommender/internal/adapter/httpserver"
	"github.com/PrRahil/shl-assessment-recommender/internal/config"
	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		ParseOrigins(" https://a.example, https://b.example "))
	assert.Equal(t, []string{"*"}, ParseOrigins(" , "))
}

type staticRecommender struct{ ready bool }

func (s staticRecommender) Recommend(context.Context, string) (domain.RecommendationSet, error) {
	return domain.RecommendationSet{Items: []domain.Recommendation{
		{Name: "Assessment", Category: "K", RelevanceScore: 0.9, URL: "https://example.com/a/"},
	}}, nil
}

func (s staticRecommender) Ready() bool { return s.ready }

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{RateLimitPerMin: 100, CORSAllowOrigins: "*"}
	srv := httpserver.NewServer(cfg, staticRecommender{ready: true}, nil, nil)
	return BuildRouter(cfg, srv)
}

func TestRouterRecommendRoute(t *testing.T) {
	t.Parallel()

	h := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/recommend", strings.NewReader(`{"query":"java"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "recommended_assessments")
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouterHealthAndReady(t *testing.T) {
	t.Parallel()

	h := testRouter(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMetricsRoute(t *testing.T) {
	t.Parallel()

	h := testRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterMethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := testRouter(t)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/recommend", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
