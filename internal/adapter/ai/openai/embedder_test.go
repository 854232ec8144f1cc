package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrRahil/shl-assessment-recommender/internal/domain"
)

func testConfig(baseURL string) Config {
	return Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "text-embedding-3-small",

		BackoffMaxElapsedTime:  500 * time.Millisecond,
		BackoffInitialInterval: 10 * time.Millisecond,
		BackoffMaxInterval:     50 * time.Millisecond,
		BackoffMultiplier:      1.5,
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Model: "m"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = New(Config{APIKey: "k"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestEmbedReturnsVectorsInOrder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				// Out of order on purpose; results must land by index.
				{"object": "embedding", "index": 1, "embedding": []float32{0.3, 0.4}},
				{"object": "embedding", "index": 0, "embedding": []float32{0.1, 0.2}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		}))
	}))
	defer srv.Close()

	e, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vecs[0])
	assert.Equal(t, []float32{0.3, 0.4}, vecs[1])
}

func TestEmbedRetriesOn429(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit_error"}}`))
			return
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": []float32{0.5}},
			},
			"model": "text-embedding-3-small",
			"usage": map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		}))
	}))
	defer srv.Close()

	e, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	vecs, err := e.Embed(context.Background(), []string{"query"})
	require.NoError(t, err)
	require.Len(t, vecs, 1)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestEmbedDoesNotRetry4xx(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad input","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e, err := New(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), []string{"query"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx must not be retried")
}

func TestEmbedEmptyInput(t *testing.T) {
	t.Parallel()

	e, err := New(testConfig("http://unused"))
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
