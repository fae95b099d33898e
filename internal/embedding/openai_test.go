package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singabi/dbkb/internal/config"
	dbkberrors "github.com/singabi/dbkb/internal/errors"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewOpenAIProvider(config.EmbeddingConfig{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "text-embedding-3-large",
		Dimensions: 3,
	}, srv.Client())
	require.NoError(t, err)

	return p
}

func TestEmbedBatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-large", req.Model)
		assert.Equal(t, []string{"alpha", "beta"}, req.Input)

		// out of order on purpose; results must come back in input order
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{0.4, 0.5, 0.6}},
				{"index": 0, "embedding": []float32{0.1, 0.2, 0.3}},
			},
		})
	})

	vecs, err := p.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vecs[0])
	assert.Equal(t, []float32{0.4, 0.5, 0.6}, vecs[1])
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	p := newTestProvider(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected for empty input")
	})

	vecs, err := p.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedBatchServiceError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limit exceeded", "type": "rate_limit"},
		})
	})

	_, err := p.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, dbkberrors.IsType(err, dbkberrors.ErrTypeEmbedding))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestEmbedBatchDimensionMismatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{0.1, 0.2}},
			},
		})
	})

	_, err := p.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestEmbedBatchCountMismatch(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{},
		})
	})

	_, err := p.EmbedBatch(context.Background(), []string{"x", "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "count mismatch")
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(config.EmbeddingConfig{Model: "m", Dimensions: 8}, nil)
	require.Error(t, err)
	assert.True(t, dbkberrors.IsType(err, dbkberrors.ErrTypeConfig))
}

func TestEmbedOne(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{1, 0, 0}},
			},
		})
	})

	vec, err := EmbedOne(context.Background(), p, "query text")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}
