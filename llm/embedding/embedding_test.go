package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- ChooseModel ---

func TestChooseModel(t *testing.T) {
	assert.Equal(t, "req-model", ChooseModel("req-model", "default", "fallback"))
	assert.Equal(t, "default", ChooseModel("", "default", "fallback"))
	assert.Equal(t, "fallback", ChooseModel("", "", "fallback"))
}

// --- BaseProvider ---

func TestNewBaseProvider(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		bp := NewBaseProvider(BaseConfig{
			Name:    "test",
			BaseURL: "http://example.com/",
		})
		assert.Equal(t, "test", bp.Name())
		assert.Equal(t, 100, bp.MaxBatchSize())
		// BaseURL trailing slash trimmed
		assert.Equal(t, "http://example.com", bp.baseURL)
	})

	t.Run("custom values", func(t *testing.T) {
		bp := NewBaseProvider(BaseConfig{
			Name:       "custom",
			BaseURL:    "http://api.test",
			Dimensions: 512,
			MaxBatch:   50,
			Timeout:    10 * time.Second,
		})
		assert.Equal(t, 512, bp.Dimensions())
		assert.Equal(t, 50, bp.MaxBatchSize())
	})
}

// --- OpenAIProvider ---

func TestOpenAIProviderEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openAIEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		w.Write([]byte(`{
			"object": "list",
			"data": [
				{"object":"embedding","index":0,"embedding":[0.1,0.2,0.3]},
				{"object":"embedding","index":1,"embedding":[0.4,0.5,0.6]}
			],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 8, "total_tokens": 8}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})

	vecs, err := p.EmbedDocuments(context.Background(), []string{"doc one", "doc two"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vecs[0])
	assert.Equal(t, []float64{0.4, 0.5, 0.6}, vecs[1])
}

func TestOpenAIProviderEmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"object": "list",
			"data": [{"object":"embedding","index":0,"embedding":[1,0,0]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 2, "total_tokens": 2}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	vec, err := p.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 0}, vec)
}

func TestOpenAIProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`rate limited`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.EmbedQuery(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// --- mapHTTPError ---

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		wantCode  string
		retryable bool
	}{
		{http.StatusUnauthorized, "LLM_UNAUTHORIZED", false},
		{http.StatusForbidden, "LLM_FORBIDDEN", false},
		{http.StatusTooManyRequests, "LLM_RATE_LIMITED", true},
		{http.StatusBadRequest, "LLM_INVALID_REQUEST", false},
		{http.StatusInternalServerError, "LLM_UPSTREAM_ERROR", true},
		{http.StatusBadGateway, "LLM_UPSTREAM_ERROR", true},
		{http.StatusServiceUnavailable, "LLM_UPSTREAM_ERROR", true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := mapHTTPError(tt.status, "test error", "test-provider")
			assert.Equal(t, tt.wantCode, string(err.Code))
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, "test-provider", err.Provider)
			assert.Equal(t, tt.status, err.HTTPStatus)
		})
	}
}
