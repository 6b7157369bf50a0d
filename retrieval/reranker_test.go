package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/docchat/types"
)

func TestRerank(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		response: `{"rankings": [
			{"chunk_id": "c1", "relevance_score": 0.2},
			{"chunk_id": "c2", "relevance_score": 0.9},
			{"chunk_id": "c3", "relevance_score": 0.5}
		]}`,
	}
	reranker := NewReranker(provider, "gpt-4o-mini", zap.NewNop())

	candidates := []*types.RetrievalCandidate{}
	for _, id := range []string{"c1", "c2", "c3"} {
		c := cand(id)
		c.Content = "content of " + id
		candidates = append(candidates, c)
	}

	got := reranker.Rerank(context.Background(), "the query", candidates, 3)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"c2", "c3", "c1"}, ids(got))
	assert.InDelta(t, 0.9, got[0].RerankScore, 1e-12)

	require.NotNil(t, provider.lastReq)
	prompt := provider.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "Query: the query")
	assert.Contains(t, prompt, "[ID: c1]")
	assert.Contains(t, prompt, "[ID: c3]")
}

func TestRerankTruncatesExcerpts(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{response: `{"rankings": []}`}
	reranker := NewReranker(provider, "gpt-4o-mini", nil)

	long := cand("c1")
	long.Content = strings.Repeat("x", 2000)

	reranker.Rerank(context.Background(), "q", []*types.RetrievalCandidate{long}, 1)

	require.NotNil(t, provider.lastReq)
	prompt := provider.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "[ID: c1]\n"+strings.Repeat("x", 500))
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}

func TestRerankExcerptSplitsOnRuneBoundary(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short text", excerpt("short text"))

	long := strings.Repeat("界", 1000)
	assert.Equal(t, strings.Repeat("界", 500), excerpt(long))
}

func TestRerankUnscoredDefaultsToZero(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{
		response: `{"rankings": [{"chunk_id": "c2", "relevance_score": 0.7}]}`,
	}
	reranker := NewReranker(provider, "gpt-4o-mini", nil)

	candidates := []*types.RetrievalCandidate{cand("c1"), cand("c2")}
	got := reranker.Rerank(context.Background(), "q", candidates, 2)

	require.Len(t, got, 2)
	// 未打分的候选得 0 分排在最后，而不是被丢弃
	assert.Equal(t, []string{"c2", "c1"}, ids(got))
	assert.Zero(t, got[1].RerankScore)
}

func TestRerankFallbackOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider *scriptedProvider
	}{
		{"provider error", &scriptedProvider{err: errors.New("rate limited")}},
		{"malformed json", &scriptedProvider{response: "oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reranker := NewReranker(tt.provider, "gpt-4o-mini", nil)

			candidates := []*types.RetrievalCandidate{cand("c1"), cand("c2"), cand("c3")}
			got := reranker.Rerank(context.Background(), "q", candidates, 2)

			// 失败时按输入顺序截断
			assert.Equal(t, []string{"c1", "c2"}, ids(got))
		})
	}
}

func TestRerankEmptyInput(t *testing.T) {
	t.Parallel()

	provider := &scriptedProvider{response: `{"rankings": []}`}
	reranker := NewReranker(provider, "gpt-4o-mini", nil)

	assert.Empty(t, reranker.Rerank(context.Background(), "q", nil, 5))
	assert.Nil(t, provider.lastReq)
}
