package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/types"
)

// fakeProvider 返回固定响应的 LLM 桩
type fakeProvider struct {
	response  string
	citations []string
	err       error
	lastReq   *llm.ChatRequest
}

func (p *fakeProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return &llm.ChatResponse{
		Model:     req.Model,
		Choices:   []llm.ChatChoice{{Message: llm.NewAssistantMessage(p.response)}},
		Citations: p.citations,
	}, nil
}

func (p *fakeProvider) Stream(_ context.Context, _ *llm.ChatRequest) (<-chan llm.StreamChunk, error) {
	ch := make(chan llm.StreamChunk)
	close(ch)
	return ch, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func fixedRetrieve(chunks []*types.RetrievalCandidate, err error) (RetrieveFn, *RetrieveParams) {
	var captured RetrieveParams
	fn := func(_ context.Context, _ string, p RetrieveParams) ([]*types.RetrievalCandidate, error) {
		captured = p
		return chunks, err
	}
	return fn, &captured
}

// --- retrieve_documents ---

func TestRetrieveDocumentsHandler(t *testing.T) {
	t.Parallel()

	chunk := candidate("c1", "d1", "hello world here", "T")
	fn, captured := fixedRetrieve([]*types.RetrievalCandidate{chunk}, nil)
	tool := NewRetrieveDocumentsTool()

	tc := &ToolContext{RetrieveFn: fn, HasDocuments: true}
	out, err := tool.Handler(context.Background(), map[string]any{
		"query":          "hello",
		"date_from":      "2024-01-01",
		"recency_weight": 0.4,
	}, tc, nil)
	require.NoError(t, err)

	result, ok := out.(*RetrieveResult)
	require.True(t, ok)
	assert.Contains(t, result.FormattedText, "hello world here")
	require.Len(t, result.CitationSources, 1)
	assert.Equal(t, "c1", result.CitationSources[0].ChunkID)

	require.NotNil(t, captured.DateFrom)
	assert.Equal(t, "2024-01-01", captured.DateFrom.Format("2006-01-02"))
	assert.InDelta(t, 0.4, captured.RecencyWeight, 1e-12)
}

func TestRetrieveDocumentsRejectsBadDate(t *testing.T) {
	t.Parallel()

	fn, _ := fixedRetrieve(nil, nil)
	tool := NewRetrieveDocumentsTool()

	_, err := tool.Handler(context.Background(), map[string]any{
		"query":     "hello",
		"date_from": "January 1st",
	}, &ToolContext{RetrieveFn: fn, HasDocuments: true}, nil)
	assert.ErrorContains(t, err, "date_from")
}

func TestRetrieveDocumentsEnabledRequiresDocuments(t *testing.T) {
	t.Parallel()

	fn, _ := fixedRetrieve(nil, nil)
	tool := NewRetrieveDocumentsTool()

	assert.True(t, tool.Enabled(&ToolContext{RetrieveFn: fn, HasDocuments: true}))
	assert.False(t, tool.Enabled(&ToolContext{RetrieveFn: fn, HasDocuments: false}))
	assert.False(t, tool.Enabled(&ToolContext{HasDocuments: true}))
}

// --- web_search ---

func TestWebSearchHandler(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		response:  "Paris is the capital of France.",
		citations: []string{"https://example.com/a", "https://example.com/b"},
	}
	tool := NewWebSearchTool(provider, WebSearchConfig{Enabled: true, Model: "sonar"})

	out, err := tool.Handler(context.Background(), map[string]any{"query": "capital of France"}, &ToolContext{}, nil)
	require.NoError(t, err)

	result, ok := out.(*WebSearchResult)
	require.True(t, ok)
	assert.Equal(t, "Paris is the capital of France.", result.Answer)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/b"}, result.Citations)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "Source 1", result.Results[0].Title)
	assert.Equal(t, "https://example.com/a", result.Results[0].URL)

	require.NotNil(t, provider.lastReq)
	assert.Equal(t, "sonar", provider.lastReq.Model)
	assert.Equal(t, llm.RoleSystem, provider.lastReq.Messages[0].Role)
}

func TestWebSearchFailureReportedInAnswer(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{err: errors.New("upstream down")}
	tool := NewWebSearchTool(provider, WebSearchConfig{Enabled: true, Model: "sonar"})

	out, err := tool.Handler(context.Background(), map[string]any{"query": "x"}, &ToolContext{}, nil)
	require.NoError(t, err)

	result := out.(*WebSearchResult)
	assert.Contains(t, result.Answer, "Web search failed")
	assert.Empty(t, result.Citations)
}

func TestWebSearchEnabled(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	assert.True(t, NewWebSearchTool(provider, WebSearchConfig{Enabled: true}).Enabled(&ToolContext{}))
	assert.False(t, NewWebSearchTool(provider, WebSearchConfig{Enabled: false}).Enabled(&ToolContext{}))
	assert.False(t, NewWebSearchTool(nil, WebSearchConfig{Enabled: true}).Enabled(&ToolContext{}))
}

// --- graph_search ---

type fakeGraphSearcher struct {
	globalOut   string
	relationOut string
	lastA       string
	lastB       string
	globalTopN  int
}

func (f *fakeGraphSearcher) GlobalSearch(_ context.Context, _ string, topN int) string {
	f.globalTopN = topN
	return f.globalOut
}

func (f *fakeGraphSearcher) RelationshipSearch(_ context.Context, _ string, a, b string) string {
	f.lastA, f.lastB = a, b
	return f.relationOut
}

func TestGraphSearchGlobalMode(t *testing.T) {
	t.Parallel()

	searcher := &fakeGraphSearcher{globalOut: "## Knowledge Graph Communities\n"}
	tool := NewGraphSearchTool(searcher, GraphSearchConfig{Enabled: true, GlobalTopN: 7})

	out, err := tool.Handler(context.Background(), map[string]any{"mode": "global"}, &ToolContext{UserID: "u1", HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Knowledge Graph Communities\n", out)
	assert.Equal(t, 7, searcher.globalTopN)
}

func TestGraphSearchRelationshipMode(t *testing.T) {
	t.Parallel()

	searcher := &fakeGraphSearcher{relationOut: "## Relationship Path: A → B\n"}
	tool := NewGraphSearchTool(searcher, GraphSearchConfig{Enabled: true})

	out, err := tool.Handler(context.Background(), map[string]any{
		"mode": "relationship", "entity_a": "A", "entity_b": "B",
	}, &ToolContext{UserID: "u1", HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "## Relationship Path: A → B\n", out)
	assert.Equal(t, "A", searcher.lastA)
}

func TestGraphSearchRelationshipRequiresBothEntities(t *testing.T) {
	t.Parallel()

	tool := NewGraphSearchTool(&fakeGraphSearcher{}, GraphSearchConfig{Enabled: true})

	out, err := tool.Handler(context.Background(), map[string]any{
		"mode": "relationship", "entity_a": "A",
	}, &ToolContext{HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "relationship mode requires both entity_a and entity_b.", out)
}

// --- deep_analysis ---

func TestDeepAnalysisHandler(t *testing.T) {
	t.Parallel()

	var gotQuery string
	var gotFocus []string
	run := func(_ context.Context, query string, focus []string, _ *ToolContext, _ StatusFn) (string, error) {
		gotQuery = query
		gotFocus = focus
		return "synthesis", nil
	}
	tool := NewDeepAnalysisTool(run, DeepAnalysisConfig{Enabled: true})

	out, err := tool.Handler(context.Background(), map[string]any{
		"query":       "analyze spending",
		"focus_areas": []any{"travel", "software"},
	}, &ToolContext{HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "synthesis", out)
	assert.Equal(t, "analyze spending", gotQuery)
	assert.Equal(t, []string{"travel", "software"}, gotFocus)
}

// --- query_documents_metadata ---

type fakeQuerier struct {
	rows    []map[string]any
	err     error
	lastSQL string
}

func (f *fakeQuerier) SelectRows(_ context.Context, _ string, query string) ([]map[string]any, error) {
	f.lastSQL = query
	return f.rows, f.err
}

func TestQueryMetadataHandler(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: "```sql\nSELECT COUNT(*) AS n FROM documents\n```"}
	querier := &fakeQuerier{rows: []map[string]any{{"n": 12}}}
	tool := NewQueryMetadataTool(provider, querier, QueryMetadataConfig{Enabled: true, Model: "gpt-4o-mini"}, nil)

	out, err := tool.Handler(context.Background(), map[string]any{"question": "how many documents?"}, &ToolContext{UserID: "u1", HasDocuments: true}, nil)
	require.NoError(t, err)

	// the fenced SQL is stripped before execution
	assert.Equal(t, "SELECT COUNT(*) AS n FROM documents", querier.lastSQL)
	assert.JSONEq(t, `[{"n": 12}]`, out.(string))
}

func TestQueryMetadataEmptyResult(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: "SELECT * FROM documents WHERE file_type = 'pdf'"}
	querier := &fakeQuerier{}
	tool := NewQueryMetadataTool(provider, querier, QueryMetadataConfig{Enabled: true}, nil)

	out, err := tool.Handler(context.Background(), map[string]any{"question": "pdfs?"}, &ToolContext{HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "No results found.", out)
}

func TestQueryMetadataErrorsReportedAsText(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{response: "DELETE FROM documents"}
	querier := &fakeQuerier{err: errors.New("metadata query must be a single SELECT statement")}
	tool := NewQueryMetadataTool(provider, querier, QueryMetadataConfig{Enabled: true}, nil)

	out, err := tool.Handler(context.Background(), map[string]any{"question": "drop stuff"}, &ToolContext{HasDocuments: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, out.(string), "Error querying document metadata")
}
