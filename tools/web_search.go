package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BaSui01/docchat/llm"
)

// WebSearchConfig configures the web_search tool.
type WebSearchConfig struct {
	Enabled bool
	// Model is the search backend's model name (Perplexity-style).
	Model string
}

// WebSearchResult is the structured web_search payload: a synthesized
// answer plus source URLs for the caller's citation UI.
type WebSearchResult struct {
	Answer    string       `json:"answer"`
	Citations []string     `json:"citations"`
	Results   []WebListing `json:"results"`
}

// WebListing is one citation rendered as a search-result entry.
type WebListing struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// NewWebSearchTool answers queries via a search-augmented chat backend
// (an OpenAI-compatible endpoint that returns citations, e.g. Perplexity).
// Search failures are reported in the answer text, never as an error.
func NewWebSearchTool(provider llm.Provider, cfg WebSearchConfig) *Tool {
	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "web_search",
			Description: "Search the web for current information, news, or general knowledge. Use when the answer is unlikely to be in the user's documents.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query."}
				},
				"required": ["query"]
			}`),
		},
		Enabled: func(_ *ToolContext) bool {
			return cfg.Enabled && provider != nil
		},
		Handler: func(ctx context.Context, args map[string]any, _ *ToolContext, _ StatusFn) (any, error) {
			query, _ := args["query"].(string)

			resp, err := provider.Completion(ctx, &llm.ChatRequest{
				Model: cfg.Model,
				Messages: []llm.Message{
					llm.NewSystemMessage("You are a helpful search assistant. Provide concise, factual answers."),
					llm.NewUserMessage(query),
				},
			})
			if err != nil {
				return &WebSearchResult{
					Answer:    fmt.Sprintf("Web search failed: %v", err),
					Citations: []string{},
					Results:   []WebListing{},
				}, nil
			}

			citations := resp.Citations
			if citations == nil {
				citations = []string{}
			}
			results := make([]WebListing, 0, len(citations))
			for i, url := range citations {
				results = append(results, WebListing{
					Title: fmt.Sprintf("Source %d", i+1),
					URL:   url,
				})
			}

			return &WebSearchResult{
				Answer:    resp.Text(),
				Citations: citations,
				Results:   results,
			}, nil
		},
	}
}
