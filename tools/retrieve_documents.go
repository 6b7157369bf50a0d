package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BaSui01/docchat/llm"
)

// NewRetrieveDocumentsTool searches the user's uploaded document chunks.
// Only enabled when the user actually has documents.
func NewRetrieveDocumentsTool() *Tool {
	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "retrieve_documents",
			Description: "Search the user's uploaded documents for information relevant to their query.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query to find relevant document chunks."},
					"date_from": {"type": "string", "description": "Optional start date filter (YYYY-MM-DD)."},
					"date_to": {"type": "string", "description": "Optional end date filter (YYYY-MM-DD)."},
					"recency_weight": {"type": "number", "description": "Weight 0-1 for recency bias. 0 = pure similarity."}
				},
				"required": ["query"]
			}`),
		},
		Enabled: func(tc *ToolContext) bool {
			return tc != nil && tc.HasDocuments && tc.RetrieveFn != nil
		},
		Handler: func(ctx context.Context, args map[string]any, tc *ToolContext, _ StatusFn) (any, error) {
			query, _ := args["query"].(string)

			var params RetrieveParams
			if v, ok := args["date_from"].(string); ok && v != "" {
				t, err := time.Parse("2006-01-02", v)
				if err != nil {
					return nil, fmt.Errorf("invalid date_from %q: want YYYY-MM-DD", v)
				}
				params.DateFrom = &t
			}
			if v, ok := args["date_to"].(string); ok && v != "" {
				t, err := time.Parse("2006-01-02", v)
				if err != nil {
					return nil, fmt.Errorf("invalid date_to %q: want YYYY-MM-DD", v)
				}
				params.DateTo = &t
			}
			if v, ok := args["recency_weight"].(float64); ok {
				params.RecencyWeight = v
			}

			chunks, err := tc.RetrieveFn(ctx, query, params)
			if err != nil {
				return nil, err
			}
			return &RetrieveResult{
				FormattedText:   FormatChunks(chunks),
				CitationSources: CitationSources(chunks),
			}, nil
		},
	}
}
