package tools

import (
	"context"
	"encoding/json"

	"github.com/BaSui01/docchat/llm"
)

// SubAgentFn runs the bounded multi-pass analysis loop. Injected by the
// chat layer to keep the dependency pointing one way.
type SubAgentFn func(ctx context.Context, query string, focusAreas []string, tc *ToolContext, onStatus StatusFn) (string, error)

// DeepAnalysisConfig configures the deep_analysis tool.
type DeepAnalysisConfig struct {
	Enabled bool
}

// NewDeepAnalysisTool delegates to the sub-agent for thorough multi-pass
// document analysis.
func NewDeepAnalysisTool(run SubAgentFn, cfg DeepAnalysisConfig) *Tool {
	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "deep_analysis",
			Description: "Perform a thorough, multi-pass analysis of the user's documents. Use when the user asks for comprehensive analysis, detailed summaries, or deep investigation across their documents. This does multiple rounds of retrieval with different queries to ensure thorough coverage.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The analysis query describing what to investigate."},
					"focus_areas": {"type": "array", "items": {"type": "string"}, "description": "Optional list of specific areas or topics to focus on."}
				},
				"required": ["query"]
			}`),
		},
		Enabled: func(tc *ToolContext) bool {
			return cfg.Enabled && run != nil && tc != nil && tc.HasDocuments
		},
		Handler: func(ctx context.Context, args map[string]any, tc *ToolContext, onStatus StatusFn) (any, error) {
			query, _ := args["query"].(string)
			var focus []string
			if raw, ok := args["focus_areas"].([]any); ok {
				for _, v := range raw {
					if s, ok := v.(string); ok {
						focus = append(focus, s)
					}
				}
			}
			out, err := run(ctx, query, focus, tc, onStatus)
			if err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}
