package tools

import (
	"context"
	"encoding/json"

	"github.com/BaSui01/docchat/llm"
)

// GraphSearcher answers knowledge-graph queries for a user.
type GraphSearcher interface {
	GlobalSearch(ctx context.Context, userID string, topN int) string
	RelationshipSearch(ctx context.Context, userID, entityA, entityB string) string
}

// GraphSearchConfig configures the graph_search tool.
type GraphSearchConfig struct {
	Enabled bool
	// GlobalTopN caps community summaries returned by global mode.
	GlobalTopN int
}

// NewGraphSearchTool queries the knowledge graph built from the user's
// documents, either for global themes or for the path between two entities.
func NewGraphSearchTool(searcher GraphSearcher, cfg GraphSearchConfig) *Tool {
	if cfg.GlobalTopN <= 0 {
		cfg.GlobalTopN = 5
	}
	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "graph_search",
			Description: "Query the knowledge graph extracted from the user's documents. Use mode='global' for high-level themes, main topics, or an overview of all documents. Use mode='relationship' with entity_a and entity_b to find how two entities are connected.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"mode": {"type": "string", "enum": ["global", "relationship"], "description": "'global' for theme/community overview; 'relationship' for entity path queries."},
					"entity_a": {"type": "string", "description": "First entity name (required for mode='relationship')."},
					"entity_b": {"type": "string", "description": "Second entity name (required for mode='relationship')."}
				},
				"required": ["mode"]
			}`),
		},
		Enabled: func(tc *ToolContext) bool {
			return cfg.Enabled && searcher != nil && tc != nil && tc.HasDocuments
		},
		Handler: func(ctx context.Context, args map[string]any, tc *ToolContext, _ StatusFn) (any, error) {
			mode, _ := args["mode"].(string)
			if mode == "relationship" {
				entityA, _ := args["entity_a"].(string)
				entityB, _ := args["entity_b"].(string)
				if entityA == "" || entityB == "" {
					return "relationship mode requires both entity_a and entity_b.", nil
				}
				return searcher.RelationshipSearch(ctx, tc.UserID, entityA, entityB), nil
			}
			return searcher.GlobalSearch(ctx, tc.UserID, cfg.GlobalTopN), nil
		},
	}
}
