package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/store"
)

// schemaDescription is the documents metadata schema shown to the SQL
// generation model.
const schemaDescription = `
Table: documents
Columns:
  - id (uuid, PK)
  - user_id (uuid)
  - filename (text) — original uploaded filename
  - file_type (text) — extension: txt, md, pdf, docx, csv, html
  - file_size (integer) — bytes
  - status (text) — pending, processing, ready, error
  - chunk_count (integer) — number of chunks after ingestion
  - title (text, nullable) — extracted document title
  - summary (text, nullable) — generated summary
  - topics (jsonb, nullable) — extracted topic strings
  - tags (jsonb, nullable) — user-managed tag strings
  - document_date (text, nullable) — date mentioned in document
  - content_hash (text) — SHA-256 of file content
  - created_at (timestamptz)
  - updated_at (timestamptz)

Notes:
- Queries automatically filter to the current user's documents.
- Only SELECT queries are allowed.
- Use standard PostgreSQL syntax.
`

var (
	sqlFenceOpenRe  = regexp.MustCompile("(?i)^```(?:sql)?\\s*")
	sqlFenceCloseRe = regexp.MustCompile("\\s*```$")
)

// QueryMetadataConfig configures the query_documents_metadata tool.
type QueryMetadataConfig struct {
	Enabled bool
	// Model generates the SQL.
	Model string
}

// NewQueryMetadataTool answers natural-language questions about document
// metadata by generating a SELECT statement and running it user-scoped.
func NewQueryMetadataTool(provider llm.Provider, querier store.MetadataQuerier, cfg QueryMetadataConfig, logger *zap.Logger) *Tool {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "query_metadata"))

	return &Tool{
		Schema: llm.ToolSchema{
			Name:        "query_documents_metadata",
			Description: "Query structured metadata about the user's documents using natural language. Use for questions about document counts, file types, topics, dates, sizes, etc.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "The natural language question about document metadata."}
				},
				"required": ["question"]
			}`),
		},
		Enabled: func(tc *ToolContext) bool {
			return cfg.Enabled && provider != nil && querier != nil && tc != nil && tc.HasDocuments
		},
		Handler: func(ctx context.Context, args map[string]any, tc *ToolContext, _ StatusFn) (any, error) {
			question, _ := args["question"].(string)

			sql, err := generateSQL(ctx, provider, cfg.Model, question)
			if err != nil {
				return fmt.Sprintf("Error querying document metadata: %v", err), nil
			}

			rows, err := querier.SelectRows(ctx, tc.UserID, sql)
			if err != nil {
				logger.Warn("metadata query failed", zap.String("sql", sql), zap.Error(err))
				return fmt.Sprintf("Error querying document metadata: %v", err), nil
			}
			if len(rows) == 0 {
				return "No results found.", nil
			}

			encoded, err := json.Marshal(rows)
			if err != nil {
				return fmt.Sprintf("Error querying document metadata: %v", err), nil
			}
			return string(encoded), nil
		},
	}
}

// generateSQL asks the model for a single SELECT statement, stripping any
// markdown fences it wraps around the answer.
func generateSQL(ctx context.Context, provider llm.Provider, model, question string) (string, error) {
	resp, err := provider.Completion(ctx, &llm.ChatRequest{
		Model: model,
		Messages: []llm.Message{
			llm.NewSystemMessage("You are a SQL expert. Given the schema below and a user question, generate a single PostgreSQL SELECT query. Return ONLY the SQL, no explanation.\n\n" + schemaDescription),
			llm.NewUserMessage(question),
		},
	})
	if err != nil {
		return "", err
	}

	sql := strings.TrimSpace(resp.Text())
	sql = sqlFenceOpenRe.ReplaceAllString(sql, "")
	sql = sqlFenceCloseRe.ReplaceAllString(sql, "")
	return strings.TrimSpace(sql), nil
}
