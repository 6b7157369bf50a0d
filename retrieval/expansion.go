package retrieval

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
)

const expansionPrompt = `Generate %d alternative search queries for the following question.
Each alternative should represent a different angle or phrasing of the original.
Do not repeat the original query.

Original query: %s

Return a JSON object with a "queries" key containing an array of exactly %d strings.
Return ONLY valid JSON, no other text.`

// Expander 通过 LLM 为一个查询生成改写变体
type Expander struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewExpander 创建查询扩展器
func NewExpander(provider llm.Provider, model string, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "query_expansion")),
	}
}

// Expand 生成至多 count 个替代查询。返回值不包含原始查询，
// 由调用方自行前置。任何失败（网络、畸形 JSON、schema 不符）
// 都返回空列表：扩展是纯增量能力，不允许拖垮基础检索。
func (e *Expander) Expand(ctx context.Context, query string, count int) []string {
	if count <= 0 {
		return nil
	}

	resp, err := e.provider.Completion(ctx, &llm.ChatRequest{
		Model: e.model,
		Messages: []llm.Message{
			llm.NewUserMessage(fmt.Sprintf(expansionPrompt, count, query, count)),
		},
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		e.logger.Warn("query expansion failed, falling back to original query only", zap.Error(err))
		return nil
	}

	var parsed struct {
		Queries []string `json:"queries"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		e.logger.Warn("query expansion returned malformed JSON", zap.Error(err))
		return nil
	}

	queries := parsed.Queries
	if len(queries) > count {
		queries = queries[:count]
	}

	e.logger.Debug("query expanded", zap.Int("alternatives", len(queries)))
	return queries
}
