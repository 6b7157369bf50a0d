package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm"
	"github.com/BaSui01/docchat/types"
)

const rerankPrompt = `You are a relevance scoring system. Given a query and a list of text chunks, score each chunk's relevance to the query on a scale of 0.0 to 1.0.

Query: %s

Chunks:
%s

Return a JSON object with a "rankings" array. Each element must have "chunk_id" (the ID shown) and "relevance_score" (0.0 to 1.0).
Score 1.0 = perfectly relevant, 0.0 = completely irrelevant.

Return ONLY valid JSON, no other text.`

// rerankExcerptLimit 每个候选进入提示词的内容字符数上限
const rerankExcerptLimit = 500

// Reranker 基于 LLM 的相关性重排序器
type Reranker struct {
	provider llm.Provider
	model    string
	logger   *zap.Logger
}

// NewReranker 创建重排序器
func NewReranker(provider llm.Provider, model string, logger *zap.Logger) *Reranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reranker{
		provider: provider,
		model:    model,
		logger:   logger.With(zap.String("component", "reranker")),
	}
}

// Rerank 用一次 LLM 调用为全部候选打相关性分并重排，返回前
// top_n 个。模型漏掉的候选得 0.0 分排在最后而不是被丢弃。
// 任何失败都返回按输入顺序截断的结果，绝不向调用方抛错。
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []*types.RetrievalCandidate, topN int) []*types.RetrievalCandidate {
	if len(candidates) == 0 {
		return nil
	}
	if topN <= 0 || topN > len(candidates) {
		topN = len(candidates)
	}

	var sb strings.Builder
	for i, c := range candidates {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[ID: %s]\n%s", c.ID, excerpt(c.Content))
	}

	resp, err := r.provider.Completion(ctx, &llm.ChatRequest{
		Model: r.model,
		Messages: []llm.Message{
			llm.NewUserMessage(fmt.Sprintf(rerankPrompt, query, sb.String())),
		},
		ResponseFormat: &llm.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		r.logger.Warn("reranking failed, returning original order", zap.Error(err))
		return candidates[:topN]
	}

	var parsed struct {
		Rankings []struct {
			ChunkID        string  `json:"chunk_id"`
			RelevanceScore float64 `json:"relevance_score"`
		} `json:"rankings"`
	}
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		r.logger.Warn("reranker returned malformed JSON, returning original order", zap.Error(err))
		return candidates[:topN]
	}

	scores := make(map[string]float64, len(parsed.Rankings))
	for _, rank := range parsed.Rankings {
		scores[rank.ChunkID] = rank.RelevanceScore
	}
	for _, c := range candidates {
		c.RerankScore = scores[c.ID]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RerankScore > candidates[j].RerankScore
	})

	return candidates[:topN]
}

// excerpt 截断内容到字符上限，按 rune 边界切割
func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= rerankExcerptLimit {
		return content
	}
	return string(runes[:rerankExcerptLimit])
}
