package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/llm/embedding"
	"github.com/BaSui01/docchat/store"
	"github.com/BaSui01/docchat/types"
)

// SemanticSearcher 向量相似度检索器
type SemanticSearcher struct {
	embedder embedding.Provider
	store    store.SearchStore
	logger   *zap.Logger
}

// NewSemanticSearcher 创建语义检索器
func NewSemanticSearcher(embedder embedding.Provider, st store.SearchStore, logger *zap.Logger) *SemanticSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticSearcher{
		embedder: embedder,
		store:    st,
		logger:   logger.With(zap.String("component", "semantic_search")),
	}
}

// Search 嵌入查询并执行近邻查找。嵌入失败直接上抛：没有向量
// 就没有语义检索，重试由上层决定。候选顺序由存储端决定
// （相似度降序），客户端不再排序。
func (s *SemanticSearcher) Search(ctx context.Context, userID, query string, opts Options) ([]*types.RetrievalCandidate, error) {
	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.store.VectorSearch(ctx, store.VectorQuery{
		UserID:        userID,
		Embedding:     vec,
		TopN:          opts.CandidatesPerMethod,
		Floor:         opts.SimilarityFloor,
		DateFrom:      opts.DateFrom,
		DateTo:        opts.DateTo,
		RecencyWeight: opts.RecencyWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]*types.RetrievalCandidate, len(rows))
	for i := range rows {
		candidates[i] = &rows[i]
	}

	s.logger.Debug("semantic search completed",
		zap.Int("candidates", len(candidates)),
		zap.Float64("floor", opts.SimilarityFloor))

	return candidates, nil
}
