package retrieval

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/docchat/store"
	"github.com/BaSui01/docchat/types"
)

var tsTokenStrip = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// EscapeTsQuery 将自由文本转换为合法的 tsquery 表达式：逐个
// token 去掉非单词字符、丢弃空 token，再用 " & " 连接。
// 单个畸形 token 不会导致整个查询失败；全部为空时返回空串，
// 调用方应将其视为无操作。
func EscapeTsQuery(raw string) string {
	tokens := strings.Fields(raw)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		cleaned := tsTokenStrip.ReplaceAllString(tok, "")
		if cleaned == "" {
			continue
		}
		parts = append(parts, cleaned)
	}
	return strings.Join(parts, " & ")
}

// KeywordSearcher 词法全文检索器
type KeywordSearcher struct {
	store  store.SearchStore
	logger *zap.Logger
}

// NewKeywordSearcher 创建关键词检索器
func NewKeywordSearcher(st store.SearchStore, logger *zap.Logger) *KeywordSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordSearcher{
		store:  st,
		logger: logger.With(zap.String("component", "keyword_search")),
	}
}

// Search 执行全文排名检索。查询先被转义为 tsquery 表达式；
// 转义后为空时直接返回空结果。
func (s *KeywordSearcher) Search(ctx context.Context, userID, query string, opts Options) ([]*types.RetrievalCandidate, error) {
	escaped := EscapeTsQuery(query)
	if escaped == "" {
		return nil, nil
	}

	rows, err := s.store.FulltextSearch(ctx, store.FulltextQuery{
		UserID:   userID,
		Query:    escaped,
		TopN:     opts.CandidatesPerMethod,
		DateFrom: opts.DateFrom,
		DateTo:   opts.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	candidates := make([]*types.RetrievalCandidate, len(rows))
	for i := range rows {
		candidates[i] = &rows[i]
	}

	s.logger.Debug("keyword search completed",
		zap.Int("candidates", len(candidates)),
		zap.String("tsquery", escaped))

	return candidates, nil
}
