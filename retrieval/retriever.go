package retrieval

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/docchat/internal/metrics"
	"github.com/BaSui01/docchat/types"
)

// Searcher 将一个查询解析为一个有序候选列表
type Searcher interface {
	Search(ctx context.Context, userID, query string, opts Options) ([]*types.RetrievalCandidate, error)
}

// QueryExpander 生成查询改写变体；失败时返回空列表
type QueryExpander interface {
	Expand(ctx context.Context, query string, count int) []string
}

// CandidateReranker 重排候选并截断；失败时返回输入顺序截断
type CandidateReranker interface {
	Rerank(ctx context.Context, query string, candidates []*types.RetrievalCandidate, topN int) []*types.RetrievalCandidate
}

// Retriever 检索编排器：模式选择、多查询扇出、融合、重排、截断
type Retriever struct {
	semantic  Searcher
	keyword   Searcher
	expander  QueryExpander
	reranker  CandidateReranker
	collector *metrics.Collector
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewRetriever 创建检索编排器。expander 与 reranker 可为 nil，
// 对应的管线阶段会被跳过。
func NewRetriever(semantic, keyword Searcher, expander QueryExpander, reranker CandidateReranker, collector *metrics.Collector, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		semantic:  semantic,
		keyword:   keyword,
		expander:  expander,
		reranker:  reranker,
		collector: collector,
		tracer:    otel.Tracer("docchat/retrieval"),
		logger:    logger.With(zap.String("component", "retriever")),
	}
}

// Retrieve 执行单次检索调用，返回至多 opts.TopK 个候选。
//
// 管线：可选查询扩展 → 每个查询并发解析为一个有序列表
// （hybrid 模式下语义与关键词并发执行后 RRF 融合）→ 多查询
// 列表再次融合 → 可选用原始查询重排 → 截断。重排只在融合之后
// 执行一次，从不按子查询执行。空语料在各阶段干净地传播为
// 空结果，不是错误。
func (r *Retriever) Retrieve(ctx context.Context, userID, query string, opts Options) ([]*types.RetrievalCandidate, error) {
	opts = opts.normalize()
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "retrieval.retrieve", trace.WithAttributes(
		attribute.String("retrieval.mode", string(opts.Mode)),
		attribute.Int("retrieval.top_k", opts.TopK),
		attribute.Bool("retrieval.expansion", opts.ExpansionEnabled),
		attribute.Bool("retrieval.rerank", opts.RerankEnabled),
	))
	defer span.End()

	queries := []string{query}
	if opts.ExpansionEnabled && r.expander != nil {
		queries = append(queries, r.expander.Expand(ctx, query, opts.ExpansionCount)...)
	}

	lists := make([][]*types.RetrievalCandidate, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		g.Go(func() error {
			list, err := r.resolveQuery(gctx, userID, q, opts)
			if err != nil {
				return err
			}
			lists[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.collector.RecordRetrieval(string(opts.Mode), "error", time.Since(start))
		return nil, err
	}

	// 单查询已是最终列表，跳过第二次融合
	var merged []*types.RetrievalCandidate
	if len(lists) == 1 {
		merged = lists[0]
	} else {
		merged = Fuse(lists, opts.FusionK)
	}

	if opts.RerankEnabled && r.reranker != nil && len(merged) > 0 {
		merged = r.reranker.Rerank(ctx, query, merged, opts.TopK)
	} else if len(merged) > opts.TopK {
		merged = merged[:opts.TopK]
	}

	span.SetAttributes(attribute.Int("retrieval.results", len(merged)))
	r.collector.RecordRetrieval(string(opts.Mode), "success", time.Since(start))
	r.logger.Debug("retrieval completed",
		zap.String("mode", string(opts.Mode)),
		zap.Int("queries", len(queries)),
		zap.Int("results", len(merged)),
		zap.Duration("elapsed", time.Since(start)))

	return merged, nil
}

// resolveQuery 将一个查询解析为一个有序列表
func (r *Retriever) resolveQuery(ctx context.Context, userID, query string, opts Options) ([]*types.RetrievalCandidate, error) {
	switch opts.Mode {
	case ModeSemantic:
		return r.semantic.Search(ctx, userID, query, opts)
	case ModeKeyword:
		return r.keyword.Search(ctx, userID, query, opts)
	default:
		var semList, kwList []*types.RetrievalCandidate
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			list, err := r.semantic.Search(gctx, userID, query, opts)
			if err != nil {
				return err
			}
			semList = list
			return nil
		})
		g.Go(func() error {
			list, err := r.keyword.Search(gctx, userID, query, opts)
			if err != nil {
				return err
			}
			kwList = list
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return Fuse([][]*types.RetrievalCandidate{semList, kwList}, opts.FusionK), nil
	}
}
