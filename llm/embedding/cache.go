package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// CachedProvider 用 Redis 包装另一个 Provider，按内容哈希缓存向量。
// 缓存故障只记日志不影响请求，降级为直接调用底层 Provider。
type CachedProvider struct {
	inner  Provider
	rdb    *redis.Client
	cfg    CacheConfig
	logger *zap.Logger
}

// NewCachedProvider wraps inner with a Redis embedding cache.
func NewCachedProvider(inner Provider, rdb *redis.Client, cfg CacheConfig, logger *zap.Logger) *CachedProvider {
	if cfg.KeyPrefix == "" {
		cfg = DefaultCacheConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{
		inner:  inner,
		rdb:    rdb,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "embedding_cache")),
	}
}

func (p *CachedProvider) Name() string      { return p.inner.Name() }
func (p *CachedProvider) Dimensions() int   { return p.inner.Dimensions() }
func (p *CachedProvider) MaxBatchSize() int { return p.inner.MaxBatchSize() }

func (p *CachedProvider) key(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s", p.cfg.KeyPrefix, model, hex.EncodeToString(sum[:]))
}

func (p *CachedProvider) lookup(ctx context.Context, model, text string) ([]float64, bool) {
	data, err := p.rdb.Get(ctx, p.key(model, text)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("redis get error", zap.Error(err))
		}
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	return vec, true
}

func (p *CachedProvider) store(ctx context.Context, model, text string, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, p.key(model, text), data, p.cfg.TTL).Err(); err != nil {
		p.logger.Warn("redis set error", zap.Error(err))
	}
}

// Embed serves cached vectors where possible and forwards only cache misses
// to the inner provider. Result order matches the input order.
func (p *CachedProvider) Embed(ctx context.Context, req *EmbeddingRequest) (*EmbeddingResponse, error) {
	model := ChooseModel(req.Model, "", p.inner.Name())

	result := make([][]float64, len(req.Input))
	var missed []string
	var missedIdx []int
	for i, text := range req.Input {
		if vec, ok := p.lookup(ctx, model, text); ok {
			result[i] = vec
			continue
		}
		missed = append(missed, text)
		missedIdx = append(missedIdx, i)
	}

	var resp *EmbeddingResponse
	if len(missed) > 0 {
		missReq := *req
		missReq.Input = missed
		var err error
		resp, err = p.inner.Embed(ctx, &missReq)
		if err != nil {
			return nil, err
		}
		for j, emb := range resp.Embeddings {
			if j >= len(missedIdx) {
				break
			}
			result[missedIdx[j]] = emb.Embedding
			p.store(ctx, model, missed[j], emb.Embedding)
		}
	}

	out := &EmbeddingResponse{
		Provider:   p.Name(),
		Model:      model,
		Embeddings: make([]EmbeddingData, len(result)),
	}
	if resp != nil {
		out.Model = resp.Model
		out.Usage = resp.Usage
	}
	for i, vec := range result {
		out.Embeddings[i] = EmbeddingData{Index: i, Embedding: vec, Object: "embedding"}
	}
	return out, nil
}

// EmbedQuery embeds a single query through the cache.
func (p *CachedProvider) EmbedQuery(ctx context.Context, query string) ([]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: []string{query}, InputType: InputTypeQuery})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Embeddings[0].Embedding, nil
}

// EmbedDocuments embeds multiple documents through the cache.
func (p *CachedProvider) EmbedDocuments(ctx context.Context, documents []string) ([][]float64, error) {
	resp, err := p.Embed(ctx, &EmbeddingRequest{Input: documents, InputType: InputTypeDocument})
	if err != nil {
		return nil, err
	}
	result := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		result[i] = emb.Embedding
	}
	return result, nil
}
