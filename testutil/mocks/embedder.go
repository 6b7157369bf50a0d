// MockEmbedder 的向量化测试模拟实现。
//
// 返回确定性向量,支持错误注入与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/docchat/llm/embedding"
)

// --- MockEmbedder 结构 ---

// MockEmbedder 是 embedding.Provider 的模拟实现
type MockEmbedder struct {
	mu sync.RWMutex

	// 配置
	dimensions int
	vectors    map[string][]float64
	err        error

	// 调用记录
	Queries []string
}

// NewMockEmbedder 创建新的 MockEmbedder
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		dimensions: 8,
		vectors:    map[string][]float64{},
	}
}

// WithDimensions 设置向量维度
func (m *MockEmbedder) WithDimensions(d int) *MockEmbedder {
	m.dimensions = d
	return m
}

// WithVector 为指定文本预设向量
func (m *MockEmbedder) WithVector(text string, vec []float64) *MockEmbedder {
	m.vectors[text] = vec
	return m
}

// WithError 设置返回错误
func (m *MockEmbedder) WithError(err error) *MockEmbedder {
	m.err = err
	return m
}

// --- Provider 接口实现 ---

func (m *MockEmbedder) Name() string      { return "mock" }
func (m *MockEmbedder) Dimensions() int   { return m.dimensions }
func (m *MockEmbedder) MaxBatchSize() int { return 64 }

func (m *MockEmbedder) Embed(ctx context.Context, req *embedding.EmbeddingRequest) (*embedding.EmbeddingResponse, error) {
	vecs, err := m.EmbedDocuments(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	data := make([]embedding.EmbeddingData, len(vecs))
	for i, v := range vecs {
		data[i] = embedding.EmbeddingData{Index: i, Embedding: v, Object: "embedding"}
	}
	return &embedding.EmbeddingResponse{Provider: "mock", Model: req.Model, Embeddings: data}, nil
}

func (m *MockEmbedder) EmbedQuery(_ context.Context, query string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorFor(query), nil
}

func (m *MockEmbedder) EmbedDocuments(_ context.Context, documents []string) ([][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float64, len(documents))
	for i, doc := range documents {
		out[i] = m.vectorFor(doc)
	}
	return out, nil
}

// vectorFor 返回预设向量,否则由文本字节派生一个确定性向量
func (m *MockEmbedder) vectorFor(text string) []float64 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	vec := make([]float64, m.dimensions)
	for i, b := range []byte(text) {
		vec[i%m.dimensions] += float64(b) / 255
	}
	return vec
}
