// MockStore 的文档库测试模拟实现。
//
// 覆盖检索、分块读取、知识图谱、标签与元数据五个读写面,
// 支持预设结果、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/docchat/store"
	"github.com/BaSui01/docchat/types"
)

// --- MockStore 结构 ---

// MockStore 同时实现 store.SearchStore、store.ChunkStore、
// store.GraphStore、store.TagStore 与 store.MetadataQuerier
type MockStore struct {
	mu sync.RWMutex

	// 预设结果
	vectorResults   []types.RetrievalCandidate
	fulltextResults []types.RetrievalCandidate
	chunks          []types.Chunk
	docs            []types.DocumentMeta
	entities        []string
	neighborChunks  []string
	communities     []types.CommunitySummary
	path            []store.PathNode
	taggedDocs      map[string][]string
	rows            []map[string]any

	// 错误注入
	err error

	// 调用记录
	VectorQueries   []store.VectorQuery
	FulltextQueries []store.FulltextQuery
	SelectedSQL     []string
}

// NewMockStore 创建新的 MockStore
func NewMockStore() *MockStore {
	return &MockStore{taggedDocs: map[string][]string{}}
}

// --- Builder 方法 ---

// WithVectorResults 预设向量检索结果
func (m *MockStore) WithVectorResults(rows ...types.RetrievalCandidate) *MockStore {
	m.vectorResults = rows
	return m
}

// WithFulltextResults 预设全文检索结果
func (m *MockStore) WithFulltextResults(rows ...types.RetrievalCandidate) *MockStore {
	m.fulltextResults = rows
	return m
}

// WithChunks 预设分块行
func (m *MockStore) WithChunks(chunks ...types.Chunk) *MockStore {
	m.chunks = chunks
	return m
}

// WithDocumentMeta 预设文档元信息
func (m *MockStore) WithDocumentMeta(docs ...types.DocumentMeta) *MockStore {
	m.docs = docs
	return m
}

// WithEntities 预设分块关联的实体
func (m *MockStore) WithEntities(ids ...string) *MockStore {
	m.entities = ids
	return m
}

// WithNeighborChunks 预设实体邻居分块
func (m *MockStore) WithNeighborChunks(ids ...string) *MockStore {
	m.neighborChunks = ids
	return m
}

// WithCommunities 预设社区摘要
func (m *MockStore) WithCommunities(cs ...types.CommunitySummary) *MockStore {
	m.communities = cs
	return m
}

// WithPath 预设实体关系路径
func (m *MockStore) WithPath(nodes ...store.PathNode) *MockStore {
	m.path = nodes
	return m
}

// WithTaggedDocs 预设携带某标签的文档集合
func (m *MockStore) WithTaggedDocs(tag string, docIDs ...string) *MockStore {
	m.taggedDocs[tag] = docIDs
	return m
}

// WithRows 预设元数据查询结果
func (m *MockStore) WithRows(rows ...map[string]any) *MockStore {
	m.rows = rows
	return m
}

// WithError 设置所有方法返回的错误
func (m *MockStore) WithError(err error) *MockStore {
	m.err = err
	return m
}

// --- SearchStore ---

func (m *MockStore) VectorSearch(_ context.Context, q store.VectorQuery) ([]types.RetrievalCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VectorQueries = append(m.VectorQueries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.vectorResults, nil
}

func (m *MockStore) FulltextSearch(_ context.Context, q store.FulltextQuery) ([]types.RetrievalCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FulltextQueries = append(m.FulltextQueries, q)
	if m.err != nil {
		return nil, m.err
	}
	return m.fulltextResults, nil
}

// --- ChunkStore ---

func (m *MockStore) FetchChunks(_ context.Context, _ string, ids []string) ([]types.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]types.Chunk, 0, len(ids))
	for _, c := range m.chunks {
		if _, ok := want[c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockStore) FetchDocumentMeta(_ context.Context, _ string, ids []string) ([]types.DocumentMeta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]types.DocumentMeta, 0, len(ids))
	for _, d := range m.docs {
		if _, ok := want[d.ID]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

// --- GraphStore ---

func (m *MockStore) EntitiesForChunks(_ context.Context, _ string, _ []string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.entities, nil
}

func (m *MockStore) EntityNeighborChunks(_ context.Context, _ string, _ []string, _ int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.neighborChunks, nil
}

func (m *MockStore) UserCommunities(_ context.Context, _ string, _ int) ([]types.CommunitySummary, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.communities, nil
}

func (m *MockStore) EntityPath(_ context.Context, _, _, _ string) ([]store.PathNode, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.path, nil
}

// --- TagStore ---

func (m *MockStore) DocumentsWithTag(_ context.Context, _ string, tag string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.taggedDocs[tag], nil
}

func (m *MockStore) AddTag(_ context.Context, _ string, documentIDs []string, tag string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.taggedDocs[tag] = append(m.taggedDocs[tag], documentIDs...)
	return len(documentIDs), nil
}

func (m *MockStore) RemoveTag(_ context.Context, _ string, tag string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	n := len(m.taggedDocs[tag])
	delete(m.taggedDocs, tag)
	return n, nil
}

func (m *MockStore) RenameTag(_ context.Context, _ string, from, to string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	docs := m.taggedDocs[from]
	delete(m.taggedDocs, from)
	m.taggedDocs[to] = append(m.taggedDocs[to], docs...)
	return len(docs), nil
}

// --- MetadataQuerier ---

func (m *MockStore) SelectRows(_ context.Context, _ string, query string) ([]map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SelectedSQL = append(m.SelectedSQL, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.rows, nil
}
