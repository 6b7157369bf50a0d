// =============================================================================
// 📦 测试数据工厂 - 文档分块与检索候选
// =============================================================================
// 提供预定义的分块、文档元信息与检索候选，用于测试
// =============================================================================
package fixtures

import (
	"fmt"
	"time"

	"github.com/BaSui01/docchat/types"
)

// Chunk 返回一个最小分块
func Chunk(id, docID, content string) types.Chunk {
	return types.Chunk{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		ChunkIndex: 0,
		TokenCount: len(content) / 4,
	}
}

// Candidate 返回带相似度分数的检索候选
func Candidate(id, docID, content string, similarity float64) types.RetrievalCandidate {
	return types.RetrievalCandidate{
		Chunk:      Chunk(id, docID, content),
		Similarity: similarity,
	}
}

// TitledCandidate 返回带文档标题与日期的检索候选
func TitledCandidate(id, docID, content, title string, docDate time.Time, similarity float64) types.RetrievalCandidate {
	c := Candidate(id, docID, content, similarity)
	c.DocTitle = title
	c.DocDate = docDate
	return c
}

// CandidateSet 返回 n 条平铺的候选,ID 形如 c0..cN,分数递减
func CandidateSet(n int) []types.RetrievalCandidate {
	out := make([]types.RetrievalCandidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate(
			fmt.Sprintf("c%d", i),
			fmt.Sprintf("d%d", i/2),
			fmt.Sprintf("chunk body %d", i),
			1.0-float64(i)*0.05,
		))
	}
	return out
}

// Pointers 把候选切片转换为检索管线使用的指针切片
func Pointers(rows []types.RetrievalCandidate) []*types.RetrievalCandidate {
	out := make([]*types.RetrievalCandidate, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}

// DocumentMeta 返回文档元信息
func DocumentMeta(id, title string, tags ...string) types.DocumentMeta {
	return types.DocumentMeta{
		ID:         id,
		Title:      title,
		SourceType: "upload",
		Status:     "ready",
		Tags:       tags,
	}
}

// Community 返回知识图谱社区摘要
func Community(id, title, summary string, size int) types.CommunitySummary {
	return types.CommunitySummary{ID: id, Title: title, Summary: summary, Size: size}
}
