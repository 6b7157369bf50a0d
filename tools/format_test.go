package tools

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/docchat/types"
)

func candidate(id, docID, content, title string) *types.RetrievalCandidate {
	return &types.RetrievalCandidate{
		Chunk:    types.Chunk{ID: id, DocumentID: docID, Content: content},
		DocTitle: title,
	}
}

func TestFormatChunks(t *testing.T) {
	t.Parallel()

	first := candidate("c1", "d1", "The budget grew 4%.", "Q2 Report")
	first.DocDate = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	second := candidate("c2", "d2", "Hiring slowed.", "")

	got := FormatChunks([]*types.RetrievalCandidate{first, second})

	assert.Contains(t, got, "[Source 1: Q2 Report, 2024-06-30]\nThe budget grew 4%.")
	assert.Contains(t, got, "[Source 2: Untitled]\nHiring slowed.")
}

func TestFormatChunksEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "No relevant documents found.", FormatChunks(nil))
}

func TestCitationSources(t *testing.T) {
	t.Parallel()

	long := candidate("c1", "d1", strings.Repeat("x", 300), "Title")
	long.RRFScore = 0.03

	short := candidate("c2", "d2", "short content", "")
	short.Similarity = 0.8
	short.RerankScore = 0.95
	short.ChunkIndex = 4

	got := CitationSources([]*types.RetrievalCandidate{long, short})
	require.Len(t, got, 2)

	assert.Equal(t, "c1", got[0].ChunkID)
	assert.Equal(t, strings.Repeat("x", 200)+"...", got[0].ContentPreview)
	assert.InDelta(t, 0.03, got[0].Score, 1e-12)

	assert.Equal(t, "Untitled", got[1].DocTitle)
	assert.Equal(t, "short content", got[1].ContentPreview)
	assert.Equal(t, 4, got[1].ChunkIndex)
	// rerank score wins over similarity
	assert.InDelta(t, 0.95, got[1].Score, 1e-12)
}

func TestCitationSourcesPreviewRuneBoundary(t *testing.T) {
	t.Parallel()

	cjk := candidate("c1", "d1", strings.Repeat("档", 300), "标题")

	got := CitationSources([]*types.RetrievalCandidate{cjk})
	require.Len(t, got, 1)

	// 预览上限按字符计,多字节内容不能被切出非法 UTF-8。
	assert.Equal(t, strings.Repeat("档", 200)+"...", got[0].ContentPreview)
	assert.True(t, utf8.ValidString(got[0].ContentPreview))
}
