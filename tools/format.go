package tools

import (
	"fmt"
	"strings"

	"github.com/BaSui01/docchat/types"
)

// previewLimit caps citation content previews, counted in characters.
const previewLimit = 200

// CitationSource is the per-chunk attribution surfaced to the caller
// alongside a retrieval tool result.
type CitationSource struct {
	ChunkID        string  `json:"chunk_id"`
	DocumentID     string  `json:"document_id"`
	DocTitle       string  `json:"doc_title"`
	ChunkIndex     int     `json:"chunk_index"`
	ContentPreview string  `json:"content_preview"`
	Score          float64 `json:"score"`
}

// RetrieveResult is the structured payload returned by retrieval tools:
// model-facing text plus UI-facing citation sources.
type RetrieveResult struct {
	FormattedText   string           `json:"formatted_text"`
	CitationSources []CitationSource `json:"citation_sources"`
}

// FormatChunks renders candidates as numbered source blocks for the model.
func FormatChunks(chunks []*types.RetrievalCandidate) string {
	if len(chunks) == 0 {
		return "No relevant documents found."
	}
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		header := fmt.Sprintf("[Source %d: %s", i+1, titleOrUntitled(c.DocTitle))
		if !c.DocDate.IsZero() {
			header += ", " + c.DocDate.Format("2006-01-02")
		}
		header += "]"
		blocks = append(blocks, header+"\n"+c.Content)
	}
	return strings.Join(blocks, "\n\n")
}

// CitationSources extracts attribution records from candidates.
func CitationSources(chunks []*types.RetrievalCandidate) []CitationSource {
	out := make([]CitationSource, 0, len(chunks))
	for _, c := range chunks {
		preview := c.Content
		if runes := []rune(preview); len(runes) > previewLimit {
			preview = string(runes[:previewLimit]) + "..."
		}
		out = append(out, CitationSource{
			ChunkID:        c.ID,
			DocumentID:     c.DocumentID,
			DocTitle:       titleOrUntitled(c.DocTitle),
			ChunkIndex:     c.ChunkIndex,
			ContentPreview: preview,
			Score:          c.Score(),
		})
	}
	return out
}

func titleOrUntitled(title string) string {
	if title == "" {
		return "Untitled"
	}
	return title
}
