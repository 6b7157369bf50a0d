package types

import (
	"time"
)

// Chunk is a stored fragment of a source document.
type Chunk struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Content     string    `json:"content"`
	ChunkIndex  int       `json:"chunk_index"`
	TokenCount  int       `json:"token_count"`
	ContentHash string    `json:"content_hash,omitempty"`
	Embedding   []float64 `json:"embedding,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// DocumentMeta carries document-level attributes attached to retrieved chunks.
type DocumentMeta struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	SourceType string    `json:"source_type,omitempty"`
	Topics     []string  `json:"topics,omitempty"`
	DocDate    time.Time `json:"doc_date,omitempty"`
	Status     string    `json:"status,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
}

// RetrievalCandidate is a chunk flowing through the retrieval pipeline,
// annotated with per-stage scores.
//
// Score precedence is rerank > fusion > similarity: a later stage only
// overrides an earlier one when it actually assigned a non-zero score.
type RetrievalCandidate struct {
	Chunk

	// Similarity is the vector-search score (cosine, recency-blended).
	Similarity float64 `json:"similarity,omitempty"`
	// RRFScore is the reciprocal-rank-fusion score, set when the candidate
	// went through hybrid fusion.
	RRFScore float64 `json:"rrf_score,omitempty"`
	// RerankScore is the LLM reranker score, set when reranking ran.
	RerankScore float64 `json:"rerank_score,omitempty"`

	// GraphExpanded marks candidates added by knowledge-graph expansion
	// rather than direct search.
	GraphExpanded bool `json:"graph_expanded,omitempty"`

	DocTitle  string    `json:"doc_title,omitempty"`
	DocDate   time.Time `json:"doc_date,omitempty"`
	DocTopics []string  `json:"doc_topics,omitempty"`
}

// Score returns the candidate's effective score under the rerank > fusion >
// similarity precedence. Zero-valued stage scores are treated as unset.
func (c *RetrievalCandidate) Score() float64 {
	if c.RerankScore != 0 {
		return c.RerankScore
	}
	if c.RRFScore != 0 {
		return c.RRFScore
	}
	return c.Similarity
}

// CommunitySummary is a knowledge-graph community report used by global
// graph search.
type CommunitySummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	// Size is the number of entities in the community.
	Size int `json:"size"`
}
