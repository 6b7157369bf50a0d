package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/docchat/types"
)

// Postgres implements the store interfaces over a pgvector-enabled
// Postgres database via GORM.
type Postgres struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPostgres creates a Postgres store.
func NewPostgres(db *gorm.DB, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{
		db:     db,
		logger: logger.With(zap.String("component", "store")),
	}
}

// candidateRow is the scan target shared by the search queries.
type candidateRow struct {
	ID         string     `gorm:"column:id"`
	DocumentID string     `gorm:"column:document_id"`
	Content    string     `gorm:"column:content"`
	ChunkIndex int        `gorm:"column:chunk_index"`
	TokenCount int        `gorm:"column:token_count"`
	DocTitle   string     `gorm:"column:doc_title"`
	DocDate    *time.Time `gorm:"column:doc_date"`
	DocTopics  []byte     `gorm:"column:doc_topics"`
	Similarity float64    `gorm:"column:similarity"`
}

func (r candidateRow) toCandidate() types.RetrievalCandidate {
	c := types.RetrievalCandidate{
		Chunk: types.Chunk{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Content:    r.Content,
			ChunkIndex: r.ChunkIndex,
			TokenCount: r.TokenCount,
		},
		Similarity: r.Similarity,
		DocTitle:   r.DocTitle,
	}
	if r.DocDate != nil {
		c.DocDate = *r.DocDate
	}
	if len(r.DocTopics) > 0 {
		// doc topics stored as a jsonb array
		_ = json.Unmarshal(r.DocTopics, &c.DocTopics)
	}
	return c
}

// vectorLiteral renders an embedding as a pgvector input literal.
func vectorLiteral(v []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

const vectorSearchSQL = `
WITH scored AS (
	SELECT c.id, c.document_id, c.content, c.chunk_index, c.token_count,
	       d.title AS doc_title, d.doc_date, d.topics AS doc_topics,
	       1 - (c.embedding <=> ?::vector) AS cos_sim
	FROM chunks c
	JOIN documents d ON d.id = c.document_id
	WHERE d.user_id = ?
	  AND (?::timestamptz IS NULL OR d.doc_date >= ?::timestamptz)
	  AND (?::timestamptz IS NULL OR d.doc_date <= ?::timestamptz)
)
SELECT id, document_id, content, chunk_index, token_count, doc_title, doc_date, doc_topics,
       CASE
         WHEN ?::float8 > 0 AND doc_date IS NOT NULL THEN
           cos_sim * (1 - ?::float8) +
           ?::float8 * (1.0 / (1.0 + GREATEST(0, EXTRACT(EPOCH FROM (now() - doc_date)) / 86400.0) / 30.0))
         ELSE cos_sim
       END AS similarity
FROM scored
WHERE cos_sim >= ?
ORDER BY similarity DESC
LIMIT ?`

// VectorSearch runs nearest-neighbour search with an optional date window
// and store-side recency blending.
func (p *Postgres) VectorSearch(ctx context.Context, q VectorQuery) ([]types.RetrievalCandidate, error) {
	var rows []candidateRow
	err := p.db.WithContext(ctx).Raw(vectorSearchSQL,
		vectorLiteral(q.Embedding),
		q.UserID,
		q.DateFrom, q.DateFrom,
		q.DateTo, q.DateTo,
		q.RecencyWeight, q.RecencyWeight, q.RecencyWeight,
		q.Floor,
		q.TopN,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	out := make([]types.RetrievalCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toCandidate())
	}
	return out, nil
}

const fulltextSearchSQL = `
SELECT c.id, c.document_id, c.content, c.chunk_index, c.token_count,
       d.title AS doc_title, d.doc_date, d.topics AS doc_topics,
       ts_rank(c.content_tsv, to_tsquery('english', ?)) AS similarity
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.user_id = ?
  AND c.content_tsv @@ to_tsquery('english', ?)
  AND (?::timestamptz IS NULL OR d.doc_date >= ?::timestamptz)
  AND (?::timestamptz IS NULL OR d.doc_date <= ?::timestamptz)
ORDER BY similarity DESC
LIMIT ?`

// FulltextSearch runs lexical ranking. An empty query is a no-op, not an
// error.
func (p *Postgres) FulltextSearch(ctx context.Context, q FulltextQuery) ([]types.RetrievalCandidate, error) {
	if strings.TrimSpace(q.Query) == "" {
		return nil, nil
	}

	var rows []candidateRow
	err := p.db.WithContext(ctx).Raw(fulltextSearchSQL,
		q.Query,
		q.UserID,
		q.Query,
		q.DateFrom, q.DateFrom,
		q.DateTo, q.DateTo,
		q.TopN,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	out := make([]types.RetrievalCandidate, 0, len(rows))
	for _, r := range rows {
		c := r.toCandidate()
		// ts_rank is a lexical score, not a similarity; candidates fused
		// downstream are ranked by position, so the raw value only breaks
		// ties within this list.
		out = append(out, c)
	}
	return out, nil
}

// FetchChunks loads chunk rows by ID, scoped to the user.
func (p *Postgres) FetchChunks(ctx context.Context, userID string, ids []string) ([]types.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []struct {
		ID          string `gorm:"column:id"`
		DocumentID  string `gorm:"column:document_id"`
		Content     string `gorm:"column:content"`
		ChunkIndex  int    `gorm:"column:chunk_index"`
		TokenCount  int    `gorm:"column:token_count"`
		ContentHash string `gorm:"column:content_hash"`
	}
	err := p.db.WithContext(ctx).Raw(`
SELECT c.id, c.document_id, c.content, c.chunk_index, c.token_count, c.content_hash
FROM chunks c
JOIN documents d ON d.id = c.document_id
WHERE d.user_id = ? AND c.id IN ?`, userID, ids).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}
	out := make([]types.Chunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.Chunk{
			ID:          r.ID,
			DocumentID:  r.DocumentID,
			Content:     r.Content,
			ChunkIndex:  r.ChunkIndex,
			TokenCount:  r.TokenCount,
			ContentHash: r.ContentHash,
		})
	}
	return out, nil
}

// FetchDocumentMeta loads document rows by ID, scoped to the user.
func (p *Postgres) FetchDocumentMeta(ctx context.Context, userID string, ids []string) ([]types.DocumentMeta, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []struct {
		ID         string     `gorm:"column:id"`
		Title      string     `gorm:"column:title"`
		SourceType string     `gorm:"column:source_type"`
		DocDate    *time.Time `gorm:"column:doc_date"`
		Status     string     `gorm:"column:status"`
		Topics     []byte     `gorm:"column:topics"`
		Tags       []byte     `gorm:"column:tags"`
	}
	err := p.db.WithContext(ctx).Raw(`
SELECT id, title, source_type, doc_date, status, topics, tags
FROM documents
WHERE user_id = ? AND id IN ?`, userID, ids).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("fetch document metadata: %w", err)
	}
	out := make([]types.DocumentMeta, 0, len(rows))
	for _, r := range rows {
		m := types.DocumentMeta{
			ID:         r.ID,
			Title:      r.Title,
			SourceType: r.SourceType,
			Status:     r.Status,
		}
		if r.DocDate != nil {
			m.DocDate = *r.DocDate
		}
		if len(r.Topics) > 0 {
			_ = json.Unmarshal(r.Topics, &m.Topics)
		}
		if len(r.Tags) > 0 {
			_ = json.Unmarshal(r.Tags, &m.Tags)
		}
		out = append(out, m)
	}
	return out, nil
}
