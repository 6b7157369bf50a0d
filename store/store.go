// Package store defines the persistence interfaces the retrieval core
// depends on, plus a Postgres implementation (pgvector + full-text).
package store

import (
	"context"
	"time"

	"github.com/BaSui01/docchat/types"
)

// VectorQuery is a nearest-neighbour search over chunk embeddings.
type VectorQuery struct {
	UserID    string
	Embedding []float64
	TopN      int
	// Floor is a hard similarity cutoff; candidates below it never appear.
	Floor    float64
	DateFrom *time.Time
	DateTo   *time.Time
	// RecencyWeight blends document age into the score store-side.
	// 0 = pure similarity.
	RecencyWeight float64
}

// FulltextQuery is a lexical search. Query must already be a valid tsquery
// expression; escaping is the caller's responsibility.
type FulltextQuery struct {
	UserID   string
	Query    string
	TopN     int
	DateFrom *time.Time
	DateTo   *time.Time
}

// SearchStore is the row store's search surface.
type SearchStore interface {
	VectorSearch(ctx context.Context, q VectorQuery) ([]types.RetrievalCandidate, error)
	FulltextSearch(ctx context.Context, q FulltextQuery) ([]types.RetrievalCandidate, error)
}

// ChunkStore fetches chunk and document rows by ID.
type ChunkStore interface {
	FetchChunks(ctx context.Context, userID string, ids []string) ([]types.Chunk, error)
	FetchDocumentMeta(ctx context.Context, userID string, ids []string) ([]types.DocumentMeta, error)
}

// PathNode is one step of an entity relationship path.
type PathNode struct {
	EntityID   string
	EntityName string
	Hop        int
}

// GraphStore is the knowledge-graph read surface.
type GraphStore interface {
	// EntitiesForChunks returns the entity IDs mentioned by the given chunks.
	EntitiesForChunks(ctx context.Context, userID string, chunkIDs []string) ([]string, error)
	// EntityNeighborChunks returns IDs of chunks mentioning the given
	// entities, most-connected first.
	EntityNeighborChunks(ctx context.Context, userID string, entityIDs []string, limit int) ([]string, error)
	// UserCommunities returns the user's community summaries of at least
	// minSize entities, largest first.
	UserCommunities(ctx context.Context, userID string, minSize int) ([]types.CommunitySummary, error)
	// EntityPath finds a relationship chain between two lower-cased entity
	// names, within 4 hops. Empty result means no path.
	EntityPath(ctx context.Context, userID, sourceLower, targetLower string) ([]PathNode, error)
}

// TagStore mutates document tags.
type TagStore interface {
	// DocumentsWithTag lists document IDs carrying the tag.
	DocumentsWithTag(ctx context.Context, userID, tag string) ([]string, error)
	AddTag(ctx context.Context, userID string, documentIDs []string, tag string) (int, error)
	RemoveTag(ctx context.Context, userID, tag string) (int, error)
	RenameTag(ctx context.Context, userID, from, to string) (int, error)
}

// MetadataQuerier runs read-only SQL over the documents metadata schema.
type MetadataQuerier interface {
	// SelectRows executes a SELECT statement scoped to the user's documents.
	// Non-SELECT statements are rejected.
	SelectRows(ctx context.Context, userID, query string) ([]map[string]any, error)
}
