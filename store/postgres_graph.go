package store

import (
	"context"
	"fmt"

	"github.com/BaSui01/docchat/types"
)

// EntitiesForChunks returns the distinct entity IDs mentioned by the chunks.
func (p *Postgres) EntitiesForChunks(ctx context.Context, userID string, chunkIDs []string) ([]string, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := p.db.WithContext(ctx).Raw(`
SELECT DISTINCT ce.entity_id
FROM chunk_entities ce
JOIN chunks c ON c.id = ce.chunk_id
JOIN documents d ON d.id = c.document_id
WHERE d.user_id = ? AND ce.chunk_id IN ?`, userID, chunkIDs).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("entities for chunks: %w", err)
	}
	return ids, nil
}

// EntityNeighborChunks returns chunk IDs mentioning the entities, ordered by
// how many of the entities each chunk shares.
func (p *Postgres) EntityNeighborChunks(ctx context.Context, userID string, entityIDs []string, limit int) ([]string, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	var ids []string
	err := p.db.WithContext(ctx).Raw(`
SELECT ce.chunk_id
FROM chunk_entities ce
JOIN chunks c ON c.id = ce.chunk_id
JOIN documents d ON d.id = c.document_id
WHERE d.user_id = ? AND ce.entity_id IN ?
GROUP BY ce.chunk_id
ORDER BY count(*) DESC
LIMIT ?`, userID, entityIDs, limit).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("entity neighbor chunks: %w", err)
	}
	return ids, nil
}

// UserCommunities returns the user's community summaries, largest first.
func (p *Postgres) UserCommunities(ctx context.Context, userID string, minSize int) ([]types.CommunitySummary, error) {
	var rows []struct {
		ID      string `gorm:"column:id"`
		Title   string `gorm:"column:title"`
		Summary string `gorm:"column:summary"`
		Size    int    `gorm:"column:size"`
	}
	err := p.db.WithContext(ctx).Raw(`
SELECT id, title, summary, size
FROM graph_communities
WHERE user_id = ? AND size >= ?
ORDER BY size DESC`, userID, minSize).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("user communities: %w", err)
	}
	out := make([]types.CommunitySummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, types.CommunitySummary{ID: r.ID, Title: r.Title, Summary: r.Summary, Size: r.Size})
	}
	return out, nil
}

// EntityPath walks the relationship graph from source to target, at most
// 4 hops, and returns the shortest path found.
func (p *Postgres) EntityPath(ctx context.Context, userID, sourceLower, targetLower string) ([]PathNode, error) {
	var rows []struct {
		EntityID   string `gorm:"column:entity_id"`
		EntityName string `gorm:"column:entity_name"`
		Hop        int    `gorm:"column:hop"`
	}
	err := p.db.WithContext(ctx).Raw(`
WITH RECURSIVE walk(entity_id, ids, names) AS (
	SELECT e.id, ARRAY[e.id], ARRAY[e.name]
	FROM entities e
	WHERE e.user_id = ? AND lower(e.name) = ?
	UNION ALL
	SELECT e2.id, w.ids || e2.id, w.names || e2.name
	FROM walk w
	JOIN relationships r ON r.source_id = w.entity_id
	JOIN entities e2 ON e2.id = r.target_id
	WHERE array_length(w.ids, 1) <= 4 AND NOT e2.id = ANY(w.ids)
),
best AS (
	SELECT w.ids, w.names
	FROM walk w
	JOIN entities t ON t.id = w.entity_id
	WHERE lower(t.name) = ?
	ORDER BY array_length(w.ids, 1)
	LIMIT 1
)
SELECT unnest(ids) AS entity_id,
       unnest(names) AS entity_name,
       generate_subscripts(ids, 1) - 1 AS hop
FROM best`, userID, sourceLower, targetLower).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("entity path: %w", err)
	}
	out := make([]PathNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, PathNode{EntityID: r.EntityID, EntityName: r.EntityName, Hop: r.Hop})
	}
	return out, nil
}
