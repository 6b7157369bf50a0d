package store

import (
	"context"
	"fmt"
)

// DocumentsWithTag lists document IDs carrying the tag.
func (p *Postgres) DocumentsWithTag(ctx context.Context, userID, tag string) ([]string, error) {
	var ids []string
	err := p.db.WithContext(ctx).Raw(`
SELECT id FROM documents
WHERE user_id = ? AND tags @> jsonb_build_array(?::text)`, userID, tag).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("documents with tag: %w", err)
	}
	return ids, nil
}

// AddTag appends the tag to each listed document that does not already
// carry it. Returns the number of documents updated.
func (p *Postgres) AddTag(ctx context.Context, userID string, documentIDs []string, tag string) (int, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}
	res := p.db.WithContext(ctx).Exec(`
UPDATE documents
SET tags = COALESCE(tags, '[]'::jsonb) || jsonb_build_array(?::text)
WHERE user_id = ? AND id IN ?
  AND NOT COALESCE(tags, '[]'::jsonb) @> jsonb_build_array(?::text)`,
		tag, userID, documentIDs, tag)
	if res.Error != nil {
		return 0, fmt.Errorf("add tag: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// RemoveTag strips the tag from every document carrying it. Returns the
// number of documents updated.
func (p *Postgres) RemoveTag(ctx context.Context, userID, tag string) (int, error) {
	res := p.db.WithContext(ctx).Exec(`
UPDATE documents
SET tags = tags - ?
WHERE user_id = ? AND tags @> jsonb_build_array(?::text)`, tag, userID, tag)
	if res.Error != nil {
		return 0, fmt.Errorf("remove tag: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

// RenameTag replaces one tag with another across the user's documents.
// Documents already carrying the target tag only lose the source tag.
func (p *Postgres) RenameTag(ctx context.Context, userID, from, to string) (int, error) {
	res := p.db.WithContext(ctx).Exec(`
UPDATE documents
SET tags = CASE
	WHEN tags @> jsonb_build_array(?::text) THEN tags - ?
	ELSE (tags - ?) || jsonb_build_array(?::text)
END
WHERE user_id = ? AND tags @> jsonb_build_array(?::text)`,
		to, from, from, to, userID, from)
	if res.Error != nil {
		return 0, fmt.Errorf("rename tag: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
