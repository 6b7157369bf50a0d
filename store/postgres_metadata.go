package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotSelect is returned when a metadata query is not a plain SELECT.
var ErrNotSelect = errors.New("metadata query must be a single SELECT statement")

// SelectRows runs a read-only SELECT over the user's documents. The user
// scope is established through a per-transaction setting consumed by the
// row-level security policies.
func (p *Postgres) SelectRows(ctx context.Context, userID, query string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(query), ";"))
	if !strings.HasPrefix(strings.ToLower(trimmed), "select") {
		return nil, ErrNotSelect
	}
	if strings.Contains(trimmed, ";") {
		return nil, ErrNotSelect
	}

	var rows []map[string]any
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`SELECT set_config('app.current_user_id', ?, true)`, userID).Error; err != nil {
			return fmt.Errorf("set user scope: %w", err)
		}
		return tx.Raw(trimmed).Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("metadata query: %w", err)
	}
	return rows, nil
}
