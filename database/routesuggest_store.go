package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

const routeSuggestColumns = "id, name, coords, latitude, longitude, ordering, created_at"

// ReplaceRouteSuggestions drops every stored candidate and inserts the new ones
// without an ordering. The stored rows are returned in insertion order.
func ReplaceRouteSuggestions(ctx context.Context, candidates []models.RouteSuggestion) ([]models.RouteSuggestion, error) {
	var stored []models.RouteSuggestion
	err := WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM route_suggest_imports"); err != nil {
			return fmt.Errorf("failed to delete route suggestions: %w", err)
		}
		createdAt := now()
		for _, c := range candidates {
			c.Ordering = nil
			c.CreatedAt = createdAt
			id, err := insertID(ctx, tx, `
				INSERT INTO route_suggest_imports (name, coords, latitude, longitude, created_at)
				VALUES (?, ?, ?, ?, ?)`,
				c.Name, c.Coords, c.Latitude, c.Longitude, c.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert route suggestion %q: %w", c.Name, err)
			}
			c.ID = id
			stored = append(stored, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListRouteSuggestions returns the candidates by ordering, unordered ones last by id.
func ListRouteSuggestions(ctx context.Context, q Querier) ([]models.RouteSuggestion, error) {
	if q == nil {
		db, err := conn()
		if err != nil {
			return nil, err
		}
		q = db
	}
	rows, err := q.QueryContext(ctx, "SELECT "+routeSuggestColumns+` FROM route_suggest_imports
		ORDER BY CASE WHEN ordering IS NULL THEN 1 ELSE 0 END, ordering, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query route suggestions: %w", err)
	}
	defer rows.Close()

	var out []models.RouteSuggestion
	for rows.Next() {
		var s models.RouteSuggestion
		var ordering sql.NullInt64
		if err := rows.Scan(&s.ID, &s.Name, &s.Coords, &s.Latitude, &s.Longitude, &ordering, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan route suggestion row: %w", err)
		}
		if ordering.Valid {
			o := int(ordering.Int64)
			s.Ordering = &o
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route suggestion rows: %w", err)
	}
	return out, nil
}

// SetRouteSuggestOrdering numbers the candidates 1..n in the order of ids. An id
// that is not stored rolls the whole update back with ErrNotFound.
func SetRouteSuggestOrdering(ctx context.Context, ids []int64) ([]models.RouteSuggestion, error) {
	var out []models.RouteSuggestion
	err := WithTx(ctx, func(tx *sql.Tx) error {
		current, err := ListRouteSuggestions(ctx, tx)
		if err != nil {
			return err
		}
		stored := make(map[int64]bool, len(current))
		for _, s := range current {
			stored[s.ID] = true
		}

		stmt, err := tx.PrepareContext(ctx, rebind("UPDATE route_suggest_imports SET ordering = ? WHERE id = ?"))
		if err != nil {
			return fmt.Errorf("failed to prepare route ordering statement: %w", err)
		}
		defer stmt.Close()

		for i, id := range ids {
			if !stored[id] {
				return fmt.Errorf("route suggestion %d: %w", id, ErrNotFound)
			}
			if _, err := stmt.ExecContext(ctx, i+1, id); err != nil {
				return fmt.Errorf("failed to order route suggestion %d: %w", id, err)
			}
		}
		out, err = ListRouteSuggestions(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
