package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

// CreateSamplingMethod inserts a sampling method.
func CreateSamplingMethod(ctx context.Context, m models.SamplingMethod) (models.SamplingMethod, error) {
	db, err := conn()
	if err != nil {
		return models.SamplingMethod{}, err
	}
	m.CreatedAt = now()
	m.ID, err = insertID(ctx, db,
		"INSERT INTO sampling_methods (name, times, remark, created_at) VALUES (?, ?, ?, ?)",
		m.Name, m.Times, nullString(m.Remark), m.CreatedAt,
	)
	if err != nil {
		return models.SamplingMethod{}, fmt.Errorf("failed to insert sampling method %q: %w", m.Name, err)
	}
	return m, nil
}

// GetSamplingMethod returns one sampling method. q may be a transaction.
func GetSamplingMethod(ctx context.Context, q Querier, id int64) (models.SamplingMethod, error) {
	if q == nil {
		db, err := conn()
		if err != nil {
			return models.SamplingMethod{}, err
		}
		q = db
	}
	m, err := scanSamplingMethod(q.QueryRowContext(ctx,
		rebind("SELECT id, name, times, remark, created_at FROM sampling_methods WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SamplingMethod{}, fmt.Errorf("sampling method %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.SamplingMethod{}, fmt.Errorf("failed to query sampling method %d: %w", id, err)
	}
	return m, nil
}

// ListSamplingMethods returns every sampling method ordered by id.
func ListSamplingMethods(ctx context.Context) ([]models.SamplingMethod, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT id, name, times, remark, created_at FROM sampling_methods ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sampling methods: %w", err)
	}
	defer rows.Close()

	var methods []models.SamplingMethod
	for rows.Next() {
		m, err := scanSamplingMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sampling method row: %w", err)
		}
		methods = append(methods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sampling method rows: %w", err)
	}
	return methods, nil
}

// ReplaceSamplingOrders swaps the whole land block traversal of a method in one
// transaction. blockIDs[i] gets ordering i+1.
func ReplaceSamplingOrders(ctx context.Context, methodID int64, blockIDs []int64) ([]models.SamplingOrder, error) {
	var orders []models.SamplingOrder
	err := WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, rebind("DELETE FROM sampling_orders WHERE sampling_method_id = ?"), methodID); err != nil {
			return fmt.Errorf("failed to delete sampling orders of method %d: %w", methodID, err)
		}

		stmt, err := tx.PrepareContext(ctx, rebind(`
			INSERT INTO sampling_orders (sampling_method_id, land_block_id, ordering, created_at)
			VALUES (?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("failed to prepare sampling order insert statement: %w", err)
		}
		defer stmt.Close()

		createdAt := now()
		for i, blockID := range blockIDs {
			if _, err := stmt.ExecContext(ctx, methodID, blockID, i+1, createdAt); err != nil {
				return fmt.Errorf("failed to insert sampling order %d of method %d: %w", i+1, methodID, err)
			}
		}

		orders, err = ListSamplingOrders(ctx, tx, methodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListSamplingOrders returns the traversal of a method sorted by ordering, with
// land block names filled in. q may be a transaction.
func ListSamplingOrders(ctx context.Context, q Querier, methodID int64) ([]models.SamplingOrder, error) {
	if q == nil {
		db, err := conn()
		if err != nil {
			return nil, err
		}
		q = db
	}
	rows, err := q.QueryContext(ctx, rebind(`
		SELECT so.id, so.sampling_method_id, so.land_block_id, lb.name, so.ordering
		FROM sampling_orders so
		JOIN land_blocks lb ON lb.id = so.land_block_id
		WHERE so.sampling_method_id = ?
		ORDER BY so.ordering`), methodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sampling orders of method %d: %w", methodID, err)
	}
	defer rows.Close()

	var orders []models.SamplingOrder
	for rows.Next() {
		var o models.SamplingOrder
		if err := rows.Scan(&o.ID, &o.SamplingMethodID, &o.LandBlockID, &o.LandBlockName, &o.Ordering); err != nil {
			return nil, fmt.Errorf("failed to scan sampling order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sampling order rows: %w", err)
	}
	return orders, nil
}

func scanSamplingMethod(r rowScanner) (models.SamplingMethod, error) {
	var m models.SamplingMethod
	var remark sql.NullString
	if err := r.Scan(&m.ID, &m.Name, &m.Times, &remark, &m.CreatedAt); err != nil {
		return models.SamplingMethod{}, err
	}
	m.Remark = remark.String
	return m, nil
}
