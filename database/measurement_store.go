package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/association"
	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
)

const measurementColumns = `id, set_memory, set_datetime, set_depth, set_spring, set_cone,
	depth, pressure, csv_folder, device_id, land_block_id, land_ledger_id, created_at, updated_at`

// InsertMeasurements bulk inserts the readings of one CSV file through q, normally the
// transaction of that file. It returns the number of rows written.
func InsertMeasurements(ctx context.Context, q Querier, recs []models.SoilHardnessMeasurement) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	stmt, err := prepare(ctx, q, `
		INSERT INTO soil_hardness_measurements (
			set_memory, set_datetime, set_depth, set_spring, set_cone,
			depth, pressure, csv_folder, device_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare measurement insert statement: %w", err)
	}
	defer stmt.Close()

	createdAt := now()
	for _, m := range recs {
		_, err := stmt.ExecContext(ctx,
			m.SetMemory, m.SetDatetime, m.SetDepth, m.SetSpring, m.SetCone,
			m.Depth, m.Pressure, m.CsvFolder, m.DeviceID, createdAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert measurement memory %d depth %d: %w", m.SetMemory, m.Depth, err)
		}
	}
	return len(recs), nil
}

// DeleteAllMeasurements empties the measurement table before a full re-import.
func DeleteAllMeasurements(ctx context.Context) (int64, error) {
	db, err := conn()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, "DELETE FROM soil_hardness_measurements")
	if err != nil {
		return 0, fmt.Errorf("failed to delete soil hardness measurements: %w", err)
	}
	n, _ := res.RowsAffected()
	logging.L().Info("Database: cleared soil hardness measurements", zap.Int64("rows", n))
	return n, nil
}

// SelectWindow returns the measurements whose memory slot lies in
// [anchor, anchor+total-1], ordered by id. q may be a transaction.
func SelectWindow(ctx context.Context, q Querier, anchor, total int) ([]models.SoilHardnessMeasurement, error) {
	r := association.NewSlotRange(anchor, total)
	if r.Empty() {
		return nil, nil
	}
	rows, err := q.QueryContext(ctx, rebind(`
		SELECT `+measurementColumns+`
		FROM soil_hardness_measurements
		WHERE set_memory BETWEEN ? AND ?
		ORDER BY id`), r.First, r.Last)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements of slots %d-%d: %w", r.First, r.Last, err)
	}
	defer rows.Close()

	var window []models.SoilHardnessMeasurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan measurement row: %w", err)
		}
		window = append(window, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating measurement rows: %w", err)
	}
	return window, nil
}

// UpdateAssociations writes the resolved land block and ledger of every assignment.
func UpdateAssociations(ctx context.Context, q Querier, assignments []association.Assignment) (int, error) {
	if len(assignments) == 0 {
		return 0, nil
	}
	stmt, err := prepare(ctx, q, `
		UPDATE soil_hardness_measurements
		SET land_block_id = ?, land_ledger_id = ?, updated_at = ?
		WHERE id = ?`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare association update statement: %w", err)
	}
	defer stmt.Close()

	updatedAt := now()
	updated := 0
	for _, a := range assignments {
		res, err := stmt.ExecContext(ctx, a.LandBlockID, a.LandLedgerID, updatedAt, a.MeasurementID)
		if err != nil {
			return 0, fmt.Errorf("failed to associate measurement %d: %w", a.MeasurementID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			updated += int(n)
		}
	}
	return updated, nil
}

// CountUnassociatedMeasurements counts the readings that still lack a land block.
func CountUnassociatedMeasurements(ctx context.Context, q Querier) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(id) FROM soil_hardness_measurements WHERE land_block_id IS NULL OR land_ledger_id IS NULL",
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unassociated measurements: %w", err)
	}
	return n, nil
}

// ListPendingMemoryGroups returns one group per unassociated probing, ordered by slot.
func ListPendingMemoryGroups(ctx context.Context) ([]models.MemoryGroup, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	return queryMemoryGroups(ctx, db, `
		SELECT set_memory, set_datetime, COUNT(id) AS cnt
		FROM soil_hardness_measurements
		WHERE land_block_id IS NULL
		GROUP BY set_memory, set_datetime
		ORDER BY set_memory, set_datetime`)
}

// ListMemoryGroups returns the probings of the window starting at anchor.
func ListMemoryGroups(ctx context.Context, anchor, total int) ([]models.MemoryGroup, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	r := association.NewSlotRange(anchor, total)
	if r.Empty() {
		return nil, nil
	}
	return queryMemoryGroups(ctx, db, `
		SELECT set_memory, set_datetime, COUNT(id) AS cnt
		FROM soil_hardness_measurements
		WHERE set_memory BETWEEN ? AND ?
		GROUP BY set_memory, set_datetime
		ORDER BY set_memory, set_datetime`, r.First, r.Last)
}

func queryMemoryGroups(ctx context.Context, q Querier, query string, args ...any) ([]models.MemoryGroup, error) {
	rows, err := q.QueryContext(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query memory groups: %w", err)
	}
	defer rows.Close()

	var groups []models.MemoryGroup
	for rows.Next() {
		var g models.MemoryGroup
		if err := rows.Scan(&g.SetMemory, &g.SetDatetime, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan memory group row: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory group rows: %w", err)
	}
	return groups, nil
}

func scanMeasurement(r rowScanner) (models.SoilHardnessMeasurement, error) {
	var m models.SoilHardnessMeasurement
	var blockID, ledgerID sql.NullInt64
	var updatedAt sql.NullTime
	err := r.Scan(
		&m.ID, &m.SetMemory, &m.SetDatetime, &m.SetDepth, &m.SetSpring, &m.SetCone,
		&m.Depth, &m.Pressure, &m.CsvFolder, &m.DeviceID, &blockID, &ledgerID, &m.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.SoilHardnessMeasurement{}, err
	}
	m.LandBlockID = int64Ptr(blockID)
	m.LandLedgerID = int64Ptr(ledgerID)
	m.UpdatedAt = timePtr(updatedAt)
	return m, nil
}

type preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// prepare builds a statement on q when it supports preparing (both *sql.DB and *sql.Tx do).
func prepare(ctx context.Context, q Querier, query string) (*sql.Stmt, error) {
	p, ok := q.(preparer)
	if !ok {
		return nil, fmt.Errorf("querier %T cannot prepare statements", q)
	}
	return p.PrepareContext(ctx, rebind(query))
}
