package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

const ledgerColumns = `id, sampling_date, analysis_request_date, reporting_date, analysis_number,
	analytical_agency_id, crop_id, land_id, land_period_id, sampling_method_id,
	sampling_staff, created_at, updated_at`

// CreateLandLedger records a sampling event on a land.
func CreateLandLedger(ctx context.Context, l models.LandLedger) (models.LandLedger, error) {
	db, err := conn()
	if err != nil {
		return models.LandLedger{}, err
	}
	l.CreatedAt = now()
	l.UpdatedAt = nil
	l.ID, err = insertID(ctx, db, `
		INSERT INTO land_ledgers (
			sampling_date, analysis_request_date, reporting_date, analysis_number,
			analytical_agency_id, crop_id, land_id, land_period_id, sampling_method_id,
			sampling_staff, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.SamplingDate, nullTime(l.AnalysisRequestDate), nullTime(l.ReportingDate), nullInt64(l.AnalysisNumber),
		l.AnalyticalAgencyID, l.CropID, l.LandID, l.LandPeriodID, l.SamplingMethodID,
		l.SamplingStaff, l.CreatedAt,
	)
	if err != nil {
		return models.LandLedger{}, fmt.Errorf("failed to insert land ledger for land %d: %w", l.LandID, err)
	}
	return l, nil
}

// GetLandLedger returns one ledger. q may be a transaction.
func GetLandLedger(ctx context.Context, q Querier, id int64) (models.LandLedger, error) {
	if q == nil {
		db, err := conn()
		if err != nil {
			return models.LandLedger{}, err
		}
		q = db
	}
	l, err := scanLedger(q.QueryRowContext(ctx, rebind("SELECT "+ledgerColumns+" FROM land_ledgers WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LandLedger{}, fmt.Errorf("land ledger %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.LandLedger{}, fmt.Errorf("failed to query land ledger %d: %w", id, err)
	}
	return l, nil
}

// ListLandLedgers returns every ledger ordered by id.
func ListLandLedgers(ctx context.Context) ([]models.LandLedger, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	return queryLedgers(ctx, db, "SELECT "+ledgerColumns+" FROM land_ledgers ORDER BY id")
}

// ListLandLedgersByLands groups the ledgers of the given lands by land id.
func ListLandLedgersByLands(ctx context.Context, landIDs []int64) (map[int64][]models.LandLedger, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	byLand := make(map[int64][]models.LandLedger, len(landIDs))
	if len(landIDs) == 0 {
		return byLand, nil
	}
	args := make([]any, len(landIDs))
	for i, id := range landIDs {
		args[i] = id
	}
	ledgers, err := queryLedgers(ctx, db,
		"SELECT "+ledgerColumns+" FROM land_ledgers WHERE land_id IN ("+placeholders(len(landIDs))+") ORDER BY sampling_date, id",
		args...,
	)
	if err != nil {
		return nil, err
	}
	for _, l := range ledgers {
		byLand[l.LandID] = append(byLand[l.LandID], l)
	}
	return byLand, nil
}

func queryLedgers(ctx context.Context, q Querier, query string, args ...any) ([]models.LandLedger, error) {
	rows, err := q.QueryContext(ctx, rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query land ledgers: %w", err)
	}
	defer rows.Close()

	var ledgers []models.LandLedger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan land ledger row: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land ledger rows: %w", err)
	}
	return ledgers, nil
}

func scanLedger(r rowScanner) (models.LandLedger, error) {
	var l models.LandLedger
	var requested, reported, updatedAt sql.NullTime
	var analysisNumber sql.NullInt64
	err := r.Scan(
		&l.ID, &l.SamplingDate, &requested, &reported, &analysisNumber,
		&l.AnalyticalAgencyID, &l.CropID, &l.LandID, &l.LandPeriodID, &l.SamplingMethodID,
		&l.SamplingStaff, &l.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.LandLedger{}, err
	}
	l.AnalysisRequestDate = timePtr(requested)
	l.ReportingDate = timePtr(reported)
	l.AnalysisNumber = int64Ptr(analysisNumber)
	l.UpdatedAt = timePtr(updatedAt)
	return l, nil
}
