package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

// ClearImportErrors empties the import error table. Every import run starts with it.
func ClearImportErrors(ctx context.Context) error {
	db, err := conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM soil_hardness_import_errors"); err != nil {
		return fmt.Errorf("failed to clear import errors: %w", err)
	}
	return nil
}

// SaveImportError records why one CSV file was skipped.
func SaveImportError(ctx context.Context, e models.SoilHardnessImportError) (models.SoilHardnessImportError, error) {
	db, err := conn()
	if err != nil {
		return models.SoilHardnessImportError{}, err
	}
	e.CreatedAt = now()
	e.ID, err = insertID(ctx, db, `
		INSERT INTO soil_hardness_import_errors (csv_file, csv_folder, message, remark, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.CsvFile, e.CsvFolder, e.Message, nullString(e.Remark), e.CreatedAt,
	)
	if err != nil {
		return models.SoilHardnessImportError{}, fmt.Errorf("failed to save import error for %s: %w", e.CsvFile, err)
	}
	return e, nil
}

// ListImportErrors returns the errors of the latest import run ordered by id.
func ListImportErrors(ctx context.Context) ([]models.SoilHardnessImportError, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, csv_file, csv_folder, message, remark, created_at
		FROM soil_hardness_import_errors
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query import errors: %w", err)
	}
	defer rows.Close()

	var errs []models.SoilHardnessImportError
	for rows.Next() {
		var e models.SoilHardnessImportError
		var remark sql.NullString
		if err := rows.Scan(&e.ID, &e.CsvFile, &e.CsvFolder, &e.Message, &remark, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import error row: %w", err)
		}
		e.Remark = remark.String
		errs = append(errs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import error rows: %w", err)
	}
	return errs, nil
}
