package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

const landColumns = `id, name, prefecture, location, latlon, area, remark,
	company_id, cultivation_type_id, owner, created_at, updated_at`

// CreateLand inserts a land of a company.
func CreateLand(ctx context.Context, l models.Land) (models.Land, error) {
	db, err := conn()
	if err != nil {
		return models.Land{}, err
	}
	l.CreatedAt = now()
	l.UpdatedAt = nil
	l.ID, err = insertID(ctx, db, `
		INSERT INTO lands (
			name, prefecture, location, latlon, area, remark,
			company_id, cultivation_type_id, owner, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Name, l.Prefecture, l.Location, nullString(l.LatLon), nullFloat(l.Area), nullString(l.Remark),
		l.CompanyID, l.CultivationTypeID, l.Owner, l.CreatedAt,
	)
	if err != nil {
		return models.Land{}, fmt.Errorf("failed to insert land %q: %w", l.Name, err)
	}
	return l, nil
}

// GetLand returns a land of the given company. A land of another company is not found.
func GetLand(ctx context.Context, companyID, id int64) (models.Land, error) {
	db, err := conn()
	if err != nil {
		return models.Land{}, err
	}
	l, err := scanLand(db.QueryRowContext(ctx, rebind("SELECT "+landColumns+" FROM lands WHERE id = ? AND company_id = ?"), id, companyID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Land{}, fmt.Errorf("land %d of company %d: %w", id, companyID, ErrNotFound)
	}
	if err != nil {
		return models.Land{}, fmt.Errorf("failed to query land %d: %w", id, err)
	}
	return l, nil
}

// ListLandsByCompany returns the lands of a company ordered by id.
func ListLandsByCompany(ctx context.Context, companyID int64) ([]models.Land, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, rebind("SELECT "+landColumns+" FROM lands WHERE company_id = ? ORDER BY id"), companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lands of company %d: %w", companyID, err)
	}
	defer rows.Close()

	var lands []models.Land
	for rows.Next() {
		l, err := scanLand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan land row: %w", err)
		}
		lands = append(lands, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land rows: %w", err)
	}
	return lands, nil
}

// CreateLandPeriod inserts a named season of a year.
func CreateLandPeriod(ctx context.Context, p models.LandPeriod) (models.LandPeriod, error) {
	db, err := conn()
	if err != nil {
		return models.LandPeriod{}, err
	}
	p.CreatedAt = now()
	p.ID, err = insertID(ctx, db,
		"INSERT INTO land_periods (year, name, created_at) VALUES (?, ?, ?)",
		p.Year, p.Name, p.CreatedAt,
	)
	if err != nil {
		return models.LandPeriod{}, fmt.Errorf("failed to insert land period %d %q: %w", p.Year, p.Name, err)
	}
	return p, nil
}

// ListLandPeriods returns every land period, newest year first.
func ListLandPeriods(ctx context.Context) ([]models.LandPeriod, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT id, year, name, created_at FROM land_periods ORDER BY year DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query land periods: %w", err)
	}
	defer rows.Close()

	var periods []models.LandPeriod
	for rows.Next() {
		var p models.LandPeriod
		if err := rows.Scan(&p.ID, &p.Year, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan land period row: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating land period rows: %w", err)
	}
	return periods, nil
}

func scanLand(r rowScanner) (models.Land, error) {
	var l models.Land
	var latlon, remark sql.NullString
	var area sql.NullFloat64
	var updatedAt sql.NullTime
	err := r.Scan(
		&l.ID, &l.Name, &l.Prefecture, &l.Location, &latlon, &area, &remark,
		&l.CompanyID, &l.CultivationTypeID, &l.Owner, &l.CreatedAt, &updatedAt,
	)
	if err != nil {
		return models.Land{}, err
	}
	l.LatLon = latlon.String
	l.Area = floatPtr(area)
	l.Remark = remark.String
	l.UpdatedAt = timePtr(updatedAt)
	return l, nil
}
