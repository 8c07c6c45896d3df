package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/duri0214/soil-analysis/models"
)

const companyColumns = "id, name, remark, category_id, created_at, updated_at"

// CreateCompany inserts a company and returns it with its id.
func CreateCompany(ctx context.Context, c models.Company) (models.Company, error) {
	db, err := conn()
	if err != nil {
		return models.Company{}, err
	}
	c.CreatedAt = now()
	c.UpdatedAt = nil
	c.ID, err = insertID(ctx, db,
		"INSERT INTO companies (name, remark, category_id, created_at) VALUES (?, ?, ?, ?)",
		c.Name, nullString(c.Remark), c.CategoryID, c.CreatedAt,
	)
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to insert company %q: %w", c.Name, err)
	}
	return c, nil
}

// GetCompany returns the company with the given id.
func GetCompany(ctx context.Context, id int64) (models.Company, error) {
	db, err := conn()
	if err != nil {
		return models.Company{}, err
	}
	c, err := scanCompany(db.QueryRowContext(ctx, rebind("SELECT "+companyColumns+" FROM companies WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Company{}, fmt.Errorf("company %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to query company %d: %w", id, err)
	}
	return c, nil
}

// ListCompaniesByCategory returns the companies of one category ordered by id.
func ListCompaniesByCategory(ctx context.Context, categoryID int64) ([]models.Company, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, rebind("SELECT "+companyColumns+" FROM companies WHERE category_id = ? ORDER BY id"), categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	defer rows.Close()

	var companies []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan company row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating company rows: %w", err)
	}
	return companies, nil
}

func scanCompany(r rowScanner) (models.Company, error) {
	var c models.Company
	var remark sql.NullString
	var updatedAt sql.NullTime
	if err := r.Scan(&c.ID, &c.Name, &remark, &c.CategoryID, &c.CreatedAt, &updatedAt); err != nil {
		return models.Company{}, err
	}
	c.Remark = remark.String
	c.UpdatedAt = timePtr(updatedAt)
	return c, nil
}
