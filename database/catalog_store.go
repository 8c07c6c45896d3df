package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/duri0214/soil-analysis/models"
)

// Catalog names one of the small id/name/remark reference tables.
type Catalog string

const (
	CatalogCompanyCategories Catalog = "company_categories"
	CatalogCrops             Catalog = "crops"
	CatalogCultivationTypes  Catalog = "cultivation_types"
	CatalogDevices           Catalog = "devices"
	CatalogLandBlocks        Catalog = "land_blocks"
)

var catalogs = map[string]Catalog{
	"company-categories": CatalogCompanyCategories,
	"crops":              CatalogCrops,
	"cultivation-types":  CatalogCultivationTypes,
	"devices":            CatalogDevices,
	"land-blocks":        CatalogLandBlocks,
}

// ParseCatalog maps a URL segment such as "land-blocks" to its table.
// Only whitelisted tables are ever interpolated into SQL.
func ParseCatalog(name string) (Catalog, error) {
	c, ok := catalogs[strings.ReplaceAll(strings.ToLower(name), "_", "-")]
	if !ok {
		return "", fmt.Errorf("unknown catalog %q", name)
	}
	return c, nil
}

// CreateCatalogEntry inserts a new named entry.
func CreateCatalogEntry(ctx context.Context, c Catalog, name, remark string) (models.CatalogEntry, error) {
	db, err := conn()
	if err != nil {
		return models.CatalogEntry{}, err
	}
	entry := models.CatalogEntry{Name: name, Remark: remark, CreatedAt: now()}
	entry.ID, err = insertID(ctx, db,
		"INSERT INTO "+string(c)+" (name, remark, created_at) VALUES (?, ?, ?)",
		entry.Name, nullString(entry.Remark), entry.CreatedAt,
	)
	if err != nil {
		return models.CatalogEntry{}, fmt.Errorf("failed to insert into %s: %w", c, err)
	}
	return entry, nil
}

// ListCatalogEntries returns every entry of the catalog ordered by id.
func ListCatalogEntries(ctx context.Context, c Catalog) ([]models.CatalogEntry, error) {
	db, err := conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT id, name, remark, created_at FROM "+string(c)+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c, err)
	}
	defer rows.Close()

	var entries []models.CatalogEntry
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", c, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", c, err)
	}
	return entries, nil
}

// GetCatalogEntryByName looks an entry up by its unique name.
func GetCatalogEntryByName(ctx context.Context, c Catalog, name string) (models.CatalogEntry, error) {
	db, err := conn()
	if err != nil {
		return models.CatalogEntry{}, err
	}
	row := db.QueryRowContext(ctx, rebind("SELECT id, name, remark, created_at FROM "+string(c)+" WHERE name = ?"), name)
	entry, err := scanCatalogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CatalogEntry{}, fmt.Errorf("%s %q: %w", c, name, ErrNotFound)
	}
	if err != nil {
		return models.CatalogEntry{}, fmt.Errorf("failed to query %s %q: %w", c, name, err)
	}
	return entry, nil
}

// MissingCatalogIDs returns the ids, in input order, that have no row in the catalog.
func MissingCatalogIDs(ctx context.Context, q Querier, c Catalog, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, rebind("SELECT id FROM "+string(c)+" WHERE id IN ("+placeholders(len(ids))+")"), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s ids: %w", c, err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", c, err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s ids: %w", c, err)
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogEntry(r rowScanner) (models.CatalogEntry, error) {
	var entry models.CatalogEntry
	var remark sql.NullString
	if err := r.Scan(&entry.ID, &entry.Name, &remark, &entry.CreatedAt); err != nil {
		return models.CatalogEntry{}, err
	}
	entry.Remark = remark.String
	return entry, nil
}
