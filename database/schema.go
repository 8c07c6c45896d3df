package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/logging"
	"github.com/duri0214/soil-analysis/models"
)

// schema is written once with dialect tokens; Migrate expands them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS company_categories (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS companies (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		category_id BIGINT NOT NULL REFERENCES company_categories(id),
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS crops (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cultivation_types (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS devices (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS land_blocks (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS land_periods (
		id {{pk}},
		year INTEGER NOT NULL,
		name VARCHAR(256) NOT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL,
		UNIQUE (year, name)
	)`,
	`CREATE TABLE IF NOT EXISTS lands (
		id {{pk}},
		name VARCHAR(256) NOT NULL,
		prefecture VARCHAR(256) NOT NULL,
		location VARCHAR(256) NOT NULL,
		latlon VARCHAR(256) NULL,
		area {{float}} NULL,
		remark TEXT NULL,
		company_id BIGINT NOT NULL REFERENCES companies(id),
		cultivation_type_id BIGINT NOT NULL REFERENCES cultivation_types(id),
		owner VARCHAR(256) NOT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL,
		UNIQUE (company_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS sampling_methods (
		id {{pk}},
		name VARCHAR(256) NOT NULL UNIQUE,
		times INTEGER NOT NULL,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sampling_orders (
		id {{pk}},
		sampling_method_id BIGINT NOT NULL REFERENCES sampling_methods(id),
		land_block_id BIGINT NOT NULL REFERENCES land_blocks(id),
		ordering INTEGER NOT NULL,
		created_at {{datetime}} NOT NULL,
		UNIQUE (sampling_method_id, ordering)
	)`,
	`CREATE TABLE IF NOT EXISTS land_ledgers (
		id {{pk}},
		sampling_date DATE NOT NULL,
		analysis_request_date DATE NULL,
		reporting_date DATE NULL,
		analysis_number BIGINT NULL,
		analytical_agency_id BIGINT NOT NULL REFERENCES companies(id),
		crop_id BIGINT NOT NULL REFERENCES crops(id),
		land_id BIGINT NOT NULL REFERENCES lands(id),
		land_period_id BIGINT NOT NULL REFERENCES land_periods(id),
		sampling_method_id BIGINT NOT NULL REFERENCES sampling_methods(id),
		sampling_staff VARCHAR(256) NOT NULL,
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL,
		UNIQUE (land_id, land_period_id)
	)`,
	`CREATE TABLE IF NOT EXISTS land_score_chemicals (
		id {{pk}},
		ec {{float}} NULL,
		nh4n {{float}} NULL,
		no3n {{float}} NULL,
		total_nitrogen {{float}} NULL,
		nh4_per_nitrogen {{float}} NULL,
		ph {{float}} NULL,
		cao {{float}} NULL,
		mgo {{float}} NULL,
		k2o {{float}} NULL,
		base_saturation {{float}} NULL,
		cao_per_mgo {{float}} NULL,
		mgo_per_k2o {{float}} NULL,
		phosphorus_absorption {{float}} NULL,
		p2o5 {{float}} NULL,
		cec {{float}} NULL,
		humus {{float}} NULL,
		bulk_density {{float}} NULL,
		remark TEXT NULL,
		land_block_id BIGINT NOT NULL REFERENCES land_blocks(id),
		land_ledger_id BIGINT NOT NULL REFERENCES land_ledgers(id),
		created_at {{datetime}} NOT NULL,
		UNIQUE (land_ledger_id, land_block_id)
	)`,
	`CREATE TABLE IF NOT EXISTS land_reviews (
		id {{pk}},
		comment TEXT NOT NULL,
		remark TEXT NULL,
		land_ledger_id BIGINT NOT NULL UNIQUE REFERENCES land_ledgers(id),
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL
	)`,
	`CREATE TABLE IF NOT EXISTS soil_hardness_measurements (
		id {{pk}},
		set_memory INTEGER NOT NULL,
		set_datetime {{datetime}} NOT NULL,
		set_depth INTEGER NOT NULL,
		set_spring INTEGER NOT NULL,
		set_cone INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		pressure INTEGER NOT NULL,
		csv_folder VARCHAR(512) NOT NULL,
		device_id BIGINT NOT NULL REFERENCES devices(id),
		land_block_id BIGINT NULL REFERENCES land_blocks(id),
		land_ledger_id BIGINT NULL REFERENCES land_ledgers(id),
		created_at {{datetime}} NOT NULL,
		updated_at {{datetime}} NULL,
		UNIQUE (device_id, set_memory, set_datetime, depth){{memory_index}}
	)`,
	`CREATE TABLE IF NOT EXISTS soil_hardness_import_errors (
		id {{pk}},
		csv_file VARCHAR(512) NOT NULL,
		csv_folder VARCHAR(512) NOT NULL,
		message TEXT NOT NULL,
		remark TEXT NULL,
		created_at {{datetime}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS route_suggest_imports (
		id {{pk}},
		name VARCHAR(256) NOT NULL,
		coords VARCHAR(256) NOT NULL,
		latitude {{float}} NOT NULL,
		longitude {{float}} NOT NULL,
		ordering INTEGER NULL,
		created_at {{datetime}} NOT NULL
	)`,
}

// Migrate creates every table that does not exist yet and seeds the
// agricultural company category the land screens filter on.
func Migrate(ctx context.Context) error {
	db, err := conn()
	if err != nil {
		return err
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, current.ddl.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	for _, stmt := range current.indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	if err := seedCompanyCategories(ctx); err != nil {
		return err
	}
	logging.L().Info("Database: schema is up to date", zap.Int("tables", len(schema)))
	return nil
}

func seedCompanyCategories(ctx context.Context) error {
	var n int
	if err := DB.QueryRowContext(ctx, "SELECT COUNT(id) FROM company_categories").Scan(&n); err != nil {
		return fmt.Errorf("failed to check company categories: %w", err)
	}
	if n > 0 {
		return nil
	}
	// The first row of an empty table gets id 1.
	id, err := insertID(ctx, DB, "INSERT INTO company_categories (name, created_at) VALUES (?, ?)", "農業法人", now())
	if err != nil {
		return fmt.Errorf("failed to seed company categories: %w", err)
	}
	if id != models.CompanyCategoryAgri {
		return fmt.Errorf("seeded company category got id %d, want %d", id, models.CompanyCategoryAgri)
	}
	return nil
}
