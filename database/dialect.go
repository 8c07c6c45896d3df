package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dialectMySQL    = "mysql"
	dialectSQLite   = "sqlite"
	dialectPostgres = "postgres"
)

// dialect captures the few places where the three engines disagree.
type dialect struct {
	name      string
	sqlDriver string
	ddl       *strings.Replacer
	// extra statements run after the tables exist
	indexes []string
}

var dialects = map[string]dialect{
	dialectMySQL: {
		name:      dialectMySQL,
		sqlDriver: "mysql",
		ddl: strings.NewReplacer(
			"{{pk}}", "BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY",
			"{{datetime}}", "DATETIME(6)",
			"{{float}}", "DOUBLE",
			"{{memory_index}}", ",\n\t\tINDEX idx_shm_set_memory (set_memory)",
		),
	},
	dialectSQLite: {
		name:      dialectSQLite,
		sqlDriver: "sqlite",
		ddl: strings.NewReplacer(
			"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
			"{{datetime}}", "DATETIME",
			"{{float}}", "REAL",
			"{{memory_index}}", "",
		),
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_shm_set_memory ON soil_hardness_measurements (set_memory)`,
		},
	},
	dialectPostgres: {
		name:      dialectPostgres,
		sqlDriver: "pgx",
		ddl: strings.NewReplacer(
			"{{pk}}", "BIGSERIAL PRIMARY KEY",
			"{{datetime}}", "TIMESTAMPTZ",
			"{{float}}", "DOUBLE PRECISION",
			"{{memory_index}}", "",
		),
		indexes: []string{
			`CREATE INDEX IF NOT EXISTS idx_shm_set_memory ON soil_hardness_measurements (set_memory)`,
		},
	},
}

var current = dialects[dialectMySQL]

func dialectFor(driver string) (dialect, error) {
	if driver == "" {
		driver = dialectMySQL
	}
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unknown database driver %q", driver)
	}
	return d, nil
}

// rebind rewrites ? placeholders to $n for postgres.
func rebind(query string) string {
	if current.name != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// insertID runs an INSERT and returns the new primary key.
func insertID(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	if current.name == dialectPostgres {
		var id int64
		if err := q.QueryRowContext(ctx, rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func now() time.Time {
	return time.Now().UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	i := v.Int64
	return &i
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
