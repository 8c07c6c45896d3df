// database/connection.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/duri0214/soil-analysis/config"
	"github.com/duri0214/soil-analysis/logging"

	_ "github.com/go-sql-driver/mysql" // MariaDB / MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

var DB *sql.DB

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("database: record not found")

var errNotInitialized = errors.New("database connection is not initialized")

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// InitDB opens the connection pool for the configured driver.
func InitDB(cfg config.DatabaseConfig) error {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return err
	}
	dsn, err := buildDSN(cfg)
	if err != nil {
		return err
	}

	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if d.name == dialectSQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	Use(db, d.name)
	logging.L().Info("Database: connected", zap.String("driver", cfg.Driver), zap.String("dbname", cfg.DBName))
	return nil
}

// Use installs an already opened pool, e.g. an in-memory SQLite database in tests.
func Use(db *sql.DB, driver string) {
	d, err := dialectFor(driver)
	if err != nil {
		d = dialects[dialectMySQL]
	}
	DB = db
	current = d
}

// CloseDB closes the database connection pool.
// Typically called on application shutdown.
func CloseDB() {
	if DB != nil {
		DB.Close()
		DB = nil
		logging.L().Info("Database: connection closed")
	}
}

// Ping reports whether the pool is usable.
func Ping(ctx context.Context) error {
	if DB == nil {
		return errNotInitialized
	}
	return DB.PingContext(ctx)
}

func buildDSN(cfg config.DatabaseConfig) (string, error) {
	switch cfg.Driver {
	case dialectMySQL, "":
		// DSN: username:password@protocol(address)/dbname?param=value
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
		), nil
	case dialectSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite path is not configured")
		}
		return cfg.Path, nil
	case dialectPostgres:
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.Host + ":" + cfg.Port,
			Path:     "/" + cfg.DBName,
			RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func conn() (*sql.DB, error) {
	if DB == nil {
		return nil, errNotInitialized
	}
	return DB, nil
}

// WithTx runs fn in a transaction, committing only when fn succeeds.
func WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
