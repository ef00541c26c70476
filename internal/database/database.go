package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"farm_backend/internal/config"
	"farm_backend/pkg/utils"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// RequiredTables must exist before the server accepts traffic. They are
// created by migrations, never at runtime.
var RequiredTables = []string{
	"users",
	"categories",
	"suppliers",
	"inventory_items",
	"inventory_log",
	"inventory_batches",
	"batch_quality_checks",
	"activity_log",
}

// Open connects to PostgreSQL with the configured pool settings and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	utils.LogInfo("Successfully connected to the database", map[string]interface{}{
		"host":   cfg.Host,
		"dbname": cfg.DBName,
	})
	return db, nil
}

// VerifySchema fails when any required table is missing.
func VerifySchema(ctx context.Context, db *sql.DB) error {
	var missing []string
	for _, table := range RequiredTables {
		var found sql.NullString
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1)::text", "public."+table).Scan(&found); err != nil {
			return fmt.Errorf("could not check table %s: %w", table, err)
		}
		if !found.Valid {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database schema is incomplete, run migrations first; missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}
