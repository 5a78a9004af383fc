// Package bundb builds bun database handles for the drivers the translation
// index supports. Hosts that already manage their own *bun.DB can skip it and
// hand the handle to the engine directly.
package bundb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// Config captures the connection settings for the translation index database.
type Config struct {
	// Driver is the database/sql driver name: "sqlite3" or "postgres".
	Driver string
	// DSN is passed verbatim to sql.Open.
	DSN string
}

// Open creates a *bun.DB with the dialect matching the configured driver.
func Open(cfg Config) (*bun.DB, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		return nil, fmt.Errorf("bundb: driver is required")
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("bundb: dsn is required")
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("bundb: open %s: %w", driver, err)
	}

	switch driver {
	case "sqlite3", "sqlite":
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case "postgres", "pgx", "pg":
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("bundb: unsupported driver %q", cfg.Driver)
	}
}
