package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/estatebid/estatebid-api/internal/config"
)

// Open connects to PostgreSQL and returns a Bun DB instance
func Open(ctx context.Context, cfg config.DatabaseConfig) (*bun.DB, error) {
	return OpenDSN(ctx, cfg.ConnectionString(), cfg.MaxOpenConns, cfg.MaxIdleConns)
}

// OpenDSN connects using a raw connection string
func OpenDSN(ctx context.Context, dsn string, maxOpen, maxIdle int) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)

	return NewBunDB(sqlDB), nil
}

// NewBunDB creates a new Bun DB instance from an existing sql.DB connection
func NewBunDB(sqlDB *sql.DB) *bun.DB {
	return bun.NewDB(sqlDB, pgdialect.New())
}
