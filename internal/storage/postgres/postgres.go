// Package postgres implements the journal stores on PostgreSQL for
// deployments that prefer a relational backend over the document store.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"trading-journal/internal/config"
)

type DB struct {
	pool *pgxpool.Pool
}

func NewDB(cfg *config.Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.DatabaseMaxConns
	poolConfig.MinConns = cfg.DatabaseMinConns
	poolConfig.MaxConnLifetime = cfg.DatabaseMaxConnLife
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &DB{pool: pool}, nil
}

// EnsureSchema creates the journal tables when they do not exist yet.
func (db *DB) EnsureSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS trades (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			instrument_type TEXT NOT NULL,
			instrument_name TEXT NOT NULL,
			direction TEXT NOT NULL DEFAULT '',
			entry_price NUMERIC(20,8) NOT NULL DEFAULT 0,
			exit_price NUMERIC(20,8) NOT NULL DEFAULT 0,
			quantity NUMERIC(20,8) NOT NULL DEFAULT 0,
			profit_loss NUMERIC(20,8) NOT NULL DEFAULT 0,
			risk_reward_ratio DOUBLE PRECISION NOT NULL DEFAULT 0,
			entry_date TIMESTAMPTZ NOT NULL,
			exit_date TIMESTAMPTZ,
			trade_date TIMESTAMPTZ,
			notes TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_trades_user_entry
			ON trades (user_id, entry_date DESC);

		CREATE TABLE IF NOT EXISTS user_settings (
			user_id TEXT PRIMARY KEY,
			initial_balance NUMERIC(20,8) NOT NULL DEFAULT 0,
			base_currency TEXT NOT NULL DEFAULT 'USD',
			updated_at TIMESTAMPTZ NOT NULL
		);
	`

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Close() {
	db.pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Stats() *pgxpool.Stat {
	return db.pool.Stat()
}
