// Package storage defines the persistence contracts the journal services
// depend on. Two drivers implement them: the MongoDB document store
// (the default) and a PostgreSQL alternative.
package storage

import (
	"context"
	"errors"

	"trading-journal/internal/domain"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("record not found")

// TradeStore persists trade records. Every operation is scoped to a single
// user; implementations must never return another user's trades.
type TradeStore interface {
	Insert(ctx context.Context, trade *domain.Trade) error

	// InsertMany writes a batch in one round trip and reports how many
	// records were written. Used by the CSV importer.
	InsertMany(ctx context.Context, trades []domain.Trade) (int64, error)

	Get(ctx context.Context, userID, id string) (*domain.Trade, error)

	// List returns trades matching the filter, newest entry first.
	// A zero filter limit means no limit: metric computations read the
	// user's full matching set.
	List(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error)

	Update(ctx context.Context, trade *domain.Trade) error
	Delete(ctx context.Context, userID, id string) error
	Count(ctx context.Context, userID string) (int64, error)
}

// SettingsStore persists per-user journal settings.
type SettingsStore interface {
	Get(ctx context.Context, userID string) (*domain.Settings, error)
	Upsert(ctx context.Context, settings *domain.Settings) error
}

// Pinger is implemented by backends that can report connectivity for
// readiness probes.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}
