package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
)

type SettingsStore struct {
	db *DB
}

func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	query := `
        SELECT user_id, initial_balance, base_currency, updated_at
        FROM user_settings
        WHERE user_id = $1
    `

	var settings domain.Settings
	err := s.db.pool.QueryRow(ctx, query, userID).Scan(
		&settings.UserID,
		&settings.InitialBalance,
		&settings.BaseCurrency,
		&settings.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}
	return &settings, nil
}

func (s *SettingsStore) Upsert(ctx context.Context, settings *domain.Settings) error {
	query := `
        INSERT INTO user_settings (user_id, initial_balance, base_currency, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE SET
            initial_balance = EXCLUDED.initial_balance,
            base_currency = EXCLUDED.base_currency,
            updated_at = EXCLUDED.updated_at
    `

	_, err := s.db.pool.Exec(ctx, query,
		settings.UserID,
		settings.InitialBalance,
		settings.BaseCurrency,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
