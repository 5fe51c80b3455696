package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
	"trading-journal/pkg/logger"
)

const defaultBaseCurrency = "USD"

type SettingsService struct {
	settings storage.SettingsStore
}

func NewSettingsService(settings storage.SettingsStore) *SettingsService {
	return &SettingsService{settings: settings}
}

// Get returns the user's settings, falling back to zero-balance defaults
// for users who never saved any.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	settings, err := s.settings.Get(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return &domain.Settings{
			UserID:       userID,
			BaseCurrency: defaultBaseCurrency,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	if settings.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if settings.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalid)
	}

	settings.BaseCurrency = strings.ToUpper(strings.TrimSpace(settings.BaseCurrency))
	if settings.BaseCurrency == "" {
		settings.BaseCurrency = defaultBaseCurrency
	}
	settings.UpdatedAt = time.Now().UTC()

	if err := s.settings.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	logger.Info("settings updated",
		zap.String("user_id", settings.UserID),
		zap.String("initial_balance", settings.InitialBalance.String()))
	return settings, nil
}
