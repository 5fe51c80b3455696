package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
)

type SettingsStore struct {
	coll *mongodb.Collection
}

type settingsDoc struct {
	UserID         string    `bson:"_id"`
	InitialBalance string    `bson:"initialBalance"`
	BaseCurrency   string    `bson:"baseCurrency"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func (s *SettingsStore) Get(ctx context.Context, userID string) (*domain.Settings, error) {
	var doc settingsDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settings: %w", err)
	}

	balance, err := parseMoney("initialBalance", doc.InitialBalance)
	if err != nil {
		return nil, err
	}
	return &domain.Settings{
		UserID:         doc.UserID,
		InitialBalance: balance,
		BaseCurrency:   doc.BaseCurrency,
		UpdatedAt:      doc.UpdatedAt,
	}, nil
}

func (s *SettingsStore) Upsert(ctx context.Context, settings *domain.Settings) error {
	doc := settingsDoc{
		UserID:         settings.UserID,
		InitialBalance: settings.InitialBalance.String(),
		BaseCurrency:   settings.BaseCurrency,
		UpdatedAt:      settings.UpdatedAt,
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": settings.UserID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
