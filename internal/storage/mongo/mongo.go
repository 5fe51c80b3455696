// Package mongo implements the journal stores on MongoDB, the system of
// record for trade documents. Monetary fields are stored as decimal
// strings so no precision is lost to BSON doubles.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"trading-journal/internal/config"
)

const (
	tradesCollection   = "trades"
	settingsCollection = "user_settings"
)

type Store struct {
	client *mongodb.Client
	db     *mongodb.Database
}

func NewStore(cfg *config.Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoConnectTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetMinPoolSize(cfg.MongoMinPoolSize).
		SetMaxPoolSize(cfg.MongoMaxPoolSize)

	client, err := mongodb.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(cfg.MongoDatabase)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(tradesCollection).Indexes().CreateOne(ctx, mongodb.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "entryDate", Value: -1}},
	})
	return err
}

func (s *Store) Trades() *TradeStore {
	return &TradeStore{coll: s.db.Collection(tradesCollection)}
}

func (s *Store) Settings() *SettingsStore {
	return &SettingsStore{coll: s.db.Collection(settingsCollection)}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
