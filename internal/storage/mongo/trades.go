package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	mongodb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/metrics"
)

type TradeStore struct {
	coll *mongodb.Collection
}

type tradeDoc struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"userId"`
	InstrumentType  string     `bson:"instrumentType"`
	InstrumentName  string     `bson:"instrumentName"`
	Direction       string     `bson:"direction,omitempty"`
	EntryPrice      string     `bson:"entryPrice"`
	ExitPrice       string     `bson:"exitPrice"`
	Quantity        string     `bson:"quantity"`
	ProfitLoss      string     `bson:"profitLoss"`
	RiskRewardRatio float64    `bson:"riskRewardRatio,omitempty"`
	EntryDate       time.Time  `bson:"entryDate"`
	ExitDate        *time.Time `bson:"exitDate,omitempty"`
	TradeDate       *time.Time `bson:"tradeDate,omitempty"`
	Notes           string     `bson:"notes,omitempty"`
	Tags            []string   `bson:"tags,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt"`
}

func newTradeDoc(t *domain.Trade) *tradeDoc {
	return &tradeDoc{
		ID:              t.ID,
		UserID:          t.UserID,
		InstrumentType:  t.InstrumentType,
		InstrumentName:  t.InstrumentName,
		Direction:       t.Direction,
		EntryPrice:      t.EntryPrice.String(),
		ExitPrice:       t.ExitPrice.String(),
		Quantity:        t.Quantity.String(),
		ProfitLoss:      t.ProfitLoss.String(),
		RiskRewardRatio: t.RiskRewardRatio,
		EntryDate:       t.EntryDate,
		ExitDate:        t.ExitDate,
		TradeDate:       t.TradeDate,
		Notes:           t.Notes,
		Tags:            t.Tags,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func (d *tradeDoc) toDomain() (*domain.Trade, error) {
	entryPrice, err := parseMoney("entryPrice", d.EntryPrice)
	if err != nil {
		return nil, err
	}
	exitPrice, err := parseMoney("exitPrice", d.ExitPrice)
	if err != nil {
		return nil, err
	}
	quantity, err := parseMoney("quantity", d.Quantity)
	if err != nil {
		return nil, err
	}
	profitLoss, err := parseMoney("profitLoss", d.ProfitLoss)
	if err != nil {
		return nil, err
	}

	return &domain.Trade{
		ID:              d.ID,
		UserID:          d.UserID,
		InstrumentType:  d.InstrumentType,
		InstrumentName:  d.InstrumentName,
		Direction:       d.Direction,
		EntryPrice:      entryPrice,
		ExitPrice:       exitPrice,
		Quantity:        quantity,
		ProfitLoss:      profitLoss,
		RiskRewardRatio: d.RiskRewardRatio,
		EntryDate:       d.EntryDate,
		ExitDate:        d.ExitDate,
		TradeDate:       d.TradeDate,
		Notes:           d.Notes,
		Tags:            d.Tags,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, nil
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad %s value %q: %w", field, value, err)
	}
	return v, nil
}

// tradeQuery builds the user-scoped filter document. Date bounds apply to
// the journal date: tradeDate when the document has one, entryDate
// otherwise.
func tradeQuery(userID string, f domain.TradeFilter) bson.M {
	q := bson.M{"userId": userID}
	if f.InstrumentType != "" {
		q["instrumentType"] = f.InstrumentType
	}
	if f.InstrumentName != "" {
		q["instrumentName"] = f.InstrumentName
	}

	if f.StartDate != nil || f.EndDate != nil {
		bounds := bson.M{}
		if f.StartDate != nil {
			bounds["$gte"] = *f.StartDate
		}
		if f.EndDate != nil {
			bounds["$lte"] = *f.EndDate
		}
		// {tradeDate: nil} matches documents where the field is absent.
		q["$or"] = []bson.M{
			{"tradeDate": bounds},
			{"tradeDate": nil, "entryDate": bounds},
		}
	}
	return q
}

func (s *TradeStore) Insert(ctx context.Context, trade *domain.Trade) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_insert"))

	if _, err := s.coll.InsertOne(ctx, newTradeDoc(trade)); err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_insert", "error").Inc()
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_insert", "success").Inc()
	return nil
}

func (s *TradeStore) InsertMany(ctx context.Context, trades []domain.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_bulk_insert"))

	docs := make([]interface{}, 0, len(trades))
	for i := range trades {
		docs = append(docs, newTradeDoc(&trades[i]))
	}

	res, err := s.coll.InsertMany(ctx, docs)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "error").Inc()
		var inserted int64
		if res != nil {
			inserted = int64(len(res.InsertedIDs))
		}
		return inserted, fmt.Errorf("failed to bulk insert trades: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "success").Inc()
	return int64(len(res.InsertedIDs)), nil
}

func (s *TradeStore) Get(ctx context.Context, userID, id string) (*domain.Trade, error) {
	var doc tradeDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&doc)
	if errors.Is(err, mongodb.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trade: %w", err)
	}
	return doc.toDomain()
}

func (s *TradeStore) List(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_list"))

	findOpts := options.Find().SetSort(bson.D{{Key: "entryDate", Value: -1}})
	if filter.Limit > 0 {
		findOpts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		findOpts.SetSkip(int64(filter.Offset))
	}

	logger.Debug("listing trades",
		zap.String("instrument_type", filter.InstrumentType),
		zap.String("instrument_name", filter.InstrumentName),
		zap.Any("start_date", filter.StartDate),
		zap.Any("end_date", filter.EndDate))

	cur, err := s.coll.Find(ctx, tradeQuery(userID, filter), findOpts)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_list", "error").Inc()
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer cur.Close(ctx)

	trades := make([]domain.Trade, 0, 64)
	for cur.Next(ctx) {
		var doc tradeDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode trade: %w", err)
		}
		trade, err := doc.toDomain()
		if err != nil {
			return nil, fmt.Errorf("failed to decode trade %s: %w", doc.ID, err)
		}
		trades = append(trades, *trade)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_list", "success").Inc()
	return trades, nil
}

func (s *TradeStore) Update(ctx context.Context, trade *domain.Trade) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_update"))

	res, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": trade.ID, "userId": trade.UserID},
		newTradeDoc(trade))
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_update", "error").Inc()
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	metrics.DatabaseQueries.WithLabelValues("trade_update", "success").Inc()
	return nil
}

func (s *TradeStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *TradeStore) Count(ctx context.Context, userID string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}
