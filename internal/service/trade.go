package service

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
	"trading-journal/internal/trace"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/metrics"
)

type TradeService struct {
	trades       storage.TradeStore
	defaultLimit int
	maxLimit     int
}

func NewTradeService(trades storage.TradeStore, defaultLimit, maxLimit int) *TradeService {
	return &TradeService{
		trades:       trades,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

func (s *TradeService) Create(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "TradeService.Create")
	defer span.End()

	if err := validateTrade(trade); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	trade.ID = primitive.NewObjectID().Hex()
	trade.CreatedAt = now
	trade.UpdatedAt = now

	if err := s.trades.Insert(ctx, trade); err != nil {
		metrics.RecordTradeProcessed("error")
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	metrics.RecordTradeProcessed("created")
	logger.WithContext(ctx).Info("trade created",
		zap.String("trade_id", trade.ID),
		zap.String("instrument", trade.InstrumentName),
		zap.String("profit_loss", trade.ProfitLoss.String()))
	return trade, nil
}

func (s *TradeService) Get(ctx context.Context, userID, id string) (*domain.Trade, error) {
	trade, err := s.trades.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	return trade, nil
}

func (s *TradeService) List(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "TradeService.List")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = s.defaultLimit
	}
	if filter.Limit > s.maxLimit {
		filter.Limit = s.maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	trades, err := s.trades.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	return trades, nil
}

func (s *TradeService) Update(ctx context.Context, trade *domain.Trade) (*domain.Trade, error) {
	ctx, span := trace.StartSpan(ctx, "TradeService.Update")
	defer span.End()

	if trade.ID == "" {
		return nil, fmt.Errorf("%w: trade id is required", ErrInvalid)
	}
	if err := validateTrade(trade); err != nil {
		return nil, err
	}

	existing, err := s.trades.Get(ctx, trade.UserID, trade.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load trade: %w", err)
	}
	trade.CreatedAt = existing.CreatedAt
	trade.UpdatedAt = time.Now().UTC()

	if err := s.trades.Update(ctx, trade); err != nil {
		metrics.RecordTradeProcessed("error")
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}

	metrics.RecordTradeProcessed("updated")
	logger.WithContext(ctx).Info("trade updated", zap.String("trade_id", trade.ID))
	return trade, nil
}

func (s *TradeService) Delete(ctx context.Context, userID, id string) error {
	ctx, span := trace.StartSpan(ctx, "TradeService.Delete")
	defer span.End()

	if err := s.trades.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}

	metrics.RecordTradeProcessed("deleted")
	logger.WithContext(ctx).Info("trade deleted", zap.String("trade_id", id))
	return nil
}

func (s *TradeService) Count(ctx context.Context, userID string) (int64, error) {
	return s.trades.Count(ctx, userID)
}

func validateTrade(t *domain.Trade) error {
	if t.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalid)
	}
	if t.InstrumentType == "" || t.InstrumentName == "" {
		return fmt.Errorf("%w: instrument type and name are required", ErrInvalid)
	}
	if t.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry date is required", ErrInvalid)
	}
	switch t.Direction {
	case "", domain.DirectionLong, domain.DirectionShort:
	default:
		return fmt.Errorf("%w: direction must be %q or %q",
			ErrInvalid, domain.DirectionLong, domain.DirectionShort)
	}
	if t.RiskRewardRatio < 0 {
		return fmt.Errorf("%w: risk reward ratio cannot be negative", ErrInvalid)
	}
	if t.ExitDate != nil && t.ExitDate.Before(t.EntryDate) {
		return fmt.Errorf("%w: exit date precedes entry date", ErrInvalid)
	}
	return nil
}
