package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"trading-journal/internal/analytics"
	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
	"trading-journal/internal/trace"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/metrics"
)

// MetricsService computes journal metrics from the trade store. Every call
// reads the trades fresh and aggregates in memory; results are never cached.
type MetricsService struct {
	trades   storage.TradeStore
	settings *SettingsService
}

func NewMetricsService(trades storage.TradeStore, settings *SettingsService) *MetricsService {
	return &MetricsService{
		trades:   trades,
		settings: settings,
	}
}

// Summary aggregates the user's trades into account-level metrics. The
// timeframe shorthand (week, month, quarter, year, all) derives a start date
// relative to now and is ignored when the filter already carries one.
func (s *MetricsService) Summary(ctx context.Context, userID string, filter domain.TradeFilter, timeframe string) (*domain.AccountSummary, error) {
	ctx, span := trace.StartSpan(ctx, "MetricsService.Summary")
	defer span.End()

	metrics.RecordMetricsRequest("summary")
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MetricsComputeDuration.WithLabelValues("summary"))

	if filter.StartDate == nil {
		start, err := timeframeStart(timeframe, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		filter.StartDate = start
	}

	trades, err := s.fetchAll(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := analytics.ComputeSummary(trades)
	result := &domain.AccountSummary{
		Summary:        summary,
		InitialBalance: settings.InitialBalance,
		CurrentBalance: settings.InitialBalance.Add(summary.NetProfitLoss),
		BaseCurrency:   settings.BaseCurrency,
	}

	logger.WithContext(ctx).Debug("summary computed",
		zap.String("user_id", userID),
		zap.Int("trades", summary.TotalTrades),
		zap.String("net_profit_loss", summary.NetProfitLoss.String()))
	return result, nil
}

// Performance buckets the user's trades by period and reports per-bucket and
// cumulative profit. An empty period defaults to daily.
func (s *MetricsService) Performance(ctx context.Context, userID string, period domain.Period, filter domain.TradeFilter) ([]domain.PeriodPerformance, error) {
	ctx, span := trace.StartSpan(ctx, "MetricsService.Performance")
	defer span.End()

	metrics.RecordMetricsRequest("performance")
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MetricsComputeDuration.WithLabelValues("performance"))

	if period == "" {
		period = domain.PeriodDaily
	}
	if !period.Valid() {
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalid, period)
	}

	trades, err := s.fetchAll(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	performance := analytics.ComputeOverTime(trades, period)
	logger.WithContext(ctx).Debug("performance computed",
		zap.String("user_id", userID),
		zap.String("period", string(period)),
		zap.Int("buckets", len(performance)))
	return performance, nil
}

// Instruments aggregates the user's full history per instrument, ordered by
// net profit descending.
func (s *MetricsService) Instruments(ctx context.Context, userID string) ([]domain.InstrumentPerformance, error) {
	ctx, span := trace.StartSpan(ctx, "MetricsService.Instruments")
	defer span.End()

	metrics.RecordMetricsRequest("instruments")
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MetricsComputeDuration.WithLabelValues("instruments"))

	trades, err := s.fetchAll(ctx, userID, domain.TradeFilter{})
	if err != nil {
		return nil, err
	}

	performance := analytics.ComputeByInstrument(trades)
	logger.WithContext(ctx).Debug("instrument performance computed",
		zap.String("user_id", userID),
		zap.Int("instruments", len(performance)))
	return performance, nil
}

// fetchAll loads every trade matching the filter. Pagination is cleared so
// aggregates always see the complete history.
func (s *MetricsService) fetchAll(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	filter.Limit = 0
	filter.Offset = 0

	trades, err := s.trades.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return trades, nil
}

// timeframeStart converts a timeframe shorthand into an absolute start date.
// Empty and "all" mean no lower bound.
func timeframeStart(timeframe string, now time.Time) (*time.Time, error) {
	var start time.Time
	switch timeframe {
	case "", "all":
		return nil, nil
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	case "quarter":
		start = now.AddDate(0, -3, 0)
	case "year":
		start = now.AddDate(-1, 0, 0)
	default:
		return nil, fmt.Errorf("%w: unknown timeframe %q", ErrInvalid, timeframe)
	}
	return &start, nil
}
