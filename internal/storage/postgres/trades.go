package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trading-journal/internal/domain"
	"trading-journal/internal/storage"
	"trading-journal/pkg/metrics"
)

type TradeStore struct {
	db *DB
}

func NewTradeStore(db *DB) *TradeStore {
	return &TradeStore{db: db}
}

const tradeColumns = `
		id,
		user_id,
		instrument_type,
		instrument_name,
		direction,
		entry_price,
		exit_price,
		quantity,
		profit_loss,
		risk_reward_ratio,
		entry_date,
		exit_date,
		trade_date,
		notes,
		tags,
		created_at,
		updated_at`

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var t domain.Trade
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.InstrumentType,
		&t.InstrumentName,
		&t.Direction,
		&t.EntryPrice,
		&t.ExitPrice,
		&t.Quantity,
		&t.ProfitLoss,
		&t.RiskRewardRatio,
		&t.EntryDate,
		&t.ExitDate,
		&t.TradeDate,
		&t.Notes,
		&t.Tags,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TradeStore) Insert(ctx context.Context, trade *domain.Trade) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_insert"))

	query := `
        INSERT INTO trades (
            id, user_id, instrument_type, instrument_name, direction,
            entry_price, exit_price, quantity, profit_loss, risk_reward_ratio,
            entry_date, exit_date, trade_date, notes, tags, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
        )
    `

	_, err := s.db.pool.Exec(ctx, query,
		trade.ID,
		trade.UserID,
		trade.InstrumentType,
		trade.InstrumentName,
		trade.Direction,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.Quantity,
		trade.ProfitLoss,
		trade.RiskRewardRatio,
		trade.EntryDate,
		trade.ExitDate,
		trade.TradeDate,
		trade.Notes,
		trade.Tags,
		trade.CreatedAt,
		trade.UpdatedAt,
	)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_insert", "error").Inc()
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_insert", "success").Inc()
	return nil
}

// InsertMany streams the batch with COPY inside one transaction: either the
// whole batch lands or none of it does.
func (s *TradeStore) InsertMany(ctx context.Context, trades []domain.Trade) (int64, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_bulk_insert"))

	columns := []string{
		"id", "user_id", "instrument_type", "instrument_name", "direction",
		"entry_price", "exit_price", "quantity", "profit_loss", "risk_reward_ratio",
		"entry_date", "exit_date", "trade_date", "notes", "tags",
		"created_at", "updated_at",
	}

	tx, err := s.db.pool.Begin(ctx)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "error").Inc()
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	copyCount, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"trades"},
		columns,
		&tradeSource{trades: trades},
	)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "error").Inc()
		return 0, fmt.Errorf("failed to copy trades: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "error").Inc()
		return 0, fmt.Errorf("failed to commit trades: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_bulk_insert", "success").Inc()
	return copyCount, nil
}

type tradeSource struct {
	trades []domain.Trade
	index  int
}

func (ts *tradeSource) Next() bool {
	ts.index++
	return ts.index <= len(ts.trades)
}

func (ts *tradeSource) Values() ([]interface{}, error) {
	t := ts.trades[ts.index-1]
	return []interface{}{
		t.ID,
		t.UserID,
		t.InstrumentType,
		t.InstrumentName,
		t.Direction,
		t.EntryPrice,
		t.ExitPrice,
		t.Quantity,
		t.ProfitLoss,
		t.RiskRewardRatio,
		t.EntryDate,
		t.ExitDate,
		t.TradeDate,
		t.Notes,
		t.Tags,
		t.CreatedAt,
		t.UpdatedAt,
	}, nil
}

func (ts *tradeSource) Err() error {
	return nil
}

func (s *TradeStore) Get(ctx context.Context, userID, id string) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = $1 AND user_id = $2`

	trade, err := scanTrade(s.db.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trade: %w", err)
	}
	return trade, nil
}

func (s *TradeStore) List(ctx context.Context, userID string, filter domain.TradeFilter) ([]domain.Trade, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_list"))

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE user_id = $1`
	args := []interface{}{userID}
	argCount := 1

	if filter.InstrumentType != "" {
		argCount++
		query += fmt.Sprintf(" AND instrument_type = $%d", argCount)
		args = append(args, filter.InstrumentType)
	}
	if filter.InstrumentName != "" {
		argCount++
		query += fmt.Sprintf(" AND instrument_name = $%d", argCount)
		args = append(args, filter.InstrumentName)
	}
	if filter.StartDate != nil {
		argCount++
		query += fmt.Sprintf(" AND COALESCE(trade_date, entry_date) >= $%d", argCount)
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		argCount++
		query += fmt.Sprintf(" AND COALESCE(trade_date, entry_date) <= $%d", argCount)
		args = append(args, *filter.EndDate)
	}

	query += " ORDER BY entry_date DESC"

	if filter.Limit > 0 {
		argCount++
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		argCount++
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.pool.Query(ctx, query, args...)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_list", "error").Inc()
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	trades := make([]domain.Trade, 0, 64)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}

	metrics.DatabaseQueries.WithLabelValues("trade_list", "success").Inc()
	return trades, nil
}

func (s *TradeStore) Update(ctx context.Context, trade *domain.Trade) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.DatabaseQueryDuration.WithLabelValues("trade_update"))

	query := `
        UPDATE trades SET
            instrument_type = $3,
            instrument_name = $4,
            direction = $5,
            entry_price = $6,
            exit_price = $7,
            quantity = $8,
            profit_loss = $9,
            risk_reward_ratio = $10,
            entry_date = $11,
            exit_date = $12,
            trade_date = $13,
            notes = $14,
            tags = $15,
            updated_at = $16
        WHERE id = $1 AND user_id = $2
    `

	tag, err := s.db.pool.Exec(ctx, query,
		trade.ID,
		trade.UserID,
		trade.InstrumentType,
		trade.InstrumentName,
		trade.Direction,
		trade.EntryPrice,
		trade.ExitPrice,
		trade.Quantity,
		trade.ProfitLoss,
		trade.RiskRewardRatio,
		trade.EntryDate,
		trade.ExitDate,
		trade.TradeDate,
		trade.Notes,
		trade.Tags,
		trade.UpdatedAt,
	)
	if err != nil {
		metrics.DatabaseQueries.WithLabelValues("trade_update", "error").Inc()
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	metrics.DatabaseQueries.WithLabelValues("trade_update", "success").Inc()
	return nil
}

func (s *TradeStore) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.pool.Exec(ctx,
		`DELETE FROM trades WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *TradeStore) Count(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM trades WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return n, nil
}
