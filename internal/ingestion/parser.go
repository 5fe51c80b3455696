// Package ingestion imports trade history from CSV files. The expected
// column layout is the one the export command writes, so exported journals
// round-trip back in.
package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"trading-journal/internal/domain"
)

type Parser struct {
	batchSize int
	workers   int
}

func NewParser(batchSize, workers int) *Parser {
	return &Parser{
		batchSize: batchSize,
		workers:   workers,
	}
}

type ParseResult struct {
	Trades []domain.Trade
	Errors []error
}

func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) (*ParseResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	jobs := make(chan []string, p.workers*2)
	results := make(chan *ParseResult, p.workers)

	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)

		// Header row.
		if _, err := csvReader.Read(); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
				record, err := csvReader.Read()
				if err == io.EOF {
					return
				}
				if err != nil {
					continue
				}
				jobs <- record
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	finalResult := &ParseResult{
		Trades: make([]domain.Trade, 0, p.batchSize),
		Errors: make([]error, 0),
	}

	for result := range results {
		finalResult.Trades = append(finalResult.Trades, result.Trades...)
		finalResult.Errors = append(finalResult.Errors, result.Errors...)
	}

	return finalResult, nil
}

func (p *Parser) worker(ctx context.Context, jobs <-chan []string,
	results chan<- *ParseResult, wg *sync.WaitGroup) {

	defer wg.Done()

	batch := &ParseResult{
		Trades: make([]domain.Trade, 0, p.batchSize),
	}

	for {
		select {
		case <-ctx.Done():
			if len(batch.Trades) > 0 {
				results <- batch
			}
			return

		case record, ok := <-jobs:
			if !ok {
				if len(batch.Trades) > 0 || len(batch.Errors) > 0 {
					results <- batch
				}
				return
			}

			trade, err := p.parseRecord(record)
			if err != nil {
				batch.Errors = append(batch.Errors, err)
				continue
			}

			batch.Trades = append(batch.Trades, *trade)

			if len(batch.Trades) >= p.batchSize {
				results <- batch
				batch = &ParseResult{
					Trades: make([]domain.Trade, 0, p.batchSize),
				}
			}
		}
	}
}

// Column layout: id, instrumentType, instrumentName, direction, entryPrice,
// exitPrice, quantity, profitLoss, riskRewardRatio, entryDate, exitDate,
// tradeDate, notes, tags. Empty optional columns are allowed; the id may be
// blank for new records.
func (p *Parser) parseRecord(record []string) (*domain.Trade, error) {
	if len(record) < 14 {
		return nil, fmt.Errorf("invalid record, expected 14 columns: %v", record)
	}

	instrumentType := strings.TrimSpace(record[1])
	instrumentName := strings.TrimSpace(record[2])
	if instrumentType == "" || instrumentName == "" {
		return nil, fmt.Errorf("invalid record, instrument type and name are required: %v", record)
	}

	direction := strings.ToLower(strings.TrimSpace(record[3]))
	switch direction {
	case "", domain.DirectionLong, domain.DirectionShort:
	default:
		return nil, fmt.Errorf("invalid direction %q", record[3])
	}

	entryPrice, err := parseDecimal("entryPrice", record[4])
	if err != nil {
		return nil, err
	}
	exitPrice, err := parseDecimal("exitPrice", record[5])
	if err != nil {
		return nil, err
	}
	quantity, err := parseDecimal("quantity", record[6])
	if err != nil {
		return nil, err
	}
	profitLoss, err := parseDecimal("profitLoss", record[7])
	if err != nil {
		return nil, err
	}

	var riskReward float64
	if record[8] != "" {
		riskReward, err = strconv.ParseFloat(record[8], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid riskRewardRatio %q: %w", record[8], err)
		}
	}

	entryDate, err := time.Parse(time.RFC3339, record[9])
	if err != nil {
		return nil, fmt.Errorf("invalid entryDate %q: %w", record[9], err)
	}

	exitDate, err := parseOptionalDate("exitDate", record[10])
	if err != nil {
		return nil, err
	}
	tradeDate, err := parseOptionalDate("tradeDate", record[11])
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, tag := range strings.Split(record[13], "|") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return &domain.Trade{
		ID:              strings.TrimSpace(record[0]),
		InstrumentType:  instrumentType,
		InstrumentName:  instrumentName,
		Direction:       direction,
		EntryPrice:      entryPrice,
		ExitPrice:       exitPrice,
		Quantity:        quantity,
		ProfitLoss:      profitLoss,
		RiskRewardRatio: riskReward,
		EntryDate:       entryDate,
		ExitDate:        exitDate,
		TradeDate:       tradeDate,
		Notes:           record[12],
		Tags:            tags,
	}, nil
}

func parseDecimal(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Decimal{}, nil
	}
	v, err := decimal.NewFromString(strings.Replace(value, ",", ".", -1))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return v, nil
}

func parseOptionalDate(field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return &parsed, nil
}
