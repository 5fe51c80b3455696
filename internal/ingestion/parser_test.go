package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"trading-journal/internal/domain"
)

const exportHeader = "id,instrumentType,instrumentName,direction,entryPrice,exitPrice,quantity,profitLoss,riskRewardRatio,entryDate,exitDate,tradeDate,notes,tags\n"

func TestParseFile(t *testing.T) {
	csvData := exportHeader +
		"abc123,forex,EURUSD,long,1.1000,1.1050,1000,50.00,2,2024-01-15T09:30:00Z,2024-01-15T16:00:00Z,2024-01-15T00:00:00Z,scalp,setup-a|breakout\n" +
		",crypto,BTCUSD,short,,,,-120.5,,2024-01-16T10:00:00Z,,,,\n" +
		"bad-row,forex\n"

	parser := NewParser(100, 2)
	result, err := parser.ParseFile(context.Background(), strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(result.Trades))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %d, want 1 for the short row", len(result.Errors))
	}

	// Worker fan-out does not preserve row order.
	byName := make(map[string]domain.Trade, len(result.Trades))
	for _, trade := range result.Trades {
		byName[trade.InstrumentName] = trade
	}

	eurusd, ok := byName["EURUSD"]
	if !ok {
		t.Fatal("EURUSD row missing")
	}
	if eurusd.ID != "abc123" {
		t.Errorf("ID = %q, want abc123", eurusd.ID)
	}
	if eurusd.Direction != domain.DirectionLong {
		t.Errorf("Direction = %q, want long", eurusd.Direction)
	}
	if eurusd.ProfitLoss.String() != "50" {
		t.Errorf("ProfitLoss = %s, want 50", eurusd.ProfitLoss)
	}
	if eurusd.RiskRewardRatio != 2 {
		t.Errorf("RiskRewardRatio = %v, want 2", eurusd.RiskRewardRatio)
	}
	if eurusd.ExitDate == nil || eurusd.TradeDate == nil {
		t.Error("expected exit and trade dates")
	}
	if len(eurusd.Tags) != 2 || eurusd.Tags[0] != "setup-a" {
		t.Errorf("Tags = %v, want [setup-a breakout]", eurusd.Tags)
	}

	btcusd, ok := byName["BTCUSD"]
	if !ok {
		t.Fatal("BTCUSD row missing")
	}
	if btcusd.ID != "" {
		t.Errorf("ID = %q, want empty for new record", btcusd.ID)
	}
	if btcusd.ProfitLoss.String() != "-120.5" {
		t.Errorf("ProfitLoss = %s, want -120.5", btcusd.ProfitLoss)
	}
	if btcusd.ExitDate != nil || btcusd.TradeDate != nil {
		t.Error("expected nil optional dates")
	}
}

func TestParseRecord(t *testing.T) {
	parser := NewParser(100, 1)

	valid := []string{
		"", "forex", "EURUSD", "long",
		"1.10", "1.12", "1000", "20", "1.5",
		"2024-01-15T09:30:00Z", "", "", "notes", "",
	}

	tests := []struct {
		name    string
		mutate  func([]string)
		wantErr bool
	}{
		{"valid", func(r []string) {}, false},
		{"empty direction allowed", func(r []string) { r[3] = "" }, false},
		{"uppercase direction normalized", func(r []string) { r[3] = "LONG" }, false},
		{"comma decimal accepted", func(r []string) { r[7] = "20,5" }, false},
		{"missing instrument name", func(r []string) { r[2] = "" }, true},
		{"unknown direction", func(r []string) { r[3] = "sideways" }, true},
		{"bad profit loss", func(r []string) { r[7] = "abc" }, true},
		{"bad risk reward", func(r []string) { r[8] = "x" }, true},
		{"bad entry date", func(r []string) { r[9] = "2024-01-15" }, true},
		{"bad exit date", func(r []string) { r[10] = "yesterday" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := make([]string, len(valid))
			copy(record, valid)
			tt.mutate(record)

			_, err := parser.parseRecord(record)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseRecord() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}

	if _, err := parser.parseRecord([]string{"too", "short"}); err == nil {
		t.Error("expected error for truncated record")
	}
}

type captureInserter struct {
	mu      sync.Mutex
	batches [][]domain.Trade
}

func (c *captureInserter) InsertMany(ctx context.Context, trades []domain.Trade) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	batch := make([]domain.Trade, len(trades))
	copy(batch, trades)
	c.batches = append(c.batches, batch)
	return int64(len(trades)), nil
}

func TestBulkLoader(t *testing.T) {
	inserter := &captureInserter{}
	loader := NewBulkLoader(inserter, 2)

	trades := []domain.Trade{
		{InstrumentType: "forex", InstrumentName: "EURUSD"},
		{ID: "keep-me", InstrumentType: "forex", InstrumentName: "GBPUSD"},
		{InstrumentType: "crypto", InstrumentName: "BTCUSD"},
		{InstrumentType: "crypto", InstrumentName: "ETHUSD"},
		{InstrumentType: "stock", InstrumentName: "AAPL"},
	}

	count, err := loader.LoadTrades(context.Background(), "user-1", trades)
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if len(inserter.batches) != 3 {
		t.Errorf("batches = %d, want 3 chunks of size 2", len(inserter.batches))
	}

	for _, batch := range inserter.batches {
		for _, trade := range batch {
			if trade.UserID != "user-1" {
				t.Errorf("UserID = %q, want user-1", trade.UserID)
			}
			if trade.ID == "" {
				t.Error("expected generated id")
			}
			if trade.CreatedAt.IsZero() || trade.UpdatedAt.IsZero() {
				t.Error("expected timestamps to be stamped")
			}
			if trade.InstrumentName == "GBPUSD" && trade.ID != "keep-me" {
				t.Errorf("incoming id replaced: %q", trade.ID)
			}
		}
	}
}

func TestBulkLoaderEmpty(t *testing.T) {
	inserter := &captureInserter{}
	loader := NewBulkLoader(inserter, 100)

	count, err := loader.LoadTrades(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("LoadTrades() error = %v", err)
	}
	if count != 0 || len(inserter.batches) != 0 {
		t.Errorf("count = %d, batches = %d, want no writes", count, len(inserter.batches))
	}
}

func TestWorkerPool(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	csvData := exportHeader +
		",forex,EURUSD,long,1.10,1.12,1000,25,2,2024-01-15T09:30:00Z,,,,\n" +
		",forex,GBPUSD,short,1.25,1.24,500,-10,,2024-01-16T11:00:00Z,,,,\n" +
		"broken\n"
	if err := os.WriteFile(path, []byte(csvData), 0644); err != nil {
		t.Fatal(err)
	}

	inserter := &captureInserter{}
	pool := NewWorkerPool(2, NewParser(100, 2), NewBulkLoader(inserter, 100))
	pool.Start(context.Background())
	defer pool.Stop()

	results := make(chan JobResult, 1)
	pool.Submit(Job{FilePath: path, UserID: "user-1", Result: results})

	result := <-results
	if result.Error != nil {
		t.Fatalf("job error = %v", result.Error)
	}
	if result.RecordsCount != 2 {
		t.Errorf("RecordsCount = %d, want 2", result.RecordsCount)
	}
	if result.SkippedRows != 1 {
		t.Errorf("SkippedRows = %d, want 1", result.SkippedRows)
	}
}

func TestWorkerPoolMissingFile(t *testing.T) {
	inserter := &captureInserter{}
	pool := NewWorkerPool(1, NewParser(100, 1), NewBulkLoader(inserter, 100))
	pool.Start(context.Background())
	defer pool.Stop()

	results := make(chan JobResult, 1)
	pool.Submit(Job{FilePath: "/does/not/exist.csv", UserID: "user-1", Result: results})

	result := <-results
	if result.Error == nil {
		t.Fatal("expected error for missing file")
	}
}

func BenchmarkParser(b *testing.B) {

	csvData := generateTestCSV(100000)

	benchmarks := []struct {
		name      string
		batchSize int
		workers   int
	}{
		{"SingleWorker", 1000, 1},
		{"FourWorkers", 1000, 4},
		{"EightWorkers", 1000, 8},
		{"LargeBatch", 10000, 4},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			parser := NewParser(bm.batchSize, bm.workers)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				reader := strings.NewReader(csvData)
				ctx := context.Background()

				result, err := parser.ParseFile(ctx, reader)
				if err != nil {
					b.Fatal(err)
				}
				if len(result.Trades) == 0 {
					b.Fatal("no trades parsed")
				}
			}
		})
	}
}

func generateTestCSV(lines int) string {
	var sb strings.Builder
	sb.WriteString(exportHeader)

	instruments := []string{"EURUSD", "GBPUSD", "BTCUSD", "AAPL"}

	for i := 0; i < lines; i++ {
		name := instruments[i%len(instruments)]
		profitLoss := fmt.Sprintf("%.2f", float64(i%200)-100)

		sb.WriteString(fmt.Sprintf(
			",forex,%s,long,1.1000,1.1050,1000,%s,2,2024-01-15T09:30:00Z,2024-01-15T16:00:00Z,,,\n",
			name, profitLoss,
		))
	}

	return sb.String()
}
