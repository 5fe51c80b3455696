package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"trading-journal/internal/config"
	"trading-journal/internal/domain"
	"trading-journal/internal/ingestion"
	"trading-journal/internal/service"
	"trading-journal/internal/storage"
	"trading-journal/internal/storage/cache"
	"trading-journal/internal/storage/mongo"
	"trading-journal/internal/storage/postgres"
)

func main() {
	godotenv.Load()

	var rootCmd = &cobra.Command{
		Use:   "journal",
		Short: "Trading Journal CLI",
		Long: `CLI for the trading journal backend.
Inspect a user's trades and performance metrics straight from storage.`,
	}

	rootCmd.PersistentFlags().StringP("user", "u", "", "User id the command operates on")

	// summary command
	var summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Show the account summary for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			return showSummary(userID, timeframe)
		},
	}

	summaryCmd.Flags().StringP("timeframe", "t", "all", "Timeframe: week, month, quarter, year or all")

	// performance command
	var performanceCmd = &cobra.Command{
		Use:   "performance",
		Short: "Show profit over time, bucketed by period",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			period, _ := cmd.Flags().GetString("period")
			return showPerformance(userID, period)
		},
	}

	performanceCmd.Flags().StringP("period", "p", "daily", "Bucket size: daily, weekly or monthly")

	// instruments command
	var instrumentsCmd = &cobra.Command{
		Use:   "instruments",
		Short: "Show per-instrument performance",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			return showInstruments(userID)
		},
	}

	// export command
	var exportCmd = &cobra.Command{
		Use:   "export [file]",
		Short: "Export a user's trades to CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			format, _ := cmd.Flags().GetString("format")
			return exportTrades(userID, args[0], format)
		},
	}

	exportCmd.Flags().StringP("format", "f", "csv", "Output format: csv or json")

	// import command
	var importCmd = &cobra.Command{
		Use:   "import [files...]",
		Short: "Import trades from CSV files",
		Long: `Loads trade history from CSV files into the journal.
Expects the column layout written by 'journal export' (header row included).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			return importFiles(userID, args)
		},
	}

	// health command
	var healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check connectivity to the configured backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkHealth()
		},
	}

	rootCmd.AddCommand(summaryCmd, performanceCmd, instrumentsCmd, exportCmd, importCmd, healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

type stores struct {
	trades   storage.TradeStore
	settings storage.SettingsStore
	close    func()
}

// openStores connects the configured storage driver.
func openStores(cfg *config.Config) (*stores, error) {
	switch cfg.StorageDriver {
	case "postgres":
		db, err := postgres.NewDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return &stores{
			trades:   postgres.NewTradeStore(db),
			settings: postgres.NewSettingsStore(db),
			close:    db.Close,
		}, nil

	case "mongo":
		store, err := mongo.NewStore(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		return &stores{
			trades:   store.Trades(),
			settings: store.Settings(),
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				store.Close(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id is required (use --user)")
	}
	return nil
}

func showSummary(userID, timeframe string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	metricsService := service.NewMetricsService(st.trades, service.NewSettingsService(st.settings))

	fmt.Printf("🔍 Computing summary for %s (timeframe: %s)...\n", userID, timeframe)

	summary, err := metricsService.Summary(ctx, userID, domain.TradeFilter{}, timeframe)
	if err != nil {
		return fmt.Errorf("failed to compute summary: %w", err)
	}

	fmt.Printf("\n📊 Account summary for %s:\n", userID)
	fmt.Printf("├─ Trades: %d (%d wins / %d losses / %d break-even)\n",
		summary.TotalTrades, summary.WinningTrades, summary.LosingTrades, summary.BreakEvenTrades)
	fmt.Printf("├─ Win rate: %.2f%%\n", summary.WinRate)
	fmt.Printf("├─ Total profit: %s\n", summary.TotalProfit.StringFixed(2))
	fmt.Printf("├─ Total loss: %s\n", summary.TotalLoss.StringFixed(2))
	fmt.Printf("├─ Net P&L: %s\n", summary.NetProfitLoss.StringFixed(2))
	fmt.Printf("├─ Profit factor: %.2f\n", summary.ProfitFactor)
	fmt.Printf("├─ Average win / loss: %s / %s\n",
		summary.AverageWin.StringFixed(2), summary.AverageLoss.StringFixed(2))
	fmt.Printf("├─ Largest win / loss: %s / %s\n",
		summary.LargestWin.StringFixed(2), summary.LargestLoss.StringFixed(2))
	fmt.Printf("├─ Average RRR: %.2f\n", summary.AverageRRR)
	fmt.Printf("├─ Average holding time: %.1f h\n", summary.AverageHoldingTime)
	fmt.Printf("└─ Balance: %s -> %s %s\n",
		summary.InitialBalance.StringFixed(2),
		summary.CurrentBalance.StringFixed(2),
		summary.BaseCurrency)

	return nil
}

func showPerformance(userID, period string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	metricsService := service.NewMetricsService(st.trades, service.NewSettingsService(st.settings))

	performance, err := metricsService.Performance(ctx, userID, domain.Period(period), domain.TradeFilter{})
	if err != nil {
		return fmt.Errorf("failed to compute performance: %w", err)
	}

	if len(performance) == 0 {
		fmt.Println("❌ No dated trades found")
		return nil
	}

	fmt.Printf("\n📈 Performance for %s (%s buckets):\n\n", userID, period)
	fmt.Printf("%-12s %8s %10s %14s %14s\n", "PERIOD", "TRADES", "WIN RATE", "P&L", "CUMULATIVE")

	for _, p := range performance {
		fmt.Printf("%-12s %8d %9.2f%% %14s %14s\n",
			p.Period, p.Trades, p.WinRate,
			p.ProfitLoss.StringFixed(2), p.CumulativeProfitLoss.StringFixed(2))
	}

	return nil
}

func showInstruments(userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	metricsService := service.NewMetricsService(st.trades, service.NewSettingsService(st.settings))

	performance, err := metricsService.Instruments(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to compute instrument performance: %w", err)
	}

	if len(performance) == 0 {
		fmt.Println("❌ No trades found")
		return nil
	}

	fmt.Printf("\n🎯 Instrument performance for %s:\n\n", userID)
	fmt.Printf("%-10s %-12s %8s %10s %14s %8s %8s\n",
		"TYPE", "INSTRUMENT", "TRADES", "WIN RATE", "P&L", "PF", "RRR")

	for _, p := range performance {
		fmt.Printf("%-10s %-12s %8d %9.2f%% %14s %8.2f %8.2f\n",
			p.InstrumentType, p.InstrumentName, p.Trades, p.WinRate,
			p.ProfitLoss.StringFixed(2), p.ProfitFactor, p.AverageRRR)
	}

	return nil
}

func exportTrades(userID, path, format string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	trades, err := st.trades.List(ctx, userID, domain.TradeFilter{})
	if err != nil {
		return fmt.Errorf("failed to load trades: %w", err)
	}

	if len(trades) == 0 {
		fmt.Println("❌ No trades to export")
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	switch format {
	case "json":
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(trades); err != nil {
			return fmt.Errorf("failed to write JSON: %w", err)
		}

	case "csv":
		if err := writeTradesCSV(file, trades); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}

	default:
		return fmt.Errorf("unknown format %q (use csv or json)", format)
	}

	fmt.Printf("✅ Exported %d trades to %s\n", len(trades), path)
	return nil
}

var csvHeader = []string{
	"id", "instrumentType", "instrumentName", "direction",
	"entryPrice", "exitPrice", "quantity", "profitLoss", "riskRewardRatio",
	"entryDate", "exitDate", "tradeDate", "notes", "tags",
}

func writeTradesCSV(file *os.File, trades []domain.Trade) error {
	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeader); err != nil {
		return err
	}

	for _, t := range trades {
		record := []string{
			t.ID,
			t.InstrumentType,
			t.InstrumentName,
			t.Direction,
			t.EntryPrice.String(),
			t.ExitPrice.String(),
			t.Quantity.String(),
			t.ProfitLoss.String(),
			strconv.FormatFloat(t.RiskRewardRatio, 'f', -1, 64),
			t.EntryDate.Format(time.RFC3339),
			formatOptionalDate(t.ExitDate),
			formatOptionalDate(t.TradeDate),
			t.Notes,
			strings.Join(t.Tags, "|"),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func importFiles(userID string, files []string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	ctx := context.Background()
	cfg := config.Load()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	parser := ingestion.NewParser(cfg.ImportBatchSize, cfg.ImportWorkers)
	loader := ingestion.NewBulkLoader(st.trades, cfg.ImportBatchSize)

	workerPool := ingestion.NewWorkerPool(cfg.ImportWorkers, parser, loader)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	results := make(chan ingestion.JobResult, len(files))

	fmt.Printf("📥 Importing %d file(s) for %s...\n\n", len(files), userID)

	for _, file := range files {
		workerPool.Submit(ingestion.Job{
			FilePath: file,
			UserID:   userID,
			Result:   results,
		})
	}

	var totalRecords int64
	var totalSkipped int
	for i := 0; i < len(files); i++ {
		result := <-results
		if result.Error != nil {
			fmt.Printf("❌ Error in %s: %v\n", result.FilePath, result.Error)
			continue
		}

		fmt.Printf("✅ Imported %d trades from %s", result.RecordsCount, result.FilePath)
		if result.SkippedRows > 0 {
			fmt.Printf(" (%d rows skipped)", result.SkippedRows)
		}
		fmt.Println()

		totalRecords += result.RecordsCount
		totalSkipped += result.SkippedRows
	}

	fmt.Printf("\n📊 Total: %d trades imported", totalRecords)
	if totalSkipped > 0 {
		fmt.Printf(", %d rows skipped", totalSkipped)
	}
	fmt.Println()

	return nil
}

// checkHealth pings the configured backends.
func checkHealth() error {
	ctx := context.Background()
	cfg := config.Load()

	fmt.Println("🏥 Checking system health...")
	fmt.Println()

	fmt.Printf("Storage (%s): ", cfg.StorageDriver)
	st, err := openStores(cfg)
	if err != nil {
		fmt.Printf("❌ Error: %v\n", err)
	} else {
		defer st.close()
		fmt.Println("✅ OK")
	}

	if cfg.AuthMode == "session" {
		fmt.Print("Redis: ")
		sessions, err := cache.New(cfg)
		if err != nil {
			fmt.Printf("❌ Error: %v\n", err)
		} else {
			defer sessions.Close()
			if err := sessions.HealthCheck(ctx); err != nil {
				fmt.Printf("❌ Error: %v\n", err)
			} else {
				fmt.Println("✅ OK")
			}
		}
	}

	fmt.Println("\n✅ Check complete")
	return nil
}
