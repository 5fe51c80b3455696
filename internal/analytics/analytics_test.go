package analytics

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"trading-journal/internal/domain"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func plTrade(pl string) domain.Trade {
	return domain.Trade{ProfitLoss: money(pl)}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datedTrade(pl, entry string) domain.Trade {
	return domain.Trade{ProfitLoss: money(pl), EntryDate: day(entry)}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		name   string
		trades []domain.Trade
		want   domain.Summary
	}{
		{
			name:   "empty input -> all zero, no error",
			trades: nil,
			want:   domain.Summary{},
		},
		{
			name: "one win one loss one breakeven",
			trades: []domain.Trade{
				plTrade("100"),
				plTrade("-50"),
				plTrade("0"),
			},
			want: domain.Summary{
				TotalTrades:     3,
				WinningTrades:   1,
				LosingTrades:    1,
				BreakEvenTrades: 1,
				WinRate:         33.33,
				TotalProfit:     money("100"),
				TotalLoss:       money("50"),
				NetProfitLoss:   money("50"),
				ProfitFactor:    2,
				AverageWin:      money("100"),
				AverageLoss:     money("50"),
				LargestWin:      money("100"),
				LargestLoss:     money("50"),
			},
		},
		{
			name: "rrr averaged only over trades carrying it",
			trades: []domain.Trade{
				{ProfitLoss: money("100"), RiskRewardRatio: 2},
				{ProfitLoss: money("50")},
			},
			want: domain.Summary{
				TotalTrades:   2,
				WinningTrades: 2,
				WinRate:       100,
				TotalProfit:   money("150"),
				NetProfitLoss: money("150"),
				ProfitFactor:  InfiniteProfitFactor,
				AverageWin:    money("75"),
				LargestWin:    money("100"),
				AverageRRR:    2,
			},
		},
		{
			name: "negative rrr excluded from the average",
			trades: []domain.Trade{
				{ProfitLoss: money("10"), RiskRewardRatio: 3},
				{ProfitLoss: money("-10"), RiskRewardRatio: -1},
				{ProfitLoss: money("10"), RiskRewardRatio: 1},
			},
			want: domain.Summary{
				TotalTrades:   3,
				WinningTrades: 2,
				LosingTrades:  1,
				WinRate:       66.67,
				TotalProfit:   money("20"),
				TotalLoss:     money("10"),
				NetProfitLoss: money("10"),
				ProfitFactor:  2,
				AverageWin:    money("10"),
				AverageLoss:   money("10"),
				LargestWin:    money("10"),
				LargestLoss:   money("10"),
				AverageRRR:    2,
			},
		},
		{
			name: "averages and extremes across several trades",
			trades: []domain.Trade{
				plTrade("100"),
				plTrade("50"),
				plTrade("-30"),
				plTrade("-10"),
				plTrade("0"),
			},
			want: domain.Summary{
				TotalTrades:     5,
				WinningTrades:   2,
				LosingTrades:    2,
				BreakEvenTrades: 1,
				WinRate:         40,
				TotalProfit:     money("150"),
				TotalLoss:       money("40"),
				NetProfitLoss:   money("110"),
				ProfitFactor:    3.75,
				AverageWin:      money("75"),
				AverageLoss:     money("20"),
				LargestWin:      money("100"),
				LargestLoss:     money("30"),
			},
		},
		{
			name: "accumulates full precision, rounds once at the end",
			trades: []domain.Trade{
				plTrade("10.005"),
				plTrade("10.005"),
			},
			want: domain.Summary{
				TotalTrades:   2,
				WinningTrades: 2,
				WinRate:       100,
				TotalProfit:   money("20.01"),
				NetProfitLoss: money("20.01"),
				ProfitFactor:  InfiniteProfitFactor,
				AverageWin:    money("10.01"),
				LargestWin:    money("10.01"),
			},
		},
		{
			name: "all losers -> zero profit factor",
			trades: []domain.Trade{
				plTrade("-25"),
				plTrade("-75"),
			},
			want: domain.Summary{
				TotalTrades:   2,
				LosingTrades:  2,
				TotalLoss:     money("100"),
				NetProfitLoss: money("-100"),
				AverageLoss:   money("50"),
				LargestLoss:   money("75"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeSummary(tt.trades)

			if got.TotalTrades != tt.want.TotalTrades ||
				got.WinningTrades != tt.want.WinningTrades ||
				got.LosingTrades != tt.want.LosingTrades ||
				got.BreakEvenTrades != tt.want.BreakEvenTrades {
				t.Fatalf("counts = %d/%d/%d/%d, want %d/%d/%d/%d",
					got.TotalTrades, got.WinningTrades, got.LosingTrades, got.BreakEvenTrades,
					tt.want.TotalTrades, tt.want.WinningTrades, tt.want.LosingTrades, tt.want.BreakEvenTrades)
			}
			if !almostEqual(got.WinRate, tt.want.WinRate) {
				t.Fatalf("winRate = %v, want %v", got.WinRate, tt.want.WinRate)
			}
			if !got.TotalProfit.Equal(tt.want.TotalProfit) {
				t.Fatalf("totalProfit = %s, want %s", got.TotalProfit, tt.want.TotalProfit)
			}
			if !got.TotalLoss.Equal(tt.want.TotalLoss) {
				t.Fatalf("totalLoss = %s, want %s", got.TotalLoss, tt.want.TotalLoss)
			}
			if !got.NetProfitLoss.Equal(tt.want.NetProfitLoss) {
				t.Fatalf("netProfitLoss = %s, want %s", got.NetProfitLoss, tt.want.NetProfitLoss)
			}
			if !almostEqual(got.ProfitFactor, tt.want.ProfitFactor) {
				t.Fatalf("profitFactor = %v, want %v", got.ProfitFactor, tt.want.ProfitFactor)
			}
			if !got.AverageWin.Equal(tt.want.AverageWin) {
				t.Fatalf("averageWin = %s, want %s", got.AverageWin, tt.want.AverageWin)
			}
			if !got.AverageLoss.Equal(tt.want.AverageLoss) {
				t.Fatalf("averageLoss = %s, want %s", got.AverageLoss, tt.want.AverageLoss)
			}
			if !got.LargestWin.Equal(tt.want.LargestWin) {
				t.Fatalf("largestWin = %s, want %s", got.LargestWin, tt.want.LargestWin)
			}
			if !got.LargestLoss.Equal(tt.want.LargestLoss) {
				t.Fatalf("largestLoss = %s, want %s", got.LargestLoss, tt.want.LargestLoss)
			}
			if !almostEqual(got.AverageRRR, tt.want.AverageRRR) {
				t.Fatalf("averageRRR = %v, want %v", got.AverageRRR, tt.want.AverageRRR)
			}
		})
	}
}

func TestComputeSummaryHoldingTime(t *testing.T) {
	entry1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	exit1 := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC) // 6.5h
	entry2 := time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	exit2 := time.Date(2024, 1, 11, 10, 0, 0, 0, time.UTC) // 24h

	trades := []domain.Trade{
		{ProfitLoss: money("10"), EntryDate: entry1, ExitDate: &exit1},
		{ProfitLoss: money("-5"), EntryDate: entry2, ExitDate: &exit2},
		{ProfitLoss: money("3"), EntryDate: entry1}, // still open, excluded
	}

	got := ComputeSummary(trades)
	if !almostEqual(got.AverageHoldingTime, 15.25) {
		t.Fatalf("averageHoldingTime = %v, want 15.25", got.AverageHoldingTime)
	}
}

func TestComputeSummaryInvariants(t *testing.T) {
	sets := [][]domain.Trade{
		nil,
		{plTrade("0")},
		{plTrade("100"), plTrade("-50"), plTrade("0")},
		{plTrade("-1"), plTrade("-2"), plTrade("-3")},
		{plTrade("0.01"), plTrade("-0.01"), plTrade("12345.67"), plTrade("-9876.54")},
		{plTrade("1"), plTrade("1"), plTrade("1"), plTrade("1"), plTrade("1")},
	}

	for i, trades := range sets {
		got := ComputeSummary(trades)

		if got.WinningTrades+got.LosingTrades+got.BreakEvenTrades != got.TotalTrades {
			t.Errorf("set %d: counts %d+%d+%d != total %d",
				i, got.WinningTrades, got.LosingTrades, got.BreakEvenTrades, got.TotalTrades)
		}
		if got.WinRate < 0 || got.WinRate > 100 {
			t.Errorf("set %d: winRate %v out of [0,100]", i, got.WinRate)
		}
		if !got.NetProfitLoss.Equal(got.TotalProfit.Sub(got.TotalLoss)) {
			t.Errorf("set %d: net %s != profit %s - loss %s",
				i, got.NetProfitLoss, got.TotalProfit, got.TotalLoss)
		}
	}
}

func TestComputeOverTimeDaily(t *testing.T) {
	trades := []domain.Trade{
		datedTrade("100", "2024-01-16"),
		datedTrade("-40", "2024-01-15"),
		datedTrade("60", "2024-01-15"),
		datedTrade("-10", "2024-01-18"),
	}

	got := ComputeOverTime(trades, domain.PeriodDaily)

	if len(got) != 3 {
		t.Fatalf("got %d periods, want 3", len(got))
	}

	wantKeys := []string{"2024-01-15", "2024-01-16", "2024-01-18"}
	for i, k := range wantKeys {
		if got[i].Period != k {
			t.Fatalf("period[%d] = %q, want %q", i, got[i].Period, k)
		}
	}

	if !got[0].ProfitLoss.Equal(money("20")) {
		t.Fatalf("day 1 profitLoss = %s, want 20", got[0].ProfitLoss)
	}
	if got[0].Trades != 2 || !almostEqual(got[0].WinRate, 50) {
		t.Fatalf("day 1 trades/winRate = %d/%v, want 2/50", got[0].Trades, got[0].WinRate)
	}

	wantCumulative := []string{"20", "120", "110"}
	for i, w := range wantCumulative {
		if !got[i].CumulativeProfitLoss.Equal(money(w)) {
			t.Fatalf("cumulative[%d] = %s, want %s", i, got[i].CumulativeProfitLoss, w)
		}
	}

	// Final running total matches the unbucketed net.
	full := ComputeSummary(trades)
	if !got[len(got)-1].CumulativeProfitLoss.Equal(full.NetProfitLoss) {
		t.Fatalf("last cumulative %s != full net %s",
			got[len(got)-1].CumulativeProfitLoss, full.NetProfitLoss)
	}
}

func TestComputeOverTimeWeekly(t *testing.T) {
	// 2024-01-14 and 2024-01-21 are Sundays.
	trades := []domain.Trade{
		datedTrade("10", "2024-01-17"), // Wednesday -> week of the 14th
		datedTrade("20", "2024-01-20"), // Saturday  -> week of the 14th
		datedTrade("-5", "2024-01-21"), // Sunday    -> its own week
	}

	got := ComputeOverTime(trades, domain.PeriodWeekly)

	if len(got) != 2 {
		t.Fatalf("got %d periods, want 2", len(got))
	}
	if got[0].Period != "2024-01-14" || got[1].Period != "2024-01-21" {
		t.Fatalf("periods = %q, %q, want 2024-01-14, 2024-01-21", got[0].Period, got[1].Period)
	}
	if got[0].Trades != 2 || !got[0].ProfitLoss.Equal(money("30")) {
		t.Fatalf("week 1 = %d trades / %s, want 2 / 30", got[0].Trades, got[0].ProfitLoss)
	}
}

func TestComputeOverTimeMonthly(t *testing.T) {
	trades := []domain.Trade{
		datedTrade("100", "2024-02-10"),
		datedTrade("-30", "2024-01-25"),
		datedTrade("50", "2024-01-05"),
	}

	got := ComputeOverTime(trades, domain.PeriodMonthly)

	if len(got) != 2 {
		t.Fatalf("got %d periods, want 2", len(got))
	}
	if got[0].Period != "2024-01" || got[1].Period != "2024-02" {
		t.Fatalf("periods = %q, %q, want 2024-01, 2024-02", got[0].Period, got[1].Period)
	}
	if !got[1].CumulativeProfitLoss.Equal(money("120")) {
		t.Fatalf("final cumulative = %s, want 120", got[1].CumulativeProfitLoss)
	}
}

func TestComputeOverTimeDateHandling(t *testing.T) {
	jan20 := day("2024-01-20")
	trades := []domain.Trade{
		// tradeDate wins over entryDate for bucketing.
		{ProfitLoss: money("10"), EntryDate: day("2024-01-10"), TradeDate: &jan20},
		// No dates at all: excluded from the output entirely.
		{ProfitLoss: money("999")},
	}

	got := ComputeOverTime(trades, domain.PeriodDaily)

	if len(got) != 1 {
		t.Fatalf("got %d periods, want 1", len(got))
	}
	if got[0].Period != "2024-01-20" {
		t.Fatalf("period = %q, want 2024-01-20", got[0].Period)
	}
	if got[0].Trades != 1 {
		t.Fatalf("trades = %d, want 1", got[0].Trades)
	}
}

func TestComputeOverTimeOrdering(t *testing.T) {
	var trades []domain.Trade
	for i := 30; i >= 1; i-- {
		trades = append(trades, datedTrade("1", fmt.Sprintf("2024-03-%02d", i)))
	}

	got := ComputeOverTime(trades, domain.PeriodDaily)

	if len(got) != 30 {
		t.Fatalf("got %d periods, want 30", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Period >= got[i].Period {
			t.Fatalf("periods not strictly ascending: %q before %q", got[i-1].Period, got[i].Period)
		}
	}
}

func TestComputeByInstrument(t *testing.T) {
	trades := []domain.Trade{
		{InstrumentType: "forex", InstrumentName: "EURUSD", ProfitLoss: money("100"), RiskRewardRatio: 2},
		{InstrumentType: "forex", InstrumentName: "EURUSD", ProfitLoss: money("-40")},
		{InstrumentType: "crypto", InstrumentName: "BTCUSD", ProfitLoss: money("250")},
		{InstrumentType: "stocks", InstrumentName: "AAPL", ProfitLoss: money("-80")},
	}

	got := ComputeByInstrument(trades)

	if len(got) != 3 {
		t.Fatalf("got %d instruments, want 3", len(got))
	}

	wantOrder := []string{"BTCUSD", "EURUSD", "AAPL"}
	for i, name := range wantOrder {
		if got[i].InstrumentName != name {
			t.Fatalf("instrument[%d] = %q, want %q", i, got[i].InstrumentName, name)
		}
	}

	eurusd := got[1]
	if eurusd.InstrumentType != "forex" || eurusd.Trades != 2 {
		t.Fatalf("eurusd row = %+v", eurusd)
	}
	if !eurusd.ProfitLoss.Equal(money("60")) {
		t.Fatalf("eurusd profitLoss = %s, want 60", eurusd.ProfitLoss)
	}
	if !almostEqual(eurusd.WinRate, 50) {
		t.Fatalf("eurusd winRate = %v, want 50", eurusd.WinRate)
	}
	if !almostEqual(eurusd.ProfitFactor, 2.5) {
		t.Fatalf("eurusd profitFactor = %v, want 2.5", eurusd.ProfitFactor)
	}
	if !almostEqual(eurusd.AverageRRR, 2) {
		t.Fatalf("eurusd averageRRR = %v, want 2", eurusd.AverageRRR)
	}

	for i := 1; i < len(got); i++ {
		if got[i].ProfitLoss.GreaterThan(got[i-1].ProfitLoss) {
			t.Fatalf("rows not sorted by profitLoss descending at %d", i)
		}
	}
}

func TestComputeByInstrumentTies(t *testing.T) {
	// Equal P&L keeps first-appearance order.
	trades := []domain.Trade{
		{InstrumentType: "forex", InstrumentName: "GBPUSD", ProfitLoss: money("50")},
		{InstrumentType: "forex", InstrumentName: "EURUSD", ProfitLoss: money("50")},
		{InstrumentType: "crypto", InstrumentName: "ETHUSD", ProfitLoss: money("50")},
	}

	got := ComputeByInstrument(trades)

	wantOrder := []string{"GBPUSD", "EURUSD", "ETHUSD"}
	for i, name := range wantOrder {
		if got[i].InstrumentName != name {
			t.Fatalf("instrument[%d] = %q, want %q", i, got[i].InstrumentName, name)
		}
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		date   string
		period domain.Period
		want   string
	}{
		{"2024-01-17", domain.PeriodDaily, "2024-01-17"},
		{"2024-01-17", domain.PeriodWeekly, "2024-01-14"},
		{"2024-01-14", domain.PeriodWeekly, "2024-01-14"},
		{"2024-01-20", domain.PeriodWeekly, "2024-01-14"},
		{"2024-01-17", domain.PeriodMonthly, "2024-01"},
		{"2024-12-31", domain.PeriodMonthly, "2024-12"},
	}

	for _, tt := range tests {
		if got := PeriodKey(day(tt.date), tt.period); got != tt.want {
			t.Errorf("PeriodKey(%s, %s) = %q, want %q", tt.date, tt.period, got, tt.want)
		}
	}
}

func generateTrades(n int) []domain.Trade {
	instruments := []string{"EURUSD", "GBPUSD", "BTCUSD", "AAPL"}
	trades := make([]domain.Trade, 0, n)

	for i := 0; i < n; i++ {
		pl := decimal.NewFromInt(int64(i%200 - 100))
		entry := time.Date(2024, 1, 1+i%365, 9, 0, 0, 0, time.UTC)
		exit := entry.Add(time.Duration(1+i%48) * time.Hour)

		trades = append(trades, domain.Trade{
			InstrumentType:  "forex",
			InstrumentName:  instruments[i%len(instruments)],
			ProfitLoss:      pl,
			RiskRewardRatio: float64(i % 5),
			EntryDate:       entry,
			ExitDate:        &exit,
		})
	}
	return trades
}

func BenchmarkComputeSummary(b *testing.B) {
	benchmarks := []struct {
		name string
		size int
	}{
		{"Small", 100},
		{"Medium", 1000},
		{"Large", 10000},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			trades := generateTrades(bm.size)

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				ComputeSummary(trades)
			}
		})
	}
}
