// Package analytics computes journal performance metrics from in-memory
// trade sets. Every function here is a pure, total computation: no I/O, no
// shared state, and any finite input (including the empty set) produces a
// fully populated result rather than an error.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"trading-journal/internal/domain"
)

// InfiniteProfitFactor is reported when gross loss is zero but gross profit
// is positive. JSON has no encoding for +Inf, so the factor is capped at
// this sentinel and consumers format it as "infinite" for display.
const InfiniteProfitFactor = 999

// ComputeSummary aggregates a trade set into a single Summary. Monetary
// sums accumulate at full precision and are rounded to 2 decimal places
// once, on the way out.
func ComputeSummary(trades []domain.Trade) domain.Summary {
	s := domain.Summary{TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	var (
		totalProfit decimal.Decimal
		totalLoss   decimal.Decimal
		largestWin  decimal.Decimal
		largestLoss decimal.Decimal
		rrrSum      float64
		rrrCount    int
		holdHours   float64
		holdCount   int
	)

	for i := range trades {
		t := &trades[i]
		pl := t.ProfitLoss
		switch {
		case pl.IsPositive():
			s.WinningTrades++
			totalProfit = totalProfit.Add(pl)
			if pl.GreaterThan(largestWin) {
				largestWin = pl
			}
		case pl.IsNegative():
			s.LosingTrades++
			loss := pl.Abs()
			totalLoss = totalLoss.Add(loss)
			if loss.GreaterThan(largestLoss) {
				largestLoss = loss
			}
		default:
			s.BreakEvenTrades++
		}

		if t.RiskRewardRatio > 0 {
			rrrSum += t.RiskRewardRatio
			rrrCount++
		}
		if t.ExitDate != nil && !t.EntryDate.IsZero() {
			holdHours += t.ExitDate.Sub(t.EntryDate).Hours()
			holdCount++
		}
	}

	s.WinRate = round2(float64(s.WinningTrades) / float64(s.TotalTrades) * 100)
	s.TotalProfit = totalProfit.Round(2)
	s.TotalLoss = totalLoss.Round(2)
	// Net is derived from the rounded gross figures so that
	// net == totalProfit - totalLoss holds exactly on the output.
	s.NetProfitLoss = s.TotalProfit.Sub(s.TotalLoss)
	s.ProfitFactor = profitFactor(totalProfit, totalLoss)
	if s.WinningTrades > 0 {
		s.AverageWin = totalProfit.Div(decimal.NewFromInt(int64(s.WinningTrades))).Round(2)
	}
	if s.LosingTrades > 0 {
		s.AverageLoss = totalLoss.Div(decimal.NewFromInt(int64(s.LosingTrades))).Round(2)
	}
	s.LargestWin = largestWin.Round(2)
	s.LargestLoss = largestLoss.Round(2)
	if rrrCount > 0 {
		s.AverageRRR = round2(rrrSum / float64(rrrCount))
	}
	if holdCount > 0 {
		s.AverageHoldingTime = round2(holdHours / float64(holdCount))
	}
	return s
}

// ComputeOverTime buckets trades by calendar period and reports each
// bucket's summary figures together with a running cumulative net P&L.
// Trades without a journal date are left out. Rows come back ordered by
// period key ascending; keys are ISO formatted, so lexicographic order is
// chronological order for every granularity.
func ComputeOverTime(trades []domain.Trade, period domain.Period) []domain.PeriodPerformance {
	buckets := make(map[string][]domain.Trade)
	for i := range trades {
		date, ok := trades[i].JournalDate()
		if !ok {
			continue
		}
		key := PeriodKey(date, period)
		buckets[key] = append(buckets[key], trades[i])
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.PeriodPerformance, 0, len(keys))
	var cumulative decimal.Decimal
	for _, k := range keys {
		s := ComputeSummary(buckets[k])
		cumulative = cumulative.Add(s.NetProfitLoss)
		out = append(out, domain.PeriodPerformance{
			Period:               k,
			Trades:               s.TotalTrades,
			WinRate:              s.WinRate,
			ProfitLoss:           s.NetProfitLoss,
			CumulativeProfitLoss: cumulative,
		})
	}
	return out
}

// ComputeByInstrument reports one row per distinct (type, name) pair,
// sorted by net P&L descending. Instruments with equal P&L keep the order
// in which they first appear in the input.
func ComputeByInstrument(trades []domain.Trade) []domain.InstrumentPerformance {
	type group struct {
		instrumentType string
		instrumentName string
		trades         []domain.Trade
	}

	groups := make(map[string]*group)
	var order []string
	for i := range trades {
		t := &trades[i]
		key := t.InstrumentType + ":" + t.InstrumentName
		g, ok := groups[key]
		if !ok {
			g = &group{instrumentType: t.InstrumentType, instrumentName: t.InstrumentName}
			groups[key] = g
			order = append(order, key)
		}
		g.trades = append(g.trades, *t)
	}

	out := make([]domain.InstrumentPerformance, 0, len(order))
	for _, key := range order {
		g := groups[key]
		s := ComputeSummary(g.trades)
		out = append(out, domain.InstrumentPerformance{
			InstrumentType: g.instrumentType,
			InstrumentName: g.instrumentName,
			Trades:         s.TotalTrades,
			WinRate:        s.WinRate,
			ProfitLoss:     s.NetProfitLoss,
			ProfitFactor:   s.ProfitFactor,
			AverageRRR:     s.AverageRRR,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProfitLoss.GreaterThan(out[j].ProfitLoss)
	})
	return out
}

// PeriodKey formats the bucket key for a date: daily "2006-01-02", weekly
// the Sunday starting that week as "2006-01-02", monthly "2006-01".
func PeriodKey(date time.Time, period domain.Period) string {
	switch period {
	case domain.PeriodWeekly:
		return startOfWeek(date).Format("2006-01-02")
	case domain.PeriodMonthly:
		return date.Format("2006-01")
	default:
		return date.Format("2006-01-02")
	}
}

func startOfWeek(t time.Time) time.Time {
	return t.AddDate(0, 0, -int(t.Weekday()))
}

func profitFactor(profit, loss decimal.Decimal) float64 {
	if loss.IsPositive() {
		f, _ := profit.Div(loss).Round(2).Float64()
		return f
	}
	if profit.IsPositive() {
		return InfiniteProfitFactor
	}
	return 0
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
