package domain

import "github.com/shopspring/decimal"

type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return true
	}
	return false
}

type Summary struct {
	TotalTrades     int             `json:"totalTrades"`
	WinningTrades   int             `json:"winningTrades"`
	LosingTrades    int             `json:"losingTrades"`
	BreakEvenTrades int             `json:"breakEvenTrades"`
	WinRate         float64         `json:"winRate"`
	TotalProfit     decimal.Decimal `json:"totalProfit"`
	TotalLoss       decimal.Decimal `json:"totalLoss"`
	NetProfitLoss   decimal.Decimal `json:"netProfitLoss"`
	ProfitFactor    float64         `json:"profitFactor"`
	AverageWin      decimal.Decimal `json:"averageWin"`
	AverageLoss     decimal.Decimal `json:"averageLoss"`
	LargestWin      decimal.Decimal `json:"largestWin"`
	LargestLoss     decimal.Decimal `json:"largestLoss"`
	AverageRRR      float64         `json:"averageRRR"`

	// AverageHoldingTime is expressed in hours.
	AverageHoldingTime float64 `json:"averageHoldingTime"`
}

// AccountSummary is a Summary combined with the user's configured starting
// balance and the balance implied by the summarized trades.
type AccountSummary struct {
	Summary
	InitialBalance decimal.Decimal `json:"initialBalance"`
	CurrentBalance decimal.Decimal `json:"currentBalance"`
	BaseCurrency   string          `json:"baseCurrency"`
}

type PeriodPerformance struct {
	Period               string          `json:"period"`
	Trades               int             `json:"trades"`
	WinRate              float64         `json:"winRate"`
	ProfitLoss           decimal.Decimal `json:"profitLoss"`
	CumulativeProfitLoss decimal.Decimal `json:"cumulativeProfitLoss"`
}

type InstrumentPerformance struct {
	InstrumentType string          `json:"instrumentType"`
	InstrumentName string          `json:"instrumentName"`
	Trades         int             `json:"trades"`
	WinRate        float64         `json:"winRate"`
	ProfitLoss     decimal.Decimal `json:"profitLoss"`
	ProfitFactor   float64         `json:"profitFactor"`
	AverageRRR     float64         `json:"averageRRR"`
}
