package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

type Trade struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	InstrumentType  string          `json:"instrumentType"`
	InstrumentName  string          `json:"instrumentName"`
	Direction       string          `json:"direction,omitempty"`
	EntryPrice      decimal.Decimal `json:"entryPrice"`
	ExitPrice       decimal.Decimal `json:"exitPrice"`
	Quantity        decimal.Decimal `json:"quantity"`
	ProfitLoss      decimal.Decimal `json:"profitLoss"`
	RiskRewardRatio float64         `json:"riskRewardRatio,omitempty"`
	EntryDate       time.Time       `json:"entryDate"`
	ExitDate        *time.Time      `json:"exitDate,omitempty"`
	TradeDate       *time.Time      `json:"tradeDate,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Tags            []string        `json:"tags,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// JournalDate is the date a trade is attributed to: the explicit trade date
// when present, otherwise the entry date.
func (t *Trade) JournalDate() (time.Time, bool) {
	if t.TradeDate != nil {
		return *t.TradeDate, true
	}
	if !t.EntryDate.IsZero() {
		return t.EntryDate, true
	}
	return time.Time{}, false
}

type Settings struct {
	UserID         string          `json:"userId"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
	BaseCurrency   string          `json:"baseCurrency"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type TradeFilter struct {
	InstrumentType string
	InstrumentName string
	StartDate      *time.Time
	EndDate        *time.Time
	Limit          int
	Offset         int
}
