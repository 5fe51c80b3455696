package api

import (
	"time"

	"trading-journal/internal/domain"
)

// Response is the envelope every JSON endpoint returns. Data is set on
// success, Error on failure; both are never set together.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type TradeListResponse struct {
	Trades []domain.Trade `json:"trades"`
	Count  int            `json:"count"`
	Total  int64          `json:"total"`
}

type HealthResponse struct {
	Status    string                   `json:"status"`
	Version   string                   `json:"version"`
	Timestamp time.Time                `json:"timestamp"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

type ServiceHealth struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}
