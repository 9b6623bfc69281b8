package models

import "time"

// Stock event type constants
const (
	EventStockCreated   = "STOCK_CREATED"
	EventStockUpdated   = "STOCK_UPDATED"
	EventStockDeleted   = "STOCK_DELETED"
	EventStocksScreened = "STOCKS_SCREENED"
)

// StockEvent represents a Kafka event for stock changes
type StockEvent struct {
	EventType string          `json:"event_type"`
	Stock     *Stock          `json:"stock,omitempty"`
	StockID   string          `json:"stock_id,omitempty"`
	Screened  []ScreenedStock `json:"screened,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Stock is a persisted fundamentals record. Ticker symbols are unique.
type Stock struct {
	ID           string    `json:"id"`
	StockName    string    `json:"stockName"`
	TickerSymbol string    `json:"tickerSymbol"`
	MarketCap    *float64  `json:"marketCap,omitempty"`
	PERatio      *float64  `json:"peRatio,omitempty"`
	ROE          *float64  `json:"roe,omitempty"`
	DebtToEquity *float64  `json:"debtToEquity,omitempty"`
	CurrentPrice *float64  `json:"currentPrice,omitempty"`
	Industry     string    `json:"industry,omitempty"`
	DataDate     time.Time `json:"dataDate"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// StockInput is the body accepted when creating or importing a stock
type StockInput struct {
	StockName    string     `json:"stockName"`
	TickerSymbol string     `json:"tickerSymbol"`
	MarketCap    *float64   `json:"marketCap,omitempty"`
	PERatio      *float64   `json:"peRatio,omitempty"`
	ROE          *float64   `json:"roe,omitempty"`
	DebtToEquity *float64   `json:"debtToEquity,omitempty"`
	CurrentPrice *float64   `json:"currentPrice,omitempty"`
	Industry     string     `json:"industry,omitempty"`
	DataDate     *time.Time `json:"dataDate,omitempty"`
}

// StockPatch carries a partial update; nil fields are left unchanged
type StockPatch struct {
	StockName    *string    `json:"stockName,omitempty"`
	TickerSymbol *string    `json:"tickerSymbol,omitempty"`
	MarketCap    *float64   `json:"marketCap,omitempty"`
	PERatio      *float64   `json:"peRatio,omitempty"`
	ROE          *float64   `json:"roe,omitempty"`
	DebtToEquity *float64   `json:"debtToEquity,omitempty"`
	CurrentPrice *float64   `json:"currentPrice,omitempty"`
	Industry     *string    `json:"industry,omitempty"`
	DataDate     *time.Time `json:"dataDate,omitempty"`
}

// Apply returns a copy of s with the non-nil patch fields applied
func (p StockPatch) Apply(s Stock) Stock {
	if p.StockName != nil {
		s.StockName = *p.StockName
	}
	if p.TickerSymbol != nil {
		s.TickerSymbol = *p.TickerSymbol
	}
	if p.MarketCap != nil {
		s.MarketCap = p.MarketCap
	}
	if p.PERatio != nil {
		s.PERatio = p.PERatio
	}
	if p.ROE != nil {
		s.ROE = p.ROE
	}
	if p.DebtToEquity != nil {
		s.DebtToEquity = p.DebtToEquity
	}
	if p.CurrentPrice != nil {
		s.CurrentPrice = p.CurrentPrice
	}
	if p.Industry != nil {
		s.Industry = *p.Industry
	}
	if p.DataDate != nil {
		s.DataDate = *p.DataDate
	}
	return s
}
