package models

import "time"

// ScreenedStock is one row scraped from the upstream screening results table
type ScreenedStock struct {
	Name         string  `json:"name"`
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"currentPrice"`
	MarketCap    float64 `json:"marketCap"`
	PERatio      float64 `json:"peRatio"`
	ROE          float64 `json:"roe"`
	DebtToEquity float64 `json:"debtToEquity"`
	CurrentRatio float64 `json:"currentRatio"`
	SalesGrowth  float64 `json:"salesGrowth"`
	ProfitGrowth float64 `json:"profitGrowth"`
	Sector       string  `json:"sector"`
	URL          string  `json:"url"`
}

// ToStockInput converts a screened row into a record for the stock store
func (s ScreenedStock) ToStockInput(asOf time.Time) StockInput {
	in := StockInput{
		StockName:    s.Name,
		TickerSymbol: s.Ticker,
		MarketCap:    floatPtr(s.MarketCap),
		PERatio:      floatPtr(s.PERatio),
		ROE:          floatPtr(s.ROE),
		DebtToEquity: floatPtr(s.DebtToEquity),
		CurrentPrice: floatPtr(s.CurrentPrice),
		DataDate:     &asOf,
	}
	if s.Sector != "" && s.Sector != UnknownSector {
		in.Industry = s.Sector
	}
	return in
}

// UnknownSector is used when the results table carries no sector column
const UnknownSector = "Unknown"

func floatPtr(f float64) *float64 {
	return &f
}
