package models

// Range is an optional numeric bound pair. A nil bound is absent.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// FilterCriteria holds the screening bounds a user can set
type FilterCriteria struct {
	MarketCap    *Range `json:"marketCap,omitempty"`
	PERatio      *Range `json:"peRatio,omitempty"`
	ROE          *Range `json:"roe,omitempty"`
	DebtToEquity *Range `json:"debtToEquity,omitempty"`
	CurrentRatio *Range `json:"currentRatio,omitempty"`
	SalesGrowth  *Range `json:"salesGrowth,omitempty"`
	ProfitGrowth *Range `json:"profitGrowth,omitempty"`
}

// MinOf returns the lower bound of r, or nil when r or its bound is unset
func MinOf(r *Range) *float64 {
	if r == nil {
		return nil
	}
	return r.Min
}

// MaxOf returns the upper bound of r, or nil when r or its bound is unset
func MaxOf(r *Range) *float64 {
	if r == nil {
		return nil
	}
	return r.Max
}
