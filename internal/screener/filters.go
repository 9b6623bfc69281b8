package screener

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/trogers1052/stock-insights/internal/models"
)

// BuildQuery serializes the bounds that are set and non-zero into upstream query parameters
func BuildQuery(c models.FilterCriteria) url.Values {
	params := url.Values{}
	add := func(key string, v *float64) {
		if v == nil || *v == 0 {
			return
		}
		params.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}

	add("market_cap_min", models.MinOf(c.MarketCap))
	add("market_cap_max", models.MaxOf(c.MarketCap))
	add("pe_min", models.MinOf(c.PERatio))
	add("pe_max", models.MaxOf(c.PERatio))
	add("roe_min", models.MinOf(c.ROE))
	add("debt_to_equity_max", models.MaxOf(c.DebtToEquity))
	add("current_ratio_min", models.MinOf(c.CurrentRatio))
	add("sales_growth_min", models.MinOf(c.SalesGrowth))
	add("profit_growth_min", models.MinOf(c.ProfitGrowth))

	return params
}

// PredefinedFilter is a named, ready-made set of screening criteria
type PredefinedFilter struct {
	Key         string                `json:"key"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Criteria    models.FilterCriteria `json:"criteria"`
}

func bound(v float64) *float64 { return &v }

var predefinedFilters = map[string]PredefinedFilter{
	"quality-stocks": {
		Name:        "Quality Stocks",
		Description: "High-quality companies with strong financials and growth",
		Criteria: models.FilterCriteria{
			MarketCap:    &models.Range{Min: bound(1000)},
			ROE:          &models.Range{Min: bound(15)},
			DebtToEquity: &models.Range{Max: bound(1)},
			CurrentRatio: &models.Range{Min: bound(1)},
			SalesGrowth:  &models.Range{Min: bound(10)},
			ProfitGrowth: &models.Range{Min: bound(10)},
		},
	},
	"large-cap-stable": {
		Name:        "Large Cap Stable",
		Description: "Established large-cap companies with stable performance",
		Criteria: models.FilterCriteria{
			MarketCap:    &models.Range{Min: bound(50000)},
			ROE:          &models.Range{Min: bound(12)},
			DebtToEquity: &models.Range{Max: bound(0.8)},
			PERatio:      &models.Range{Min: bound(10), Max: bound(25)},
		},
	},
	"mid-cap-growth": {
		Name:        "Mid Cap Growth",
		Description: "Growing mid-cap companies with high potential",
		Criteria: models.FilterCriteria{
			MarketCap:    &models.Range{Min: bound(5000), Max: bound(50000)},
			ROE:          &models.Range{Min: bound(18)},
			SalesGrowth:  &models.Range{Min: bound(15)},
			ProfitGrowth: &models.Range{Min: bound(15)},
		},
	},
	"dividend-aristocrats": {
		Name:        "Dividend Aristocrats",
		Description: "Reliable dividend-paying companies with strong balance sheets",
		Criteria: models.FilterCriteria{
			MarketCap:    &models.Range{Min: bound(10000)},
			ROE:          &models.Range{Min: bound(10)},
			DebtToEquity: &models.Range{Max: bound(0.5)},
			CurrentRatio: &models.Range{Min: bound(1.5)},
		},
	},
}

// PredefinedFilters lists the built-in filters ordered by key
func PredefinedFilters() []PredefinedFilter {
	out := make([]PredefinedFilter, 0, len(predefinedFilters))
	for key, f := range predefinedFilters {
		f.Key = key
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LookupFilter returns the criteria of a predefined filter
func LookupFilter(key string) (models.FilterCriteria, error) {
	f, ok := predefinedFilters[key]
	if !ok {
		return models.FilterCriteria{}, ErrUnknownFilter
	}
	return f.Criteria, nil
}
