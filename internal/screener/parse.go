package screener

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-insights/internal/models"
)

// minResultCells is the fewest cells a results row needs to be considered
const minResultCells = 8

var (
	tickerPattern  = regexp.MustCompile(`/company/([^/]+)/`)
	nonNumeric     = regexp.MustCompile(`[^\d.\-]`)
	leadingNumeric = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
)

// ParseResult is the outcome of parsing a results page. Err is set when the
// page could not be read as a results table; an empty Stocks with a nil Err
// means the screen matched nothing.
type ParseResult struct {
	Stocks []models.ScreenedStock
	Err    error
}

// OK reports whether the page parsed
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// ParseResults reads the screener results table. Links are resolved against baseURL.
func ParseResults(r io.Reader, baseURL string) (result ParseResult) {
	defer func() {
		if p := recover(); p != nil {
			result = ParseResult{Err: fmt.Errorf("%w: %v", ErrParse, p)}
		}
	}()

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return ParseResult{Err: fmt.Errorf("%w: %v", ErrParse, err)}
	}

	if doc.Find("table").Length() == 0 {
		return ParseResult{Err: fmt.Errorf("%w: no results table in page", ErrParse)}
	}

	base, _ := url.Parse(baseURL)
	stocks := []models.ScreenedStock{}

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minResultCells {
			return
		}

		link := cells.Eq(0).Find("a").First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")

		cell := func(i int) string {
			if i >= cells.Length() {
				return ""
			}
			return cells.Eq(i).Text()
		}

		sector := strings.TrimSpace(cell(9))
		if sector == "" {
			sector = models.UnknownSector
		}

		stocks = append(stocks, models.ScreenedStock{
			Name:         strings.TrimSpace(link.Text()),
			Ticker:       ExtractTicker(href),
			CurrentPrice: ParseNumber(cell(1)),
			MarketCap:    ParseNumber(cell(2)),
			PERatio:      ParseNumber(cell(3)),
			ROE:          ParseNumber(cell(4)),
			DebtToEquity: ParseNumber(cell(5)),
			CurrentRatio: ParseNumber(cell(6)),
			SalesGrowth:  ParseNumber(cell(7)),
			ProfitGrowth: ParseNumber(cell(8)),
			Sector:       sector,
			URL:          resolve(base, href),
		})
	})

	return ParseResult{Stocks: stocks}
}

// ExtractTicker pulls the upper-cased ticker out of a /company/<TICKER>/ link
func ExtractTicker(href string) string {
	m := tickerPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// ParseDecimal keeps digits, dots and minus signs and reads the leading number.
// Text without a number yields zero.
func ParseDecimal(text string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(text, "")
	match := strings.TrimSuffix(leadingNumeric.FindString(cleaned), ".")
	if match == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseNumber is ParseDecimal as a float64, e.g. "₹1,234.50" gives 1234.5
func ParseNumber(text string) float64 {
	return ParseDecimal(text).InexactFloat64()
}

func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
