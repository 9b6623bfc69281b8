package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/trogers1052/stock-insights/internal/models"
)

const stockColumns = `
	id, stock_name, ticker_symbol, market_cap, pe_ratio, roe, debt_to_equity,
	current_price, industry, data_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateStock validates and inserts a new stock
func (db *DB) CreateStock(ctx context.Context, in models.StockInput) (*models.Stock, error) {
	s := stockFromInput(in, time.Now())
	if err := validateStock(&s); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO stocks (
			stock_name, ticker_symbol, market_cap, pe_ratio, roe, debt_to_equity,
			current_price, industry, data_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + stockColumns

	created, err := scanStock(db.conn.QueryRowContext(ctx, query,
		s.StockName, s.TickerSymbol, s.MarketCap, s.PERatio, s.ROE, s.DebtToEquity,
		s.CurrentPrice, nullString(s.Industry), s.DataDate,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateTicker
	}
	if isDataException(err) {
		return nil, validationError("%v", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create stock: %w", err)
	}
	return created, nil
}

// GetAllStocks retrieves all stocks ordered by name
func (db *DB) GetAllStocks(ctx context.Context) ([]*models.Stock, error) {
	query := `SELECT ` + stockColumns + ` FROM stocks ORDER BY stock_name ASC, ticker_symbol ASC`
	return scanStocks(db.conn.QueryContext(ctx, query))
}

// GetStockByID retrieves a stock by its UUID. Malformed ids are reported as not found.
func (db *DB) GetStockByID(ctx context.Context, id string) (*models.Stock, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + stockColumns + ` FROM stocks WHERE id = $1`
	s, err := scanStock(db.conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	return s, nil
}

// UpdateStock applies a partial update and returns the stored result
func (db *DB) UpdateStock(ctx context.Context, id string, patch models.StockPatch) (*models.Stock, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanStock(tx.QueryRowContext(ctx,
		`SELECT `+stockColumns+` FROM stocks WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock for update: %w", err)
	}

	next := patch.Apply(*current)
	if err := validateStock(&next); err != nil {
		return nil, err
	}

	query := `
		UPDATE stocks SET
			stock_name = $2, ticker_symbol = $3, market_cap = $4, pe_ratio = $5,
			roe = $6, debt_to_equity = $7, current_price = $8, industry = $9,
			data_date = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + stockColumns

	updated, err := scanStock(tx.QueryRowContext(ctx, query,
		id, next.StockName, next.TickerSymbol, next.MarketCap, next.PERatio,
		next.ROE, next.DebtToEquity, next.CurrentPrice, nullString(next.Industry), next.DataDate,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateTicker
	}
	if isDataException(err) {
		return nil, validationError("%v", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

// DeleteStock removes a stock by id
func (db *DB) DeleteStock(ctx context.Context, id string) error {
	id, err := canonicalID(id)
	if err != nil {
		return err
	}

	result, err := db.conn.ExecContext(ctx, `DELETE FROM stocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stock: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStockNotFound
	}
	return nil
}

// ImportStocks upserts a batch keyed by ticker symbol in a single transaction.
// Nothing is written if any record fails validation.
func (db *DB) ImportStocks(ctx context.Context, inputs []models.StockInput) (int, error) {
	now := time.Now()
	stocks := make([]models.Stock, 0, len(inputs))
	for i, in := range inputs {
		s := stockFromInput(in, now)
		if err := validateStock(&s); err != nil {
			return 0, fmt.Errorf("record %d: %w", i, err)
		}
		stocks = append(stocks, s)
	}
	if len(stocks) == 0 {
		return 0, nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stocks (
			stock_name, ticker_symbol, market_cap, pe_ratio, roe, debt_to_equity,
			current_price, industry, data_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		ON CONFLICT (ticker_symbol) DO UPDATE SET
			stock_name = EXCLUDED.stock_name,
			market_cap = EXCLUDED.market_cap,
			pe_ratio = EXCLUDED.pe_ratio,
			roe = EXCLUDED.roe,
			debt_to_equity = EXCLUDED.debt_to_equity,
			current_price = EXCLUDED.current_price,
			industry = COALESCE(EXCLUDED.industry, stocks.industry),
			data_date = EXCLUDED.data_date,
			updated_at = NOW()
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range stocks {
		_, err := stmt.ExecContext(ctx,
			s.StockName, s.TickerSymbol, s.MarketCap, s.PERatio, s.ROE, s.DebtToEquity,
			s.CurrentPrice, nullString(s.Industry), s.DataDate,
		)
		if isDataException(err) {
			return 0, validationError("stock %s: %v", s.TickerSymbol, err)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to import stock %s: %w", s.TickerSymbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(stocks), nil
}

// ScreenStocks returns stored stocks satisfying the criteria bounds that map to
// stored columns. Missing values compare as zero.
func (db *DB) ScreenStocks(ctx context.Context, criteria models.FilterCriteria) ([]*models.Stock, error) {
	var (
		conds []string
		args  []any
	)
	bound := func(column, op string, v *float64) {
		if v == nil {
			return
		}
		args = append(args, *v)
		conds = append(conds, fmt.Sprintf("COALESCE(%s, 0) %s $%d", column, op, len(args)))
	}

	bound("market_cap", ">=", models.MinOf(criteria.MarketCap))
	bound("market_cap", "<=", models.MaxOf(criteria.MarketCap))
	bound("pe_ratio", ">=", models.MinOf(criteria.PERatio))
	bound("pe_ratio", "<=", models.MaxOf(criteria.PERatio))
	bound("roe", ">=", models.MinOf(criteria.ROE))
	bound("roe", "<=", models.MaxOf(criteria.ROE))
	bound("debt_to_equity", ">=", models.MinOf(criteria.DebtToEquity))
	bound("debt_to_equity", "<=", models.MaxOf(criteria.DebtToEquity))

	query := `SELECT ` + stockColumns + ` FROM stocks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY stock_name ASC, ticker_symbol ASC`

	return scanStocks(db.conn.QueryContext(ctx, query, args...))
}

func scanStock(row rowScanner) (*models.Stock, error) {
	var s models.Stock
	var marketCap, peRatio, roe, debtToEquity, currentPrice sql.NullFloat64
	var industry sql.NullString

	err := row.Scan(
		&s.ID, &s.StockName, &s.TickerSymbol, &marketCap, &peRatio, &roe, &debtToEquity,
		&currentPrice, &industry, &s.DataDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.MarketCap = floatOrNil(marketCap)
	s.PERatio = floatOrNil(peRatio)
	s.ROE = floatOrNil(roe)
	s.DebtToEquity = floatOrNil(debtToEquity)
	s.CurrentPrice = floatOrNil(currentPrice)
	if industry.Valid {
		s.Industry = industry.String
	}
	return &s, nil
}

func scanStocks(rows *sql.Rows, err error) ([]*models.Stock, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query stocks: %w", err)
	}
	defer rows.Close()

	stocks := []*models.Stock{}
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stocks: %w", err)
	}
	return stocks, nil
}

func stockFromInput(in models.StockInput, now time.Time) models.Stock {
	s := models.Stock{
		StockName:    in.StockName,
		TickerSymbol: in.TickerSymbol,
		MarketCap:    in.MarketCap,
		PERatio:      in.PERatio,
		ROE:          in.ROE,
		DebtToEquity: in.DebtToEquity,
		CurrentPrice: in.CurrentPrice,
		Industry:     in.Industry,
		DataDate:     now,
	}
	if in.DataDate != nil {
		s.DataDate = *in.DataDate
	}
	return s
}

// column widths from the stocks migration
const (
	maxNameLen     = 255
	maxTickerLen   = 32
	maxIndustryLen = 255
)

// canonicalID parses any accepted UUID spelling and returns the plain hyphenated
// form postgres understands. Malformed ids are reported as not found.
func canonicalID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", ErrStockNotFound
	}
	return u.String(), nil
}

// validateStock trims text fields in place and enforces required ones
func validateStock(s *models.Stock) error {
	s.StockName = strings.TrimSpace(s.StockName)
	s.TickerSymbol = strings.TrimSpace(s.TickerSymbol)
	s.Industry = strings.TrimSpace(s.Industry)

	if s.StockName == "" {
		return validationError("stockName is required")
	}
	if s.TickerSymbol == "" {
		return validationError("tickerSymbol is required")
	}
	if utf8.RuneCountInString(s.StockName) > maxNameLen {
		return validationError("stockName must be at most %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(s.TickerSymbol) > maxTickerLen {
		return validationError("tickerSymbol must be at most %d characters", maxTickerLen)
	}
	if utf8.RuneCountInString(s.Industry) > maxIndustryLen {
		return validationError("industry must be at most %d characters", maxIndustryLen)
	}
	if s.DataDate.IsZero() {
		s.DataDate = time.Now()
	}
	return nil
}

func floatOrNil(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
