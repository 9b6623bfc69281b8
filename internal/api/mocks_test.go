package api

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/trogers1052/stock-insights/internal/database"
	"github.com/trogers1052/stock-insights/internal/models"
	"github.com/trogers1052/stock-insights/internal/screener"
)

// MockStore is an in-memory StockStore
type MockStore struct {
	mu      sync.Mutex
	stocks  map[string]*models.Stock
	nextID  int
	pingErr error
}

func NewMockStore() *MockStore {
	return &MockStore{stocks: make(map[string]*models.Stock)}
}

func (m *MockStore) Ping(context.Context) error { return m.pingErr }

func (m *MockStore) CreateStock(_ context.Context, in models.StockInput) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(in.StockName) == "" || strings.TrimSpace(in.TickerSymbol) == "" {
		return nil, fmt.Errorf("%w: stock name and ticker symbol are required", database.ErrValidation)
	}
	for _, s := range m.stocks {
		if s.TickerSymbol == in.TickerSymbol {
			return nil, database.ErrDuplicateTicker
		}
	}

	m.nextID++
	now := time.Now()
	s := &models.Stock{
		ID:           fmt.Sprintf("id-%d", m.nextID),
		StockName:    in.StockName,
		TickerSymbol: in.TickerSymbol,
		MarketCap:    in.MarketCap,
		PERatio:      in.PERatio,
		ROE:          in.ROE,
		DebtToEquity: in.DebtToEquity,
		CurrentPrice: in.CurrentPrice,
		Industry:     in.Industry,
		DataDate:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.stocks[s.ID] = s
	return s, nil
}

func (m *MockStore) GetAllStocks(context.Context) ([]*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Stock{}
	for _, s := range m.stocks {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StockName < out[j].StockName })
	return out, nil
}

func (m *MockStore) GetStockByID(_ context.Context, id string) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stocks[id]
	if !ok {
		return nil, database.ErrStockNotFound
	}
	return s, nil
}

func (m *MockStore) UpdateStock(_ context.Context, id string, patch models.StockPatch) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.stocks[id]
	if !ok {
		return nil, database.ErrStockNotFound
	}
	updated := patch.Apply(*s)
	m.stocks[id] = &updated
	return &updated, nil
}

func (m *MockStore) DeleteStock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stocks[id]; !ok {
		return database.ErrStockNotFound
	}
	delete(m.stocks, id)
	return nil
}

func (m *MockStore) ImportStocks(ctx context.Context, inputs []models.StockInput) (int, error) {
	for _, in := range inputs {
		if _, err := m.CreateStock(ctx, in); err != nil {
			return 0, err
		}
	}
	return len(inputs), nil
}

func (m *MockStore) ScreenStocks(_ context.Context, criteria models.FilterCriteria) ([]*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []*models.Stock{}
	for _, s := range m.stocks {
		if min := models.MinOf(criteria.ROE); min != nil && (s.ROE == nil || *s.ROE < *min) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// MockScreener is a scripted ScreenerService
type MockScreener struct {
	sessions map[string]bool
	results  []models.ScreenedStock
	fetchErr error

	lastCriteria models.FilterCriteria
	lastFilter   string
}

func NewMockScreener() *MockScreener {
	return &MockScreener{sessions: make(map[string]bool)}
}

func (m *MockScreener) Login(_ context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", screener.ErrMissingCredentials
	}
	if password != "secret" {
		return "", screener.ErrInvalidCredentials
	}
	id := fmt.Sprintf("session-%d", len(m.sessions)+1)
	m.sessions[id] = true
	return id, nil
}

func (m *MockScreener) Fetch(_ context.Context, sessionID string, criteria models.FilterCriteria) ([]models.ScreenedStock, error) {
	if !m.sessions[sessionID] {
		return nil, screener.ErrSessionNotFound
	}
	m.lastCriteria = criteria
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.results, nil
}

func (m *MockScreener) FetchPredefined(ctx context.Context, sessionID, key string) ([]models.ScreenedStock, error) {
	criteria, err := screener.LookupFilter(key)
	if err != nil {
		return nil, err
	}
	m.lastFilter = key
	return m.Fetch(ctx, sessionID, criteria)
}

func (m *MockScreener) Logout(_ context.Context, sessionID string) error {
	delete(m.sessions, sessionID)
	return nil
}

func (m *MockScreener) Filters() []screener.PredefinedFilter {
	return screener.PredefinedFilters()
}

// MockPublisher records published events
type MockPublisher struct {
	events []string
	err    error
}

func (p *MockPublisher) record(event string) error {
	p.events = append(p.events, event)
	return p.err
}

func (p *MockPublisher) PublishStockCreated(context.Context, *models.Stock) error {
	return p.record(models.EventStockCreated)
}

func (p *MockPublisher) PublishStockUpdated(context.Context, *models.Stock) error {
	return p.record(models.EventStockUpdated)
}

func (p *MockPublisher) PublishStockDeleted(context.Context, string) error {
	return p.record(models.EventStockDeleted)
}

func (p *MockPublisher) PublishStocksScreened(context.Context, []models.ScreenedStock) error {
	return p.record(models.EventStocksScreened)
}

var errBoom = errors.New("boom")
