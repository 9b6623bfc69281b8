package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-insights/internal/models"
	"github.com/trogers1052/stock-insights/internal/screener"
)

// StockStore is the persistence the stock handlers need
type StockStore interface {
	Ping(ctx context.Context) error
	CreateStock(ctx context.Context, in models.StockInput) (*models.Stock, error)
	GetAllStocks(ctx context.Context) ([]*models.Stock, error)
	GetStockByID(ctx context.Context, id string) (*models.Stock, error)
	UpdateStock(ctx context.Context, id string, patch models.StockPatch) (*models.Stock, error)
	DeleteStock(ctx context.Context, id string) error
	ImportStocks(ctx context.Context, inputs []models.StockInput) (int, error)
	ScreenStocks(ctx context.Context, criteria models.FilterCriteria) ([]*models.Stock, error)
}

// ScreenerService is the upstream screening flow
type ScreenerService interface {
	Login(ctx context.Context, username, password string) (string, error)
	Fetch(ctx context.Context, sessionID string, criteria models.FilterCriteria) ([]models.ScreenedStock, error)
	FetchPredefined(ctx context.Context, sessionID, key string) ([]models.ScreenedStock, error)
	Logout(ctx context.Context, sessionID string) error
	Filters() []screener.PredefinedFilter
}

// EventPublisher receives stock change notifications. Publishing is best effort.
type EventPublisher interface {
	PublishStockCreated(ctx context.Context, stock *models.Stock) error
	PublishStockUpdated(ctx context.Context, stock *models.Stock) error
	PublishStockDeleted(ctx context.Context, id string) error
	PublishStocksScreened(ctx context.Context, stocks []models.ScreenedStock) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	stocks   StockStore
	screener ScreenerService
	producer EventPublisher
}

// NewHandler creates a new Handler. producer may be nil.
func NewHandler(stocks StockStore, screener ScreenerService, producer EventPublisher) *Handler {
	return &Handler{
		stocks:   stocks,
		screener: screener,
		producer: producer,
	}
}

// HealthCheck handles GET /api/health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	if err := h.stocks.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check database ping failed")
		database = "down"
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Stock Insights API is running",
		Data: map[string]string{
			"status":   "OK",
			"database": database,
		},
	})
}

// GetAllStocks handles GET /api/stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.stocks.GetAllStocks(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondData(w, http.StatusOK, stocks)
}

// GetStock handles GET /api/stocks/{id}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.stocks.GetStockByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondData(w, http.StatusOK, stock)
}

// CreateStock handles POST /api/stocks
func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var in models.StockInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}

	stock, err := h.stocks.CreateStock(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishStockCreated(r.Context(), stock); err != nil {
			log.Warn().Err(err).Str("stock_id", stock.ID).Msg("Failed to publish stock created event")
		}
	}

	respondData(w, http.StatusCreated, stock)
}

// UpdateStock handles PUT /api/stocks/{id}
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var patch models.StockPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}

	stock, err := h.stocks.UpdateStock(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishStockUpdated(r.Context(), stock); err != nil {
			log.Warn().Err(err).Str("stock_id", stock.ID).Msg("Failed to publish stock updated event")
		}
	}

	respondData(w, http.StatusOK, stock)
}

// DeleteStock handles DELETE /api/stocks/{id}
func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.stocks.DeleteStock(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishStockDeleted(r.Context(), id); err != nil {
			log.Warn().Err(err).Str("stock_id", id).Msg("Failed to publish stock deleted event")
		}
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Stock deleted successfully"})
}

// ImportStocks handles POST /api/stocks/import
func (h *Handler) ImportStocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stocks []models.ScreenedStock `json:"stocks"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}
	if len(req.Stocks) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "stocks are required")
		return
	}

	now := time.Now()
	inputs := make([]models.StockInput, 0, len(req.Stocks))
	for _, s := range req.Stocks {
		// rows whose link had no /company/ path carry no ticker
		if s.Ticker == "" {
			continue
		}
		inputs = append(inputs, s.ToStockInput(now))
	}
	if len(inputs) == 0 {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "no stocks with a ticker symbol to import")
		return
	}

	n, err := h.stocks.ImportStocks(r.Context(), inputs)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondData(w, http.StatusOK, map[string]int{"imported": n})
}

// ScreenStocks handles POST /api/stocks/screen
func (h *Handler) ScreenStocks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Criteria models.FilterCriteria `json:"criteria"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}

	stocks, err := h.stocks.ScreenStocks(r.Context(), req.Criteria)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	count := len(stocks)
	respondJSON(w, http.StatusOK, Response{Success: true, Data: stocks, Count: &count})
}
