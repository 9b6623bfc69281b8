package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/trogers1052/stock-insights/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type fetchRequest struct {
	SessionID string                 `json:"sessionId"`
	Filters   *models.FilterCriteria `json:"filters,omitempty"`
	Filter    string                 `json:"filter,omitempty"`
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

// ScreenerLogin handles POST /api/screener/login
func (h *Handler) ScreenerLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}

	sessionID, err := h.screener.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success:   true,
		SessionID: sessionID,
		Message:   "Login successful",
	})
}

// FetchStocks handles POST /api/screener/fetch-stocks. A predefined filter key
// takes precedence over explicit bounds.
func (h *Handler) FetchStocks(w http.ResponseWriter, r *http.Request) {
	var req fetchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
		return
	}

	var (
		stocks []models.ScreenedStock
		err    error
	)
	if req.Filter != "" {
		stocks, err = h.screener.FetchPredefined(r.Context(), req.SessionID, req.Filter)
	} else {
		var criteria models.FilterCriteria
		if req.Filters != nil {
			criteria = *req.Filters
		}
		stocks, err = h.screener.Fetch(r.Context(), req.SessionID, criteria)
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if stocks == nil {
		stocks = []models.ScreenedStock{}
	}

	if h.producer != nil && len(stocks) > 0 {
		if err := h.producer.PublishStocksScreened(r.Context(), stocks); err != nil {
			log.Warn().Err(err).Int("count", len(stocks)).Msg("Failed to publish screened stocks")
		}
	}

	count := len(stocks)
	respondJSON(w, http.StatusOK, Response{Success: true, Data: stocks, Count: &count})
}

// ScreenerLogout handles POST /api/screener/logout
func (h *Handler) ScreenerLogout(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeInvalidParameter, "invalid request body")
			return
		}
	}

	if err := h.screener.Logout(r.Context(), req.SessionID); err != nil {
		respondErr(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{Success: true, Message: "Logged out successfully"})
}

// ScreenerFilters handles GET /api/screener/filters
func (h *Handler) ScreenerFilters(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.screener.Filters())
}
