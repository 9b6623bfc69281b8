package api

import (
	"net/http"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Stock routes
	api.HandleFunc("/stocks", handler.GetAllStocks).Methods("GET")
	api.HandleFunc("/stocks", handler.CreateStock).Methods("POST")
	api.HandleFunc("/stocks/import", handler.ImportStocks).Methods("POST")
	api.HandleFunc("/stocks/screen", handler.ScreenStocks).Methods("POST")
	api.HandleFunc("/stocks/{id}", handler.GetStock).Methods("GET")
	api.HandleFunc("/stocks/{id}", handler.UpdateStock).Methods("PUT")
	api.HandleFunc("/stocks/{id}", handler.DeleteStock).Methods("DELETE")

	// Screener routes
	api.HandleFunc("/screener/login", handler.ScreenerLogin).Methods("POST")
	api.HandleFunc("/screener/fetch-stocks", handler.FetchStocks).Methods("POST")
	api.HandleFunc("/screener/logout", handler.ScreenerLogout).Methods("POST")
	api.HandleFunc("/screener/filters", handler.ScreenerFilters).Methods("GET")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	return r
}

// NewServerHandler wraps the router with request ids, access logging, panic
// recovery and CORS
func NewServerHandler(handler *Handler, allowedOrigins []string) http.Handler {
	r := SetupRoutes(handler)
	r.Use(RequestID, Logging("/api/health"), Recovery)

	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(allowedOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Accept", "Content-Type", RequestIDHeader}),
		gorillaHandlers.ExposedHeaders([]string{RequestIDHeader}),
	)
	return cors(r)
}
