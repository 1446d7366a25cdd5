package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sibincbaby/vouchzy/pkg/config"
	"github.com/sibincbaby/vouchzy/pkg/core/expiry"
	"github.com/sibincbaby/vouchzy/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.VoucherService, oracle *expiry.Oracle) http.Handler {
	// Initialize Handlers
	h := NewHTTPHandler(service, oracle)

	// Initialize Middleware
	mw := NewMiddleware(cfg)

	// Initialize Auth Handler
	authHandler := NewAuthHandler(cfg)

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.HandleFunc("GET /voucher/{id}", h.Resolve)
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Protected Routes (creator API)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/v1/vouchers", h.Create)
	protectedMux.HandleFunc("GET /api/v1/vouchers/recent", h.Recent)
	protectedMux.HandleFunc("GET /api/v1/vouchers/{id}/stats", h.Stats)

	// Apply Middleware to Protected Routes
	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	// Every request carries an anonymous client identity for rate limiting.
	return mw.ClientID(mux)
}
