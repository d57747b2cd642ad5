package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neurowatch-systems/neurowatch/internal/handlers"
	"github.com/neurowatch-systems/neurowatch/internal/middleware"
)

// RouterConfig holds dependencies needed to configure routes
type RouterConfig struct {
	AuthHandler      *handlers.AuthHandler
	DeviceHandler    *handlers.DeviceHandler
	TelemetryHandler *handlers.TelemetryHandler
	EventHandler     *handlers.EventHandler
	AuthMiddleware   *middleware.AuthMiddleware
}

// NewRouter constructs a ServeMux with all API routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := cfg.AuthMiddleware

	// Auth
	mux.HandleFunc("POST /api/register", cfg.AuthHandler.Register)
	mux.HandleFunc("POST /api/login", cfg.AuthHandler.Login)
	mux.HandleFunc("GET /api/me", auth.RequireAuth(cfg.AuthHandler.Me))
	mux.HandleFunc("GET /api/users", auth.RequireAdmin(cfg.AuthHandler.ListUsers))

	// Device management
	mux.HandleFunc("POST /api/devices/register", auth.RequireAuth(cfg.DeviceHandler.Register))
	mux.HandleFunc("GET /api/mydevices", auth.RequireAuth(cfg.DeviceHandler.List))
	mux.HandleFunc("PUT /api/devices/{device_id}", auth.RequireAuth(cfg.DeviceHandler.Update))
	mux.HandleFunc("DELETE /api/devices/{device_id}", auth.RequireAuth(cfg.DeviceHandler.Delete))

	// Telemetry ingestion; devices authenticate by registration, not
	// by user token.
	mux.HandleFunc("POST /api/devices/data", cfg.TelemetryHandler.Ingest)

	// History and correlated events
	mux.HandleFunc("GET /api/devices/{device_id}", auth.RequireAuth(cfg.EventHandler.DeviceHistory))
	mux.HandleFunc("GET /api/seizure_events", auth.RequireAuth(cfg.EventHandler.List))
	mux.HandleFunc("GET /api/seizure_events/latest", auth.RequireAuth(cfg.EventHandler.Latest))

	// Health and metrics
	mux.HandleFunc("GET /healthz", cfg.EventHandler.Health)
	mux.HandleFunc("GET /readyz", cfg.EventHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
