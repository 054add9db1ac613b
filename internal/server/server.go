// Package server exposes the HTTP and WebSocket API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/framecast/internal/server/handler"
	"github.com/alanyoungcy/framecast/internal/server/middleware"
	"github.com/alanyoungcy/framecast/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Markets  *handler.MarketHandler
	Orders   *handler.OrderHandler
	Sessions *handler.SessionHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (auth, logging, CORS) applied. Orders and Sessions
// may be nil when trading is not configured; their routes are skipped.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market endpoints.
	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/markets/next-refresh", handlers.Markets.NextRefresh)
	mux.HandleFunc("GET /api/markets/details/{tokenID}", handlers.Markets.MarketDetails)

	// Session endpoints.
	if handlers.Sessions != nil {
		mux.HandleFunc("POST /api/connect", handlers.Sessions.Connect)
		mux.HandleFunc("GET /api/balance", handlers.Sessions.Balance)
	}

	// Order endpoints.
	if handlers.Orders != nil {
		mux.HandleFunc("GET /api/orders", handlers.Orders.ListOrders)
		mux.HandleFunc("POST /api/orders", handlers.Orders.PlaceOrder)
		mux.HandleFunc("DELETE /api/orders", handlers.Orders.CancelAll)
		mux.HandleFunc("DELETE /api/orders/{id}", handlers.Orders.CancelOrder)
	}

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0 // allow all if none specified
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Session-ID")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			// Handle preflight requests.
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
