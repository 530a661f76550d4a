// Package server exposes the wallet, balance, and transfer components over
// HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/solpass/walletd/service/balance"
	"github.com/solpass/walletd/service/config"
	"github.com/solpass/walletd/service/metrics"
	"github.com/solpass/walletd/service/transfer"
	"github.com/solpass/walletd/service/wallet"
)

// Server represents the HTTP server for the wallet service.
type Server struct {
	addr    string
	cfg     *config.Config
	adapter *wallet.Adapter
	reader  *balance.Reader
	builder *transfer.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger
	server  *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The metrics is optional - if nil, the /metrics endpoint won't be available.
func New(addr string, cfg *config.Config, adapter *wallet.Adapter, reader *balance.Reader, builder *transfer.Builder, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		cfg:     cfg,
		adapter: adapter,
		reader:  reader,
		builder: builder,
		metrics: m,
		logger:  logger,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	// Session routes
	mux.Handle("POST /api/v1/session/connect", handleConnect(s.adapter, s.reader, s.logger))
	mux.Handle("POST /api/v1/session/disconnect", handleDisconnect(s.adapter, s.reader, s.logger))
	mux.Handle("GET /api/v1/session", handleGetSession(s.adapter, s.logger))

	// Balance routes
	mux.Handle("GET /api/v1/balance", handleGetBalance(s.reader, s.logger))
	mux.Handle("POST /api/v1/balance/refresh", handleRefreshBalance(s.reader, s.logger))

	// Transfer routes
	mux.Handle("POST /api/v1/transfers", handleSubmitTransfer(s.builder, s.cfg, s.logger))
	mux.Handle("GET /api/v1/transfers", handleListTransfers(s.builder, s.cfg, s.logger))

	// Message signing
	mux.Handle("POST /api/v1/sign-message", handleSignMessage(s.adapter, s.logger))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
		s.logger.Info("Prometheus metrics endpoint enabled")
	}

	// Wrap mux with CORS and request metrics middleware
	var handler http.Handler = corsMiddleware(mux)
	if s.metrics != nil {
		handler = metrics.HTTPMetricsMiddleware(s.metrics, "api")(handler)
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
