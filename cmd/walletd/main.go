package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/solpass/walletd/service/balance"
	"github.com/solpass/walletd/service/config"
	"github.com/solpass/walletd/service/events"
	"github.com/solpass/walletd/service/metrics"
	"github.com/solpass/walletd/service/paymaster"
	"github.com/solpass/walletd/service/server"
	"github.com/solpass/walletd/service/solana"
	"github.com/solpass/walletd/service/transfer"
	"github.com/solpass/walletd/service/wallet"
)

func main() {
	// Load and validate configuration from environment
	// This fails fast if any required config is missing or invalid
	cfg := config.MustLoad()

	// Setup structured logging
	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting walletd",
		"addr", cfg.ServerAddr,
		"cluster", cfg.Cluster,
		"log_level", cfg.LogLevel,
	)

	mint, err := solanago.PublicKeyFromBase58(cfg.TokenMintAddress)
	if err != nil {
		logger.Error("invalid token mint address", "mint", cfg.TokenMintAddress, "error", err)
		os.Exit(1)
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Solana RPC client
	// Note: For premium RPC endpoints, include API key in the URL
	solanaRPC := solana.NewRPCClient(cfg.SolanaRPCURL)
	chain := solana.NewClient(solanaRPC, cfg.SolanaRPCURL, m, logger)
	logger.Info("initialized solana RPC client", "url", cfg.SolanaRPCURL)

	// Initialize the passkey provider and the typed adapter over it
	provider := paymaster.New(cfg.PaymasterURL, nil, m, logger)
	adapter, err := wallet.NewAdapter(provider, logger)
	if err != nil {
		logger.Error("failed to initialize wallet adapter", "error", err)
		os.Exit(1)
	}

	reader := balance.NewReader(chain, mint, m, logger)

	// Initialize NATS event publishing (optional)
	var publisher events.Publisher
	if cfg.NATSURL != "" {
		jetstream, err := events.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to connect to NATS", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer jetstream.Close()
		publisher = jetstream
		logger.Info("transfer event publishing enabled", "nats_url", cfg.NATSURL)
	} else {
		logger.Warn("NATS_URL not set, transfer event publishing disabled")
	}

	builder := transfer.NewBuilder(adapter, chain, transfer.Config{
		Mint:            mint,
		TokenDecimals:   cfg.TokenDecimals,
		ConfirmInterval: cfg.ConfirmPollInterval,
		ConfirmTimeout:  cfg.ConfirmTimeout,
		Refresh:         reader.Refresh,
	}, nil, publisher, m, logger)

	httpServer := server.New(cfg.ServerAddr, cfg, adapter, reader, builder, m, logger)

	// Start HTTP server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	// Wait for shutdown signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		os.Exit(1)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown server gracefully", "error", err)
			os.Exit(1)
		}

		logger.Info("server shutdown complete")
	}
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
