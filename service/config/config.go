package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURL string
	Cluster      string // "mainnet" or "devnet"

	// Token configuration (USDC by default)
	TokenMintAddress string
	TokenDecimals    uint8

	// Wallet provider (passkey portal + paymaster relay)
	PaymasterURL string

	// Explorer deep links
	ExplorerBaseURL string

	// NATS configuration (optional; empty disables event publishing)
	NATSURL string

	// Confirmation polling after a transfer submission
	ConfirmPollInterval time.Duration
	ConfirmTimeout      time.Duration
}

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Solana configuration
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}

	cfg.Cluster = getEnvOrDefault("SOLANA_CLUSTER", "devnet")
	if cfg.Cluster != "mainnet" && cfg.Cluster != "devnet" {
		errs = append(errs, fmt.Errorf("SOLANA_CLUSTER must be 'mainnet' or 'devnet', got %q", cfg.Cluster))
	}

	// Token configuration
	cfg.TokenMintAddress = os.Getenv("USDC_MINT_ADDRESS")
	if cfg.TokenMintAddress == "" {
		errs = append(errs, fmt.Errorf("USDC_MINT_ADDRESS is required"))
	}

	decimals, err := parseInt("USDC_DECIMALS", 6)
	if err != nil {
		errs = append(errs, err)
	} else if decimals < 0 || decimals > 18 {
		errs = append(errs, fmt.Errorf("USDC_DECIMALS must be between 0 and 18, got %d", decimals))
	} else {
		cfg.TokenDecimals = uint8(decimals)
	}

	// Wallet provider configuration
	cfg.PaymasterURL = os.Getenv("PAYMASTER_URL")
	if cfg.PaymasterURL == "" {
		errs = append(errs, fmt.Errorf("PAYMASTER_URL is required"))
	}

	// Explorer configuration
	cfg.ExplorerBaseURL = getEnvOrDefault("EXPLORER_BASE_URL", "https://explorer.solana.com")

	// NATS configuration (optional)
	cfg.NATSURL = os.Getenv("NATS_URL")

	// Confirmation polling configuration
	pollInterval, err := parseDuration("CONFIRM_POLL_INTERVAL", "2s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmPollInterval = pollInterval
	}

	confirmTimeout, err := parseDuration("CONFIRM_TIMEOUT", "60s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.ConfirmTimeout = confirmTimeout
	}

	if cfg.ConfirmPollInterval > cfg.ConfirmTimeout {
		errs = append(errs, fmt.Errorf("CONFIRM_POLL_INTERVAL (%v) cannot be greater than CONFIRM_TIMEOUT (%v)",
			cfg.ConfirmPollInterval, cfg.ConfirmTimeout))
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.Cluster != "mainnet" && c.Cluster != "devnet" {
		errs = append(errs, fmt.Errorf("Cluster must be 'mainnet' or 'devnet'"))
	}

	if c.TokenMintAddress == "" {
		errs = append(errs, fmt.Errorf("TokenMintAddress is required"))
	}

	if c.PaymasterURL == "" {
		errs = append(errs, fmt.Errorf("PaymasterURL is required"))
	}

	if c.ExplorerBaseURL == "" {
		errs = append(errs, fmt.Errorf("ExplorerBaseURL is required"))
	}

	if c.ConfirmPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval must be positive"))
	}

	if c.ConfirmPollInterval > c.ConfirmTimeout {
		errs = append(errs, fmt.Errorf("ConfirmPollInterval cannot be greater than ConfirmTimeout"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
