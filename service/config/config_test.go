package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv() {
	os.Setenv("SOLANA_RPC_URL", "https://api.devnet.solana.com")
	os.Setenv("USDC_MINT_ADDRESS", "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU")
	os.Setenv("PAYMASTER_URL", "https://paymaster.example.com")
}

func cleanupEnv() {
	os.Unsetenv("SERVER_ADDR")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SOLANA_RPC_URL")
	os.Unsetenv("SOLANA_CLUSTER")
	os.Unsetenv("USDC_MINT_ADDRESS")
	os.Unsetenv("USDC_DECIMALS")
	os.Unsetenv("PAYMASTER_URL")
	os.Unsetenv("EXPLORER_BASE_URL")
	os.Unsetenv("NATS_URL")
	os.Unsetenv("CONFIRM_POLL_INTERVAL")
	os.Unsetenv("CONFIRM_TIMEOUT")
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnv()
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.devnet.solana.com", cfg.SolanaRPCURL)
	assert.Equal(t, "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", cfg.TokenMintAddress)
	assert.Equal(t, "https://paymaster.example.com", cfg.PaymasterURL)
	assert.Equal(t, ":8080", cfg.ServerAddr) // Default
	assert.Equal(t, "info", cfg.LogLevel)    // Default
	assert.Equal(t, "devnet", cfg.Cluster)   // Default
	assert.Equal(t, uint8(6), cfg.TokenDecimals)
	assert.Equal(t, "https://explorer.solana.com", cfg.ExplorerBaseURL)
	assert.Equal(t, 2*time.Second, cfg.ConfirmPollInterval)
	assert.Equal(t, 60*time.Second, cfg.ConfirmTimeout)
}

func TestLoad_MissingSolanaRPCURL(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("SOLANA_RPC_URL")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_RPC_URL is required")
}

func TestLoad_MissingMint(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("USDC_MINT_ADDRESS")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "USDC_MINT_ADDRESS is required")
}

func TestLoad_MissingPaymasterURL(t *testing.T) {
	setRequiredEnv()
	os.Unsetenv("PAYMASTER_URL")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "PAYMASTER_URL is required")
}

func TestLoad_InvalidCluster(t *testing.T) {
	setRequiredEnv()
	os.Setenv("SOLANA_CLUSTER", "testnet")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SOLANA_CLUSTER must be")
}

func TestLoad_InvalidDecimals(t *testing.T) {
	setRequiredEnv()
	os.Setenv("USDC_DECIMALS", "not-a-number")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid integer")
}

func TestLoad_PollIntervalGreaterThanTimeout(t *testing.T) {
	setRequiredEnv()
	os.Setenv("CONFIRM_POLL_INTERVAL", "2m")
	os.Setenv("CONFIRM_TIMEOUT", "30s")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "cannot be greater than")
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnv()
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SOLANA_CLUSTER", "mainnet")
	os.Setenv("USDC_DECIMALS", "9")
	os.Setenv("EXPLORER_BASE_URL", "https://solscan.io")
	os.Setenv("NATS_URL", "nats://nats.example.com:4222")
	os.Setenv("CONFIRM_POLL_INTERVAL", "500ms")
	os.Setenv("CONFIRM_TIMEOUT", "30s")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "mainnet", cfg.Cluster)
	assert.Equal(t, uint8(9), cfg.TokenDecimals)
	assert.Equal(t, "https://solscan.io", cfg.ExplorerBaseURL)
	assert.Equal(t, "nats://nats.example.com:4222", cfg.NATSURL)
	assert.Equal(t, 500*time.Millisecond, cfg.ConfirmPollInterval)
	assert.Equal(t, 30*time.Second, cfg.ConfirmTimeout)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		SolanaRPCURL:        "https://api.devnet.solana.com",
		Cluster:             "devnet",
		TokenMintAddress:    "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU",
		PaymasterURL:        "https://paymaster.example.com",
		ExplorerBaseURL:     "https://explorer.solana.com",
		ConfirmPollInterval: 2 * time.Second,
		ConfirmTimeout:      60 * time.Second,
	}
	require.NoError(t, cfg.Validate())

	cfg.PaymasterURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PaymasterURL is required")
}
