package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExplorerTxURL(t *testing.T) {
	base := "https://explorer.solana.com"

	assert.Equal(t,
		"https://explorer.solana.com/tx/abc123",
		ExplorerTxURL(base, "mainnet", "abc123"))

	assert.Equal(t,
		"https://explorer.solana.com/tx/abc123?cluster=devnet",
		ExplorerTxURL(base, "devnet", "abc123"))
}
