package events

import "time"

// TransferEvent represents a completed transfer published to NATS.
// This is published to the subject "transfers.{wallet_address}" in JetStream.
type TransferEvent struct {
	// Transaction identifiers
	Signature string `json:"signature"`

	// Wallet information
	WalletAddress string `json:"wallet_address"` // sender smart wallet
	Recipient     string `json:"recipient"`

	// Transfer details
	Asset  string `json:"asset"`  // "SOL" or "USDC"
	Amount string `json:"amount"` // decimal display units as submitted

	// Timing information
	Timestamp   time.Time `json:"timestamp"`
	PublishedAt time.Time `json:"published_at"`
}
