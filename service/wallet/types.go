package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Session holds the passkey session state owned by the wallet provider. It is
// created by the provider on successful passkey authentication; this codebase
// only reads it.
type Session struct {
	CredentialID  string `json:"credential_id"`
	WalletAddress string `json:"wallet_address"` // raw base58 as returned by the portal
	Device        string `json:"device"`
}

// SignedMessage is the result of signing an arbitrary payload.
type SignedMessage struct {
	Signature     []byte `json:"signature"`
	SignedPayload []byte `json:"signed_payload"`
}

// SendOptions carries optional parameters for transaction submission.
type SendOptions struct {
	Commitment string `json:"commitment,omitempty"`
}

// Provider is the advertised surface of the external wallet provider. The
// runtime value behind it is known to be richer than this declared type; the
// adapter narrows it against the capability interfaces below at construction
// and never lets the unchecked value leak past that boundary.
type Provider interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool
	IsConnecting() bool
	Session() *Session
}

// MessageSigner is the message-signing capability the provider is expected to
// carry at runtime even though Provider does not declare it.
type MessageSigner interface {
	SignMessage(ctx context.Context, message []byte) (*SignedMessage, error)
}

// TransactionSender is the transaction-submission capability the provider is
// expected to carry at runtime. A single returned signature denotes the whole
// instruction batch succeeded.
type TransactionSender interface {
	SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts SendOptions) (solana.Signature, error)
}

// AddressSupplier is an optional capability: some providers hand back the
// smart wallet address as a parsed key rather than only as the session's raw
// string. When absent, the adapter falls back to parsing the session field.
type AddressSupplier interface {
	SmartWallet() *solana.PublicKey
}
