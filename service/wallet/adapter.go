package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Adapter presents a single, fully typed operation set over a wallet provider
// whose declared type is narrower than its actual runtime surface. All
// capability narrowing happens here, once, at construction.
type Adapter struct {
	provider Provider
	signer   MessageSigner
	sender   TransactionSender
	supplier AddressSupplier // nil when the provider has no parsed-address capability
	logger   *slog.Logger

	mu   sync.Mutex
	memo addressMemo
}

// addressMemo caches the derived smart wallet address keyed on its two
// upstream inputs so derivation re-executes only when either changes.
type addressMemo struct {
	valid   bool
	direct  *solana.PublicKey
	raw     string
	derived *solana.PublicKey
}

// NewAdapter narrows the provider against the signing capabilities and wires
// the adapter. Providers missing a required capability are rejected up front
// rather than failing at first use.
func NewAdapter(provider Provider, logger *slog.Logger) (*Adapter, error) {
	signer, ok := provider.(MessageSigner)
	if !ok {
		return nil, fmt.Errorf("wallet provider does not support message signing")
	}

	sender, ok := provider.(TransactionSender)
	if !ok {
		return nil, fmt.Errorf("wallet provider does not support transaction submission")
	}

	// Optional capability; absence just means we always parse the session's
	// raw address string.
	supplier, _ := provider.(AddressSupplier)

	return &Adapter{
		provider: provider,
		signer:   signer,
		sender:   sender,
		supplier: supplier,
		logger:   logger,
	}, nil
}

// Connect delegates to the provider.
func (a *Adapter) Connect(ctx context.Context) error {
	return a.provider.Connect(ctx)
}

// Disconnect delegates to the provider.
func (a *Adapter) Disconnect(ctx context.Context) error {
	return a.provider.Disconnect(ctx)
}

// IsConnected reports whether a passkey session is established.
func (a *Adapter) IsConnected() bool {
	return a.provider.IsConnected()
}

// IsConnecting reports whether a connect attempt is in flight.
func (a *Adapter) IsConnecting() bool {
	return a.provider.IsConnecting()
}

// Session returns the provider-owned session, or nil when disconnected.
func (a *Adapter) Session() *Session {
	return a.provider.Session()
}

// SignMessage delegates to the provider's signing capability.
func (a *Adapter) SignMessage(ctx context.Context, message []byte) (*SignedMessage, error) {
	return a.signer.SignMessage(ctx, message)
}

// SignAndSendTransaction submits the instruction batch through the provider
// in one atomic call.
func (a *Adapter) SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts SendOptions) (solana.Signature, error) {
	return a.sender.SignAndSendTransaction(ctx, instructions, opts)
}

// SmartWalletAddress derives the canonical smart wallet address. Preference
// order: a provider-supplied parsed key, then the session's raw address
// string. Parse failures degrade to nil rather than an error; callers must
// treat nil as "address unavailable", not as an error state.
//
// The derivation is memoized on the two upstream inputs and re-executes only
// when either changes.
func (a *Adapter) SmartWalletAddress() *solana.PublicKey {
	var direct *solana.PublicKey
	if a.supplier != nil {
		direct = a.supplier.SmartWallet()
	}

	var raw string
	if session := a.provider.Session(); session != nil {
		raw = session.WalletAddress
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.memo.valid && equalKeys(a.memo.direct, direct) && a.memo.raw == raw {
		return a.memo.derived
	}

	derived := a.deriveAddress(direct, raw)
	a.memo = addressMemo{
		valid:   true,
		direct:  direct,
		raw:     raw,
		derived: derived,
	}
	return derived
}

// deriveAddress implements the fallback-and-parse policy as a pure function
// of its two inputs.
func (a *Adapter) deriveAddress(direct *solana.PublicKey, raw string) *solana.PublicKey {
	if direct != nil {
		return direct
	}
	if raw == "" {
		return nil
	}

	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		a.logger.Warn("failed to parse session wallet address",
			"address", raw,
			"error", err,
		)
		return nil
	}
	return &key
}

func equalKeys(a, b *solana.PublicKey) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(*b)
}
