// Package balance produces point-in-time balance snapshots for a wallet
// address, independently of the wallet adapter.
package balance

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solpass/walletd/service/metrics"
	solanaclient "github.com/solpass/walletd/service/solana"
)

// LamportsPerSOL is the conversion divisor from base units to display units.
const LamportsPerSOL = 1_000_000_000

// ChainReader is the subset of RPC reads the balance reader needs.
type ChainReader interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.UiTokenAmount, error)
}

// Snapshot is the wholesale result of one refresh. Nil balance pointers mean
// "unknown", which is distinct from a known zero.
type Snapshot struct {
	Native    *float64 `json:"native"`
	Token     *float64 `json:"token"`
	IsLoading bool     `json:"is_loading"`
	Err       string   `json:"error,omitempty"`
}

// Reader maintains a balance snapshot for one address. A generation counter
// guards overlapping refreshes: results from a superseded fetch are
// discarded, including after the address has been cleared.
type Reader struct {
	chain   ChainReader
	mint    solana.PublicKey
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu   sync.Mutex
	addr *solana.PublicKey
	gen  uint64
	snap Snapshot
}

// NewReader creates a balance reader for the given token mint.
// If metrics is nil, no metrics will be recorded.
func NewReader(chain ChainReader, mint solana.PublicKey, m *metrics.Metrics, logger *slog.Logger) *Reader {
	return &Reader{
		chain:   chain,
		mint:    mint,
		logger:  logger,
		metrics: m,
	}
}

// SetAddress changes the queried address and refreshes. Passing nil resets
// the snapshot to the all-null, not-loading state and invalidates any fetch
// still in flight.
func (r *Reader) SetAddress(ctx context.Context, addr *solana.PublicKey) {
	r.mu.Lock()
	r.gen++
	r.addr = addr
	if addr == nil {
		r.snap = Snapshot{}
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.Refresh(ctx)
}

// Snapshot returns the current snapshot.
func (r *Reader) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// Refresh recomputes the snapshot for the current address. On failure the
// previous balances are preserved (stale-but-visible) and only the error
// field is set. A refresh that has been superseded by a newer one, or by an
// address change, discards its result.
func (r *Reader) Refresh(ctx context.Context) {
	r.mu.Lock()
	if r.addr == nil {
		r.snap = Snapshot{}
		r.mu.Unlock()
		return
	}
	r.gen++
	gen := r.gen
	addr := *r.addr
	r.snap.IsLoading = true
	r.snap.Err = ""
	r.mu.Unlock()

	native, token, err := r.fetch(ctx, addr)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.gen != gen {
		// A newer refresh or an address change superseded this fetch.
		if r.metrics != nil {
			r.metrics.RecordStaleDiscard()
		}
		r.logger.DebugContext(ctx, "discarding superseded balance fetch",
			"address", addr.String(),
		)
		return
	}

	r.snap.IsLoading = false
	if err != nil {
		// Keep stale balances visible; surface the error.
		r.snap.Err = err.Error()
		if r.metrics != nil {
			r.metrics.RecordBalanceRefresh("error")
		}
		r.logger.WarnContext(ctx, "balance refresh failed",
			"address", addr.String(),
			"error", err,
		)
		return
	}

	r.snap.Native = &native
	r.snap.Token = &token
	if r.metrics != nil {
		r.metrics.RecordBalanceRefresh("success")
	}
}

// fetch reads both balances outside the lock.
func (r *Reader) fetch(ctx context.Context, addr solana.PublicKey) (native, token float64, err error) {
	lamports, err := r.chain.GetBalance(ctx, addr)
	if err != nil {
		return 0, 0, err
	}
	native = float64(lamports) / LamportsPerSOL

	ata, _, err := solana.FindAssociatedTokenAddress(addr, r.mint)
	if err != nil {
		return 0, 0, err
	}

	amount, err := r.chain.GetTokenAccountBalance(ctx, ata)
	if err != nil {
		if solanaclient.IsAccountNotFound(err) {
			// No associated token account yet means a zero balance, not an error.
			return native, 0, nil
		}
		return 0, 0, err
	}

	token, err = uiAmount(amount)
	if err != nil {
		return 0, 0, err
	}
	return native, token, nil
}

// uiAmount converts an RPC token amount to display units, preferring the
// node-computed value when present.
func uiAmount(amount *rpc.UiTokenAmount) (float64, error) {
	if amount == nil {
		return 0, nil
	}
	if amount.UiAmount != nil {
		return *amount.UiAmount, nil
	}
	raw, err := strconv.ParseFloat(amount.Amount, 64)
	if err != nil {
		return 0, err
	}
	for i := uint8(0); i < amount.Decimals; i++ {
		raw /= 10
	}
	return raw, nil
}
