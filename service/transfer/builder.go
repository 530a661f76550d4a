// Package transfer validates transfer requests, assembles instruction sets
// for native and token transfers, and submits them through the typed-wallet
// adapter.
package transfer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solpass/walletd/service/events"
	"github.com/solpass/walletd/service/metrics"
	"github.com/solpass/walletd/service/wallet"
)

// solDecimals is the base-unit precision of native SOL (lamports).
const solDecimals = uint8(9)

// Asset identifies what is being transferred.
type Asset string

const (
	AssetSOL  Asset = "SOL"
	AssetUSDC Asset = "USDC"
)

// Validation errors, detected locally before any provider call. Messages
// surface to users verbatim.
var (
	ErrNotConnected   = errors.New("wallet not connected")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidAsset   = errors.New("invalid asset")

	// ErrSubmissionPending rejects re-entrant submissions while one is in flight.
	ErrSubmissionPending = errors.New("a transfer is already pending")
)

// Status is the per-submission state machine. Idle is re-enterable: any
// outcome state yields to a new submission.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request is a transient, per-submission transfer request. It is validated
// before use and discarded after submission.
type Request struct {
	Asset     Asset  `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

// Wallet is what the builder needs from the typed-wallet adapter.
type Wallet interface {
	SmartWalletAddress() *solana.PublicKey
	SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts wallet.SendOptions) (solana.Signature, error)
}

// Confirmer waits for a submitted signature to reach confirmed commitment.
type Confirmer interface {
	AwaitConfirmation(ctx context.Context, signature solana.Signature, interval time.Duration) error
}

// Config carries the builder's static wiring.
type Config struct {
	Mint            solana.PublicKey
	TokenDecimals   uint8
	ConfirmInterval time.Duration
	ConfirmTimeout  time.Duration

	// Refresh is invoked after a submitted transfer reaches a queryable
	// confirmation state, letting the balance reader observe the result.
	Refresh func(ctx context.Context)
}

// Builder validates transfer requests, assembles instruction sets, and
// submits them atomically through the wallet adapter.
type Builder struct {
	wallet    Wallet
	confirmer Confirmer
	publisher events.Publisher // optional; nil disables event publishing
	history   *History
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.Metrics

	mu      sync.Mutex
	status  Status
	lastErr string
}

// NewBuilder wires a transfer builder.
// If publisher is nil, no transfer events are published.
// If m is nil, no metrics are recorded.
func NewBuilder(w Wallet, confirmer Confirmer, cfg Config, history *History, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Builder {
	if history == nil {
		history = NewHistory(DefaultHistoryCapacity)
	}
	return &Builder{
		wallet:    w,
		confirmer: confirmer,
		publisher: publisher,
		history:   history,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		status:    StatusIdle,
	}
}

// Status returns the current submission state and, in the error state, the
// user-visible message.
func (b *Builder) Status() (Status, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status, b.lastErr
}

// History returns the bounded transfer history.
func (b *Builder) History() *History {
	return b.history
}

// Submit validates the request, builds the instruction set, and submits it in
// one atomic adapter call. Validation fails fast in a fixed order: connected
// sender, then amount, then recipient; no provider call happens on a
// validation failure. Provider errors are surfaced with their message intact
// so the user can correct and resubmit.
func (b *Builder) Submit(ctx context.Context, req Request) (*Record, error) {
	b.mu.Lock()
	if b.status == StatusPending {
		b.mu.Unlock()
		return nil, ErrSubmissionPending
	}
	b.status = StatusPending
	b.lastErr = ""
	b.mu.Unlock()

	record, err := b.submit(ctx, req)

	b.mu.Lock()
	if err != nil {
		b.status = StatusError
		b.lastErr = err.Error()
	} else {
		b.status = StatusSuccess
	}
	b.mu.Unlock()

	return record, err
}

func (b *Builder) submit(ctx context.Context, req Request) (*Record, error) {
	// 1. The adapter must report a sender address.
	sender := b.wallet.SmartWalletAddress()
	if sender == nil {
		b.recordValidationFailure("not_connected")
		return nil, ErrNotConnected
	}

	decimals, err := b.decimalsFor(req.Asset)
	if err != nil {
		b.recordValidationFailure("invalid_asset")
		return nil, err
	}

	// 2. The amount must parse as a positive decimal.
	baseUnits, err := ParseAmount(req.Amount, decimals)
	if err != nil {
		b.recordValidationFailure("invalid_amount")
		return nil, err
	}

	// 3. The recipient must be a structurally valid address.
	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		b.recordValidationFailure("invalid_address")
		return nil, ErrInvalidAddress
	}

	var instructions []solana.Instruction
	switch req.Asset {
	case AssetSOL:
		instructions = BuildNativeTransfer(baseUnits, *sender, recipient)
	case AssetUSDC:
		instructions, err = BuildTokenTransfer(baseUnits, decimals, b.cfg.Mint, *sender, recipient)
		if err != nil {
			return nil, err
		}
	}

	b.logger.DebugContext(ctx, "submitting transfer",
		"asset", req.Asset,
		"amount", req.Amount,
		"recipient", req.Recipient,
		"instruction_count", len(instructions),
	)

	signature, err := b.wallet.SignAndSendTransaction(ctx, instructions, wallet.SendOptions{})
	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordTransfer(string(req.Asset), "error")
		}
		b.logger.WarnContext(ctx, "transfer submission failed",
			"asset", req.Asset,
			"error", err,
		)
		return nil, err
	}

	record := Record{
		Signature: signature.String(),
		Asset:     req.Asset,
		Amount:    req.Amount,
		Timestamp: time.Now().UTC(),
	}
	b.history.Append(record)

	if b.metrics != nil {
		b.metrics.RecordTransfer(string(req.Asset), "success")
	}
	b.logger.InfoContext(ctx, "transfer submitted",
		"signature", record.Signature,
		"asset", req.Asset,
		"amount", req.Amount,
	)

	b.publishEvent(ctx, &record, sender.String(), req.Recipient)

	// Wait for confirmation and refresh balances off the submission path.
	// The wait is detached from the request's cancellation but bounded by
	// the configured timeout.
	go b.confirmAndRefresh(context.WithoutCancel(ctx), signature, req.Asset)

	return &record, nil
}

// decimalsFor returns the base-unit precision for an asset kind.
func (b *Builder) decimalsFor(asset Asset) (uint8, error) {
	switch asset {
	case AssetSOL:
		return solDecimals, nil
	case AssetUSDC:
		return b.cfg.TokenDecimals, nil
	default:
		return 0, ErrInvalidAsset
	}
}

// confirmAndRefresh polls for confirmation and then invokes the refresh
// callback. The refresh runs even when the wait times out: balances may
// still have settled, and a stale read is corrected by the next refresh.
func (b *Builder) confirmAndRefresh(ctx context.Context, signature solana.Signature, asset Asset) {
	if b.confirmer != nil {
		waitCtx, cancel := context.WithTimeout(ctx, b.cfg.ConfirmTimeout)
		defer cancel()

		start := time.Now()
		if err := b.confirmer.AwaitConfirmation(waitCtx, signature, b.cfg.ConfirmInterval); err != nil {
			b.logger.WarnContext(ctx, "confirmation wait ended without confirmed status",
				"signature", signature.String(),
				"error", err,
			)
		} else if b.metrics != nil {
			b.metrics.RecordConfirmation(string(asset), time.Since(start).Seconds())
		}
	}

	if b.cfg.Refresh != nil {
		b.cfg.Refresh(ctx)
	}
}

// publishEvent publishes the completed transfer to the event stream. Publish
// failures are logged, never surfaced: eventing is best-effort.
func (b *Builder) publishEvent(ctx context.Context, record *Record, sender, recipient string) {
	if b.publisher == nil {
		return
	}

	event := &events.TransferEvent{
		Signature:     record.Signature,
		WalletAddress: sender,
		Recipient:     recipient,
		Asset:         string(record.Asset),
		Amount:        record.Amount,
		Timestamp:     record.Timestamp,
		PublishedAt:   time.Now().UTC(),
	}
	if err := b.publisher.PublishTransfer(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "failed to publish transfer event",
			"signature", record.Signature,
			"error", err,
		)
	}
}

// recordValidationFailure counts a request rejected before any provider call.
func (b *Builder) recordValidationFailure(reason string) {
	if b.metrics != nil {
		b.metrics.RecordValidationFailure(reason)
	}
}
