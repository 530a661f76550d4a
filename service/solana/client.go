package solana

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/solpass/walletd/service/metrics"
)

// Client provides instrumented, confirmed-commitment reads over the RPC layer.
// It wraps the RPC client with the domain-specific operations the balance
// reader and transfer builder need.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics (e.g., "mainnet", "devnet", rpc host)
}

// NewClient creates a new Solana client.
// The endpoint parameter is used for metrics labeling (e.g., "mainnet", "devnet", or RPC hostname).
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// GetBalance returns the lamport balance of an account at confirmed commitment.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	start := time.Now()
	result, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	c.record("GetBalance", err, time.Since(start).Seconds())

	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get balance",
			"account", account.String(),
			"error", err,
		)
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return result.Value, nil
}

// GetTokenAccountBalance returns the token balance of a token account at
// confirmed commitment. Callers should treat IsAccountNotFound errors as a
// zero balance, not a failure.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.UiTokenAmount, error) {
	start := time.Now()
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	c.record("GetTokenAccountBalance", err, time.Since(start).Seconds())

	if err != nil {
		return nil, fmt.Errorf("failed to get token account balance: %w", err)
	}

	return result.Value, nil
}

// AwaitConfirmation polls signature statuses until the transaction reaches
// confirmed (or finalized) commitment, the transaction fails on-chain, or ctx
// is done. The caller supplies the poll interval; the deadline comes from ctx.
func (c *Client) AwaitConfirmation(ctx context.Context, signature solana.Signature, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		result, err := c.rpc.GetSignatureStatuses(ctx, true, signature)
		c.record("GetSignatureStatuses", err, time.Since(start).Seconds())

		if err != nil {
			c.logger.WarnContext(ctx, "failed to get signature status, will retry",
				"signature", signature.String(),
				"error", err,
			)
		} else if len(result.Value) > 0 && result.Value[0] != nil {
			status := result.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction failed on-chain: %v", status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				c.logger.DebugContext(ctx, "transaction confirmed",
					"signature", signature.String(),
					"status", status.ConfirmationStatus,
					"slot", status.Slot,
				)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("confirmation wait aborted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// record emits RPC call metrics when a collector is configured.
func (c *Client) record(method string, err error, duration float64) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, duration)
}

// IsAccountNotFound reports whether an RPC error indicates the queried
// account does not exist. The node returns this for token accounts that have
// never been created, which callers treat as a zero balance.
func IsAccountNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "could not find account")
}
