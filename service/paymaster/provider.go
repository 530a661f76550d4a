// Package paymaster implements the external passkey wallet provider boundary.
// The portal holds the WebAuthn credential and smart-wallet mapping; the
// paymaster relay signs, sponsors fees, and submits bundled transactions.
// Both are opaque to this service: everything here is plain HTTP delegation.
package paymaster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/solpass/walletd/service/metrics"
	"github.com/solpass/walletd/service/wallet"
)

// Client talks to the portal/paymaster service. Its declared constructor type
// is wallet.Provider; the concrete value additionally implements
// wallet.MessageSigner, wallet.TransactionSender, and wallet.AddressSupplier,
// which the adapter narrows against at its boundary.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics

	mu         sync.Mutex
	connecting bool
	session    *wallet.Session
	smart      *solana.PublicKey
}

// New creates a wallet provider backed by the portal/paymaster service.
// If metrics is nil, no metrics will be recorded.
func New(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) wallet.Provider {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		metrics:    m,
	}
}

// sessionResponse is the portal's session payload. The smart wallet address
// arrives as a raw base58 string.
type sessionResponse struct {
	CredentialID string `json:"credential_id"`
	SmartWallet  string `json:"smart_wallet"`
	Device       string `json:"device"`
}

// Connect establishes a passkey session with the portal.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.connecting {
		c.mu.Unlock()
		return fmt.Errorf("connect already in progress")
	}
	c.connecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.connecting = false
		c.mu.Unlock()
	}()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/sessions", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	c.record("connect", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	var sess sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return fmt.Errorf("failed to decode session response: %w", err)
	}

	// Parse the smart wallet eagerly when possible; the adapter falls back to
	// the session's raw string when the parse fails.
	var smart *solana.PublicKey
	if key, err := solana.PublicKeyFromBase58(sess.SmartWallet); err == nil {
		smart = &key
	} else {
		c.logger.Warn("portal returned unparseable smart wallet address",
			"address", sess.SmartWallet,
			"error", err,
		)
	}

	c.mu.Lock()
	c.session = &wallet.Session{
		CredentialID:  sess.CredentialID,
		WalletAddress: sess.SmartWallet,
		Device:        sess.Device,
	}
	c.smart = smart
	c.mu.Unlock()

	c.logger.Debug("passkey session established",
		"credential_id", sess.CredentialID,
		"smart_wallet", sess.SmartWallet,
	)
	return nil
}

// Disconnect tears down the portal session. Local session state is cleared
// even if the remote call fails.
func (c *Client) Disconnect(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.session = nil
		c.smart = nil
		c.mu.Unlock()
	}()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+"/v1/sessions/current", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	c.record("disconnect", err, time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	c.logger.Debug("passkey session closed")
	return nil
}

// IsConnected reports whether a session is established.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// IsConnecting reports whether a connect attempt is in flight.
func (c *Client) IsConnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connecting
}

// Session returns the current session, or nil when disconnected.
func (c *Client) Session() *wallet.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SmartWallet returns the parsed smart wallet key when the portal supplied a
// parseable one, else nil.
func (c *Client) SmartWallet() *solana.PublicKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.smart
}

// SignMessage asks the paymaster to sign an arbitrary payload with the
// passkey-delegated authority.
func (c *Client) SignMessage(ctx context.Context, message []byte) (*wallet.SignedMessage, error) {
	reqBody := map[string]interface{}{
		"message": message, // encoding/json emits []byte as base64
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages/sign", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	c.record("sign_message", err, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	var signed wallet.SignedMessage
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return nil, fmt.Errorf("failed to decode sign response: %w", err)
	}

	return &signed, nil
}

// instructionPayload is the wire form of one instruction sent to the
// paymaster for bundling.
type instructionPayload struct {
	ProgramID string           `json:"program_id"`
	Accounts  []accountPayload `json:"accounts"`
	Data      []byte           `json:"data"`
}

type accountPayload struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"is_signer"`
	IsWritable bool   `json:"is_writable"`
}

// SignAndSendTransaction submits the full instruction batch to the paymaster
// in one call. The paymaster sponsors fees, bundles, signs with the
// passkey-delegated authority, and returns the transaction signature.
func (c *Client) SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts wallet.SendOptions) (solana.Signature, error) {
	payload := make([]instructionPayload, 0, len(instructions))
	for _, ins := range instructions {
		data, err := ins.Data()
		if err != nil {
			return solana.Signature{}, fmt.Errorf("failed to serialize instruction data: %w", err)
		}
		accounts := make([]accountPayload, 0, len(ins.Accounts()))
		for _, meta := range ins.Accounts() {
			accounts = append(accounts, accountPayload{
				Pubkey:     meta.PublicKey.String(),
				IsSigner:   meta.IsSigner,
				IsWritable: meta.IsWritable,
			})
		}
		payload = append(payload, instructionPayload{
			ProgramID: ins.ProgramID().String(),
			Accounts:  accounts,
			Data:      data,
		})
	}

	reqBody := map[string]interface{}{
		"instructions": payload,
		"options":      opts,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	c.record("sign_and_send", err, time.Since(start).Seconds())
	if err != nil {
		return solana.Signature{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return solana.Signature{}, c.parseErrorResponse(resp)
	}

	var result struct {
		Signature string `json:"signature"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to decode transaction response: %w", err)
	}

	signature, err := solana.SignatureFromBase58(result.Signature)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("paymaster returned invalid signature %q: %w", result.Signature, err)
	}

	c.logger.Debug("transaction submitted via paymaster",
		"signature", result.Signature,
		"instruction_count", len(instructions),
	)
	return signature, nil
}

// parseErrorResponse attempts to parse an error response from the service.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return fmt.Errorf("request failed: %s", errResp.Error)
}

// record emits provider call metrics when a collector is configured.
func (c *Client) record(operation string, err error, duration float64) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordProviderCall(operation, status, duration)
}
