// Package client provides an HTTP client for the walletd service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Session describes an established passkey session.
type Session struct {
	CredentialID  string `json:"credential_id"`
	WalletAddress string `json:"wallet_address"`
	Device        string `json:"device,omitempty"`
}

// SessionState is the server's view of the current session.
type SessionState struct {
	Connected   bool     `json:"connected"`
	Connecting  bool     `json:"connecting"`
	Session     *Session `json:"session,omitempty"`
	SmartWallet string   `json:"smart_wallet,omitempty"`
}

// Balances is a point-in-time balance snapshot. Nil means unknown, which is
// distinct from zero.
type Balances struct {
	Native    *float64 `json:"native"`
	Token     *float64 `json:"token"`
	IsLoading bool     `json:"is_loading"`
	Err       string   `json:"error,omitempty"`
}

// TransferRequest submits a transfer of the given asset.
type TransferRequest struct {
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient"`
}

// Transfer is one submitted transfer.
type Transfer struct {
	Signature   string    `json:"signature"`
	Asset       string    `json:"asset"`
	Amount      string    `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	ExplorerURL string    `json:"explorer_url"`
}

// TransferList is the recent transfer history plus the submission state.
type TransferList struct {
	Transfers []Transfer `json:"transfers"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// SignedMessage is a passkey signature over an arbitrary payload.
type SignedMessage struct {
	Signature     string `json:"signature"`
	SignedPayload []byte `json:"signed_payload"`
}

// Client is the HTTP client for the walletd service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new wallet service client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
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
	}
}

// Connect establishes a passkey session.
func (c *Client) Connect(ctx context.Context) (*SessionState, error) {
	var state SessionState
	if err := c.do(ctx, "POST", "/api/v1/session/connect", nil, http.StatusOK, &state); err != nil {
		return nil, err
	}
	c.logger.Debug("session connected", "smart_wallet", state.SmartWallet)
	return &state, nil
}

// Disconnect ends the current session.
func (c *Client) Disconnect(ctx context.Context) error {
	if err := c.do(ctx, "POST", "/api/v1/session/disconnect", nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	c.logger.Debug("session disconnected")
	return nil
}

// GetSession retrieves the current session state.
func (c *Client) GetSession(ctx context.Context) (*SessionState, error) {
	var state SessionState
	if err := c.do(ctx, "GET", "/api/v1/session", nil, http.StatusOK, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetBalance retrieves the current balance snapshot without triggering a
// fetch.
func (c *Client) GetBalance(ctx context.Context) (*Balances, error) {
	var balances Balances
	if err := c.do(ctx, "GET", "/api/v1/balance", nil, http.StatusOK, &balances); err != nil {
		return nil, err
	}
	return &balances, nil
}

// RefreshBalance triggers a balance fetch and returns the resulting
// snapshot.
func (c *Client) RefreshBalance(ctx context.Context) (*Balances, error) {
	var balances Balances
	if err := c.do(ctx, "POST", "/api/v1/balance/refresh", nil, http.StatusOK, &balances); err != nil {
		return nil, err
	}
	return &balances, nil
}

// SubmitTransfer validates and submits a transfer.
func (c *Client) SubmitTransfer(ctx context.Context, req TransferRequest) (*Transfer, error) {
	var transfer Transfer
	if err := c.do(ctx, "POST", "/api/v1/transfers", req, http.StatusCreated, &transfer); err != nil {
		return nil, err
	}
	c.logger.Debug("transfer submitted", "signature", transfer.Signature, "asset", req.Asset)
	return &transfer, nil
}

// ListTransfers retrieves the recent transfer history, newest first.
func (c *Client) ListTransfers(ctx context.Context) (*TransferList, error) {
	var list TransferList
	if err := c.do(ctx, "GET", "/api/v1/transfers", nil, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// SignMessage signs an arbitrary payload with the session passkey.
func (c *Client) SignMessage(ctx context.Context, message []byte) (*SignedMessage, error) {
	req := map[string][]byte{"message": message}
	var signed SignedMessage
	if err := c.do(ctx, "POST", "/api/v1/sign-message", req, http.StatusOK, &signed); err != nil {
		return nil, err
	}
	return &signed, nil
}

// Health checks whether the service is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// do performs a JSON round trip against an API endpoint. A nil out skips
// response decoding.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, wantStatus int, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.parseErrorResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse extracts the error message from a failed API response.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}
	return fmt.Errorf("%s", apiErr.Error)
}
