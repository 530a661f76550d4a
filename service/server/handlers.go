package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/solpass/walletd/service/balance"
	"github.com/solpass/walletd/service/config"
	"github.com/solpass/walletd/service/transfer"
	"github.com/solpass/walletd/service/wallet"
)

const maxRequestBodySize = 1 << 20 // 1MB - plenty for transfer requests

// sessionResponse is the JSON shape of the current session state.
type sessionResponse struct {
	Connected   bool            `json:"connected"`
	Connecting  bool            `json:"connecting"`
	Session     *wallet.Session `json:"session,omitempty"`
	SmartWallet string          `json:"smart_wallet,omitempty"`
}

func currentSession(adapter *wallet.Adapter) sessionResponse {
	resp := sessionResponse{
		Connected:  adapter.IsConnected(),
		Connecting: adapter.IsConnecting(),
		Session:    adapter.Session(),
	}
	if addr := adapter.SmartWalletAddress(); addr != nil {
		resp.SmartWallet = addr.String()
	}
	return resp
}

// handleConnect returns a handler that establishes a passkey session through
// the provider and points the balance reader at the resulting smart wallet.
// POST /api/v1/session/connect
func handleConnect(adapter *wallet.Adapter, reader *balance.Reader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := adapter.Connect(r.Context()); err != nil {
			logger.Error("connect failed", "error", err)
			writeError(w, err.Error(), http.StatusBadGateway)
			return
		}

		reader.SetAddress(r.Context(), adapter.SmartWalletAddress())

		resp := currentSession(adapter)
		logger.Info("session connected", "smart_wallet", resp.SmartWallet)
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleDisconnect returns a handler that ends the session and clears all
// wallet-scoped state.
// POST /api/v1/session/disconnect
func handleDisconnect(adapter *wallet.Adapter, reader *balance.Reader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := adapter.Disconnect(r.Context())
		// Local state is cleared regardless of the provider outcome.
		reader.SetAddress(r.Context(), nil)
		if err != nil {
			logger.Warn("disconnect reported an error", "error", err)
			writeError(w, err.Error(), http.StatusBadGateway)
			return
		}

		logger.Info("session disconnected")
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleGetSession returns the current session state.
// GET /api/v1/session
func handleGetSession(adapter *wallet.Adapter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, currentSession(adapter), http.StatusOK)
	})
}

// handleGetBalance returns the current balance snapshot.
// GET /api/v1/balance
func handleGetBalance(reader *balance.Reader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, reader.Snapshot(), http.StatusOK)
	})
}

// handleRefreshBalance triggers a fetch and returns the resulting snapshot.
// POST /api/v1/balance/refresh
func handleRefreshBalance(reader *balance.Reader, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader.Refresh(r.Context())
		writeJSON(w, reader.Snapshot(), http.StatusOK)
	})
}

// transferResponse decorates a history record with an explorer link.
type transferResponse struct {
	transfer.Record
	ExplorerURL string `json:"explorer_url"`
}

func toTransferResponse(record transfer.Record, cfg *config.Config) transferResponse {
	return transferResponse{
		Record:      record,
		ExplorerURL: transfer.ExplorerTxURL(cfg.ExplorerBaseURL, cfg.Cluster, record.Signature),
	}
}

// handleSubmitTransfer returns a handler that validates and submits a
// transfer. Validation failures map to 400, a submission already in flight
// to 409, and provider failures to 502 with the provider's message intact.
// POST /api/v1/transfers
func handleSubmitTransfer(builder *transfer.Builder, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req transfer.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}

		record, err := builder.Submit(r.Context(), req)
		if err != nil {
			status := http.StatusBadGateway
			switch {
			case errors.Is(err, transfer.ErrNotConnected),
				errors.Is(err, transfer.ErrInvalidAmount),
				errors.Is(err, transfer.ErrInvalidAddress),
				errors.Is(err, transfer.ErrInvalidAsset):
				status = http.StatusBadRequest
			case errors.Is(err, transfer.ErrSubmissionPending):
				status = http.StatusConflict
			}
			logger.Debug("transfer rejected", "asset", req.Asset, "error", err)
			writeError(w, err.Error(), status)
			return
		}

		writeJSON(w, toTransferResponse(*record, cfg), http.StatusCreated)
	})
}

// handleListTransfers returns the recent transfer history, newest first,
// along with the builder's submission state.
// GET /api/v1/transfers
func handleListTransfers(builder *transfer.Builder, cfg *config.Config, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		records := builder.History().Records()
		resp := make([]transferResponse, len(records))
		for i, record := range records {
			resp[i] = toTransferResponse(record, cfg)
		}

		status, lastErr := builder.Status()
		writeJSON(w, map[string]interface{}{
			"transfers": resp,
			"status":    status,
			"error":     lastErr,
		}, http.StatusOK)
	})
}

// signMessageRequest carries the payload to sign, base64-encoded on the wire.
type signMessageRequest struct {
	Message []byte `json:"message"`
}

// handleSignMessage returns a handler that signs an arbitrary payload with
// the session passkey.
// POST /api/v1/sign-message
func handleSignMessage(adapter *wallet.Adapter, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req signMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if len(req.Message) == 0 {
			writeError(w, "message is required", http.StatusBadRequest)
			return
		}

		signed, err := adapter.SignMessage(r.Context(), req.Message)
		if err != nil {
			logger.Error("message signing failed", "error", err)
			writeError(w, err.Error(), http.StatusBadGateway)
			return
		}

		writeJSON(w, signed, http.StatusOK)
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
