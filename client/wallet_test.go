package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/session/connect", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"connected":    true,
			"smart_wallet": "So11111111111111111111111111111111111111112",
			"session": map[string]string{
				"credential_id":  "cred-1",
				"wallet_address": "So11111111111111111111111111111111111111112",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	state, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, state.Connected)
	assert.Equal(t, "So11111111111111111111111111111111111111112", state.SmartWallet)
	require.NotNil(t, state.Session)
	assert.Equal(t, "cred-1", state.Session.CredentialID)
}

func TestConnect_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "passkey prompt cancelled",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passkey prompt cancelled")
}

func TestDisconnect_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/session/disconnect", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	assert.NoError(t, client.Disconnect(context.Background()))
}

func TestGetBalance_NullsPreserved(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/balance", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"native":null,"token":null,"is_loading":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	balances, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	// Unknown is nil, not zero.
	assert.Nil(t, balances.Native)
	assert.Nil(t, balances.Token)
	assert.False(t, balances.IsLoading)
}

func TestRefreshBalance_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/balance/refresh", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"native":2.5,"token":12.5,"is_loading":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	balances, err := client.RefreshBalance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, balances.Native)
	assert.InDelta(t, 2.5, *balances.Native, 1e-9)
	require.NotNil(t, balances.Token)
	assert.InDelta(t, 12.5, *balances.Token, 1e-9)
}

func TestSubmitTransfer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/transfers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "USDC", body["asset"])
		assert.Equal(t, "12.5", body["amount"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"signature":    "sig123",
			"asset":        "USDC",
			"amount":       "12.5",
			"explorer_url": "https://explorer.solana.com/tx/sig123?cluster=devnet",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	transfer, err := client.SubmitTransfer(context.Background(), TransferRequest{
		Asset:     "USDC",
		Amount:    "12.5",
		Recipient: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
	})
	require.NoError(t, err)
	assert.Equal(t, "sig123", transfer.Signature)
	assert.Equal(t, "https://explorer.solana.com/tx/sig123?cluster=devnet", transfer.ExplorerURL)
}

func TestSubmitTransfer_ValidationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "invalid amount",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.SubmitTransfer(context.Background(), TransferRequest{
		Asset:     "SOL",
		Amount:    "0",
		Recipient: "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid amount")
}

func TestListTransfers_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/transfers", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transfers":[{"signature":"sig2"},{"signature":"sig1"}],"status":"success"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	list, err := client.ListTransfers(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Transfers, 2)
	assert.Equal(t, "sig2", list.Transfers[0].Signature)
	assert.Equal(t, "success", list.Status)
}

func TestSignMessage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/sign-message", r.URL.Path)

		var body struct {
			Message []byte `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []byte("hello"), body.Message)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"signature":      "sig123",
			"signed_payload": body.Message,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	signed, err := client.SignMessage(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "sig123", signed.Signature)
	assert.Equal(t, []byte("hello"), signed.SignedPayload)
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	assert.NoError(t, client.Health(context.Background()))
}
