package paymaster

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/solpass/walletd/service/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWalletAddr = "So11111111111111111111111111111111111111112"
	testSignature  = "5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnect_EstablishesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"credential_id": "cred-123",
			"smart_wallet":  testWalletAddr,
			"device":        "Pixel 9",
		})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())

	require.NoError(t, provider.Connect(context.Background()))
	assert.True(t, provider.IsConnected())
	assert.False(t, provider.IsConnecting())

	sess := provider.Session()
	require.NotNil(t, sess)
	assert.Equal(t, "cred-123", sess.CredentialID)
	assert.Equal(t, testWalletAddr, sess.WalletAddress)
	assert.Equal(t, "Pixel 9", sess.Device)

	// The concrete client also carries the parsed-address capability.
	supplier, ok := provider.(wallet.AddressSupplier)
	require.True(t, ok)
	require.NotNil(t, supplier.SmartWallet())
	assert.Equal(t, testWalletAddr, supplier.SmartWallet().String())
}

func TestConnect_UnparseableAddressKeepsRawString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{
			"credential_id": "cred-123",
			"smart_wallet":  "garbage-address",
		})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())
	require.NoError(t, provider.Connect(context.Background()))

	// Parsed capability yields nil; the raw string survives on the session so
	// the adapter's fallback path can see it.
	supplier := provider.(wallet.AddressSupplier)
	assert.Nil(t, supplier.SmartWallet())
	assert.Equal(t, "garbage-address", provider.Session().WalletAddress)
}

func TestConnect_PortalRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "passkey prompt cancelled"})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())
	err := provider.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passkey prompt cancelled")
	assert.False(t, provider.IsConnected())
}

func TestDisconnect_ClearsSessionEvenOnRemoteFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == "POST" {
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{
				"credential_id": "cred-123",
				"smart_wallet":  testWalletAddr,
			})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())
	require.NoError(t, provider.Connect(context.Background()))

	err := provider.Disconnect(context.Background())
	require.Error(t, err)
	assert.False(t, provider.IsConnected())
	assert.Nil(t, provider.Session())
	assert.Equal(t, 2, calls)
}

func TestSignAndSendTransaction_SerializesInstructionBatch(t *testing.T) {
	var captured struct {
		Instructions []struct {
			ProgramID string `json:"program_id"`
			Accounts  []struct {
				Pubkey     string `json:"pubkey"`
				IsSigner   bool   `json:"is_signer"`
				IsWritable bool   `json:"is_writable"`
			} `json:"accounts"`
			Data []byte `json:"data"`
		} `json:"instructions"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/transactions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"signature": testSignature})
	}))
	defer srv.Close()

	from := solana.MustPublicKeyFromBase58(testWalletAddr)
	to := solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	ins := system.NewTransferInstruction(1_000_000, from, to).Build()

	provider := New(srv.URL, nil, nil, testLogger())
	sender, ok := provider.(wallet.TransactionSender)
	require.True(t, ok)

	sig, err := sender.SignAndSendTransaction(context.Background(), []solana.Instruction{ins}, wallet.SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, testSignature, sig.String())

	require.Len(t, captured.Instructions, 1)
	assert.Equal(t, solana.SystemProgramID.String(), captured.Instructions[0].ProgramID)
	assert.NotEmpty(t, captured.Instructions[0].Data)
	require.Len(t, captured.Instructions[0].Accounts, 2)
	assert.Equal(t, from.String(), captured.Instructions[0].Accounts[0].Pubkey)
	assert.True(t, captured.Instructions[0].Accounts[0].IsSigner)
}

func TestSignAndSendTransaction_PaymasterError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "bundler unavailable"})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())
	sender := provider.(wallet.TransactionSender)

	_, err := sender.SignAndSendTransaction(context.Background(), nil, wallet.SendOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bundler unavailable")
}

func TestSignMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/messages/sign", r.URL.Path)
		var req struct {
			Message []byte `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []byte("hello"), req.Message)
		json.NewEncoder(w).Encode(map[string][]byte{
			"signature":      []byte("sig-bytes"),
			"signed_payload": req.Message,
		})
	}))
	defer srv.Close()

	provider := New(srv.URL, nil, nil, testLogger())
	signer, ok := provider.(wallet.MessageSigner)
	require.True(t, ok)

	signed, err := signer.SignMessage(context.Background(), []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("sig-bytes"), signed.Signature)
	assert.Equal(t, []byte("hello"), signed.SignedPayload)
}
