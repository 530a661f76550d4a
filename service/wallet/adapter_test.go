package wallet

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider implements Provider plus the signing capabilities, mirroring a
// runtime surface richer than the declared Provider type.
type fakeProvider struct {
	connected  bool
	connecting bool
	session    *Session
	smart      *solana.PublicKey

	connectErr error
	signErr    error
	sendErr    error
	signature  solana.Signature

	sendCalls int
	lastBatch []solana.Instruction
}

func (f *fakeProvider) Connect(ctx context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeProvider) Disconnect(ctx context.Context) error {
	f.connected = false
	f.session = nil
	return nil
}

func (f *fakeProvider) IsConnected() bool  { return f.connected }
func (f *fakeProvider) IsConnecting() bool { return f.connecting }
func (f *fakeProvider) Session() *Session  { return f.session }

func (f *fakeProvider) SignMessage(ctx context.Context, message []byte) (*SignedMessage, error) {
	if f.signErr != nil {
		return nil, f.signErr
	}
	return &SignedMessage{Signature: []byte("sig"), SignedPayload: message}, nil
}

func (f *fakeProvider) SignAndSendTransaction(ctx context.Context, instructions []solana.Instruction, opts SendOptions) (solana.Signature, error) {
	f.sendCalls++
	f.lastBatch = instructions
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return f.signature, nil
}

func (f *fakeProvider) SmartWallet() *solana.PublicKey { return f.smart }

// bareProvider implements only the advertised Provider interface.
type bareProvider struct{}

func (bareProvider) Connect(ctx context.Context) error    { return nil }
func (bareProvider) Disconnect(ctx context.Context) error { return nil }
func (bareProvider) IsConnected() bool                    { return false }
func (bareProvider) IsConnecting() bool                   { return false }
func (bareProvider) Session() *Session                    { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAdapter_RejectsProviderWithoutCapabilities(t *testing.T) {
	_, err := NewAdapter(bareProvider{}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message signing")
}

func TestSmartWalletAddress_PrefersProviderSuppliedKey(t *testing.T) {
	direct := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	provider := &fakeProvider{
		connected: true,
		session:   &Session{WalletAddress: "11111111111111111111111111111111"},
		smart:     &direct,
	}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	addr := adapter.SmartWalletAddress()
	require.NotNil(t, addr)
	assert.Equal(t, direct.String(), addr.String())
}

func TestSmartWalletAddress_FallsBackToSessionString(t *testing.T) {
	provider := &fakeProvider{
		connected: true,
		session:   &Session{WalletAddress: "11111111111111111111111111111111"},
	}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	addr := adapter.SmartWalletAddress()
	require.NotNil(t, addr)
	assert.Equal(t, "11111111111111111111111111111111", addr.String())
}

func TestSmartWalletAddress_ParseFailureYieldsNil(t *testing.T) {
	provider := &fakeProvider{
		connected: true,
		session:   &Session{WalletAddress: "not-an-address"},
	}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	// Degrades to nil, never throws.
	assert.Nil(t, adapter.SmartWalletAddress())
}

func TestSmartWalletAddress_NoSessionYieldsNil(t *testing.T) {
	provider := &fakeProvider{}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	assert.Nil(t, adapter.SmartWalletAddress())
}

func TestSmartWalletAddress_MemoizedOnInputs(t *testing.T) {
	provider := &fakeProvider{
		connected: true,
		session:   &Session{WalletAddress: "11111111111111111111111111111111"},
	}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	first := adapter.SmartWalletAddress()
	second := adapter.SmartWalletAddress()
	require.NotNil(t, first)

	// Unchanged inputs return the cached value, not a fresh parse.
	assert.Same(t, first, second)

	// Changing an upstream input re-derives.
	provider.session = &Session{WalletAddress: "So11111111111111111111111111111111111111112"}
	third := adapter.SmartWalletAddress()
	require.NotNil(t, third)
	assert.NotEqual(t, first.String(), third.String())
}

func TestAdapter_DelegatesToProvider(t *testing.T) {
	sig := solana.MustSignatureFromBase58("5j7s6NiJS3JAkvgkoc18WVAsiSaci2pxB2A6ueCJP4tprA2TFg9wSyTLeYouxPBJEMzJinENTkpA52YStRW5Dia7")
	provider := &fakeProvider{signature: sig}

	adapter, err := NewAdapter(provider, testLogger())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, adapter.Connect(ctx))
	assert.True(t, adapter.IsConnected())

	signed, err := adapter.SignMessage(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), signed.SignedPayload)

	got, err := adapter.SignAndSendTransaction(ctx, nil, SendOptions{})
	require.NoError(t, err)
	assert.Equal(t, sig, got)

	require.NoError(t, adapter.Disconnect(ctx))
	assert.False(t, adapter.IsConnected())
	assert.Nil(t, adapter.Session())
}
