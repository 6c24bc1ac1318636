package x402gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitwit/x402-gate/config"
	"github.com/vitwit/x402-gate/types"
	"github.com/vitwit/x402-gate/verification"
)

const (
	testUser      = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testOtherUser = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

// stubVerifier returns a canned verification result, or a canned error.
type stubVerifier struct {
	result *types.PaymentVerification
	err    error
	calls  int
}

func (s *stubVerifier) VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	result := *s.result
	result.Chain = request.Chain
	return &result, nil
}

func (s *stubVerifier) SupportsChain(chain types.ChainType) bool {
	return true
}

func newTestEngine(t *testing.T, opts ...Option) *X402 {
	t.Helper()
	return New(config.New(), opts...)
}

func TestHandleAccessRequest_IssuesChallenge(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)

	assert.False(t, result.ShouldServeContent)
	assert.Equal(t, 402, result.HTTPStatus)
	require.NotNil(t, result.X402Response)
	assert.Equal(t, 402, result.X402Response.Status)

	challenge := result.X402Response.PaymentRequired
	assert.NotEmpty(t, challenge.Nonce)
	assert.Equal(t, "1000000000000000", challenge.Amount)
	assert.Equal(t, types.CurrencyNative, challenge.Currency.Kind)
	assert.Equal(t, "Access to: /premium/data", challenge.Description)
	assert.Equal(t, "1", challenge.Chain.ChainID)
	assert.Contains(t, result.X402Response.VerificationURL, challenge.Nonce)
}

func TestHandleAccessRequest_CustomAmount(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.HandleAccessRequest(context.Background(), testUser, "/premium/data", "", "42000000")
	require.NoError(t, err)
	assert.Equal(t, "42000000", result.X402Response.PaymentRequired.Amount)
}

func TestHandleAccessRequest_RejectsMalformedAmount(t *testing.T) {
	engine := newTestEngine(t)

	for _, amount := range []string{"abc", "-5", "1.2.3"} {
		_, err := engine.HandleAccessRequest(context.Background(), testUser, "/premium/data", "", amount)
		require.Error(t, err, "amount %q", amount)
		assert.Contains(t, err.Error(), "invalid payment amount")
	}
	assert.Equal(t, 0, engine.sessions.len())
}

func TestHandleAccessRequest_NoncesAreUnique(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		result, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
		require.NoError(t, err)
		nonce := result.X402Response.PaymentRequired.Nonce
		assert.False(t, seen[nonce], "nonce %s issued twice", nonce)
		seen[nonce] = true
	}
	assert.Equal(t, 50, engine.sessions.len())
}

func TestHandleAccessRequest_ExpiryFromClock(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	engine := newTestEngine(t, WithClock(func() time.Time { return now }))

	result, err := engine.HandleAccessRequest(context.Background(), testUser, "/premium/data", "", "")
	require.NoError(t, err)
	assert.Equal(t, now.Unix()+3600, result.X402Response.PaymentRequired.ExpiresAt)
}

func TestHandleAccessRequest_UnpaidNonceGetsFreshChallenge(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	engine.Registry().Register(chain, &stubVerifier{
		result: &types.PaymentVerification{IsPaid: false, PaidAmount: "0"},
	})

	first, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	oldNonce := first.X402Response.PaymentRequired.Nonce

	second, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", oldNonce, "")
	require.NoError(t, err)
	assert.False(t, second.ShouldServeContent)
	assert.Equal(t, 402, second.HTTPStatus)
	assert.NotEqual(t, oldNonce, second.X402Response.PaymentRequired.Nonce)

	// The old session survives the retry, still unverified.
	session, ok := engine.sessions.get(oldNonce)
	require.True(t, ok)
	assert.False(t, session.verified)
}

func TestHandleAccessRequest_PaidNonceGrantsAccess(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	engine.Registry().Register(chain, &stubVerifier{
		result: &types.PaymentVerification{
			IsPaid:          true,
			PaidAmount:      "1000000000000000",
			TransactionHash: "0xabc",
		},
	})

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	grant, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", nonce, "")
	require.NoError(t, err)
	assert.True(t, grant.ShouldServeContent)
	assert.Equal(t, 200, grant.HTTPStatus)
	assert.Nil(t, grant.X402Response)
	require.NotNil(t, grant.Verification)
	assert.Equal(t, "0xabc", grant.Verification.TransactionHash)

	session, ok := engine.sessions.get(nonce)
	require.True(t, ok)
	assert.True(t, session.verified)
}

func TestHandleAccessRequest_SwallowsVerifierErrors(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	stub := &stubVerifier{err: verification.NewNetworkError("endpoint down")}
	engine.Registry().Register(chain, stub)

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	// A failing verifier never surfaces on the access path; the caller just
	// gets a new challenge.
	retry, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", nonce, "")
	require.NoError(t, err)
	assert.Equal(t, 402, retry.HTTPStatus)
	assert.Equal(t, 1, stub.calls)
}

func TestVerifyPayment_UnknownSession(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.VerifyPayment(context.Background(), testUser, "no-such-nonce")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestVerifyPayment_AddressMismatch(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	stub := &stubVerifier{result: &types.PaymentVerification{IsPaid: true, PaidAmount: "1"}}
	engine.Registry().Register(chain, stub)

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	// The mismatch is decided before any ledger access.
	_, err = engine.VerifyPayment(ctx, testOtherUser, nonce)
	assert.ErrorIs(t, err, ErrAddressMismatch)
	assert.Equal(t, 0, stub.calls)
}

func TestVerifyPayment_UnregisteredChain(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	_, err = engine.VerifyPayment(ctx, testUser, nonce)
	var notSupported *ChainNotSupportedError
	require.ErrorAs(t, err, &notSupported)
	assert.Equal(t, types.EvmChain(types.EvmEthereum), notSupported.Chain)
}

func TestVerifyPayment_VerifierErrorSurfaces(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	engine.Registry().Register(chain, &stubVerifier{err: verification.NewNetworkError("endpoint down")})

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	_, err = engine.VerifyPayment(ctx, testUser, nonce)
	require.Error(t, err)
	assert.ErrorIs(t, err, &verification.VerificationError{Code: verification.CodeNetworkError})
}

func TestVerifyPayment_VerifiedFlagIsMonotonic(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()
	chain := types.EvmChain(types.EvmEthereum)

	stub := &stubVerifier{result: &types.PaymentVerification{IsPaid: true, PaidAmount: "1"}}
	engine.Registry().Register(chain, stub)

	challenge, err := engine.HandleAccessRequest(ctx, testUser, "/premium/data", "", "")
	require.NoError(t, err)
	nonce := challenge.X402Response.PaymentRequired.Nonce

	_, err = engine.VerifyPayment(ctx, testUser, nonce)
	require.NoError(t, err)
	session, _ := engine.sessions.get(nonce)
	assert.True(t, session.verified)

	// A later unpaid re-check reports false but never clears the flag.
	stub.result = &types.PaymentVerification{IsPaid: false, PaidAmount: "0"}
	result, err := engine.VerifyPayment(ctx, testUser, nonce)
	require.NoError(t, err)
	assert.False(t, result.IsPaid)
	session, _ = engine.sessions.get(nonce)
	assert.True(t, session.verified)
}

func TestRegisterChainVerifier_UnconfiguredChain(t *testing.T) {
	engine := newTestEngine(t)

	chain := types.SolanaChain(types.NetworkMainnet)
	err := engine.RegisterChainVerifier(context.Background(), chain, "")
	var notSupported *ChainNotSupportedError
	require.ErrorAs(t, err, &notSupported)
	assert.False(t, engine.Registry().Has(chain))
}

func TestRegisterChainVerifier_SolanaDefaultEndpoint(t *testing.T) {
	chain := types.SolanaChain(types.NetworkDevnet)
	cfg := config.NewBuilder().
		WithChain(chain, "").
		WithDefaultChain(chain).
		Build()
	engine := New(config.FromConfig(cfg))

	err := engine.RegisterChainVerifier(context.Background(), chain, "")
	require.NoError(t, err)
	assert.True(t, engine.Registry().Has(chain))
}

func TestCreatePaymentRequest_TokenCurrencyRequiresAddress(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.DefaultCurrency = config.CurrencyConfig{Type: config.CurrencyTypeErc20, Decimals: 6}
	engine := New(config.FromConfig(cfg))

	_, err := engine.HandleAccessRequest(context.Background(), testUser, "/premium/data", "", "")
	assert.ErrorIs(t, err, ErrInvalidCurrencyConfig)
}

func TestCreatePaymentRequest_TokenCurrency(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Service.DefaultCurrency = config.CurrencyConfig{
		Type:     config.CurrencyTypeErc20,
		Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		Decimals: 6,
	}
	engine := New(config.FromConfig(cfg))

	result, err := engine.HandleAccessRequest(context.Background(), testUser, "/premium/data", "", "")
	require.NoError(t, err)
	currency := result.X402Response.PaymentRequired.Currency
	assert.Equal(t, types.CurrencyToken, currency.Kind)
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", currency.Address)
	assert.Equal(t, uint8(6), currency.Decimals)
}
