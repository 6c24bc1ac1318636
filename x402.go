// Package x402gate gates access to a protected resource behind proof of an
// on-chain payment, in the style of HTTP status 402. The engine issues
// payment challenges keyed by single-use nonces, delegates ledger checks to
// per-chain verifiers, and grants access once a matching payment is
// confirmed.
package x402gate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitwit/x402-gate/clients"
	"github.com/vitwit/x402-gate/config"
	"github.com/vitwit/x402-gate/logger"
	"github.com/vitwit/x402-gate/metrics"
	"github.com/vitwit/x402-gate/types"
	"github.com/vitwit/x402-gate/utils"
	"github.com/vitwit/x402-gate/verification"
)

// X402 is the protocol engine. It owns the session store and the verifier
// registry; all ledger access goes through registered verifiers.
type X402 struct {
	configManager *config.Manager
	registry      *verification.Registry
	sessions      *sessionStore
	logger        logger.Logger
	metrics       metrics.Recorder
	now           func() time.Time
	newNonce      func() string
}

// New creates an engine around a configuration manager.
func New(configManager *config.Manager, opts ...Option) *X402 {
	x := &X402{
		configManager: configManager,
		registry:      verification.NewRegistry(),
		sessions:      newSessionStore(),
		logger:        logger.Noop{},
		metrics:       metrics.Noop{},
		now:           time.Now,
		newNonce:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// FromConfigFile creates an engine from a JSON configuration file.
func FromConfigFile(path string, opts ...Option) (*X402, error) {
	manager, err := config.FromFile(path)
	if err != nil {
		return nil, err
	}
	return New(manager, opts...), nil
}

// FromDefaultConfig creates an engine with the built-in configuration.
func FromDefaultConfig(opts ...Option) *X402 {
	return New(config.New(), opts...)
}

// RegisterChainVerifier constructs the concrete verifier for a chain family
// and registers it. For EVM chains this performs a live handshake against
// the endpoint's reported chain id and fails on mismatch; a failure here is
// fatal only to this registration, never to the engine.
func (x *X402) RegisterChainVerifier(ctx context.Context, chain types.ChainType, rpcURL string) error {
	if _, ok := x.configManager.ChainConfig(chain); !ok {
		return &ChainNotSupportedError{Chain: chain}
	}

	var (
		verifier verification.Verifier
		err      error
	)
	switch chain.Family {
	case types.FamilyEvm:
		verifier, err = clients.NewEVMVerifier(ctx, rpcURL, chain)
	case types.FamilyAptos:
		verifier, err = clients.NewAptosVerifier(rpcURL, chain)
	case types.FamilySui:
		verifier, err = clients.NewSuiVerifier(rpcURL, chain)
	case types.FamilySolana:
		verifier, err = clients.NewSolanaVerifier(rpcURL, chain)
	default:
		return &ChainNotSupportedError{Chain: chain}
	}
	if err != nil {
		x.logger.Error("verifier construction failed",
			"chain", chain.ChainID(), "rpc_url", rpcURL, "error", err)
		return fmt.Errorf("failed to create %s verifier: %w", chain.DisplayName(), err)
	}

	x.registry.Register(chain, verifier)
	x.logger.Info("chain verifier registered", "chain", chain.ChainID())
	return nil
}

// VerifyPayment checks the ledger for the payment behind a session nonce.
// It fails strictly: unknown nonce, mismatched address, unregistered chain,
// and verifier errors all surface to the caller. On a confirmed payment the
// session's verified flag is set; it never regresses afterwards.
func (x *X402) VerifyPayment(ctx context.Context, userAddress, paymentNonce string) (*types.PaymentVerification, error) {
	session, ok := x.sessions.get(paymentNonce)
	if !ok {
		return nil, ErrUnknownSession
	}
	if session.userAddress != userAddress {
		return nil, ErrAddressMismatch
	}

	chain := session.paymentRequest.Chain.Type
	verifier, ok := x.registry.Get(chain)
	if !ok {
		return nil, &ChainNotSupportedError{Chain: chain}
	}

	start := x.now()
	result, err := verifier.VerifyPayment(ctx, &session.paymentRequest, userAddress)
	x.metrics.ObserveLatency(metrics.LatencyVerifyPayment, chain.ChainID(), x.now().Sub(start))
	if err != nil {
		x.metrics.IncCounter(metrics.EventVerificationFailed, chain.ChainID())
		x.logger.Warn("payment verification failed",
			"nonce", paymentNonce, "chain", chain.ChainID(), "error", err)
		return nil, fmt.Errorf("verification failed: %w", err)
	}

	x.metrics.IncCounter(metrics.EventVerificationOK, chain.ChainID())
	if result.IsPaid {
		x.sessions.markVerified(paymentNonce)
		x.metrics.IncCounter(metrics.EventPaymentConfirmed, chain.ChainID())
		x.logger.Info("payment confirmed",
			"nonce", paymentNonce, "tx_hash", result.TransactionHash, "amount", result.PaidAmount)
	}
	return result, nil
}

// HandleAccessRequest drives the protocol for one resource access.
//
// Without a payment nonce it issues a 402 challenge and stores the session.
// With a nonce it attempts verification; a confirmed payment yields a grant.
// Any verification failure on this path is swallowed and answered with a
// brand-new challenge rather than an error, so a caller holding a stale or
// foreign nonce simply starts over.
func (x *X402) HandleAccessRequest(ctx context.Context, userAddress, resourcePath, paymentNonce, customAmount string) (*types.AccessResult, error) {
	if paymentNonce != "" {
		if result, err := x.VerifyPayment(ctx, userAddress, paymentNonce); err == nil && result.IsPaid {
			return &types.AccessResult{
				ShouldServeContent: true,
				HTTPStatus:         200,
				Verification:       result,
			}, nil
		}
	}

	request, err := x.createPaymentRequest(resourcePath, customAmount)
	if err != nil {
		return nil, err
	}
	cfg := x.configManager.Config()
	response := &types.ProtocolResponse{
		Status:          402,
		PaymentRequired: request,
		VerificationURL: fmt.Sprintf("%s/%s", cfg.Service.BaseVerificationURL, request.Nonce),
	}
	x.storeSession(userAddress, request)

	x.metrics.IncCounter(metrics.EventChallengeIssued, request.Chain.ChainID)
	x.logger.Debug("payment challenge issued",
		"nonce", request.Nonce, "resource", resourcePath, "amount", request.Amount)
	return &types.AccessResult{
		ShouldServeContent: false,
		HTTPStatus:         402,
		X402Response:       response,
	}, nil
}

func (x *X402) createPaymentRequest(resourcePath, customAmount string) (types.PaymentRequest, error) {
	cfg := x.configManager.Config()
	defaultChain, err := x.configManager.DefaultChainConfig()
	if err != nil {
		return types.PaymentRequest{}, err
	}

	amount := customAmount
	if amount == "" {
		amount = cfg.Payments.DefaultAmount
	}
	if _, err := utils.ValidateAmount(amount); err != nil {
		return types.PaymentRequest{}, fmt.Errorf("invalid payment amount %q: %w", amount, err)
	}

	var currency types.Currency
	switch cfg.Service.DefaultCurrency.Type {
	case config.CurrencyTypeErc20:
		if cfg.Service.DefaultCurrency.Address == "" {
			return types.PaymentRequest{}, ErrInvalidCurrencyConfig
		}
		currency = types.Token(cfg.Service.DefaultCurrency.Address, cfg.Service.DefaultCurrency.Decimals)
	default:
		currency = types.Native()
	}

	return types.PaymentRequest{
		Amount:      amount,
		Currency:    currency,
		Recipient:   x.configManager.ServiceAddress(),
		Chain:       defaultChain,
		Description: "Access to: " + resourcePath,
		ExpiresAt:   x.now().Unix() + cfg.Payments.ExpirationSecs,
		Nonce:       x.newNonce(),
	}, nil
}

func (x *X402) storeSession(userAddress string, request types.PaymentRequest) {
	x.sessions.put(&paymentSession{
		userAddress:    userAddress,
		paymentRequest: request,
		createdAt:      x.now().Unix(),
	})
}

// ConfigManager exposes the engine's configuration manager.
func (x *X402) ConfigManager() *config.Manager {
	return x.configManager
}

// Registry exposes the engine's verifier registry.
func (x *X402) Registry() *verification.Registry {
	return x.registry
}
