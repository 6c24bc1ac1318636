package x402gate

import (
	"errors"
	"fmt"

	"github.com/vitwit/x402-gate/types"
)

var (
	// ErrUnknownSession reports a nonce with no stored payment session.
	ErrUnknownSession = errors.New("payment session not found")

	// ErrAddressMismatch reports a caller address that does not match the
	// session's stored user address.
	ErrAddressMismatch = errors.New("user address mismatch")

	// ErrInvalidCurrencyConfig reports a default-currency configuration the
	// engine cannot build a payment request from.
	ErrInvalidCurrencyConfig = errors.New("invalid currency configuration")
)

// ChainNotSupportedError reports a chain with no registered verifier, or one
// the engine cannot construct a verifier for.
type ChainNotSupportedError struct {
	Chain types.ChainType
}

func (e *ChainNotSupportedError) Error() string {
	return fmt.Sprintf("chain not supported: %s", e.Chain.DisplayName())
}
