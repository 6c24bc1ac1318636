// Package types defines the payment records shared by the protocol engine
// and the chain verifiers.
package types

import "fmt"

// CurrencyKind tags the currency union. Unrecognized kinds survive
// deserialization unchanged; callers that cannot handle them treat the
// currency as unsupported rather than failing the decode.
type CurrencyKind string

const (
	CurrencyNative CurrencyKind = "native"
	CurrencyToken  CurrencyKind = "token"
)

// Currency is the asset a payment is denominated in: the chain's native
// asset, or a token contract with its declared decimal precision.
type Currency struct {
	Kind     CurrencyKind `json:"kind"`
	Address  string       `json:"address,omitempty"`
	Decimals uint8        `json:"decimals,omitempty"`
}

func Native() Currency {
	return Currency{Kind: CurrencyNative}
}

func Token(address string, decimals uint8) Currency {
	return Currency{Kind: CurrencyToken, Address: address, Decimals: decimals}
}

// PaymentRequest is the challenge half of the protocol: what must be paid,
// to whom, on which chain, by when. Amounts are decimal strings end-to-end;
// floating point never touches monetary values. The nonce is engine-generated
// and identifies the payment session.
type PaymentRequest struct {
	Amount      string      `json:"amount"`
	Currency    Currency    `json:"currency"`
	Recipient   string      `json:"recipient"`
	Chain       ChainConfig `json:"chain"`
	Description string      `json:"description,omitempty"`
	ExpiresAt   int64       `json:"expires_at,omitempty"`
	Nonce       string      `json:"nonce"`
}

// Validate checks the structural fields a verifier relies on.
func (r *PaymentRequest) Validate() error {
	if r.Amount == "" {
		return fmt.Errorf("payment request amount is required")
	}
	if r.Recipient == "" {
		return fmt.Errorf("payment request recipient is required")
	}
	if r.Nonce == "" {
		return fmt.Errorf("payment request nonce is required")
	}
	return nil
}

// TransactionLog is one audit-trail entry collected during a ledger scan.
// An entry records a transaction the scan looked at, not necessarily one
// that satisfied the payment.
type TransactionLog struct {
	TransactionHash string `json:"transaction_hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	Value           string `json:"value"`
	BlockNumber     uint64 `json:"block_number"`
	LogIndex        uint64 `json:"log_index"`
	Data            string `json:"data,omitempty"`
}

// PaymentVerification is the outcome of one ledger check. It is recomputed
// fresh on every call and never cached. VerifiedAt is the wall-clock time of
// the check itself, not of any ledger event.
type PaymentVerification struct {
	IsPaid          bool             `json:"is_paid"`
	PaidAmount      string           `json:"paid_amount"`
	TransactionHash string           `json:"transaction_hash,omitempty"`
	VerifiedAt      int64            `json:"verified_at"`
	Chain           ChainConfig      `json:"chain"`
	TransactionLogs []TransactionLog `json:"transaction_logs"`
}

// ProtocolResponse is the transport-agnostic 402 challenge payload.
type ProtocolResponse struct {
	Status          int            `json:"status"`
	PaymentRequired PaymentRequest `json:"payment_required"`
	VerificationURL string         `json:"verification_url,omitempty"`
}

// AccessResult is what the engine hands back for an access request: either a
// grant carrying the verification, or a 402 challenge.
type AccessResult struct {
	ShouldServeContent bool                 `json:"should_serve_content"`
	HTTPStatus         int                  `json:"http_status"`
	X402Response       *ProtocolResponse    `json:"x402_response,omitempty"`
	Verification       *PaymentVerification `json:"verification,omitempty"`
}
