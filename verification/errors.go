package verification

import "fmt"

// Error codes for verification failures. These surface to the transport
// layer as typed results; none of them terminate the process.
const (
	CodeNetworkError       = "network_error"
	CodeRPCError           = "rpc_error"
	CodeInvalidAddress     = "invalid_address"
	CodeChainNotSupported  = "chain_not_supported"
	CodeInsufficientAmount = "insufficient_amount"
	CodeTimeout            = "timeout"
	CodeParseError         = "parse_error"
	CodeInvalidCurrency    = "invalid_currency"
	CodeError              = "error"
)

// VerificationError is the failure type every verifier reports through.
type VerificationError struct {
	Code    string
	Message string
	Err     error
}

func (e *VerificationError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Is matches on the error code, so callers can compare against bare
// code-only values with errors.Is.
func (e *VerificationError) Is(target error) bool {
	t, ok := target.(*VerificationError)
	return ok && t.Code == e.Code
}

func NewNetworkError(format string, args ...any) *VerificationError {
	return &VerificationError{Code: CodeNetworkError, Message: fmt.Sprintf(format, args...)}
}

func NewRPCError(err error, format string, args ...any) *VerificationError {
	return &VerificationError{Code: CodeRPCError, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewParseError(format string, args ...any) *VerificationError {
	return &VerificationError{Code: CodeParseError, Message: fmt.Sprintf(format, args...)}
}

var (
	// ErrInvalidAddress reports an address that failed syntactic parsing.
	ErrInvalidAddress = &VerificationError{Code: CodeInvalidAddress, Message: "invalid address"}

	// ErrChainNotSupported reports a chain the verifier cannot serve.
	ErrChainNotSupported = &VerificationError{Code: CodeChainNotSupported, Message: "chain not supported"}
)
