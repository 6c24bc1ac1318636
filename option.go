package x402gate

import (
	"time"

	"github.com/vitwit/x402-gate/logger"
	"github.com/vitwit/x402-gate/metrics"
)

// Option configures an engine at construction time.
type Option func(*X402)

// WithLogger installs a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(x *X402) {
		x.logger = l
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(x *X402) {
		x.metrics = m
	}
}

// WithClock overrides the time source. Used in tests to control challenge
// expiry timestamps.
func WithClock(now func() time.Time) Option {
	return func(x *X402) {
		x.now = now
	}
}

// WithNonceSource overrides the nonce generator.
func WithNonceSource(next func() string) Option {
	return func(x *X402) {
		x.newNonce = next
	}
}
