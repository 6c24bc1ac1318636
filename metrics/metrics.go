// Package metrics defines the instrumentation surface the engine records to.
package metrics

import "time"

// Recorder counts protocol events and observes per-chain latencies.
type Recorder interface {
	IncCounter(name string, chain string)
	ObserveLatency(name string, chain string, d time.Duration)
}

// Event and latency names recorded by the engine.
const (
	EventChallengeIssued    = "challenge_issued"
	EventVerificationOK     = "verification_ok"
	EventVerificationFailed = "verification_failed"
	EventPaymentConfirmed   = "payment_confirmed"

	LatencyVerifyPayment = "verify_payment"
)

// Noop discards everything. It is the engine default.
type Noop struct{}

func (Noop) IncCounter(string, string)                    {}
func (Noop) ObserveLatency(string, string, time.Duration) {}
