// Package verification defines the payment verifier capability and the
// registry that owns one verifier per chain.
package verification

import (
	"context"
	"sync"

	"github.com/vitwit/x402-gate/types"
)

// Verifier inspects a ledger and reports whether a payment matching the
// request was made by the claimed payer. Implementations perform network
// round trips and must honor ctx; they impose no timeout of their own.
type Verifier interface {
	VerifyPayment(ctx context.Context, request *types.PaymentRequest, payerAddress string) (*types.PaymentVerification, error)

	// SupportsChain is a self-check, advisory only. Dispatch always goes
	// through the registry key, never through this predicate.
	SupportsChain(chain types.ChainType) bool
}

// Registry maps chain types to their owned verifier instance, keyed by the
// canonical chain id. Registration normally happens at setup, but the map is
// guarded so registering and looking up concurrently is safe.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

type registryEntry struct {
	chain    types.ChainType
	verifier Verifier
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register inserts or replaces the verifier for a chain.
func (r *Registry) Register(chain types.ChainType, verifier Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[chain.ChainID()] = registryEntry{chain: chain, verifier: verifier}
}

// Get returns the verifier registered for the chain, if any.
func (r *Registry) Get(chain types.ChainType) (Verifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[chain.ChainID()]
	if !ok {
		return nil, false
	}
	return entry.verifier, true
}

// Has reports whether a verifier is registered for the chain.
func (r *Registry) Has(chain types.ChainType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[chain.ChainID()]
	return ok
}

// Remove drops the verifier for a chain and returns it, if it was present.
func (r *Registry) Remove(chain types.ChainType) (Verifier, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[chain.ChainID()]
	if !ok {
		return nil, false
	}
	delete(r.entries, chain.ChainID())
	return entry.verifier, true
}

// SupportedChains lists every chain with a registered verifier.
func (r *Registry) SupportedChains() []types.ChainType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chains := make([]types.ChainType, 0, len(r.entries))
	for _, entry := range r.entries {
		chains = append(chains, entry.chain)
	}
	return chains
}
