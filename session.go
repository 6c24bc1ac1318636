package x402gate

import (
	"sync"

	"github.com/vitwit/x402-gate/types"
)

// paymentSession is the ephemeral state behind one challenge. Sessions live
// only in process memory and are never evicted.
type paymentSession struct {
	userAddress    string
	paymentRequest types.PaymentRequest
	createdAt      int64
	verified       bool
}

// sessionStore is the nonce-keyed session map. Lookups take the read lock;
// the verified flip takes the write lock. The flag moves false to true at
// most once and never back.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*paymentSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*paymentSession)}
}

func (s *sessionStore) put(session *paymentSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.paymentRequest.Nonce] = session
}

// get returns a copy of the session so callers never hold a reference into
// the map outside the lock.
func (s *sessionStore) get(nonce string) (paymentSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[nonce]
	if !ok {
		return paymentSession{}, false
	}
	return *session, true
}

func (s *sessionStore) markVerified(nonce string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[nonce]; ok {
		session.verified = true
	}
}

func (s *sessionStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
