package client

import (
	"sync"

	"github.com/gbd-solar/solartech-api/policy"
)

// Session is the client-side credential cache. It is safe for concurrent use.
type Session struct {
	mu             sync.RWMutex
	token          string
	identity       *policy.Identity
	onUnauthorized func()
}

// NewSession creates an empty session. onUnauthorized, if non-nil, runs after
// the session has been cleared because the server rejected the credential.
func NewSession(onUnauthorized func()) *Session {
	return &Session{onUnauthorized: onUnauthorized}
}

// Set stores a credential and the identity it belongs to.
func (s *Session) Set(token string, identity policy.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.identity = &identity
}

// Clear forgets the credential and identity.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.identity = nil
}

// Token returns the stored credential, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Identity returns the logged-in identity.
func (s *Session) Identity() (policy.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return policy.Identity{}, false
	}
	return *s.identity, true
}

// IsAuthenticated reports whether a credential is stored.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// expireIf clears the session and notifies the owner when token is still the
// stored credential. A rejection of an older credential leaves a newer login
// alone. The callback runs outside the lock so it may call back into the session.
func (s *Session) expireIf(token string) bool {
	s.mu.Lock()
	if token == "" || s.token != token {
		s.mu.Unlock()
		return false
	}
	s.token = ""
	s.identity = nil
	s.mu.Unlock()

	if s.onUnauthorized != nil {
		s.onUnauthorized()
	}
	return true
}
