// Package auth implements the optional shared-passcode gate for the mutating
// API ("meeting mode"). There is one passcode for the whole household; it
// does not distinguish family members.
package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const sessionTTL = 30 * 24 * time.Hour

// Sessions is an in-memory session table keyed by opaque tokens. Sessions do
// not survive a restart; the family just logs in again.
type Sessions struct {
	mu           sync.Mutex
	passcodeHash string
	tokens       map[string]time.Time
}

// NewSessions creates a session table. With an empty passcode hash the gate
// is disabled and every request passes.
func NewSessions(passcodeHash string) *Sessions {
	return &Sessions{
		passcodeHash: passcodeHash,
		tokens:       make(map[string]time.Time),
	}
}

// Enabled reports whether a passcode is configured.
func (s *Sessions) Enabled() bool {
	return s.passcodeHash != ""
}

// Login checks the passcode and returns a new session token.
func (s *Sessions) Login(passcode string) (string, bool) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passcodeHash), []byte(passcode)); err != nil {
		return "", false
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(sessionTTL)
	s.mu.Unlock()
	return token, true
}

// Valid reports whether the token names a live session.
func (s *Sessions) Valid(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// Revoke deletes a session.
func (s *Sessions) Revoke(token string) {
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
}

// Sweep removes expired sessions.
func (s *Sessions) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, expiry := range s.tokens {
		if now.After(expiry) {
			delete(s.tokens, token)
		}
	}
}
