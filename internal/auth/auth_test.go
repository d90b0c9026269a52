package auth

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestSessions(t *testing.T, passcode string) *Sessions {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewSessions(string(hash))
}

func TestEnabled(t *testing.T) {
	if NewSessions("").Enabled() {
		t.Error("empty hash should disable the gate")
	}
	if !newTestSessions(t, "dragons").Enabled() {
		t.Error("configured hash should enable the gate")
	}
}

func TestLogin(t *testing.T) {
	s := newTestSessions(t, "dragons")

	if _, ok := s.Login("wrong"); ok {
		t.Error("wrong passcode accepted")
	}

	token, ok := s.Login("dragons")
	if !ok {
		t.Fatal("correct passcode rejected")
	}
	if !s.Valid(token) {
		t.Error("fresh token not valid")
	}
	if s.Valid("") || s.Valid("bogus") {
		t.Error("invalid tokens accepted")
	}
}

func TestRevoke(t *testing.T) {
	s := newTestSessions(t, "dragons")
	token, _ := s.Login("dragons")

	s.Revoke(token)
	if s.Valid(token) {
		t.Error("revoked token still valid")
	}
}

func TestExpiry(t *testing.T) {
	s := newTestSessions(t, "dragons")
	token, _ := s.Login("dragons")

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	if s.Valid(token) {
		t.Error("expired token still valid")
	}
}

func TestSweep(t *testing.T) {
	s := newTestSessions(t, "dragons")
	live, _ := s.Login("dragons")
	stale, _ := s.Login("dragons")

	s.mu.Lock()
	s.tokens[stale] = time.Now().Add(-time.Minute)
	s.mu.Unlock()

	s.Sweep()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tokens[stale]; ok {
		t.Error("stale session survived sweep")
	}
	if _, ok := s.tokens[live]; !ok {
		t.Error("live session removed by sweep")
	}
}
