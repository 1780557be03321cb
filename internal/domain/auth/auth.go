// Package auth provides staff sign-in with PIN credentials and opaque
// session tokens. Credentials live in memory; the registry is seeded at
// startup and tokens do not survive a restart.
package auth

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service manages agent credentials and active tokens.
type Service struct {
	mu     sync.RWMutex
	agents map[string][]byte // agent -> bcrypt hash of PIN
	tokens map[string]string // token -> agent
}

// NewService creates an empty credential registry.
func NewService() *Service {
	return &Service{
		agents: make(map[string][]byte),
		tokens: make(map[string]string),
	}
}

// Register stores a credential for an agent. Re-registering replaces the
// existing PIN and invalidates nothing.
func (s *Service) Register(agent, pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent] = hash
	return nil
}

// Login checks a credential and issues a fresh token. Returns false for an
// unknown agent or a wrong PIN.
func (s *Service) Login(agent, pin string) (string, bool) {
	s.mu.RLock()
	hash, ok := s.agents[agent]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(pin)) != nil {
		return "", false
	}

	token := uuid.New().String()
	s.mu.Lock()
	s.tokens[token] = agent
	s.mu.Unlock()
	return token, true
}

// Verify resolves a token to its agent. Returns false for unknown tokens.
func (s *Service) Verify(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agent, ok := s.tokens[token]
	return agent, ok
}

// Logout revokes a token. Revoking an unknown token is a no-op.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
