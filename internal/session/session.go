// Package session holds the authenticated session of a single backend and
// the operations that create, restore and end it.
package session

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/coursehub/coursehub/internal/cli/client"
)

// User is the authenticated user as returned by the backend
type User = client.User

// TokenStore is durable storage for one backend's bearer token
type TokenStore interface {
	Token() (string, bool)
	Set(token string) error
	Clear() error
}

// Session is the pair of persisted token and in-memory user record.
// The user is only ever set from a backend response in this process.
type Session struct {
	mu     sync.RWMutex
	tokens TokenStore
	user   *User
	logger zerolog.Logger
}

// New creates an empty session backed by tokens
func New(tokens TokenStore, logger zerolog.Logger) *Session {
	return &Session{tokens: tokens, logger: logger}
}

// Token returns the persisted token
func (s *Session) Token() (string, bool) {
	return s.tokens.Token()
}

// HasToken reports whether a token is persisted
func (s *Session) HasToken() bool {
	_, ok := s.tokens.Token()
	return ok
}

// Current returns the authenticated user, if any
func (s *Session) Current() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// RefreshToken persists a token handed back by the backend
func (s *Session) RefreshToken(token string) {
	if err := s.tokens.Set(token); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist refreshed token")
	}
}

// Invalidate drops both the persisted token and the user
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if err := s.tokens.Clear(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to clear token")
	}
}

func (s *Session) establish(token string, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token != "" {
		if err := s.tokens.Set(token); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist token")
		}
	}
	u := *user
	s.user = &u
}

var _ client.Credentials = (*Session)(nil)
