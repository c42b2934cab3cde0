package auth

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Scoped is a TokenStore bound to a single server. All reads and writes for
// that server go through one lock so the interceptor, login, logout and
// restore paths never interleave their writes.
type Scoped struct {
	mu     sync.Mutex
	store  TokenStore
	server string
	logger zerolog.Logger
}

// Bind scopes store to server
func Bind(store TokenStore, server string, logger zerolog.Logger) *Scoped {
	return &Scoped{store: store, server: server, logger: logger}
}

// Server returns the server key this store is bound to
func (s *Scoped) Server() string {
	return s.server
}

// Token returns the persisted token. Storage errors read as "no token".
func (s *Scoped) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.LoadToken(s.server)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("server", s.server).Msg("Failed to read token")
		}
		return "", false
	}
	return token, token != ""
}

// Set persists token
func (s *Scoped) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SaveToken(s.server, token)
}

// Clear removes the persisted token
func (s *Scoped) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.DeleteToken(s.server)
}
