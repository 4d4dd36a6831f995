// Package auth supplies the Admin API access token to the HTTP layer.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

const expiryBuffer = 30 * time.Second

// Static errors for err113 compliance.
var (
	ErrNoToken                  = errors.New("no access token available")
	ErrStaticTokenCannotRefresh = errors.New("static access token cannot be refreshed")
)

// Token is an Admin API access token. Offline tokens carry no expiry.
type Token struct {
	AccessToken string
	Scope       string
	ExpiresAt   time.Time
}

// Valid reports whether the token is usable for at least the expiry buffer.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(expiryBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}

// TokenManager supplies tokens to the HTTP client.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// StaticTokenManager serves a token issued out of band, such as a custom
// app's Admin API access token.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager serving token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	manager := &StaticTokenManager{store: NewTokenStore()}
	if token != "" {
		manager.store.Set(&Token{AccessToken: token})
	}

	return manager
}

// GetToken returns the token if it is still valid.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if !token.Valid() {
		return "", ErrNoToken
	}

	return token.AccessToken, nil
}

// RefreshToken always fails; a new token has to be issued in the admin.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

// SetToken replaces the served token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}
