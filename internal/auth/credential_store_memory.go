package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/videotube/backend/internal/models"
)

// NewInMemoryCredentialStore returns a CredentialStore backed by an in-memory map.
func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{accounts: make(map[string]models.Account)}
}

// InMemoryCredentialStore implements CredentialStore for tests and local development.
type InMemoryCredentialStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// Put inserts or replaces an account.
func (s *InMemoryCredentialStore) Put(account models.Account) {
	s.mu.Lock()
	s.accounts[account.ID] = account
	s.mu.Unlock()
}

// FindByLogin retrieves an account by username or email.
func (s *InMemoryCredentialStore) FindByLogin(_ context.Context, login string) (models.Account, error) {
	login = strings.ToLower(login)

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.UserName == login || strings.ToLower(account.Email) == login {
			return account, nil
		}
	}
	return models.Account{}, ErrAccountNotFound
}

// FindByID retrieves an account by identifier.
func (s *InMemoryCredentialStore) FindByID(_ context.Context, accountID string) (models.Account, error) {
	s.mu.RLock()
	account, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	return account, nil
}

// SetRefreshToken overwrites the stored refresh token.
func (s *InMemoryCredentialStore) SetRefreshToken(_ context.Context, accountID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return ErrAccountNotFound
	}
	account.RefreshToken = token
	s.accounts[accountID] = account
	return nil
}

// SwapRefreshToken replaces current with next when current is still stored.
func (s *InMemoryCredentialStore) SwapRefreshToken(_ context.Context, accountID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return false, ErrAccountNotFound
	}
	if account.RefreshToken != current {
		return false, nil
	}
	account.RefreshToken = next
	s.accounts[accountID] = account
	return true, nil
}

// ClearRefreshToken removes the stored refresh token.
func (s *InMemoryCredentialStore) ClearRefreshToken(ctx context.Context, accountID string) error {
	return s.SetRefreshToken(ctx, accountID, "")
}

// RefreshTokenOf reports the currently stored refresh token. Useful for tests.
func (s *InMemoryCredentialStore) RefreshTokenOf(accountID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[accountID].RefreshToken
}
