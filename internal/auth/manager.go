package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/models"
)

// CredentialStore persists accounts together with their single current refresh token.
// Lookups return ErrAccountNotFound when no account matches.
type CredentialStore interface {
	FindByLogin(ctx context.Context, login string) (models.Account, error)
	FindByID(ctx context.Context, accountID string) (models.Account, error)
	SetRefreshToken(ctx context.Context, accountID, token string) error
	// SwapRefreshToken replaces current with next in one atomic write and reports
	// whether current was still the stored value.
	SwapRefreshToken(ctx context.Context, accountID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, accountID string) error
}

// Manager owns the lifecycle of the access/refresh token pair. Access tokens are
// verified statelessly; refresh tokens are additionally checked against the store.
type Manager struct {
	access  *Signer
	refresh *Signer
	store   CredentialStore
}

// NewManager constructs a Manager. The two signers must use independent secrets.
func NewManager(access, refresh *Signer, store CredentialStore) *Manager {
	if access == nil || refresh == nil {
		panic("auth: access and refresh signers must not be nil")
	}
	if access.audience == refresh.audience {
		panic("auth: access and refresh signers must use different audiences")
	}
	if store == nil {
		panic("auth: credential store must not be nil")
	}
	return &Manager{access: access, refresh: refresh, store: store}
}

// Issue mints a fresh token pair for the account and makes the new refresh token
// the only valid one, invalidating any previously issued refresh token.
func (m *Manager) Issue(ctx context.Context, accountID string) (models.SessionTokens, error) {
	if accountID == "" {
		return models.SessionTokens{}, errors.New("account id must be provided")
	}

	tokens, err := m.mint(accountID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := m.store.SetRefreshToken(ctx, accountID, tokens.RefreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}

// Authenticate verifies a username-or-email and password pair and issues a session.
func (m *Manager) Authenticate(ctx context.Context, login, password string) (models.Account, models.SessionTokens, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return models.Account{}, models.SessionTokens{}, ErrUnauthorized
	}

	account, err := m.store.FindByLogin(ctx, login)
	if err != nil {
		return models.Account{}, models.SessionTokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return models.Account{}, models.SessionTokens{}, ErrUnauthorized
	}

	tokens, err := m.Issue(ctx, account.ID)
	if err != nil {
		return models.Account{}, models.SessionTokens{}, err
	}

	account.RefreshToken = tokens.RefreshToken
	return account, tokens, nil
}

// Rotate exchanges the account's current refresh token for a brand new pair.
// A token that has already been rotated or revoked cannot be used again.
func (m *Manager) Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return models.SessionTokens{}, ErrUnauthorized
	}

	claims, err := m.refresh.Parse(refreshToken)
	if err != nil {
		return models.SessionTokens{}, err
	}

	account, err := m.store.FindByID(ctx, claims.AccountID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if account.RefreshToken == "" {
		return models.SessionTokens{}, ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(account.RefreshToken), []byte(refreshToken)) != 1 {
		return models.SessionTokens{}, ErrStaleToken
	}

	tokens, err := m.mint(account.ID)
	if err != nil {
		return models.SessionTokens{}, err
	}

	swapped, err := m.store.SwapRefreshToken(ctx, account.ID, refreshToken, tokens.RefreshToken)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("swap refresh token: %w", err)
	}
	if !swapped {
		return models.SessionTokens{}, ErrStaleToken
	}

	return tokens, nil
}

// Revoke clears the stored refresh token so no outstanding refresh token can rotate again.
func (m *Manager) Revoke(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrUnauthorized
	}
	if err := m.store.ClearRefreshToken(ctx, accountID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// VerifyAccess validates an access token without touching the store and returns
// the embedded account identifier.
func (m *Manager) VerifyAccess(accessToken string) (string, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return "", ErrUnauthorized
	}
	claims, err := m.access.Parse(accessToken)
	if err != nil {
		return "", err
	}
	return claims.AccountID, nil
}

// HashPassword produces the bcrypt verifier stored at registration.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (m *Manager) mint(accountID string) (models.SessionTokens, error) {
	access, accessExp, err := m.access.Sign(Claims{AccountID: accountID})
	if err != nil {
		return models.SessionTokens{}, err
	}
	refresh, refreshExp, err := m.refresh.Sign(Claims{AccountID: accountID})
	if err != nil {
		return models.SessionTokens{}, err
	}
	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}
