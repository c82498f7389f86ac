package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Audiences distinguish the two token kinds; a token is only accepted by a signer
// of the same audience.
const (
	AccessAudience  = "vidtube-access"
	RefreshAudience = "vidtube-refresh"
)

// Claims is the signed payload of both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"_id"`
}

// Signer mints and verifies HS256 tokens of one audience with a single secret.
type Signer struct {
	audience string
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewSigner constructs a signer. Access and refresh tokens must use distinct signers.
func NewSigner(audience, secret string, ttl time.Duration) *Signer {
	if audience == "" {
		panic("auth: signer audience must not be empty")
	}
	if secret == "" {
		panic("auth: signing secret must not be empty")
	}
	return &Signer{audience: audience, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign produces a token for the claims; ID, subject and expiry are filled in.
func (s *Signer) Sign(claims Claims) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	claims.Subject = claims.AccountID
	claims.Audience = jwt.ClaimStrings{s.audience}
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse checks signature and expiry and returns the embedded claims.
func (s *Signer) Parse(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.AccountID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
