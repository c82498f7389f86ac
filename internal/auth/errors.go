package auth

import "errors"

var (
	// ErrUnauthorized indicates missing credentials, a wrong password or a revoked session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidToken indicates a token with a bad signature, a bad shape or a past expiry.
	ErrInvalidToken = errors.New("invalid token")
	// ErrStaleToken indicates a refresh token that is no longer the account's current one.
	ErrStaleToken = errors.New("refresh token is stale or already used")
	// ErrAccountNotFound indicates the referenced account does not exist.
	ErrAccountNotFound = errors.New("account not found")
)
