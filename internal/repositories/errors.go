package repositories

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/auth"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write would violate a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

// errAccountNotFound matches both ErrNotFound and auth.ErrAccountNotFound so account
// lookups satisfy the auth.CredentialStore contract.
var errAccountNotFound = fmt.Errorf("%w: %w", ErrNotFound, auth.ErrAccountNotFound)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
