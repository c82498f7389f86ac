package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

const accountColumns = `id, username, email, full_name, avatar, cover_image, password_hash,
        COALESCE(refresh_token, ''), watch_history, created_at, updated_at`

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// Create persists a new account. Duplicate usernames or emails yield ErrConflict.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, username, email, full_name, avatar, cover_image, password_hash, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, account.ID, strings.ToLower(account.UserName), strings.ToLower(account.Email), account.FullName,
		account.Avatar, account.CoverImage, account.PasswordHash, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByLogin fetches an account by username or email.
func (r *PostgresAccountRepository) FindByLogin(ctx context.Context, login string) (models.Account, error) {
	return r.findOne(ctx, `username = $1 OR email = $1`, strings.ToLower(strings.TrimSpace(login)))
}

// FindByID fetches an account by identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, accountID string) (models.Account, error) {
	return r.findOne(ctx, `id = $1`, accountID)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, where string, arg any) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE `+where, arg)

	var account models.Account
	if err := row.Scan(
		&account.ID, &account.UserName, &account.Email, &account.FullName, &account.Avatar,
		&account.CoverImage, &account.PasswordHash, &account.RefreshToken, &account.WatchHistory,
		&account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, errAccountNotFound
		}
		return models.Account{}, fmt.Errorf("select account: %w", err)
	}

	return account, nil
}

// SetRefreshToken overwrites the account's stored refresh token.
func (r *PostgresAccountRepository) SetRefreshToken(ctx context.Context, accountID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET refresh_token = NULLIF($2, ''), updated_at = NOW()
        WHERE id = $1
    `, accountID, token)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errAccountNotFound
	}
	return nil
}

// SwapRefreshToken replaces current with next only while current is still stored.
// It reports false when another rotation or a logout got there first.
func (r *PostgresAccountRepository) SwapRefreshToken(ctx context.Context, accountID, current, next string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET refresh_token = $3, updated_at = NOW()
        WHERE id = $1 AND refresh_token = $2
    `, accountID, current, next)
	if err != nil {
		return false, fmt.Errorf("swap refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClearRefreshToken removes the stored refresh token.
func (r *PostgresAccountRepository) ClearRefreshToken(ctx context.Context, accountID string) error {
	return r.SetRefreshToken(ctx, accountID, "")
}

// RecordView increments the video's view counter and prepends it to the viewer's
// watch history in one transaction.
func (r *PostgresAccountRepository) RecordView(ctx context.Context, accountID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE videos SET views = views + 1 WHERE id = $1`, videoID)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	tag, err = tx.Exec(ctx, `
        UPDATE accounts
        SET watch_history = array_prepend($2::UUID, watch_history), updated_at = NOW()
        WHERE id = $1
    `, accountID, videoID)
	if err != nil {
		return fmt.Errorf("prepend watch history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit view: %w", err)
	}
	return nil
}
