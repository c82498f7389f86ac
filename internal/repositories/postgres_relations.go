package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle removes the subscription when present and creates it otherwise. The returned
// flag reports whether the subscriber is subscribed afterwards.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions
        WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `, uuid.NewString(), subscriberID, channelID, time.Now().UTC())
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert subscription: %w", err)
	}

	return true, nil
}

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

func likeColumn(target models.LikeTarget) (string, error) {
	switch target {
	case models.LikeTargetVideo:
		return "video_id", nil
	case models.LikeTargetComment:
		return "comment_id", nil
	case models.LikeTargetTweet:
		return "tweet_id", nil
	default:
		return "", fmt.Errorf("unknown like target %q", target)
	}
}

// Toggle removes the account's like on the target when present and creates it otherwise.
// The returned flag reports whether the target is liked afterwards.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, accountID string, target models.LikeTarget, targetID string) (bool, error) {
	column, err := likeColumn(target)
	if err != nil {
		return false, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM likes WHERE liked_by = $1 AND `+column+` = $2`, accountID, targetID)
	if err != nil {
		return false, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO likes (id, liked_by, `+column+`, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT DO NOTHING
    `, uuid.NewString(), accountID, targetID, time.Now().UTC())
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("insert like: %w", err)
	}

	return true, nil
}
