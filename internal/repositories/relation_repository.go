package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// SubscriptionRepository toggles subscriber/channel relations.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// LikeRepository toggles likes on videos, comments and tweets.
type LikeRepository interface {
	Toggle(ctx context.Context, accountID string, target models.LikeTarget, targetID string) (bool, error)
}
