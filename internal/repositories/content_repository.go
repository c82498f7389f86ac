package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// VideoRepository exposes data access for uploaded videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
}

// CommentRepository exposes data access for video comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
}

// TweetRepository exposes data access for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
}
