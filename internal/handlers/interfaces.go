package handlers

import (
	"context"
	"io"

	"github.com/videotube/backend/internal/aggregate"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/storage"
)

// AccountStore captures the account persistence used by the handlers.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByLogin(ctx context.Context, login string) (models.Account, error)
	FindByID(ctx context.Context, accountID string) (models.Account, error)
	RecordView(ctx context.Context, accountID, videoID string) error
}

// SessionManager issues, rotates and revokes token pairs.
type SessionManager interface {
	Authenticate(ctx context.Context, login, password string) (models.Account, models.SessionTokens, error)
	Rotate(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, accountID string) error
	VerifyAccess(token string) (string, error)
}

// MediaStorage stores account images and returns their public location.
type MediaStorage interface {
	SaveImage(ctx context.Context, kind storage.ImageKind, contentType string, r io.Reader) (string, error)
}

// Aggregator answers the derived read views.
type Aggregator interface {
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
	ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error)
	VideoComments(ctx context.Context, videoID string, page aggregate.Page) ([]models.CommentView, error)
	LikedVideos(ctx context.Context, viewerID string) ([]models.LikedVideo, error)
	WatchHistory(ctx context.Context, viewerID string) ([]models.WatchHistoryEntry, error)
	Subscribers(ctx context.Context, channelID string) ([]models.RelatedAccount, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.RelatedAccount, error)
	Videos(ctx context.Context, filter aggregate.VideoFilter, sort aggregate.VideoSort, page aggregate.Page) (models.VideoFeed, error)
	ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error)
	UserTweets(ctx context.Context, ownerID string) ([]models.TweetView, error)
}

// SubscriptionToggler flips a subscriber/channel relation.
type SubscriptionToggler interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// LikeToggler flips a like on a video, comment or tweet.
type LikeToggler interface {
	Toggle(ctx context.Context, accountID string, target models.LikeTarget, targetID string) (bool, error)
}

// VideoStore persists video records.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
}

// CommentStore persists comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
}

// TweetStore persists tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
}
