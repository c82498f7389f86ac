package models

import "time"

// ChannelProfile is the public channel page of an account.
type ChannelProfile struct {
	ID                   string    `json:"_id"`
	UserName             string    `json:"userName"`
	Email                string    `json:"email"`
	FullName             string    `json:"fullName"`
	Avatar               string    `json:"avatar"`
	CoverImage           string    `json:"coverImage"`
	SubscribersCount     int64     `json:"subscribersCount"`
	ChannelsSubscribedTo int64     `json:"channelsSubscribedToCount"`
	IsSubscribed         bool      `json:"isSubscribed"`
	CreatedAt            time.Time `json:"createdAt"`
}

// ChannelStats aggregates the dashboard numbers of a channel.
type ChannelStats struct {
	TotalVideos   int64 `json:"totalVideos"`
	TotalViews    int64 `json:"totalViews"`
	Subscribers   int64 `json:"subscribers"`
	SubscribedTo  int64 `json:"subscribedTo"`
	TotalLikes    int64 `json:"totalLikes"`
	TotalComments int64 `json:"totalComments"`
	TotalTweets   int64 `json:"totalTweets"`
}

// CommentView is a comment enriched with its author.
type CommentView struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	VideoID   string    `json:"video"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	FullName  string    `json:"fullName"`
	Avatar    string    `json:"avatar"`
}

// LikedVideo is the fixed projection of a video the viewer liked.
type LikedVideo struct {
	LikeID      string    `json:"likeId"`
	VideoID     string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

// OwnerSummary is the minimal owner card attached to history entries.
type OwnerSummary struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName"`
	UserName string `json:"userName"`
	Avatar   string `json:"avatar"`
}

// WatchHistoryEntry is one video from the viewer's history.
type WatchHistoryEntry struct {
	Position    int64        `json:"position"`
	VideoID     string       `json:"_id"`
	VideoFile   string       `json:"videoFile"`
	Thumbnail   string       `json:"thumbnail"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Duration    float64      `json:"duration"`
	Views       int64        `json:"views"`
	CreatedAt   time.Time    `json:"createdAt"`
	Owner       OwnerSummary `json:"owner"`
}

// RelatedAccount is an account reached through a subscription record.
type RelatedAccount struct {
	SubscriptionID string        `json:"_id"`
	SubscribedAt   time.Time     `json:"subscribedAt"`
	Account        PublicAccount `json:"account"`
}

// TweetView is a tweet with its author's summary.
type TweetView struct {
	ID        string       `json:"_id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	Owner     OwnerSummary `json:"owner"`
}

// VideoSummary is a video as listed on a channel dashboard or in the feed.
type VideoSummary struct {
	ID          string    `json:"_id"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FeedVideo is a feed entry with the owning channel attached.
type FeedVideo struct {
	VideoSummary
	Owner OwnerSummary `json:"owner"`
}

// VideoFeed is one page of the public video feed.
type VideoFeed struct {
	Videos []FeedVideo `json:"docs"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}
