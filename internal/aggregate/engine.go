package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// Engine answers read-only derived views joining accounts, subscriptions, videos,
// likes, comments and tweets. Every view is a single statement.
type Engine struct {
	pool db.Pool
}

// NewEngine constructs an engine over the pool.
func NewEngine(pool db.Pool) *Engine {
	if pool == nil {
		panic("aggregate: pool is required")
	}
	return &Engine{pool: pool}
}

func parseID(name, raw string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s", ErrInvalidArgument, name)
	}
	return id.String(), nil
}

// ChannelProfile returns the channel page of the account with the given username.
// IsSubscribed reports whether viewerID subscribes to it; an empty viewer never does.
func (e *Engine) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	userName = strings.ToLower(strings.TrimSpace(userName))
	if userName == "" {
		return models.ChannelProfile{}, fmt.Errorf("%w: username is required", ErrInvalidArgument)
	}

	isSubscribed := Expr("FALSE")
	if viewerID != "" {
		viewer, err := parseID("viewer id", viewerID)
		if err != nil {
			return models.ChannelProfile{}, err
		}
		isSubscribed = Exists(From(Subscriptions, "vs").Match("vs.channel_id = a.id AND vs.subscriber_id = ?", viewer))
	}

	p := From(Accounts, "a").
		Match("a.username = ?", userName).
		Project(
			Column("a", "id"),
			Column("a", "username"),
			Column("a", "email"),
			Column("a", "full_name"),
			Column("a", "avatar"),
			Column("a", "cover_image"),
			Count(From(Subscriptions, "sc").Match("sc.channel_id = a.id")).As("subscribers_count"),
			Count(From(Subscriptions, "ss").Match("ss.subscriber_id = a.id")).As("channels_subscribed_to"),
			isSubscribed.As("is_subscribed"),
			Column("a", "created_at"),
		)

	var profile models.ChannelProfile
	err := e.queryRow(ctx, "aggregate.channel_profile", p, func(row pgx.Row) error {
		return row.Scan(
			&profile.ID, &profile.UserName, &profile.Email, &profile.FullName, &profile.Avatar,
			&profile.CoverImage, &profile.SubscribersCount, &profile.ChannelsSubscribedTo,
			&profile.IsSubscribed, &profile.CreatedAt,
		)
	})
	if err != nil {
		return models.ChannelProfile{}, err
	}
	return profile, nil
}

// ChannelStats aggregates the dashboard numbers of ownerID. An account without videos
// yields zeros.
func (e *Engine) ChannelStats(ctx context.Context, ownerID string) (models.ChannelStats, error) {
	owner, err := parseID("owner id", ownerID)
	if err != nil {
		return models.ChannelStats{}, err
	}

	ownedVideos := func(alias string) *Pipeline {
		return From(Videos, alias).Match(alias + ".owner_id = a.id")
	}

	p := From(Accounts, "a").
		Match("a.id = ?", owner).
		Project(
			Count(ownedVideos("v")).As("total_videos"),
			Sum(ownedVideos("v"), "v.views").As("total_views"),
			Count(From(Subscriptions, "sc").Match("sc.channel_id = a.id")).As("subscribers"),
			Count(From(Subscriptions, "ss").Match("ss.subscriber_id = a.id")).As("subscribed_to"),
			Count(From(Likes, "l").Join(Videos, "lv", "lv.id = l.video_id").Match("lv.owner_id = a.id")).As("total_likes"),
			Count(From(Comments, "c").Join(Videos, "cv", "cv.id = c.video_id").Match("cv.owner_id = a.id")).As("total_comments"),
			Count(From(Tweets, "t").Match("t.owner_id = a.id")).As("total_tweets"),
		)

	var stats models.ChannelStats
	err = e.queryRow(ctx, "aggregate.channel_stats", p, func(row pgx.Row) error {
		return row.Scan(
			&stats.TotalVideos, &stats.TotalViews, &stats.Subscribers, &stats.SubscribedTo,
			&stats.TotalLikes, &stats.TotalComments, &stats.TotalTweets,
		)
	})
	if err != nil {
		return models.ChannelStats{}, err
	}
	return stats, nil
}

// VideoComments returns one page of a video's comments in insertion order, oldest
// first. An empty first page is ErrNotFound; empty later pages are not an error.
func (e *Engine) VideoComments(ctx context.Context, videoID string, page Page) ([]models.CommentView, error) {
	video, err := parseID("video id", videoID)
	if err != nil {
		return nil, err
	}

	p := From(Comments, "c").
		Join(Accounts, "o", "o.id = c.owner_id").
		Match("c.video_id = ?", video).
		Project(
			Column("c", "id"),
			Column("c", "content"),
			Column("c", "video_id"),
			Column("c", "created_at"),
			Column("o", "id").As("owner_id"),
			Column("o", "username"),
			Column("o", "full_name"),
			Column("o", "avatar"),
		).
		Sort("c.created_at ASC", "c.id ASC").
		Paginate(page)

	comments, err := collect(ctx, e, "aggregate.video_comments", p, func(row pgx.CollectableRow) (models.CommentView, error) {
		var c models.CommentView
		err := row.Scan(&c.ID, &c.Content, &c.VideoID, &c.CreatedAt, &c.UserID, &c.UserName, &c.FullName, &c.Avatar)
		return c, err
	})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 && page.Number == 1 {
		return nil, fmt.Errorf("%w: video has no comments", ErrNotFound)
	}
	return comments, nil
}

// LikedVideos lists the videos viewerID liked, most recent like first.
func (e *Engine) LikedVideos(ctx context.Context, viewerID string) ([]models.LikedVideo, error) {
	viewer, err := parseID("viewer id", viewerID)
	if err != nil {
		return nil, err
	}

	p := From(Likes, "l").
		Join(Videos, "v", "v.id = l.video_id").
		Match("l.liked_by = ?", viewer).
		Match("l.video_id IS NOT NULL").
		Project(
			Column("l", "id").As("like_id"),
			Column("v", "id"),
			Column("v", "video_file"),
			Column("v", "thumbnail"),
			Column("v", "title"),
			Column("v", "duration"),
			Column("v", "views"),
			Column("v", "is_published"),
			Column("v", "created_at"),
		).
		Sort("l.created_at DESC", "l.id DESC")

	return collect(ctx, e, "aggregate.liked_videos", p, func(row pgx.CollectableRow) (models.LikedVideo, error) {
		var v models.LikedVideo
		err := row.Scan(&v.LikeID, &v.VideoID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt)
		return v, err
	})
}

// WatchHistory returns the viewer's history in stored order, most recent first, with
// each video's owner summary attached.
func (e *Engine) WatchHistory(ctx context.Context, viewerID string) ([]models.WatchHistoryEntry, error) {
	viewer, err := parseID("viewer id", viewerID)
	if err != nil {
		return nil, err
	}

	p := From(Accounts, "a").
		Unwind("a.watch_history", "h", "video_id", "ord").
		Join(Videos, "v", "v.id = h.video_id").
		Join(Accounts, "o", "o.id = v.owner_id").
		Match("a.id = ?", viewer).
		Project(
			Column("h", "ord").As("position"),
			Column("v", "id"),
			Column("v", "video_file"),
			Column("v", "thumbnail"),
			Column("v", "title"),
			Column("v", "description"),
			Column("v", "duration"),
			Column("v", "views"),
			Column("v", "created_at"),
			Column("o", "id").As("owner_id"),
			Column("o", "full_name"),
			Column("o", "username"),
			Column("o", "avatar"),
		).
		Sort("h.ord ASC")

	return collect(ctx, e, "aggregate.watch_history", p, func(row pgx.CollectableRow) (models.WatchHistoryEntry, error) {
		var h models.WatchHistoryEntry
		err := row.Scan(
			&h.Position, &h.VideoID, &h.VideoFile, &h.Thumbnail, &h.Title, &h.Description,
			&h.Duration, &h.Views, &h.CreatedAt,
			&h.Owner.ID, &h.Owner.FullName, &h.Owner.UserName, &h.Owner.Avatar,
		)
		return h, err
	})
}

// Subscribers lists the accounts subscribed to channelID, newest first.
func (e *Engine) Subscribers(ctx context.Context, channelID string) ([]models.RelatedAccount, error) {
	channel, err := parseID("channel id", channelID)
	if err != nil {
		return nil, err
	}
	return e.related(ctx, "aggregate.subscribers", "s.subscriber_id", "s.channel_id", channel)
}

// SubscribedChannels lists the channels subscriberID subscribes to, newest first.
func (e *Engine) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.RelatedAccount, error) {
	subscriber, err := parseID("subscriber id", subscriberID)
	if err != nil {
		return nil, err
	}
	return e.related(ctx, "aggregate.subscribed_channels", "s.channel_id", "s.subscriber_id", subscriber)
}

func (e *Engine) related(ctx context.Context, span, joinKey, matchKey, id string) ([]models.RelatedAccount, error) {
	p := From(Subscriptions, "s").
		Join(Accounts, "a", "a.id = "+joinKey).
		Match(matchKey+" = ?", id).
		Project(
			Column("s", "id"),
			Column("s", "created_at"),
			Column("a", "id"),
			Column("a", "username"),
			Column("a", "email"),
			Column("a", "full_name"),
			Column("a", "avatar"),
			Column("a", "cover_image"),
			Column("a", "created_at"),
		).
		Sort("s.created_at DESC", "s.id DESC")

	return collect(ctx, e, span, p, func(row pgx.CollectableRow) (models.RelatedAccount, error) {
		var r models.RelatedAccount
		err := row.Scan(
			&r.SubscriptionID, &r.SubscribedAt,
			&r.Account.ID, &r.Account.UserName, &r.Account.Email, &r.Account.FullName,
			&r.Account.Avatar, &r.Account.CoverImage, &r.Account.CreatedAt,
		)
		return r, err
	})
}

func (e *Engine) queryRow(ctx context.Context, span string, p *Pipeline, scan func(pgx.Row) error) error {
	ctx, s := logging.StartSpan(ctx, span)
	defer s.End()

	query, args, err := p.Build()
	if err != nil {
		s.Fail(err)
		return fmt.Errorf("build %s: %w", span, err)
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := scan(conn.QueryRow(ctx, query, args...)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		s.Fail(err)
		logging.FromContext(ctx).Error("aggregation failed", slog.Any("error", err))
		return fmt.Errorf("query %s: %w", span, err)
	}
	return nil
}

func collect[T any](ctx context.Context, e *Engine, span string, p *Pipeline, scan pgx.RowToFunc[T]) ([]T, error) {
	ctx, s := logging.StartSpan(ctx, span)
	defer s.End()

	query, args, err := p.Build()
	if err != nil {
		s.Fail(err)
		return nil, fmt.Errorf("build %s: %w", span, err)
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		s.Fail(err)
		logging.FromContext(ctx).Error("aggregation failed", slog.Any("error", err))
		return nil, fmt.Errorf("query %s: %w", span, err)
	}
	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		s.Fail(err)
		logging.FromContext(ctx).Error("aggregation failed", slog.Any("error", err))
		return nil, fmt.Errorf("collect %s: %w", span, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}
