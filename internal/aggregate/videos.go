package aggregate

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/models"
)

// VideoFilter narrows the video feed. Query matches title or description
// case-insensitively; OwnerID restricts the feed to one channel.
type VideoFilter struct {
	Query   string
	OwnerID string
}

// VideoSort orders the video feed by one of the sortable fields.
type VideoSort struct {
	Field      string
	Descending bool
}

var videoSortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"duration":  "v.duration",
	"title":     "v.title",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ParseVideoSort reads sortBy and sortType query values. The default is newest first.
func ParseVideoSort(sortBy, sortType string) (VideoSort, error) {
	sort := VideoSort{Field: "createdAt", Descending: true}
	if field := strings.TrimSpace(sortBy); field != "" {
		if _, ok := videoSortColumns[field]; !ok {
			return VideoSort{}, fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, field)
		}
		sort.Field = field
	}
	switch strings.ToLower(strings.TrimSpace(sortType)) {
	case "", "desc":
	case "asc":
		sort.Descending = false
	default:
		return VideoSort{}, fmt.Errorf("%w: sortType must be asc or desc", ErrInvalidArgument)
	}
	return sort, nil
}

func (s VideoSort) clause() (string, error) {
	column, ok := videoSortColumns[s.Field]
	if !ok {
		return "", fmt.Errorf("%w: cannot sort by %q", ErrInvalidArgument, s.Field)
	}
	if s.Descending {
		return column + " DESC", nil
	}
	return column + " ASC", nil
}

func feedPipeline(filter VideoFilter, sort VideoSort, page Page) (*Pipeline, error) {
	order, err := sort.clause()
	if err != nil {
		return nil, err
	}

	p := From(Videos, "v").
		Join(Accounts, "o", "o.id = v.owner_id").
		Match("v.is_published")

	if query := strings.TrimSpace(filter.Query); query != "" {
		pattern := "%" + likeEscaper.Replace(query) + "%"
		p.Match("v.title ILIKE ? OR v.description ILIKE ?", pattern, pattern)
	}
	if filter.OwnerID != "" {
		owner, err := parseID("owner id", filter.OwnerID)
		if err != nil {
			return nil, err
		}
		p.Match("v.owner_id = ?", owner)
	}

	return p.Project(append(videoSummaryFields(),
		Column("o", "id").As("owner_id"),
		Column("o", "full_name"),
		Column("o", "username"),
		Column("o", "avatar"),
	)...).
		Sort(order, "v.id ASC").
		Paginate(page), nil
}

func videoSummaryFields() []Field {
	return []Field{
		Column("v", "id"),
		Column("v", "video_file"),
		Column("v", "thumbnail"),
		Column("v", "title"),
		Column("v", "description"),
		Column("v", "duration"),
		Column("v", "views"),
		Column("v", "is_published"),
		Column("v", "created_at"),
		Column("v", "updated_at"),
	}
}

func videoSummaryDest(v *models.VideoSummary) []any {
	return []any{
		&v.ID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
		&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt,
	}
}

// Videos returns one page of published videos matching filter, each with its owner.
// An empty page is not an error.
func (e *Engine) Videos(ctx context.Context, filter VideoFilter, sort VideoSort, page Page) (models.VideoFeed, error) {
	p, err := feedPipeline(filter, sort, page)
	if err != nil {
		return models.VideoFeed{}, err
	}

	videos, err := collect(ctx, e, "aggregate.videos", p, func(row pgx.CollectableRow) (models.FeedVideo, error) {
		var v models.FeedVideo
		dest := append(videoSummaryDest(&v.VideoSummary), &v.Owner.ID, &v.Owner.FullName, &v.Owner.UserName, &v.Owner.Avatar)
		err := row.Scan(dest...)
		return v, err
	})
	if err != nil {
		return models.VideoFeed{}, err
	}
	return models.VideoFeed{Videos: videos, Page: page.Number, Limit: page.Limit}, nil
}

// ChannelVideos lists every video ownerID uploaded, published or not, newest first.
func (e *Engine) ChannelVideos(ctx context.Context, ownerID string) ([]models.VideoSummary, error) {
	owner, err := parseID("owner id", ownerID)
	if err != nil {
		return nil, err
	}

	p := From(Videos, "v").
		Match("v.owner_id = ?", owner).
		Project(videoSummaryFields()...).
		Sort("v.created_at DESC", "v.id ASC")

	return collect(ctx, e, "aggregate.channel_videos", p, func(row pgx.CollectableRow) (models.VideoSummary, error) {
		var v models.VideoSummary
		err := row.Scan(videoSummaryDest(&v)...)
		return v, err
	})
}

// UserTweets lists the tweets of ownerID, newest first, with the author attached.
func (e *Engine) UserTweets(ctx context.Context, ownerID string) ([]models.TweetView, error) {
	owner, err := parseID("user id", ownerID)
	if err != nil {
		return nil, err
	}

	p := From(Tweets, "t").
		Join(Accounts, "o", "o.id = t.owner_id").
		Match("t.owner_id = ?", owner).
		Project(
			Column("t", "id"),
			Column("t", "content"),
			Column("t", "created_at"),
			Column("o", "id").As("owner_id"),
			Column("o", "full_name"),
			Column("o", "username"),
			Column("o", "avatar"),
		).
		Sort("t.created_at DESC", "t.id ASC")

	return collect(ctx, e, "aggregate.user_tweets", p, func(row pgx.CollectableRow) (models.TweetView, error) {
		var t models.TweetView
		err := row.Scan(&t.ID, &t.Content, &t.CreatedAt, &t.Owner.ID, &t.Owner.FullName, &t.Owner.UserName, &t.Owner.Avatar)
		return t, err
	})
}
