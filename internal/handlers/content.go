package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/aggregate"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/respond"
)

// ContentHandler creates videos, comments and tweets and lists comments.
type ContentHandler struct {
	Videos   VideoStore
	Comments CommentStore
	Tweets   TweetStore
	Views    Aggregator
	NowFunc  func() time.Time
}

// CreateVideo handles POST /api/v1/videos. Media must already be hosted; only the
// references are stored.
func (h ContentHandler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := middleware.AccountIDFromContext(ctx)

	var req createVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	req.VideoFile = strings.TrimSpace(req.VideoFile)
	req.Thumbnail = strings.TrimSpace(req.Thumbnail)
	if req.Title == "" || req.VideoFile == "" || req.Thumbnail == "" {
		respondError(ctx, w, invalid("title, videoFile and thumbnail are required"), "")
		return
	}
	if req.Duration < 0 {
		respondError(ctx, w, invalid("duration must not be negative"), "")
		return
	}

	published := true
	if req.IsPublished != nil {
		published = *req.IsPublished
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		VideoFile:   req.VideoFile,
		Thumbnail:   req.Thumbnail,
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Duration:    req.Duration,
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, err, "failed to create video")
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, videoResponse(video), "video published successfully")
}

// ListVideos handles GET /api/v1/videos?page=&limit=&query=&sortBy=&sortType=&userId=.
func (h ContentHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	page, err := aggregate.ParsePage(q.Get("page"), q.Get("limit"))
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}
	sort, err := aggregate.ParseVideoSort(q.Get("sortBy"), q.Get("sortType"))
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}
	filter := aggregate.VideoFilter{Query: q.Get("query"), OwnerID: strings.TrimSpace(q.Get("userId"))}

	feed, err := h.Views.Videos(ctx, filter, sort, page)
	if err != nil {
		respondError(ctx, w, err, "failed to load videos")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, feed, "videos fetched successfully")
}

// ListTweets handles GET /api/v1/tweets/u/{userId}.
func (h ContentHandler) ListTweets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, err := pathID(r, "userId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	tweets, err := h.Views.UserTweets(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load tweets")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, tweets, "tweets fetched successfully")
}

// ListComments handles GET /api/v1/comments/{videoId}?page=&limit=.
func (h ContentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}
	page, err := aggregate.ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	comments, err := h.Views.VideoComments(ctx, videoID, page)
	if err != nil {
		respondError(ctx, w, err, "failed to load comments")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, comments, "comments fetched successfully")
}

// AddComment handles POST /api/v1/comments/{videoId}.
func (h ContentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := middleware.AccountIDFromContext(ctx)

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}
	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	comment := models.Comment{ID: uuid.NewString(), VideoID: videoID, OwnerID: ownerID, Content: content, CreatedAt: h.now()}
	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, err, "failed to add comment")
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// CreateTweet handles POST /api/v1/tweets.
func (h ContentHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := middleware.AccountIDFromContext(ctx)

	content, err := decodeContent(r)
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	tweet := models.Tweet{ID: uuid.NewString(), OwnerID: ownerID, Content: content, CreatedAt: h.now()}
	if err := h.Tweets.Create(ctx, tweet); err != nil {
		respondError(ctx, w, err, "failed to create tweet")
		return
	}
	respond.JSON(ctx, w, http.StatusCreated, tweet, "tweet created successfully")
}

func (h ContentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func decodeContent(r *http.Request) (string, error) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", invalid("invalid request body")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return "", invalid("content is required")
	}
	return content, nil
}

type contentRequest struct {
	Content string `json:"content"`
}

type createVideoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	VideoFile   string  `json:"videoFile"`
	Thumbnail   string  `json:"thumbnail"`
	Duration    float64 `json:"duration"`
	IsPublished *bool   `json:"isPublished"`
}

type videoPayload struct {
	ID          string    `json:"_id"`
	Owner       string    `json:"owner"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
}

func videoResponse(v models.Video) videoPayload {
	return videoPayload{
		ID:          v.ID,
		Owner:       v.OwnerID,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Title:       v.Title,
		Description: v.Description,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
	}
}
