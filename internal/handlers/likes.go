package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/respond"
)

// LikeHandler toggles likes and lists liked videos.
type LikeHandler struct {
	Likes LikeToggler
	Views Aggregator
}

// Toggle returns the handler for POST /api/v1/likes/toggle/{v|c|t}/{id}.
func (h LikeHandler) Toggle(target models.LikeTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, _ := middleware.AccountIDFromContext(ctx)

		targetID, err := pathID(r, "id")
		if err != nil {
			respondError(ctx, w, err, "")
			return
		}

		liked, err := h.Likes.Toggle(ctx, accountID, target, targetID)
		if err != nil {
			respondError(ctx, w, err, "failed to toggle like")
			return
		}

		message := string(target) + " unliked"
		if liked {
			message = string(target) + " liked"
		}
		respond.JSON(ctx, w, http.StatusOK, map[string]bool{"liked": liked}, message)
	}
}

// LikedVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.AccountIDFromContext(ctx)

	videos, err := h.Views.LikedVideos(ctx, viewerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load liked videos")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, videos, "liked videos fetched successfully")
}
