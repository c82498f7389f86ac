package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/respond"
)

// ChannelHandler serves channel pages, watch history and the dashboard.
type ChannelHandler struct {
	Accounts AccountStore
	Views    Aggregator
}

// Profile handles GET /api/v1/users/c/{username}.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.AccountIDFromContext(ctx)

	profile, err := h.Views.ChannelProfile(ctx, mux.Vars(r)["username"], viewerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load channel")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, profile, "user channel fetched successfully")
}

// History handles GET /api/v1/users/history.
func (h ChannelHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.AccountIDFromContext(ctx)

	history, err := h.Views.WatchHistory(ctx, viewerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load watch history")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// RecordView handles POST /api/v1/users/history/{videoId}.
func (h ChannelHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID, _ := middleware.AccountIDFromContext(ctx)

	videoID, err := pathID(r, "videoId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	if err := h.Accounts.RecordView(ctx, viewerID, videoID); err != nil {
		respondError(ctx, w, err, "failed to record view")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, map[string]string{"videoId": videoID}, "view recorded")
}

// Stats handles GET /api/v1/dashboard/stats.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := middleware.AccountIDFromContext(ctx)

	stats, err := h.Views.ChannelStats(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load channel stats")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, stats, "channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos.
func (h ChannelHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, _ := middleware.AccountIDFromContext(ctx)

	videos, err := h.Views.ChannelVideos(ctx, ownerID)
	if err != nil {
		respondError(ctx, w, err, "failed to load channel videos")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, videos, "channel videos fetched successfully")
}
