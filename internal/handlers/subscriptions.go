package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/respond"
)

// SubscriptionHandler toggles and lists subscriptions.
type SubscriptionHandler struct {
	Subscriptions SubscriptionToggler
	Views         Aggregator
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subscriberID, _ := middleware.AccountIDFromContext(ctx)

	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}
	if channelID == subscriberID {
		respondError(ctx, w, invalid("cannot subscribe to your own channel"), "")
		return
	}

	subscribed, err := h.Subscriptions.Toggle(ctx, subscriberID, channelID)
	if err != nil {
		respondError(ctx, w, err, "failed to toggle subscription")
		return
	}

	message := "unsubscribed successfully"
	if subscribed {
		message = "subscribed successfully"
	}
	respond.JSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": subscribed}, message)
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID, err := pathID(r, "channelId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	subscribers, err := h.Views.Subscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err, "failed to load subscribers")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, subscribers, "subscribers fetched successfully")
}

// Channels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) Channels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subscriberID, err := pathID(r, "subscriberId")
	if err != nil {
		respondError(ctx, w, err, "")
		return
	}

	channels, err := h.Views.SubscribedChannels(ctx, subscriberID)
	if err != nil {
		respondError(ctx, w, err, "failed to load subscribed channels")
		return
	}
	respond.JSON(ctx, w, http.StatusOK, channels, "subscribed channels fetched successfully")
}
