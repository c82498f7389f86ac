package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/respond"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Database      Pinger
	Accounts      AccountStore
	Sessions      SessionManager
	Media         MediaStorage
	Views         Aggregator
	Subscriptions SubscriptionToggler
	Likes         LikeToggler
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Limiter       middleware.RateLimiter
	Cookies       config.CookieConfig
}

// NewRouter wires every endpoint. Everything except health, registration, login and
// refresh requires a session.
func NewRouter(deps Dependencies) http.Handler {
	health := HealthHandler{Database: deps.Database}
	auth := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Media: deps.Media, Cookies: deps.Cookies}
	channels := ChannelHandler{Accounts: deps.Accounts, Views: deps.Views}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions, Views: deps.Views}
	content := ContentHandler{Videos: deps.Videos, Comments: deps.Comments, Tweets: deps.Tweets, Views: deps.Views}
	likes := LikeHandler{Likes: deps.Likes, Views: deps.Views}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(r.Context(), w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.Error(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})

	router.HandleFunc("/healthz", health.Handle).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	public := api.PathPrefix("/users").Subrouter()
	public.HandleFunc("/register", auth.Register).Methods(http.MethodPost)
	public.Handle("/login", middleware.RateLimit(deps.Limiter, "login")(http.HandlerFunc(auth.Login))).Methods(http.MethodPost)
	public.Handle("/refresh-token", middleware.RateLimit(deps.Limiter, "refresh")(http.HandlerFunc(auth.Refresh))).Methods(http.MethodPost)

	secured := api.NewRoute().Subrouter()
	secured.Use(middleware.RequireSession(deps.Sessions))

	secured.HandleFunc("/users/logout", auth.Logout).Methods(http.MethodPost)
	secured.HandleFunc("/users/me", auth.Me).Methods(http.MethodGet)
	secured.HandleFunc("/users/c/{username}", channels.Profile).Methods(http.MethodGet)
	secured.HandleFunc("/users/history", channels.History).Methods(http.MethodGet)
	secured.HandleFunc("/users/history/{videoId}", channels.RecordView).Methods(http.MethodPost)
	secured.HandleFunc("/dashboard/stats", channels.Stats).Methods(http.MethodGet)
	secured.HandleFunc("/dashboard/videos", channels.Videos).Methods(http.MethodGet)

	secured.HandleFunc("/subscriptions/c/{channelId}", subscriptions.Toggle).Methods(http.MethodPost)
	secured.HandleFunc("/subscriptions/c/{channelId}", subscriptions.Subscribers).Methods(http.MethodGet)
	secured.HandleFunc("/subscriptions/u/{subscriberId}", subscriptions.Channels).Methods(http.MethodGet)

	secured.HandleFunc("/videos", content.ListVideos).Methods(http.MethodGet)
	secured.HandleFunc("/videos", content.CreateVideo).Methods(http.MethodPost)
	secured.HandleFunc("/comments/{videoId}", content.ListComments).Methods(http.MethodGet)
	secured.HandleFunc("/comments/{videoId}", content.AddComment).Methods(http.MethodPost)
	secured.HandleFunc("/tweets", content.CreateTweet).Methods(http.MethodPost)
	secured.HandleFunc("/tweets/u/{userId}", content.ListTweets).Methods(http.MethodGet)

	secured.HandleFunc("/likes/toggle/v/{id}", likes.Toggle(models.LikeTargetVideo)).Methods(http.MethodPost)
	secured.HandleFunc("/likes/toggle/c/{id}", likes.Toggle(models.LikeTargetComment)).Methods(http.MethodPost)
	secured.HandleFunc("/likes/toggle/t/{id}", likes.Toggle(models.LikeTargetTweet)).Methods(http.MethodPost)
	secured.HandleFunc("/likes/videos", likes.LikedVideos).Methods(http.MethodGet)

	return router
}
