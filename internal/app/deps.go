package app

import (
	"context"
	"fmt"
	"time"

	"github.com/videotube/backend/internal/aggregate"
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

const rateLimiterIdleTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	media, err := storage.NewS3MediaStorage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media storage: %w", err)
	}

	accounts := repositories.NewPostgresAccountRepository(pool)
	sessions := auth.NewManager(
		auth.NewSigner(auth.AccessAudience, cfg.Tokens.AccessSecret, cfg.Tokens.AccessTTL),
		auth.NewSigner(auth.RefreshAudience, cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshTTL),
		accounts,
	)

	return handlers.Dependencies{
		Database:      pool,
		Accounts:      accounts,
		Sessions:      sessions,
		Media:         media,
		Views:         aggregate.NewEngine(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Likes:         repositories.NewPostgresLikeRepository(pool),
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Comments:      repositories.NewPostgresCommentRepository(pool),
		Tweets:        repositories.NewPostgresTweetRepository(pool),
		Limiter:       middleware.NewKeyedRateLimiter(cfg.RateLimit, rateLimiterIdleTTL),
		Cookies:       cfg.Cookies,
	}, nil
}
