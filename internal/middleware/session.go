package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/respond"
)

// AccessCookie names the cookie carrying the short-lived token.
const AccessCookie = "accessToken"

type accountKey struct{}

// AccessVerifier checks a short-lived token and returns the account it was issued to.
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

// RequireSession rejects requests without a valid access token and stores the resolved
// account id on the request context.
func RequireSession(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := AccessToken(r)
			if token == "" {
				respond.Error(ctx, w, http.StatusUnauthorized, "unauthorized request")
				return
			}

			accountID, err := verifier.VerifyAccess(token)
			if err != nil {
				logging.FromContext(ctx).Warn("access token rejected", "error", err)
				respond.Error(ctx, w, http.StatusUnauthorized, "invalid access token")
				return
			}

			ctx = WithAccountID(ctx, accountID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(slog.String("account_id", accountID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessToken extracts the short-lived token from the Authorization header or, failing
// that, from the access cookie.
func AccessToken(r *http.Request) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(AccessCookie); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// WithAccountID stores the authenticated account id on the context.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountKey{}, accountID)
}

// AccountIDFromContext returns the authenticated account id, if any.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(accountKey{}).(string)
	return id, ok && id != ""
}
