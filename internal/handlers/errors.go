package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/videotube/backend/internal/aggregate"
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/respond"
	"github.com/videotube/backend/internal/storage"
)

var errInvalidArgument = errors.New("invalid argument")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidArgument, fmt.Sprintf(format, args...))
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errInvalidArgument),
		errors.Is(err, aggregate.ErrInvalidArgument),
		errors.Is(err, storage.ErrUnsupportedMedia):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrStaleToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrAccountNotFound),
		errors.Is(err, repositories.ErrNotFound),
		errors.Is(err, aggregate.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Client errors echo the error text; server
// errors are logged and replaced with fallback.
func respondError(ctx context.Context, w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error(fallback, "error", err)
		message = fallback
	}
	respond.Error(ctx, w, status, message)
}

func pathID(r *http.Request, name string) (string, error) {
	raw := strings.TrimSpace(mux.Vars(r)[name])
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", invalid("%s is not a valid id", name)
	}
	return id.String(), nil
}
