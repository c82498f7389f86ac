// Package respond writes the API response envelope.
package respond

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/videotube/backend/internal/logging"
)

// Envelope is the body of every API response. Errors carry no data.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// JSON writes a successful envelope around data.
func JSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	write(ctx, w, Envelope{StatusCode: status, Data: data, Message: message, Success: status < http.StatusBadRequest})
}

// Error writes a failure envelope.
func Error(ctx context.Context, w http.ResponseWriter, status int, message string) {
	write(ctx, w, Envelope{StatusCode: status, Message: message})
}

func write(ctx context.Context, w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error("encode response body", "status", env.StatusCode, "error", err)
		return
	}

	switch {
	case env.StatusCode >= http.StatusInternalServerError:
		logger.Error("request failed", "status", env.StatusCode, "message", env.Message)
	case env.StatusCode >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", env.StatusCode, "message", env.Message)
	}
}
