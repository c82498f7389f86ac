package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/videotube/backend/internal/logging"
)

// ShutdownTimeout controls how long to wait for in-flight requests on shutdown.
var ShutdownTimeout = 10 * time.Second

// Server wraps the http.Server with timeouts suited to JSON and multipart uploads.
type Server struct {
	inner *http.Server
}

// New constructs a server listening on the provided port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// Run serves on ln until ctx is canceled, then shuts down gracefully. A nil ln
// listens on the configured address.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", s.inner.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.inner.Addr, err)
		}
	}
	base := context.WithoutCancel(ctx)
	s.inner.BaseContext = func(net.Listener) context.Context { return base }

	logger := logging.FromContext(ctx)
	logger.Info("starting http server", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.inner.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if err := s.inner.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
