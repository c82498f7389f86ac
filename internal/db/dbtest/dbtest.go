// Package dbtest boots a throwaway CockroachDB node for integration tests and applies
// the embedded migrations to it.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/db"
)

// Server couples a running test node with a migrated pool.
type Server struct {
	Pool *pgxpool.Pool
	node testserver.TestServer
}

// Start launches the node, connects and migrates. Callers must Stop the server.
func Start(ctx context.Context) (*Server, error) {
	node, err := testserver.NewTestServer()
	if err != nil {
		return nil, fmt.Errorf("start cockroach test server: %w", err)
	}

	pool, err := db.Connect(ctx, node.PGURL().String())
	if err != nil {
		node.Stop()
		return nil, fmt.Errorf("connect to cockroach test server: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		node.Stop()
		return nil, err
	}

	return &Server{Pool: pool, node: node}, nil
}

// Stop closes the pool and shuts the node down.
func (s *Server) Stop() {
	s.Pool.Close()
	s.node.Stop()
}

// Reset empties every application table.
func (s *Server) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := s.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE likes, subscriptions, tweets, comments, videos, accounts CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
