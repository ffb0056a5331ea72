// Package database defines the per-call connection contract the tools run on.
package database

import (
	"context"
	"fmt"

	"github.com/Rrens/db-assistant/internal/domain"
)

// Conn is a single scoped database session. It is owned by one tool call and
// must be closed on every exit path.
type Conn interface {
	// Query executes sql with bound args and buffers the complete result.
	Query(ctx context.Context, sql string, args ...any) (*domain.ResultSet, error)

	// Close releases the session
	Close(ctx context.Context) error
}

// Connector opens a fresh Conn per call. No pooling or retry.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context) (Conn, error)

func (f ConnectorFunc) Connect(ctx context.Context) (Conn, error) {
	return f(ctx)
}

// Ping opens a session, runs a trivial statement and closes it.
func Ping(ctx context.Context, c Connector) error {
	conn, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Query(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}
