// Package postgres implements database.Connector on top of pgx.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
)

// Connector dials a new PostgreSQL session for every call
type Connector struct {
	connConfig *pgx.ConnConfig
}

// NewConnector parses the configured DSN once; each Connect reuses it.
func NewConnector(cfg config.DatabaseConfig) (*Connector, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	return &Connector{connConfig: connConfig}, nil
}

// Connect opens a session. Failures are classified as backend-unavailable.
func (c *Connector) Connect(ctx context.Context) (database.Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, c.connConfig.Copy())
	if err != nil {
		return nil, &domain.BackendError{Kind: domain.KindBackendUnavailable, Err: err}
	}
	return &Conn{conn: conn}, nil
}

// Conn wraps a single pgx connection
type Conn struct {
	conn *pgx.Conn
}

// Query runs sql and buffers every row. Values are returned as decoded by
// pgx; column types carry the backend type name.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (*domain.ResultSet, error) {
	start := time.Now()

	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, Classify(err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]domain.Column, len(fieldDescs))
	typeMap := c.conn.TypeMap()
	for i, fd := range fieldDescs {
		columns[i] = domain.Column{Name: fd.Name}
		if t, ok := typeMap.TypeForOID(fd.DataTypeOID); ok {
			columns[i].Type = t.Name
		}
	}

	var resultRows [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, Classify(err)
		}
		resultRows = append(resultRows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, Classify(err)
	}

	log.Debug().
		Int("rows", len(resultRows)).
		Dur("elapsed", time.Since(start)).
		Msg("statement executed")

	return &domain.ResultSet{Columns: columns, Rows: resultRows}, nil
}

// Close closes the underlying connection
func (c *Conn) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

var _ database.Connector = (*Connector)(nil)
var _ database.Conn = (*Conn)(nil)
