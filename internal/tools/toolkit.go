// Package tools implements the read-only database tools exposed to the
// assistant. Every tool opens its own connection, resolves caller-supplied
// identifiers against the live catalog, runs one statement and renders the
// outcome as text.
package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/format"
	"github.com/Rrens/db-assistant/internal/security"
)

// Options tunes tool execution
type Options struct {
	// MaxRows caps tabular output; 0 means unlimited.
	MaxRows int
	// QueryTimeout bounds one tool call; 0 means no deadline.
	QueryTimeout time.Duration
	// PlotDir is where chart images are written.
	PlotDir string
	// PlotWidth and PlotHeight are in centimetres.
	PlotWidth  float64
	PlotHeight float64
}

// Toolkit runs tools against a database
type Toolkit struct {
	connector database.Connector
	validator *security.SQLValidator
	opts      Options
}

// New creates a Toolkit
func New(connector database.Connector, validator *security.SQLValidator, opts Options) *Toolkit {
	if validator == nil {
		validator = security.NewSQLValidator(false)
	}
	if opts.PlotDir == "" {
		opts.PlotDir = "."
	}
	if opts.PlotWidth <= 0 {
		opts.PlotWidth = 20
	}
	if opts.PlotHeight <= 0 {
		opts.PlotHeight = 12
	}
	return &Toolkit{
		connector: connector,
		validator: validator,
		opts:      opts,
	}
}

// withConn opens a connection for the duration of fn and always closes it.
func (t *Toolkit) withConn(ctx context.Context, fn func(ctx context.Context, conn database.Conn) (string, error)) (string, error) {
	if t.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.QueryTimeout)
		defer cancel()
	}

	conn, err := t.connector.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn().Err(cerr).Msg("failed to close database connection")
		}
	}()

	return fn(ctx, conn)
}

func str(v any) string {
	return format.Value(v, "")
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int16:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// toFloat converts a decoded numeric value. NULL and NaN report false.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case int16:
		f = float64(n)
	case int:
		f = float64(n)
	case pgtype.Numeric:
		fv, err := n.Float64Value()
		if err != nil || !fv.Valid {
			return 0, false
		}
		f = fv.Float64
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func formatFixed(f float64, decimals int) string {
	return fmt.Sprintf("%.*f", decimals, f)
}
