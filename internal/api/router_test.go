package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/db-assistant/internal/api"
	"github.com/Rrens/db-assistant/internal/api/middleware"
	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/security"
	"github.com/Rrens/db-assistant/internal/tools"
)

const testSecret = "router-test-secret-32-characters!"

// stubConn answers every statement with the same result set
type stubConn struct {
	rs  *domain.ResultSet
	err error
}

func (c *stubConn) Query(ctx context.Context, sql string, args ...any) (*domain.ResultSet, error) {
	return c.rs, c.err
}

func (c *stubConn) Close(ctx context.Context) error { return nil }

func tableNames(names ...string) *domain.ResultSet {
	rs := &domain.ResultSet{Columns: []domain.Column{{Name: "table_name", Type: "text"}}}
	for _, n := range names {
		rs.Rows = append(rs.Rows, []any{n})
	}
	return rs
}

type stubLimiter struct {
	allowed bool
	err     error
}

func (l stubLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	return l.allowed, 0, time.Now().Add(time.Minute), l.err
}

// windowLimiter allows limit requests per key
type windowLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func (l *windowLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[key]++
	return l.seen[key] <= l.limit, max(l.limit-l.seen[key], 0), time.Now().Add(time.Minute), nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

type callData struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
	Kind   string `json:"kind"`
}

func newRouter(t *testing.T, cfg *config.Config, connector database.Connector, limiter *stubLimiter) http.Handler {
	t.Helper()
	if limiter != nil {
		return newRouterWithLimiter(t, cfg, connector, *limiter)
	}
	return newRouterWithLimiter(t, cfg, connector, nil)
}

func newRouterWithLimiter(t *testing.T, cfg *config.Config, connector database.Connector, limiter middleware.Limiter) http.Handler {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if connector == nil {
		connector = database.ConnectorFunc(func(ctx context.Context) (database.Conn, error) {
			return &stubConn{rs: tableNames("customers", "orders")}, nil
		})
	}
	deps := api.Deps{
		Registry:  tools.NewRegistry(tools.New(connector, nil, tools.Options{PlotDir: t.TempDir()})),
		Connector: connector,
	}
	deps.Limiter = limiter
	return api.NewRouter(cfg, deps)
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func decodeCall(t *testing.T, env envelope) callData {
	t.Helper()
	var data callData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func TestHealthCheck(t *testing.T) {
	rec, env := do(t, newRouter(t, nil, nil, nil), http.MethodGet, "/api/v1/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestReadyCheck(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		rec, env := do(t, newRouter(t, nil, nil, nil), http.MethodGet, "/api/v1/ready", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
	})

	t.Run("database down", func(t *testing.T) {
		down := database.ConnectorFunc(func(ctx context.Context) (database.Conn, error) {
			return nil, errors.New("connection refused")
		})
		rec, env := do(t, newRouter(t, nil, down, nil), http.MethodGet, "/api/v1/ready", nil, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.False(t, env.Success)
		assert.Equal(t, "database not ready", env.Error)
	})
}

func TestListTools(t *testing.T) {
	h := newRouter(t, nil, nil, nil)

	rec, env := do(t, h, http.MethodGet, "/api/v1/tools?group=visual", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Tools []tools.Spec `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Tools, 2)
	assert.Equal(t, "plot_histogram", data.Tools[0].Name)

	rec, _ = do(t, h, http.MethodGet, "/api/v1/tools?group=admin", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallTool(t *testing.T) {
	h := newRouter(t, nil, nil, nil)

	t.Run("success", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/api/v1/tools/list_tables", map[string]any{"arguments": map[string]any{}}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)

		data := decodeCall(t, env)
		assert.Equal(t, "list_tables", data.Tool)
		assert.Equal(t, "customers\norders", data.Output)
		assert.Empty(t, data.Kind)
	})

	t.Run("empty body", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/api/v1/tools/list_tables", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)
	})

	t.Run("policy denied", func(t *testing.T) {
		body := map[string]any{"arguments": map[string]any{"query": "DELETE FROM orders"}}
		rec, env := do(t, h, http.MethodPost, "/api/v1/tools/run_query", body, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, env.Success)

		data := decodeCall(t, env)
		assert.Equal(t, security.ReadOnlyDenied, data.Output)
		assert.Equal(t, string(domain.KindPolicyDenied), data.Kind)
	})

	t.Run("unknown tool", func(t *testing.T) {
		rec, env := do(t, h, http.MethodPost, "/api/v1/tools/drop_everything", nil, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Error: Unknown tool 'drop_everything'.", decodeCall(t, env).Output)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/tools/list_tables", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuth(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret, AccessTokenTTL: time.Hour}}
	h := newRouter(t, cfg, nil, nil)
	jwtManager := security.NewJWTManager(testSecret, time.Hour)

	t.Run("health stays public", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/health", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/v1/tools", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "missing authorization header", env.Error)
	})

	t.Run("bad token", func(t *testing.T) {
		rec, _ := do(t, h, http.MethodGet, "/api/v1/tools", nil, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("group restricted", func(t *testing.T) {
		token, err := jwtManager.GenerateAccessToken("analyst", []string{"schema"})
		require.NoError(t, err)

		rec, env := do(t, h, http.MethodPost, "/api/v1/tools/list_tables", nil, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, env.Success)

		body := map[string]any{"arguments": map[string]any{"query": "SELECT 1"}}
		rec, _ = do(t, h, http.MethodPost, "/api/v1/tools/run_query", body, token)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, env = do(t, h, http.MethodGet, "/api/v1/tools", nil, token)
		require.Equal(t, http.StatusOK, rec.Code)
		var data struct {
			Tools []tools.Spec `json:"tools"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		for _, s := range data.Tools {
			assert.Equal(t, tools.GroupSchema, s.Group)
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("exceeded", func(t *testing.T) {
		h := newRouter(t, nil, nil, &stubLimiter{allowed: false})
		rec, env := do(t, h, http.MethodGet, "/api/v1/tools", nil, "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "rate limit exceeded", env.Error)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("limiter failure allows request", func(t *testing.T) {
		h := newRouter(t, nil, nil, &stubLimiter{err: errors.New("redis down")})
		rec, _ := do(t, h, http.MethodGet, "/api/v1/tools", nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimit_KeyedByClientHost(t *testing.T) {
	limiter := &windowLimiter{limit: 1}
	h := newRouterWithLimiter(t, nil, nil, limiter)

	get := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/tools", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get("10.0.0.1:40000"))
	assert.Equal(t, http.StatusTooManyRequests, get("10.0.0.1:40001"))
	assert.Equal(t, http.StatusOK, get("10.0.0.2:40000"))
	assert.Equal(t, map[string]int{"ip:10.0.0.1": 2, "ip:10.0.0.2": 1}, limiter.seen)
}
