package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/security"
	"github.com/Rrens/db-assistant/internal/tools"
)

type stubConn struct{ rs *domain.ResultSet }

func (c *stubConn) Query(ctx context.Context, sql string, args ...any) (*domain.ResultSet, error) {
	return c.rs, nil
}

func (c *stubConn) Close(ctx context.Context) error { return nil }

func newRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	connector := database.ConnectorFunc(func(ctx context.Context) (database.Conn, error) {
		return &stubConn{rs: &domain.ResultSet{
			Columns: []domain.Column{{Name: "table_name"}},
			Rows:    [][]any{{"orders"}},
		}}, nil
	})
	return tools.NewRegistry(tools.New(connector, nil, tools.Options{PlotDir: t.TempDir()}))
}

func callRequest(t *testing.T, name string, args map[string]any) mcp.CallToolRequest {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"method": "tools/call",
		"params": map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	var req mcp.CallToolRequest
	require.NoError(t, json.Unmarshal(raw, &req))
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewTool_Params(t *testing.T) {
	reg := newRegistry(t)

	spec, ok := reg.Lookup("top_k_column_values")
	require.True(t, ok)
	tool := newTool(spec)

	assert.Equal(t, "top_k_column_values", tool.Name)
	assert.ElementsMatch(t, []string{"table", "column"}, tool.InputSchema.Required)

	k, ok := tool.InputSchema.Properties["k"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "number", k["type"])
	assert.Equal(t, float64(tools.DefaultTopK), k["default"])

	table, ok := tool.InputSchema.Properties["table"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", table["type"])
}

func TestHandler(t *testing.T) {
	reg := newRegistry(t)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, err := handler(reg, "list_tables")(ctx, callRequest(t, "list_tables", nil))
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "orders", text(t, res))
	})

	t.Run("tool failure is an error result", func(t *testing.T) {
		req := callRequest(t, "run_query", map[string]any{"query": "DROP TABLE orders"})
		res, err := handler(reg, "run_query")(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, security.ReadOnlyDenied, text(t, res))
	})

	t.Run("number arguments", func(t *testing.T) {
		req := callRequest(t, "top_k_column_values", map[string]any{"table": "orders", "column": "status", "k": 2.5})
		res, err := handler(reg, "top_k_column_values")(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error: Argument 'k' must be an integer.", text(t, res))
	})
}

func TestNew_RegistersEveryTool(t *testing.T) {
	reg := newRegistry(t)
	s := New(reg, "test")
	require.NotNil(t, s)

	raw := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	msg := s.HandleMessage(context.Background(), raw)

	out, err := json.Marshal(msg)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(out, &resp))
	list := resp.Result
	assert.Len(t, list.Tools, len(reg.Specs("")))
}
