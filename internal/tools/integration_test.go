package tools_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/db-assistant/internal/config"
	"github.com/Rrens/db-assistant/internal/database/postgres"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/tools"
)

// liveSales creates a scratch table on the server named by DBAGENT_TEST_DSN
// and drops it when the test ends.
func liveSales(t *testing.T) (*tools.Toolkit, string) {
	t.Helper()

	dsn := os.Getenv("DBAGENT_TEST_DSN")
	if dsn == "" {
		t.Skip("DBAGENT_TEST_DSN not set")
	}

	connector, err := postgres.NewConnector(config.DatabaseConfig{URL: dsn})
	require.NoError(t, err)

	table := "dbagent_sales_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	ctx := context.Background()

	exec := func(statements ...string) {
		conn, err := connector.Connect(ctx)
		require.NoError(t, err)
		defer conn.Close(ctx)
		for _, s := range statements {
			_, err := conn.Query(ctx, s)
			require.NoError(t, err, s)
		}
	}

	// month_start shares its name with the time series output column.
	exec(
		fmt.Sprintf(`CREATE TABLE %s (
			id serial PRIMARY KEY,
			region text,
			price numeric(10,2),
			qty integer,
			sold_on date,
			month_start text,
			created_at timestamptz
		)`, table),
		fmt.Sprintf(`INSERT INTO %s (region, price, qty, sold_on, month_start, created_at) VALUES
			('north', 10.00, 1, '2024-01-05', 'a', '2024-01-05 10:00:00+00'),
			('north', 20.00, 2, '2024-01-20', 'b', '2024-01-20 10:00:00+00'),
			('south', 30.00, 3, '2024-02-10', 'c', '2024-02-10 10:00:00+00'),
			(NULL, NULL, NULL, NULL, NULL, NULL)`, table),
	)
	t.Cleanup(func() { exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)) })

	return tools.New(connector, nil, tools.Options{PlotDir: t.TempDir()}), table
}

func TestTools_Integration(t *testing.T) {
	tk, table := liveSales(t)
	ctx := context.Background()

	t.Run("catalog lookup folds case", func(t *testing.T) {
		out, err := tk.DescribeTable(ctx, strings.ToUpper(table))
		require.NoError(t, err)
		assert.Contains(t, out, "month_start | text | YES")
		assert.Contains(t, out, "price | numeric | YES")
	})

	t.Run("primary key", func(t *testing.T) {
		out, err := tk.PrimaryKeys(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("The primary key for '%s' is: id", table), out)
	})

	t.Run("count", func(t *testing.T) {
		out, err := tk.CountRows(ctx, table)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("Table '%s' contains 4 rows.", table), out)
	})

	t.Run("top values", func(t *testing.T) {
		out, err := tk.TopValues(ctx, table, "region", tools.DefaultTopK)
		require.NoError(t, err)
		assert.Equal(t, "north: 2\nsouth: 1", out)
	})

	t.Run("numeric stats", func(t *testing.T) {
		out, err := tk.NumericStats(ctx, table, "price")
		require.NoError(t, err)
		assert.Equal(t, "Mean: 20.00\nMedian: 20.00\nStd Dev: 10.00\nMin: 10.00\nMax: 30.00", out)
	})

	t.Run("time series", func(t *testing.T) {
		out, err := tk.TimeSeries(ctx, table, "sold_on", "price")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01 : 15.00\n2024-02-01 : 30.00", out)
	})

	t.Run("correlation", func(t *testing.T) {
		out, err := tk.Correlation(ctx, table, "price", "qty")
		require.NoError(t, err)
		assert.Equal(t, "Correlation between price and qty: 1.0000", out)
	})

	t.Run("search", func(t *testing.T) {
		out, err := tk.SearchInTable(ctx, table, "region", "OUT")
		require.NoError(t, err)
		assert.Contains(t, out, "south")
		assert.NotContains(t, out, "north")
	})

	t.Run("latest entry", func(t *testing.T) {
		out, err := tk.LatestEntry(ctx, table, "")
		require.NoError(t, err)
		assert.Contains(t, out, "south")
	})

	t.Run("histogram", func(t *testing.T) {
		out, err := tk.PlotHistogram(ctx, table, "price", 3)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Histogram saved as "))
	})

	t.Run("non-numeric column", func(t *testing.T) {
		_, err := tk.NumericStats(ctx, table, "region")
		require.Error(t, err)
		assert.Equal(t, domain.KindTypeMismatch, domain.KindOf(err))
	})

	t.Run("missing table", func(t *testing.T) {
		_, err := tk.CountRows(ctx, table+"_missing")
		require.Error(t, err)
		assert.Equal(t, domain.KindTableNotFound, domain.KindOf(err))
	})
}
