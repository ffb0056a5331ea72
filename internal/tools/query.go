package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/format"
)

const searchLimit = 10

// latestCandidates are the column names, lower-cased, that may order a
// table by recency when they hold timestamps.
var latestCandidates = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"timestamp":  true,
	"date":       true,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// RunQuery executes a caller-supplied SELECT statement.
func (t *Toolkit) RunQuery(ctx context.Context, statement string) (string, error) {
	if err := t.validator.ValidateReadOnly(statement); err != nil {
		return "", policyDenied(err)
	}
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		return t.execute(ctx, conn, statement)
	})
}

// RunCustomSQL executes a caller-supplied statement that is not limited to
// SELECT (EXPLAIN, SHOW, WITH ...) but contains no destructive keyword.
func (t *Toolkit) RunCustomSQL(ctx context.Context, statement string) (string, error) {
	if err := t.validator.ValidateNonDestructive(statement); err != nil {
		return "", policyDenied(err)
	}
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		return t.execute(ctx, conn, statement)
	})
}

func (t *Toolkit) execute(ctx context.Context, conn database.Conn, statement string) (string, error) {
	rs, err := conn.Query(ctx, statement)
	if err != nil {
		return "", databaseError(err)
	}
	if len(rs.Columns) == 0 {
		return "Query executed successfully. No results returned or no columns.", nil
	}
	if rs.Empty() {
		return "Query executed successfully. No results returned.", nil
	}
	return format.Table(rs, t.opts.MaxRows), nil
}

// SearchInTable returns up to ten rows whose column, rendered as text,
// contains value case-insensitively.
func (t *Toolkit) SearchInTable(ctx context.Context, table, column, value string) (string, error) {
	sc := scope{table: table, columns: []string{column}}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}
		cols, err := resolveColumns(info, table, column)
		if err != nil {
			return "", err
		}

		query := fmt.Sprintf("SELECT * FROM %s WHERE %s::text ILIKE $1 LIMIT %d",
			quoteTable(info), quoteColumn(cols[0]), searchLimit)

		rs, err := conn.Query(ctx, query, "%"+likeEscaper.Replace(value)+"%")
		if err != nil {
			return "", sc.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("No results found for '%s' in %s.%s", value, table, column), nil
		}
		return format.Table(rs, t.opts.MaxRows), nil
	})
}

// CountRows counts every row of a table.
func (t *Toolkit) CountRows(ctx context.Context, table string) (string, error) {
	sc := scope{table: table}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}

		rs, err := conn.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTable(info)))
		if err != nil {
			return "", sc.render(err)
		}
		count, _ := toInt64(rs.Scalar())
		return fmt.Sprintf("Table '%s' contains %d rows.", table, count), nil
	})
}

// LatestEntry returns the most recent row of a table. The ordering column
// is orderBy when given; otherwise the first timestamp column named
// created_at, updated_at, timestamp or date, falling back to id.
func (t *Toolkit) LatestEntry(ctx context.Context, table, orderBy string) (string, error) {
	sc := scope{table: table}
	if orderBy != "" {
		sc.columns = []string{orderBy}
	}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}

		var order domain.ColumnInfo
		if orderBy != "" {
			cols, err := resolveColumns(info, table, orderBy)
			if err != nil {
				return "", err
			}
			order = cols[0]
		} else {
			var ok bool
			order, ok = inferLatestColumn(info)
			if !ok {
				return fmt.Sprintf("Could not determine a suitable 'latest' column (like 'created_at', 'updated_at', 'id') for table: %s. Please specify a column if you want to order.", table), nil
			}
		}

		query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s DESC NULLS LAST LIMIT 1",
			quoteTable(info), quoteColumn(order))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("Table '%s' is empty.", table), nil
		}
		return format.Table(rs, 0), nil
	})
}

func inferLatestColumn(info *domain.TableInfo) (domain.ColumnInfo, bool) {
	for _, col := range info.Columns {
		if latestCandidates[strings.ToLower(col.Name)] && isTimestamp(col) {
			return col, true
		}
	}
	for _, col := range info.Columns {
		if strings.ToLower(col.Name) == "id" {
			return col, true
		}
	}
	return domain.ColumnInfo{}, false
}
