package tools

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
)

const publicSchema = "public"

// lookupQuery resolves a table name the way an unquoted identifier would
// be folded, while still accepting an exact mixed-case match.
const lookupQuery = `
	SELECT t.table_name, c.column_name, c.data_type, c.is_nullable, c.ordinal_position
	FROM information_schema.tables t
	LEFT JOIN information_schema.columns c
	  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
	WHERE t.table_schema = 'public' AND t.table_name IN ($1, lower($1))
	ORDER BY t.table_name, c.ordinal_position
`

var numericTypes = map[string]bool{
	"smallint":         true,
	"integer":          true,
	"bigint":           true,
	"numeric":          true,
	"decimal":          true,
	"real":             true,
	"double precision": true,
}

// lookupTable returns the catalog entry for name or a table-not-found error.
func lookupTable(ctx context.Context, conn database.Conn, name string) (*domain.TableInfo, error) {
	if strings.TrimSpace(name) == "" {
		return nil, tableNotFound(name)
	}

	rs, err := conn.Query(ctx, lookupQuery, name)
	if err != nil {
		return nil, err
	}

	tables := map[string]*domain.TableInfo{}
	var order []string
	for _, row := range rs.Rows {
		if len(row) < 5 {
			continue
		}
		tableName := str(row[0])
		info, ok := tables[tableName]
		if !ok {
			info = &domain.TableInfo{Name: tableName}
			tables[tableName] = info
			order = append(order, tableName)
		}
		if row[1] == nil {
			continue
		}
		pos, _ := toInt64(row[4])
		info.Columns = append(info.Columns, domain.ColumnInfo{
			Name:     str(row[1]),
			DataType: str(row[2]),
			Nullable: str(row[3]) == "YES",
			Position: int(pos),
		})
	}

	if info, ok := tables[name]; ok {
		return info, nil
	}
	if len(order) > 0 {
		return tables[order[0]], nil
	}
	return nil, tableNotFound(name)
}

// resolveColumns returns the catalog entries for names in order, or a
// column-not-found error naming every requested column.
func resolveColumns(table *domain.TableInfo, display string, names ...string) ([]domain.ColumnInfo, error) {
	cols := make([]domain.ColumnInfo, len(names))
	for i, name := range names {
		col, ok := table.Column(name)
		if !ok {
			return nil, columnNotFound(display, names...)
		}
		cols[i] = col
	}
	return cols, nil
}

func isNumeric(col domain.ColumnInfo) bool {
	return numericTypes[col.DataType]
}

func isDateTime(col domain.ColumnInfo) bool {
	return col.DataType == "date" || strings.HasPrefix(col.DataType, "timestamp")
}

func isTimestamp(col domain.ColumnInfo) bool {
	return strings.Contains(col.DataType, "timestamp")
}

func quoteTable(table *domain.TableInfo) string {
	return pgx.Identifier{publicSchema, table.Name}.Sanitize()
}

func quoteColumn(col domain.ColumnInfo) string {
	return pgx.Identifier{col.Name}.Sanitize()
}
