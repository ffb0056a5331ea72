package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/format"
)

const listTablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public'
	ORDER BY table_name
`

const primaryKeysQuery = `
	SELECT kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON kcu.constraint_schema = tc.constraint_schema
	 AND kcu.constraint_name = tc.constraint_name
	 AND kcu.table_name = tc.table_name
	WHERE tc.constraint_type = 'PRIMARY KEY'
	  AND tc.table_schema = 'public'
	  AND tc.table_name = $1
	ORDER BY kcu.ordinal_position
`

const foreignKeysQuery = `
	SELECT kcu.constraint_name, kcu.column_name, ref.table_name, ref.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON kcu.constraint_schema = tc.constraint_schema
	 AND kcu.constraint_name = tc.constraint_name
	JOIN information_schema.referential_constraints rc
	  ON rc.constraint_schema = tc.constraint_schema
	 AND rc.constraint_name = tc.constraint_name
	JOIN information_schema.key_column_usage ref
	  ON ref.constraint_schema = rc.unique_constraint_schema
	 AND ref.constraint_name = rc.unique_constraint_name
	 AND ref.ordinal_position = kcu.position_in_unique_constraint
	WHERE tc.constraint_type = 'FOREIGN KEY'
	  AND tc.table_schema = 'public'
	  AND tc.table_name = $1
	ORDER BY kcu.constraint_name, kcu.ordinal_position
`

const tableSizeQuery = `SELECT pg_size_pretty(pg_total_relation_size($1::regclass))`

const schemaQuery = `
	SELECT
		c.table_name,
		c.column_name,
		c.data_type,
		c.is_nullable,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON kcu.constraint_schema = tc.constraint_schema
			 AND kcu.constraint_name = tc.constraint_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = c.table_schema
			  AND kcu.table_name = c.table_name
			  AND kcu.column_name = c.column_name
		) AS primary_key
	FROM information_schema.columns c
	WHERE c.table_schema = 'public'
	ORDER BY c.table_name, c.ordinal_position
`

// ListTables lists public-schema tables alphabetically, one per line.
func (t *Toolkit) ListTables(ctx context.Context) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		rs, err := conn.Query(ctx, listTablesQuery)
		if err != nil {
			return "", databaseError(err)
		}
		if rs.Empty() {
			return "No tables found in public schema.", nil
		}

		names := make([]string, len(rs.Rows))
		for i, row := range rs.Rows {
			names[i] = str(row[0])
		}
		return strings.Join(names, "\n"), nil
	})
}

// DescribeTable lists a table's columns with type and nullability.
func (t *Toolkit) DescribeTable(ctx context.Context, table string) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", scope{table: table}.render(err)
		}

		lines := []string{
			"Column | Type | Nullable",
			"-------|------|---------",
		}
		for _, col := range info.Columns {
			nullable := "NO"
			if col.Nullable {
				nullable = "YES"
			}
			lines = append(lines, fmt.Sprintf("%s | %s | %s", col.Name, col.DataType, nullable))
		}
		return strings.Join(lines, "\n"), nil
	})
}

// SchemaDocument returns a table's columns as an indented JSON array.
func (t *Toolkit) SchemaDocument(ctx context.Context, table string) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", scope{table: table}.render(err)
		}

		cols := info.Columns
		if cols == nil {
			cols = []domain.ColumnInfo{}
		}
		doc, err := format.Document(cols)
		if err != nil {
			return "", databaseError(err)
		}
		return doc, nil
	})
}

// PrimaryKeys lists a table's primary key columns in key order.
func (t *Toolkit) PrimaryKeys(ctx context.Context, table string) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", scope{table: table}.render(err)
		}

		rs, err := conn.Query(ctx, primaryKeysQuery, info.Name)
		if err != nil {
			return "", scope{table: table}.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("No primary key found for table: %s", table), nil
		}

		keys := make([]string, len(rs.Rows))
		for i, row := range rs.Rows {
			keys[i] = str(row[0])
		}
		if len(keys) == 1 {
			return fmt.Sprintf("The primary key for '%s' is: %s", table, keys[0]), nil
		}
		return fmt.Sprintf("The primary key for '%s' consists of columns: %s", table, strings.Join(keys, ", ")), nil
	})
}

// ForeignKeys lists a table's foreign key columns and what they reference.
func (t *Toolkit) ForeignKeys(ctx context.Context, table string) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", scope{table: table}.render(err)
		}

		rs, err := conn.Query(ctx, foreignKeysQuery, info.Name)
		if err != nil {
			return "", scope{table: table}.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("No foreign keys found in table: %s", table), nil
		}

		lines := []string{
			"Constraint | Column | References",
			"-----------|--------|----------",
		}
		for _, row := range rs.Rows {
			fk := domain.ForeignKey{
				Constraint:       str(row[0]),
				Column:           str(row[1]),
				ReferencedTable:  str(row[2]),
				ReferencedColumn: str(row[3]),
			}
			lines = append(lines, fmt.Sprintf("%s | %s | %s.%s", fk.Constraint, fk.Column, fk.ReferencedTable, fk.ReferencedColumn))
		}
		return strings.Join(lines, "\n"), nil
	})
}

// TableSize reports the total on-disk size of a table, indexes included.
func (t *Toolkit) TableSize(ctx context.Context, table string) (string, error) {
	missing := domain.NewToolError(domain.KindTableNotFound,
		fmt.Sprintf("Error: Table '%s' does not exist or insufficient permissions.", table))

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			if domain.KindOf(err) == domain.KindTableNotFound {
				return "", missing
			}
			return "", databaseError(err)
		}

		rs, err := conn.Query(ctx, tableSizeQuery, quoteTable(info))
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindTableNotFound, domain.KindPermissionDenied:
				missing.Err = err
				return "", missing
			}
			return "", databaseError(err)
		}
		return fmt.Sprintf("Table '%s' size: %s", table, str(rs.Scalar())), nil
	})
}

// SchemaContext renders the public schema as CREATE TABLE statements, the
// form handed to a natural-language-to-SQL translator.
func (t *Toolkit) SchemaContext(ctx context.Context) (string, error) {
	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		rs, err := conn.Query(ctx, schemaQuery)
		if err != nil {
			return "", databaseError(err)
		}
		if rs.Empty() {
			return "No tables found in public schema.", nil
		}

		var ddl strings.Builder
		current := ""
		for _, row := range rs.Rows {
			tableName, columnName, dataType := str(row[0]), str(row[1]), str(row[2])

			if tableName != current {
				if current != "" {
					ddl.WriteString("\n);\n\n")
				}
				fmt.Fprintf(&ddl, "CREATE TABLE %s (\n", tableName)
				current = tableName
			} else {
				ddl.WriteString(",\n")
			}

			fmt.Fprintf(&ddl, "  %s %s", columnName, dataType)
			if str(row[3]) == "NO" {
				ddl.WriteString(" NOT NULL")
			}
			if pk, _ := row[4].(bool); pk {
				ddl.WriteString(" PRIMARY KEY")
			}
		}
		ddl.WriteString("\n);")

		return ddl.String(), nil
	})
}
