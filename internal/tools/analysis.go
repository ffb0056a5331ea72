package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/format"
)

// DefaultTopK is the number of values TopValues returns when k is not given.
const DefaultTopK = 5

// TopValues lists the k most frequent non-NULL values of a column with
// their counts, most frequent first. Equal counts are ordered by value.
func (t *Toolkit) TopValues(ctx context.Context, table, column string, k int) (string, error) {
	if k < 1 {
		return "", invalidArgument("Error: k must be a positive integer, got %d.", k)
	}
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

		col := quoteColumn(cols[0])
		query := fmt.Sprintf(`
			SELECT %[1]s::text AS value, COUNT(*) AS freq
			FROM %[2]s
			WHERE %[1]s IS NOT NULL
			GROUP BY %[1]s
			ORDER BY freq DESC, value
			LIMIT $1`, col, quoteTable(info))

		rs, err := conn.Query(ctx, query, k)
		if err != nil {
			return "", sc.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("No data or distinct values found in %s.%s", table, column), nil
		}

		lines := make([]string, len(rs.Rows))
		for i, row := range rs.Rows {
			count, _ := toInt64(row[1])
			lines[i] = fmt.Sprintf("%s: %d", format.Value(row[0], ""), count)
		}
		return strings.Join(lines, "\n"), nil
	})
}

// NumericStats reports mean, median, sample standard deviation, minimum
// and maximum over the non-NULL values of a numeric column.
func (t *Toolkit) NumericStats(ctx context.Context, table, column string) (string, error) {
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
		if !isNumeric(cols[0]) {
			return "", notNumeric(table, column)
		}

		col := quoteColumn(cols[0])
		query := fmt.Sprintf(`
			SELECT
				AVG(%[1]s)::float8,
				PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %[1]s)::float8,
				STDDEV(%[1]s)::float8,
				MIN(%[1]s)::float8,
				MAX(%[1]s)::float8
			FROM %[2]s
			WHERE %[1]s IS NOT NULL`, col, quoteTable(info))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}

		noData := fmt.Sprintf("No numeric data found in %s.%s to compute statistics.", table, column)
		if rs.Empty() || len(rs.Rows[0]) < 5 {
			return noData, nil
		}
		row := rs.Rows[0]

		mean, ok := toFloat(row[0])
		if !ok {
			return noData, nil
		}
		median, _ := toFloat(row[1])
		minimum, _ := toFloat(row[3])
		maximum, _ := toFloat(row[4])

		// A single value has no sample deviation.
		stddev := "N/A"
		if sd, ok := toFloat(row[2]); ok {
			stddev = formatFixed(sd, 2)
		}

		return fmt.Sprintf("Mean: %s\nMedian: %s\nStd Dev: %s\nMin: %s\nMax: %s",
			formatFixed(mean, 2),
			formatFixed(median, 2),
			stddev,
			formatFixed(minimum, 2),
			formatFixed(maximum, 2),
		), nil
	})
}

// TimeSeries averages a numeric column per calendar month of a date column,
// in chronological order.
func (t *Toolkit) TimeSeries(ctx context.Context, table, dateColumn, valueColumn string) (string, error) {
	sc := scope{
		table:          table,
		columns:        []string{dateColumn, valueColumn},
		dateColumn:     dateColumn,
		numericColumns: []string{valueColumn},
	}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}
		cols, err := resolveColumns(info, table, dateColumn, valueColumn)
		if err != nil {
			return "", err
		}
		if !isDateTime(cols[0]) {
			return "", notDateTime(table, dateColumn)
		}
		if !isNumeric(cols[1]) {
			return "", notNumeric(table, valueColumn)
		}

		query := fmt.Sprintf(`
			SELECT DATE_TRUNC('month', %[1]s)::date AS month_start,
			       AVG(%[2]s)::float8 AS average
			FROM %[3]s
			WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL
			GROUP BY 1
			ORDER BY 1`, quoteColumn(cols[0]), quoteColumn(cols[1]), quoteTable(info))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}
		if rs.Empty() {
			return fmt.Sprintf("No time series data found in %s for columns %s and %s.", table, dateColumn, valueColumn), nil
		}

		lines := make([]string, 0, len(rs.Rows))
		for _, row := range rs.Rows {
			avg, _ := toFloat(row[1])
			lines = append(lines, fmt.Sprintf("%s : %s", format.Value(row[0], "date"), formatFixed(avg, 2)))
		}
		return strings.Join(lines, "\n"), nil
	})
}

// Correlation computes the Pearson coefficient of two numeric columns over
// rows where both are non-NULL.
func (t *Toolkit) Correlation(ctx context.Context, table, column1, column2 string) (string, error) {
	sc := scope{table: table, columns: []string{column1, column2}}

	return t.withConn(ctx, func(ctx context.Context, conn database.Conn) (string, error) {
		info, err := lookupTable(ctx, conn, table)
		if err != nil {
			return "", sc.render(err)
		}
		cols, err := resolveColumns(info, table, column1, column2)
		if err != nil {
			return "", err
		}
		if !isNumeric(cols[0]) || !isNumeric(cols[1]) {
			return "", notNumeric(table, column1, column2)
		}

		query := fmt.Sprintf(`
			SELECT CORR(%[1]s, %[2]s)
			FROM %[3]s
			WHERE %[1]s IS NOT NULL AND %[2]s IS NOT NULL`,
			quoteColumn(cols[0]), quoteColumn(cols[1]), quoteTable(info))

		rs, err := conn.Query(ctx, query)
		if err != nil {
			return "", sc.render(err)
		}

		corr, ok := toFloat(rs.Scalar())
		if !ok {
			return fmt.Sprintf("Correlation could not be computed for %s and %s in %s. Check if there is enough non-null data.", column1, column2, table), nil
		}
		return fmt.Sprintf("Correlation between %s and %s: %s", column1, column2, formatFixed(corr, 4)), nil
	})
}
