// Package format renders result sets as the text returned to callers.
package format

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Rrens/db-assistant/internal/domain"
)

const (
	columnSeparator = " | "
	headerSeparator = "-|-"

	dateLayout        = "2006-01-02"
	timestampLayout   = "2006-01-02 15:04:05.999999"
	timestampTZLayout = "2006-01-02 15:04:05.999999-07:00"
)

// Table renders rs as pipe-separated text: a header line, a dash separator
// sized to each header, then one line per row. maxRows > 0 truncates.
func Table(rs *domain.ResultSet, maxRows int) string {
	names := rs.ColumnNames()

	dashes := make([]string, len(names))
	for i, name := range names {
		dashes[i] = strings.Repeat("-", utf8.RuneCountInString(name))
	}

	rows := rs.Rows
	truncated := maxRows > 0 && len(rows) > maxRows
	if truncated {
		rows = rows[:maxRows]
	}

	lines := make([]string, 0, len(rows)+3)
	lines = append(lines, strings.Join(names, columnSeparator))
	lines = append(lines, strings.Join(dashes, headerSeparator))
	for _, row := range rows {
		lines = append(lines, Row(rs.Columns, row))
	}
	if truncated {
		lines = append(lines, fmt.Sprintf("(showing first %d rows)", maxRows))
	}

	return strings.Join(lines, "\n")
}

// Row renders a single row with the column separator.
func Row(columns []domain.Column, row []any) string {
	cells := make([]string, len(row))
	for i, v := range row {
		typ := ""
		if i < len(columns) {
			typ = columns[i].Type
		}
		cells[i] = Value(v, typ)
	}
	return strings.Join(cells, columnSeparator)
}

// Document renders v as two-space indented JSON.
func Document(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}

// Value renders one decoded column value. typ is the backend type name and
// only matters for temporal values.
func Value(v any, typ string) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return formatTime(val, typ)
	case [16]byte:
		return uuid.UUID(val).String()
	case []byte:
		return `\x` + hex.EncodeToString(val)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	case driver.Valuer:
		inner, err := val.Value()
		if err != nil {
			return fmt.Sprint(val)
		}
		if _, again := inner.(driver.Valuer); again {
			return fmt.Sprint(inner)
		}
		return Value(inner, typ)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

func formatTime(t time.Time, typ string) string {
	switch typ {
	case "date":
		return t.Format(dateLayout)
	case "timestamptz":
		return t.Format(timestampTZLayout)
	default:
		return t.Format(timestampLayout)
	}
}
