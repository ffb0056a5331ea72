package tools

import (
	"errors"
	"fmt"

	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/security"
)

func tableNotFound(table string) *domain.ToolError {
	return domain.NewToolError(domain.KindTableNotFound,
		fmt.Sprintf("Error: Table '%s' does not exist.", table))
}

func columnNotFound(table string, columns ...string) *domain.ToolError {
	if len(columns) == 2 {
		return domain.NewToolError(domain.KindColumnNotFound,
			fmt.Sprintf("Error: One of the columns ('%s', '%s') does not exist in table '%s'.", columns[0], columns[1], table))
	}
	return domain.NewToolError(domain.KindColumnNotFound,
		fmt.Sprintf("Error: Column '%s' does not exist in table '%s'.", first(columns), table))
}

func notNumeric(table string, columns ...string) *domain.ToolError {
	if len(columns) == 2 {
		return domain.NewToolError(domain.KindTypeMismatch,
			fmt.Sprintf("Error: One or both columns ('%s', '%s') in table '%s' are not numeric types.", columns[0], columns[1], table))
	}
	return domain.NewToolError(domain.KindTypeMismatch,
		fmt.Sprintf("Error: Column '%s' in table '%s' is not a numeric type.", first(columns), table))
}

func notDateTime(table, column string) *domain.ToolError {
	return domain.NewToolError(domain.KindInvalidDateTime,
		fmt.Sprintf("Error: Column '%s' in table '%s' is not a valid date/time type.", column, table))
}

func invalidArgument(format string, args ...any) *domain.ToolError {
	return domain.NewToolError(domain.KindInvalidArgument, fmt.Sprintf(format, args...))
}

// databaseError wraps any other failure in the catch-all template, keeping
// the classified kind when there is one.
func databaseError(err error) *domain.ToolError {
	return &domain.ToolError{
		Kind:    domain.KindOf(err),
		Message: fmt.Sprintf("Database error: %s", err.Error()),
		Err:     err,
	}
}

func policyDenied(err error) *domain.ToolError {
	var vErr *security.ValidationError
	if errors.As(err, &vErr) {
		return &domain.ToolError{Kind: domain.KindPolicyDenied, Message: vErr.Message, Err: err}
	}
	return &domain.ToolError{Kind: domain.KindPolicyDenied, Message: err.Error(), Err: err}
}

// scope names the identifiers a call touches so backend failures can be
// rendered with the matching template.
type scope struct {
	table   string
	columns []string
	// dateColumn, when set, receives invalid date/time failures.
	dateColumn string
	// numericColumns receive type mismatch failures; defaults to columns.
	numericColumns []string
}

func (s scope) render(err error) *domain.ToolError {
	var te *domain.ToolError
	if errors.As(err, &te) {
		return te
	}

	var out *domain.ToolError
	switch domain.KindOf(err) {
	case domain.KindTableNotFound:
		if s.table != "" {
			out = tableNotFound(s.table)
		}
	case domain.KindColumnNotFound:
		if len(s.columns) > 0 {
			out = columnNotFound(s.table, s.columns...)
		}
	case domain.KindTypeMismatch:
		numeric := s.numericColumns
		if numeric == nil {
			numeric = s.columns
		}
		if len(numeric) > 0 {
			out = notNumeric(s.table, numeric...)
		}
	case domain.KindInvalidDateTime:
		if s.dateColumn != "" {
			out = notDateTime(s.table, s.dateColumn)
		}
	}

	if out == nil {
		return databaseError(err)
	}
	out.Err = err
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
