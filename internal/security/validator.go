package security

import (
	"regexp"
	"strings"
)

// Denial messages returned to callers verbatim.
const (
	ReadOnlyDenied    = "Only SELECT queries are allowed for safety."
	DestructiveDenied = "Destructive or schema-modifying queries are not allowed for safety."
)

// destructiveKeywords are matched as plain substrings of the lower-cased
// statement. This over-rejects (a column named created_at trips "create")
// and ignores string literals and comments.
var destructiveKeywords = []string{
	"insert",
	"update",
	"delete",
	"drop",
	"alter",
	"create",
	"truncate",
}

// strictPatterns are applied on top of both gates in strict mode.
var strictPatterns = []string{
	`(?i)\bCOPY\b`,
	`(?i)pg_read_file`,
	`(?i)pg_read_binary_file`,
	`(?i)pg_write_file`,
	`(?i)pg_ls_dir`,
	`(?i)lo_import`,
	`(?i)lo_export`,
	`(?i)dblink`,
	`(?i)\bGRANT\b`,
	`(?i)\bREVOKE\b`,
	`(?i);\s*--`,
	`(?i);\s*/\*`,
}

// SQLValidator validates SQL statements before execution
type SQLValidator struct {
	strict          bool
	blockedPatterns []*regexp.Regexp
}

// NewSQLValidator creates a new SQL validator. Strict mode adds the
// PostgreSQL file and network function block list and rejects multiple
// statements.
func NewSQLValidator(strict bool) *SQLValidator {
	v := &SQLValidator{strict: strict}
	if strict {
		v.blockedPatterns = make([]*regexp.Regexp, 0, len(strictPatterns))
		for _, p := range strictPatterns {
			v.blockedPatterns = append(v.blockedPatterns, regexp.MustCompile(p))
		}
	}
	return v
}

// ValidationError represents a SQL validation error
type ValidationError struct {
	Message string
	Pattern string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateReadOnly accepts only statements whose trimmed, lower-cased text
// begins with "select".
func (v *SQLValidator) ValidateReadOnly(sql string) error {
	normalized := strings.ToLower(strings.TrimSpace(sql))
	if !strings.HasPrefix(normalized, "select") {
		return &ValidationError{Message: ReadOnlyDenied}
	}
	return v.checkStrict(sql, ReadOnlyDenied)
}

// ValidateNonDestructive rejects statements containing any destructive
// keyword anywhere in their text.
func (v *SQLValidator) ValidateNonDestructive(sql string) error {
	normalized := strings.ToLower(sql)
	for _, kw := range destructiveKeywords {
		if strings.Contains(normalized, kw) {
			return &ValidationError{Message: DestructiveDenied, Pattern: kw}
		}
	}
	return v.checkStrict(sql, DestructiveDenied)
}

func (v *SQLValidator) checkStrict(sql, denial string) error {
	if !v.strict {
		return nil
	}

	trimmed := strings.TrimSuffix(strings.TrimSpace(sql), ";")
	if strings.Contains(trimmed, ";") {
		return &ValidationError{Message: denial, Pattern: ";"}
	}

	for _, pattern := range v.blockedPatterns {
		if pattern.MatchString(sql) {
			return &ValidationError{Message: denial, Pattern: pattern.String()}
		}
	}
	return nil
}
