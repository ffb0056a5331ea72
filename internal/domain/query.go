package domain

// Column describes one result column
type Column struct {
	Name string `json:"name"`
	// Type is the backend type name (e.g. int4, timestamptz); empty when unknown.
	Type string `json:"type,omitempty"`
}

// ResultSet is the ordered output of one executed statement
type ResultSet struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnNames returns the column names in result order.
func (rs *ResultSet) ColumnNames() []string {
	names := make([]string, len(rs.Columns))
	for i, c := range rs.Columns {
		names[i] = c.Name
	}
	return names
}

// Empty reports whether the statement produced no rows.
func (rs *ResultSet) Empty() bool {
	return rs == nil || len(rs.Rows) == 0
}

// Scalar returns the first value of the first row, or nil.
func (rs *ResultSet) Scalar() any {
	if rs.Empty() || len(rs.Rows[0]) == 0 {
		return nil
	}
	return rs.Rows[0][0]
}

// ColumnInfo contains column metadata as declared in the catalog
type ColumnInfo struct {
	Name     string `json:"column"`
	DataType string `json:"type"`
	Nullable bool   `json:"nullable"`
	Position int    `json:"-"`
}

// TableInfo contains table metadata
type TableInfo struct {
	Name    string       `json:"name"`
	Columns []ColumnInfo `json:"columns"`
}

// Column returns the named column, matching exactly first and then case-insensitively.
func (t *TableInfo) Column(name string) (ColumnInfo, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range t.Columns {
		if equalFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnInfo{}, false
}

// ForeignKey is one referencing column of a foreign key constraint
type ForeignKey struct {
	Constraint       string `json:"constraint"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}
