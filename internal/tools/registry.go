package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/db-assistant/internal/domain"
)

// Group is the family a tool belongs to
type Group string

const (
	GroupSchema   Group = "schema"
	GroupQuery    Group = "query"
	GroupAnalysis Group = "analysis"
	GroupVisual   Group = "visual"
)

// ParamType is the wire type of a tool argument
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
)

// Param describes one tool argument
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`
	// Rules is a validator tag applied to the decoded value.
	Rules string `json:"rules,omitempty"`
}

// Spec describes a registered tool
type Spec struct {
	Name        string  `json:"name"`
	Group       Group   `json:"group"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	run func(ctx context.Context, t *Toolkit, args Args) (string, error)
}

// Args holds decoded tool arguments by name
type Args map[string]any

// String returns the named argument as text.
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns the named argument as an integer. JSON numbers must be whole.
func (a Args) Int(name string) (int, error) {
	switch v := a[name].(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case json.Number:
		i, err := v.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}

// Result is the outcome of one tool call
type Result struct {
	Tool   string
	Output string
	Err    *domain.ToolError
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Text is the string shown to the caller on either outcome.
func (r Result) Text() string {
	if r.Err != nil {
		return r.Err.Message
	}
	return r.Output
}

// Registry dispatches tool calls by name
type Registry struct {
	toolkit  *Toolkit
	specs    []Spec
	byName   map[string]int
	validate *validator.Validate
}

// NewRegistry registers every tool backed by tk
func NewRegistry(tk *Toolkit) *Registry {
	r := &Registry{
		toolkit:  tk,
		specs:    builtinSpecs(),
		byName:   make(map[string]int),
		validate: validator.New(),
	}
	for i, s := range r.specs {
		r.byName[s.Name] = i
	}
	return r
}

// Specs lists the registered tools, optionally limited to one group.
func (r *Registry) Specs(group Group) []Spec {
	out := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		if group == "" || s.Group == group {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the named tool.
func (r *Registry) Lookup(name string) (Spec, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Spec{}, false
	}
	return r.specs[i], true
}

// Call validates args and runs the named tool. It never panics; every
// failure comes back as Result.Err.
func (r *Registry) Call(ctx context.Context, name string, args Args) (res Result) {
	res.Tool = name
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			res.Output = ""
			res.Err = &domain.ToolError{
				Kind:    domain.KindInternal,
				Message: fmt.Sprintf("Database error: %v", p),
			}
			log.Error().Str("tool", name).Interface("panic", p).Msg("tool panicked")
		}
	}()

	spec, ok := r.Lookup(name)
	if !ok {
		res.Err = invalidArgument("Error: Unknown tool '%s'.", name)
		return res
	}

	normalized, terr := r.bind(spec, args)
	if terr != nil {
		res.Err = terr
		return res
	}

	out, err := spec.run(ctx, r.toolkit, normalized)
	if err != nil {
		var te *domain.ToolError
		if !errors.As(err, &te) {
			te = databaseError(err)
		}
		res.Err = te
	} else {
		res.Output = out
	}

	event := log.Info()
	if res.Err != nil {
		event = log.Warn().Str("kind", string(res.Err.Kind))
		if res.Err.Err != nil {
			event = event.AnErr("cause", res.Err.Err)
		}
	}
	event.
		Str("tool", name).
		Dur("elapsed", time.Since(start)).
		Msg("tool call completed")

	return res
}

// bind applies defaults, checks required arguments and validates values.
func (r *Registry) bind(spec Spec, args Args) (Args, *domain.ToolError) {
	out := make(Args, len(spec.Params))
	for _, p := range spec.Params {
		v, present := args[p.Name]
		if !present || v == nil || (p.Type == TypeString && args.String(p.Name) == "" && !p.Required) {
			if p.Required {
				return nil, invalidArgument("Error: Missing required argument '%s'.", p.Name)
			}
			if p.Default == nil {
				continue
			}
			v = p.Default
		}

		switch p.Type {
		case TypeInteger:
			n, err := Args{p.Name: v}.Int(p.Name)
			if err != nil {
				return nil, invalidArgument("Error: Argument '%s' must be an integer.", p.Name)
			}
			if p.Rules != "" {
				if err := r.validate.Var(n, p.Rules); err != nil {
					return nil, invalidArgument("Error: Invalid value for '%s': %d does not satisfy %s.", p.Name, n, p.Rules)
				}
			}
			out[p.Name] = n
		default:
			s := Args{p.Name: v}.String(p.Name)
			rules := p.Rules
			if p.Required {
				rules = joinRules("required", rules)
			}
			if rules != "" {
				if err := r.validate.Var(s, rules); err != nil {
					if strings.TrimSpace(s) == "" {
						return nil, invalidArgument("Error: Missing required argument '%s'.", p.Name)
					}
					return nil, invalidArgument("Error: Invalid value for '%s'.", p.Name)
				}
			}
			out[p.Name] = s
		}
	}
	return out, nil
}

func joinRules(a, b string) string {
	if b == "" {
		return a
	}
	return a + "," + b
}

var (
	tableParam = Param{Name: "table", Type: TypeString, Required: true, Description: "Table name in the public schema", Rules: "max=128"}

	columnParam = Param{Name: "column", Type: TypeString, Required: true, Description: "Column name", Rules: "max=128"}
)

func builtinSpecs() []Spec {
	return []Spec{
		// Schema
		{
			Name:        "list_tables",
			Group:       GroupSchema,
			Description: "List all tables in the public schema, alphabetically.",
			run: func(ctx context.Context, t *Toolkit, _ Args) (string, error) {
				return t.ListTables(ctx)
			},
		},
		{
			Name:        "describe_table",
			Group:       GroupSchema,
			Description: "Describe a table's columns with their data types and nullability.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.DescribeTable(ctx, a.String("table"))
			},
		},
		{
			Name:        "get_table_schema_json",
			Group:       GroupSchema,
			Description: "Return a table's columns as a JSON array of {column, type, nullable}.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.SchemaDocument(ctx, a.String("table"))
			},
		},
		{
			Name:        "get_primary_keys",
			Group:       GroupSchema,
			Description: "Return the primary key columns of a table in key order.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.PrimaryKeys(ctx, a.String("table"))
			},
		},
		{
			Name:        "get_foreign_keys",
			Group:       GroupSchema,
			Description: "List a table's foreign keys with the table and column each one references.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.ForeignKeys(ctx, a.String("table"))
			},
		},
		{
			Name:        "get_table_size",
			Group:       GroupSchema,
			Description: "Return the total size of a table, indexes included, in human-readable form.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.TableSize(ctx, a.String("table"))
			},
		},
		{
			Name:        "get_schema_context",
			Group:       GroupSchema,
			Description: "Return the public schema as CREATE TABLE statements for SQL generation.",
			run: func(ctx context.Context, t *Toolkit, _ Args) (string, error) {
				return t.SchemaContext(ctx)
			},
		},

		// Query
		{
			Name:        "count_rows",
			Group:       GroupQuery,
			Description: "Count the rows in a table.",
			Params:      []Param{tableParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.CountRows(ctx, a.String("table"))
			},
		},
		{
			Name:        "run_query",
			Group:       GroupQuery,
			Description: "Run a read-only SELECT statement and return the rows as a table.",
			Params: []Param{
				{Name: "query", Type: TypeString, Required: true, Description: "SQL statement starting with SELECT"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.RunQuery(ctx, a.String("query"))
			},
		},
		{
			Name:        "run_custom_sql",
			Group:       GroupQuery,
			Description: "Run a non-destructive SQL statement such as EXPLAIN, SHOW or WITH.",
			Params: []Param{
				{Name: "query", Type: TypeString, Required: true, Description: "SQL statement without data or schema modifying keywords"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.RunCustomSQL(ctx, a.String("query"))
			},
		},
		{
			Name:        "search_in_table",
			Group:       GroupQuery,
			Description: "Find up to 10 rows whose column contains a value, case-insensitively.",
			Params: []Param{
				tableParam,
				columnParam,
				{Name: "value", Type: TypeString, Required: true, Description: "Text to search for"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.SearchInTable(ctx, a.String("table"), a.String("column"), a.String("value"))
			},
		},
		{
			Name:        "get_latest_entries",
			Group:       GroupQuery,
			Description: "Return the most recent row of a table, ordered by a timestamp or id column.",
			Params: []Param{
				tableParam,
				{Name: "order_by", Type: TypeString, Description: "Column to order by; inferred when omitted", Rules: "max=128"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.LatestEntry(ctx, a.String("table"), a.String("order_by"))
			},
		},

		// Analysis
		{
			Name:        "top_k_column_values",
			Group:       GroupAnalysis,
			Description: "List the most frequent non-NULL values of a column with their counts.",
			Params: []Param{
				tableParam,
				columnParam,
				{Name: "k", Type: TypeInteger, Default: DefaultTopK, Description: "Number of values to return", Rules: "min=1,max=1000"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				k, _ := a.Int("k")
				return t.TopValues(ctx, a.String("table"), a.String("column"), k)
			},
		},
		{
			Name:        "numeric_column_stats",
			Group:       GroupAnalysis,
			Description: "Compute mean, median, standard deviation, min and max of a numeric column.",
			Params:      []Param{tableParam, columnParam},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.NumericStats(ctx, a.String("table"), a.String("column"))
			},
		},
		{
			Name:        "time_series_summary",
			Group:       GroupAnalysis,
			Description: "Average a numeric column per month of a date column.",
			Params: []Param{
				tableParam,
				{Name: "date_column", Type: TypeString, Required: true, Description: "Date or timestamp column", Rules: "max=128"},
				{Name: "value_column", Type: TypeString, Required: true, Description: "Numeric column to average", Rules: "max=128"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.TimeSeries(ctx, a.String("table"), a.String("date_column"), a.String("value_column"))
			},
		},
		{
			Name:        "compute_correlation",
			Group:       GroupAnalysis,
			Description: "Compute the Pearson correlation between two numeric columns.",
			Params: []Param{
				tableParam,
				{Name: "column1", Type: TypeString, Required: true, Description: "First numeric column", Rules: "max=128"},
				{Name: "column2", Type: TypeString, Required: true, Description: "Second numeric column", Rules: "max=128"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.Correlation(ctx, a.String("table"), a.String("column1"), a.String("column2"))
			},
		},

		// Visual
		{
			Name:        "plot_histogram",
			Group:       GroupVisual,
			Description: "Render a histogram of a numeric column to a PNG file.",
			Params: []Param{
				tableParam,
				columnParam,
				{Name: "bins", Type: TypeInteger, Default: DefaultBins, Description: "Number of bins", Rules: "min=1,max=1000"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				bins, _ := a.Int("bins")
				return t.PlotHistogram(ctx, a.String("table"), a.String("column"), bins)
			},
		},
		{
			Name:        "plot_time_series",
			Group:       GroupVisual,
			Description: "Render a numeric column over a date column as a line chart PNG.",
			Params: []Param{
				tableParam,
				{Name: "date_column", Type: TypeString, Required: true, Description: "Date or timestamp column", Rules: "max=128"},
				{Name: "value_column", Type: TypeString, Required: true, Description: "Numeric column to plot", Rules: "max=128"},
			},
			run: func(ctx context.Context, t *Toolkit, a Args) (string, error) {
				return t.PlotTimeSeries(ctx, a.String("table"), a.String("date_column"), a.String("value_column"))
			},
		},
	}
}
