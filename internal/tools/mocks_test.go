package tools_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/db-assistant/internal/database"
	"github.com/Rrens/db-assistant/internal/domain"
	"github.com/Rrens/db-assistant/internal/security"
	"github.com/Rrens/db-assistant/internal/tools"
)

// MockConn mocks database.Conn
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Query(ctx context.Context, sql string, args ...any) (*domain.ResultSet, error) {
	ret := m.Called(ctx, sql, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*domain.ResultSet), ret.Error(1)
}

func (m *MockConn) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockConnector mocks database.Connector
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context) (database.Conn, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(database.Conn), args.Error(1)
}

// catalogSQL identifies the identifier lookup statement.
const catalogSQL = "LEFT JOIN information_schema.columns"

func sqlContaining(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}

type col struct {
	name     string
	typ      string
	nullable bool
}

// catalogRows builds the lookup result for one table.
func catalogRows(table string, cols ...col) *domain.ResultSet {
	rs := &domain.ResultSet{
		Columns: []domain.Column{
			{Name: "table_name", Type: "name"},
			{Name: "column_name", Type: "name"},
			{Name: "data_type", Type: "varchar"},
			{Name: "is_nullable", Type: "varchar"},
			{Name: "ordinal_position", Type: "int4"},
		},
	}
	if len(cols) == 0 {
		rs.Rows = [][]any{{table, nil, nil, nil, nil}}
		return rs
	}
	for i, c := range cols {
		nullable := "NO"
		if c.nullable {
			nullable = "YES"
		}
		rs.Rows = append(rs.Rows, []any{table, c.name, c.typ, nullable, int32(i + 1)})
	}
	return rs
}

func resultSet(names []string, rows ...[]any) *domain.ResultSet {
	rs := &domain.ResultSet{Rows: rows}
	for _, n := range names {
		rs.Columns = append(rs.Columns, domain.Column{Name: n})
	}
	return rs
}

func typedResultSet(columns []domain.Column, rows ...[]any) *domain.ResultSet {
	return &domain.ResultSet{Columns: columns, Rows: rows}
}

var emptyCatalog = &domain.ResultSet{}

// newToolkit returns a Toolkit whose single connection must be opened and
// closed exactly once by the test.
func newToolkit(t *testing.T) (*tools.Toolkit, *MockConn) {
	t.Helper()
	return newToolkitWithOptions(t, tools.Options{PlotDir: t.TempDir()})
}

func newToolkitWithOptions(t *testing.T, opts tools.Options) (*tools.Toolkit, *MockConn) {
	t.Helper()

	conn := new(MockConn)
	conn.On("Close", mock.Anything).Return(nil).Once()

	connector := new(MockConnector)
	connector.On("Connect", mock.Anything).Return(conn, nil).Once()

	t.Cleanup(func() {
		connector.AssertExpectations(t)
		conn.AssertExpectations(t)
	})

	return tools.New(connector, security.NewSQLValidator(false), opts), conn
}

// newOfflineToolkit returns a Toolkit that must never open a connection.
func newOfflineToolkit(t *testing.T) *tools.Toolkit {
	t.Helper()

	connector := new(MockConnector)
	t.Cleanup(func() {
		connector.AssertNotCalled(t, "Connect", mock.Anything)
	})

	return tools.New(connector, security.NewSQLValidator(false), tools.Options{PlotDir: t.TempDir()})
}

func expectCatalog(conn *MockConn, table string, rs *domain.ResultSet) {
	conn.On("Query", mock.Anything, sqlContaining(catalogSQL), []any{table}).Return(rs, nil).Once()
}
