package clickhouse

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/pkg/core"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	a := New(nil)
	a.DB = db
	return a, mock
}

func TestGetSchemas_FiltersSystemDatabases(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM system.databases").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).
			AddRow("analytics").
			AddRow("events"))

	schemas, err := a.GetSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.SchemaInfo{{Name: "analytics"}, {Name: "events"}}, schemas)
}

func TestGetTablesBySchema(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM system.tables").
		WithArgs("analytics").
		WillReturnRows(sqlmock.NewRows([]string{"name", "engine", "comment"}).
			AddRow("pageviews", "MergeTree", "").
			AddRow("daily_rollup", "SummingMergeTree", "per-day aggregates"))

	tables, err := a.GetTablesBySchema(context.Background(), "analytics")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "MergeTree", tables[0].Type)
	assert.Equal(t, "per-day aggregates", tables[1].Comment)
}

func TestGetFieldsAndRelationships(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM system.columns").
		WithArgs("analytics", "pageviews").
		WillReturnRows(sqlmock.NewRows([]string{
			"table", "name", "type", "comment", "is_in_primary_key", "position",
		}).
			AddRow("pageviews", "ts", "DateTime", "", int64(1), int64(1)).
			AddRow("pageviews", "url", "String", "", int64(0), int64(2)).
			AddRow("pageviews", "referrer", "Nullable(String)", "", int64(0), int64(3)))

	details, err := a.GetFieldsAndRelationships(context.Background(), "analytics", []string{"pageviews"})
	require.NoError(t, err)

	require.Len(t, details.Columns, 3)
	assert.True(t, details.Columns[0].PrimaryKey)
	assert.False(t, details.Columns[1].Nullable)
	assert.True(t, details.Columns[2].Nullable)

	// ClickHouse has no foreign keys; an empty relationship list is the
	// correct, non-degraded answer.
	assert.NotNil(t, details.Relationships)
	assert.Empty(t, details.Relationships)
}

func TestGetFieldsAndRelationships_NoTables(t *testing.T) {
	a, _ := newMockAdapter(t)
	details, err := a.GetFieldsAndRelationships(context.Background(), "analytics", nil)
	require.NoError(t, err)
	assert.Empty(t, details.Columns)
	assert.Empty(t, details.Relationships)
}
