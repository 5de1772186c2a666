package mysql

import (
	"context"
	"errors"
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

func TestBuildMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  core.ConnConfig
		want []string
	}{
		{
			name: "full config",
			cfg: core.ConnConfig{
				Host: "db.internal", Port: 3307,
				User: "app", Password: "secret", Database: "shop",
			},
			want: []string{"app:secret@tcp(db.internal:3307)/shop", "parseTime=true"},
		},
		{
			name: "defaults applied",
			cfg:  core.ConnConfig{User: "root", Database: "test"},
			want: []string{"tcp(localhost:3306)/test"},
		},
		{
			name: "extra options forwarded",
			cfg: core.ConnConfig{
				Host: "h", User: "u", Database: "d",
				Options: map[string]string{"tls": "skip-verify"},
			},
			want: []string{"tls=skip-verify"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := buildMySQLDSN(tt.cfg)
			require.NoError(t, err)
			for _, fragment := range tt.want {
				assert.Contains(t, dsn, fragment)
			}
		})
	}
}

func TestGetSchemas_FiltersSystemDatabases(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("SHOW DATABASES").
		WillReturnRows(sqlmock.NewRows([]string{"Database"}).
			AddRow("information_schema").
			AddRow("mysql").
			AddRow("performance_schema").
			AddRow("sys").
			AddRow("shop").
			AddRow("analytics"))

	schemas, err := a.GetSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.SchemaInfo{{Name: "shop"}, {Name: "analytics"}}, schemas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTablesBySchema(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("SHOW FULL TABLES FROM `shop`").
		WillReturnRows(sqlmock.NewRows([]string{"Tables_in_shop", "Table_type"}).
			AddRow("orders", "BASE TABLE").
			AddRow("daily_sales", "VIEW"))

	tables, err := a.GetTablesBySchema(context.Background(), "shop")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, core.TableInfo{Schema: "shop", Name: "orders", Type: "BASE TABLE"}, tables[0])
	assert.Equal(t, "VIEW", tables[1].Type)
}

func TestGetFieldsAndRelationships(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "column_type", "is_nullable",
			"column_key", "column_comment", "ordinal_position",
		}).
			AddRow("orders", "id", "bigint", "NO", "PRI", "", int64(1)).
			AddRow("orders", "user_id", "bigint", "YES", "MUL", "fk to users", int64(2)))

	mock.ExpectQuery("FROM information_schema.key_column_usage").
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "referenced_table_name",
			"referenced_column_name", "constraint_name",
		}).AddRow("orders", "user_id", "users", "id", "fk_orders_user"))

	details, err := a.GetFieldsAndRelationships(context.Background(), "shop", []string{"orders"})
	require.NoError(t, err)

	require.Len(t, details.Columns, 2)
	assert.True(t, details.Columns[0].PrimaryKey)
	assert.False(t, details.Columns[0].Nullable)
	assert.True(t, details.Columns[1].Nullable)
	assert.Equal(t, 2, details.Columns[1].Position)

	require.Len(t, details.Relationships, 1)
	assert.Equal(t, core.Relationship{
		Table: "orders", Column: "user_id",
		ReferencedTable: "users", ReferencedColumn: "id",
		ConstraintName: "fk_orders_user",
	}, details.Relationships[0])
}

func TestGetFieldsAndRelationships_FKFailureDegrades(t *testing.T) {
	a, mock := newMockAdapter(t)

	mock.ExpectQuery("FROM information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{
			"table_name", "column_name", "column_type", "is_nullable",
			"column_key", "column_comment", "ordinal_position",
		}).AddRow("orders", "id", "bigint", "NO", "PRI", "", int64(1)))

	mock.ExpectQuery("FROM information_schema.key_column_usage").
		WillReturnError(errors.New("access denied to key_column_usage"))

	details, err := a.GetFieldsAndRelationships(context.Background(), "shop", []string{"orders"})
	require.NoError(t, err)
	assert.Len(t, details.Columns, 1)
	assert.Empty(t, details.Relationships)
}

func TestGetFieldsAndRelationships_NoTables(t *testing.T) {
	a, _ := newMockAdapter(t)
	details, err := a.GetFieldsAndRelationships(context.Background(), "shop", nil)
	require.NoError(t, err)
	assert.Empty(t, details.Columns)
	assert.Empty(t, details.Relationships)
}
