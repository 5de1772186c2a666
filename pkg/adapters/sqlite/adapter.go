// Package sqlite provides the SQLite engine adapter.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{}
	a.Logger = logger
	a.IdentQuote = `"`
	return a
}

// Connect opens the SQLite database file. Use ":memory:" for an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		return fmt.Errorf("sqlite connection requires a database path")
	}

	a.Logger.Debug("connecting to sqlite", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetSchemas lists attached databases via PRAGMA database_list.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	rows, err := a.ExecuteQuery(ctx, "PRAGMA database_list")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	schemas := make([]core.SchemaInfo, 0, len(rows))
	for _, row := range rows {
		if name := adapter.AsString(row["name"]); name != "" {
			schemas = append(schemas, core.SchemaInfo{Name: name})
		}
	}
	return schemas, nil
}

// GetTablesBySchema lists tables and views from sqlite_master. SQLite has a
// single flat namespace per attached database; the schema argument selects
// the attached database ("main" by default).
func (a *Adapter) GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error) {
	if schema == "" {
		schema = "main"
	}
	query := fmt.Sprintf(`
		SELECT name, type FROM %s.sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%%'
		ORDER BY name`, a.Quote(schema))
	rows, err := a.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, core.TableInfo{
			Schema: schema,
			Name:   adapter.AsString(row["name"]),
			Type:   adapter.AsString(row["type"]),
		})
	}
	return tables, nil
}

// GetFieldsAndRelationships reads per-table PRAGMAs: table_info for columns
// and foreign_key_list for relationships. Foreign-key lookup failures
// degrade the result to columns only.
func (a *Adapter) GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error) {
	details := &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}

	for _, table := range tables {
		colRows, err := a.ExecuteQuery(ctx, fmt.Sprintf("PRAGMA table_info(%s)", a.Quote(table)))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for %s: %w", table, err)
		}
		for _, row := range colRows {
			details.Columns = append(details.Columns, core.ColumnInfo{
				Table:      table,
				Name:       adapter.AsString(row["name"]),
				Type:       adapter.AsString(row["type"]),
				Nullable:   adapter.AsInt(row["notnull"]) == 0,
				PrimaryKey: adapter.AsInt(row["pk"]) > 0,
				Position:   adapter.AsInt(row["cid"]) + 1,
			})
		}

		fkRows, err := a.ExecuteQuery(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", a.Quote(table)))
		if err != nil {
			a.Logger.Debug("relationship detection failed, returning columns only", "table", table, "error", err)
			continue
		}
		for _, row := range fkRows {
			details.Relationships = append(details.Relationships, core.Relationship{
				Table:            table,
				Column:           adapter.AsString(row["from"]),
				ReferencedTable:  adapter.AsString(row["table"]),
				ReferencedColumn: adapter.AsString(row["to"]),
			})
		}
	}
	return details, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
