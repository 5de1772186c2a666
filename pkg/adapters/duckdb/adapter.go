// Package duckdb provides the DuckDB engine adapter.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
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

// Connect opens the DuckDB database file. Use ":memory:" for an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("connecting to duckdb", "path", path)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetSchemas lists user schemas from information_schema.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	rows, err := a.ExecuteQuery(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog')
		ORDER BY schema_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	schemas := make([]core.SchemaInfo, 0, len(rows))
	for _, row := range rows {
		schemas = append(schemas, core.SchemaInfo{Name: adapter.AsString(row["schema_name"])})
	}
	return schemas, nil
}

// GetTablesBySchema lists tables and views in one schema.
func (a *Adapter) GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error) {
	rows, err := a.ExecuteQuery(ctx, `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, core.TableInfo{
			Schema: schema,
			Name:   adapter.AsString(row["table_name"]),
			Type:   adapter.AsString(row["table_type"]),
		})
	}
	return tables, nil
}

// fkConstraintRe extracts the local column, referenced table, and referenced
// column from a DuckDB FOREIGN KEY constraint_text.
var fkConstraintRe = regexp.MustCompile(`(?i)FOREIGN KEY\s*\(([^)]+)\)\s*REFERENCES\s+("?[\w]+"?)\s*\(([^)]+)\)`)

// GetFieldsAndRelationships reads information_schema.columns plus
// duckdb_constraints() for key metadata. Constraint parsing is best-effort;
// failures degrade the result to columns only.
func (a *Adapter) GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error) {
	if len(tables) == 0 {
		return &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tables)), ",")
	args := make([]any, 0, len(tables)+1)
	args = append(args, schema)
	for _, t := range tables {
		args = append(args, t)
	}

	colQuery := fmt.Sprintf(`
		SELECT table_name, column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name IN (%s)
		ORDER BY table_name, ordinal_position`, placeholders)

	rows, err := a.ExecuteQuery(ctx, colQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}

	details := &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}
	for _, row := range rows {
		details.Columns = append(details.Columns, core.ColumnInfo{
			Table:    adapter.AsString(row["table_name"]),
			Name:     adapter.AsString(row["column_name"]),
			Type:     adapter.AsString(row["data_type"]),
			Nullable: adapter.AsString(row["is_nullable"]) == "YES",
			Position: adapter.AsInt(row["ordinal_position"]),
		})
	}

	conQuery := fmt.Sprintf(`
		SELECT table_name, constraint_type, constraint_text
		FROM duckdb_constraints()
		WHERE schema_name = ? AND table_name IN (%s)`, placeholders)

	conRows, err := a.ExecuteQuery(ctx, conQuery, args...)
	if err != nil {
		a.Logger.Debug("relationship detection failed, returning columns only", "schema", schema, "error", err)
		return details, nil
	}
	for _, row := range conRows {
		table := adapter.AsString(row["table_name"])
		text := adapter.AsString(row["constraint_text"])
		switch adapter.AsString(row["constraint_type"]) {
		case "PRIMARY KEY":
			markPrimaryKeys(details.Columns, table, text)
		case "FOREIGN KEY":
			m := fkConstraintRe.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			details.Relationships = append(details.Relationships, core.Relationship{
				Table:            table,
				Column:           strings.Trim(strings.TrimSpace(m[1]), `"`),
				ReferencedTable:  strings.Trim(m[2], `"`),
				ReferencedColumn: strings.Trim(strings.TrimSpace(m[3]), `"`),
			})
		}
	}
	return details, nil
}

// markPrimaryKeys flags columns named inside a PRIMARY KEY(...) constraint.
func markPrimaryKeys(columns []core.ColumnInfo, table, constraintText string) {
	open := strings.Index(constraintText, "(")
	close := strings.LastIndex(constraintText, ")")
	if open < 0 || close <= open {
		return
	}
	for _, name := range strings.Split(constraintText[open+1:close], ",") {
		name = strings.Trim(strings.TrimSpace(name), `"`)
		for i := range columns {
			if columns[i].Table == table && columns[i].Name == name {
				columns[i].PrimaryKey = true
			}
		}
	}
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
