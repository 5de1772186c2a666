// Package postgres provides the PostgreSQL engine adapter.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
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

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", "host", cfg.Host, "database", cfg.Database)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg core.ConnConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}

// GetSchemas lists user schemas from information_schema.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	rows, err := a.ExecuteQuery(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('pg_catalog', 'information_schema')
		  AND schema_name NOT LIKE 'pg_toast%'
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
		WHERE table_schema = $1
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

// GetFieldsAndRelationships joins information_schema column metadata with
// primary/foreign-key constraints. Key lookups degrade gracefully.
func (a *Adapter) GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error) {
	if len(tables) == 0 {
		return &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}, nil
	}

	placeholders := make([]string, len(tables))
	args := make([]any, 0, len(tables)+1)
	args = append(args, schema)
	for i, t := range tables {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, t)
	}
	inList := strings.Join(placeholders, ", ")

	colQuery := fmt.Sprintf(`
		SELECT table_name, column_name, data_type, is_nullable, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name IN (%s)
		ORDER BY table_name, ordinal_position`, inList)

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

	// Primary keys: non-fatal enrichment of the column list.
	pkQuery := fmt.Sprintf(`
		SELECT kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name IN (%s)`, inList)
	if pkRows, err := a.ExecuteQuery(ctx, pkQuery, args...); err == nil {
		pks := make(map[string]bool, len(pkRows))
		for _, row := range pkRows {
			pks[adapter.AsString(row["table_name"])+"."+adapter.AsString(row["column_name"])] = true
		}
		for i := range details.Columns {
			if pks[details.Columns[i].Table+"."+details.Columns[i].Name] {
				details.Columns[i].PrimaryKey = true
			}
		}
	}

	fkQuery := fmt.Sprintf(`
		SELECT tc.table_name, kcu.column_name,
		       ccu.table_name AS referenced_table,
		       ccu.column_name AS referenced_column,
		       tc.constraint_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1 AND tc.table_name IN (%s)`, inList)

	fkRows, err := a.ExecuteQuery(ctx, fkQuery, args...)
	if err != nil {
		a.Logger.Debug("relationship detection failed, returning columns only", "schema", schema, "error", err)
		return details, nil
	}
	for _, row := range fkRows {
		details.Relationships = append(details.Relationships, core.Relationship{
			Table:            adapter.AsString(row["table_name"]),
			Column:           adapter.AsString(row["column_name"]),
			ReferencedTable:  adapter.AsString(row["referenced_table"]),
			ReferencedColumn: adapter.AsString(row["referenced_column"]),
			ConstraintName:   adapter.AsString(row["constraint_name"]),
		})
	}
	return details, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
