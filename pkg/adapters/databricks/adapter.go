// Package databricks provides the Databricks SQL warehouse engine adapter.
package databricks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	_ "github.com/databricks/databricks-sql-go" // databricks driver

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for Databricks SQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new Databricks adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{}
	a.Logger = logger
	a.IdentQuote = "`"
	return a
}

// Connect establishes a connection to a Databricks SQL warehouse. The
// connection descriptor is a structured credential bundle; a missing part
// fails with a descriptive parse error before any network I/O.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn, err := buildDatabricksDSN(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to databricks", "host", cfg.Host, "catalog", cfg.Catalog)

	db, err := sql.Open("databricks", dsn)
	if err != nil {
		return fmt.Errorf("failed to open databricks connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping databricks: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDatabricksDSN assembles token:<pat>@host:port/http_path?params from
// the credential bundle.
func buildDatabricksDSN(cfg core.ConnConfig) (string, error) {
	var missing []string
	if cfg.Host == "" {
		missing = append(missing, "host")
	}
	if cfg.HTTPPath == "" {
		missing = append(missing, "http_path")
	}
	if cfg.Token == "" {
		missing = append(missing, "token")
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("invalid databricks connection config: missing %s", strings.Join(missing, ", "))
	}

	port := cfg.Port
	if port == 0 {
		port = 443
	}

	params := url.Values{}
	if cfg.Catalog != "" {
		params.Set("catalog", cfg.Catalog)
	}
	if cfg.Schema != "" {
		params.Set("schema", cfg.Schema)
	}

	dsn := fmt.Sprintf("token:%s@%s:%d/%s", cfg.Token, cfg.Host, port,
		strings.TrimPrefix(cfg.HTTPPath, "/"))
	if encoded := params.Encode(); encoded != "" {
		dsn += "?" + encoded
	}
	return dsn, nil
}

// GetSchemas lists schemas within the configured catalog. The catalog is
// required for this engine.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	catalog := a.Cfg.Catalog
	if catalog == "" {
		return nil, fmt.Errorf("databricks schema listing requires a catalog")
	}
	rows, err := a.ExecuteQuery(ctx, fmt.Sprintf("SHOW SCHEMAS IN %s", a.Quote(catalog)))
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas in catalog %s: %w", catalog, err)
	}
	schemas := make([]core.SchemaInfo, 0, len(rows))
	for _, row := range rows {
		// column name differs across runtime versions
		name := adapter.AsString(row["databaseName"])
		if name == "" {
			name = adapter.AsString(row["namespace"])
		}
		if name == "" {
			continue
		}
		schemas = append(schemas, core.SchemaInfo{Name: name, Catalog: catalog})
	}
	return schemas, nil
}

// GetTablesBySchema lists tables from the catalog's INFORMATION_SCHEMA.
func (a *Adapter) GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error) {
	catalog := a.Cfg.Catalog
	if catalog == "" {
		return nil, fmt.Errorf("databricks table listing requires a catalog")
	}
	query := fmt.Sprintf(`
		SELECT table_name, table_type, comment
		FROM %s.INFORMATION_SCHEMA.TABLES
		WHERE table_schema = ?
		ORDER BY table_name`, a.Quote(catalog))
	rows, err := a.ExecuteQuery(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s.%s: %w", catalog, schema, err)
	}
	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, core.TableInfo{
			Schema:  schema,
			Name:    adapter.AsString(row["table_name"]),
			Type:    adapter.AsString(row["table_type"]),
			Comment: adapter.AsString(row["comment"]),
		})
	}
	return tables, nil
}

// GetFieldsAndRelationships reads Unity Catalog's INFORMATION_SCHEMA for
// columns and foreign-key constraints. Constraint metadata is only present
// on Unity Catalog tables, so relationship failures degrade the result.
func (a *Adapter) GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error) {
	details := &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}
	if len(tables) == 0 {
		return details, nil
	}
	catalog := a.Cfg.Catalog
	if catalog == "" {
		return nil, fmt.Errorf("databricks field listing requires a catalog")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tables)), ",")
	args := make([]any, 0, len(tables)+1)
	args = append(args, schema)
	for _, t := range tables {
		args = append(args, t)
	}

	colQuery := fmt.Sprintf(`
		SELECT table_name, column_name, data_type, is_nullable, comment, ordinal_position
		FROM %s.INFORMATION_SCHEMA.COLUMNS
		WHERE table_schema = ? AND table_name IN (%s)
		ORDER BY table_name, ordinal_position`, a.Quote(catalog), placeholders)

	rows, err := a.ExecuteQuery(ctx, colQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	for _, row := range rows {
		details.Columns = append(details.Columns, core.ColumnInfo{
			Table:    adapter.AsString(row["table_name"]),
			Name:     adapter.AsString(row["column_name"]),
			Type:     adapter.AsString(row["data_type"]),
			Nullable: adapter.AsString(row["is_nullable"]) == "YES",
			Comment:  adapter.AsString(row["comment"]),
			Position: adapter.AsInt(row["ordinal_position"]),
		})
	}

	fkQuery := fmt.Sprintf(`
		SELECT kcu.table_name, kcu.column_name,
		       ccu.table_name AS referenced_table,
		       ccu.column_name AS referenced_column,
		       tc.constraint_name
		FROM %[1]s.INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN %[1]s.INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		  ON tc.constraint_name = kcu.constraint_name
		 AND tc.table_schema = kcu.table_schema
		JOIN %[1]s.INFORMATION_SCHEMA.CONSTRAINT_COLUMN_USAGE ccu
		  ON tc.constraint_name = ccu.constraint_name
		 AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = ? AND tc.table_name IN (%[2]s)`, a.Quote(catalog), placeholders)

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
