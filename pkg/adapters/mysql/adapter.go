// Package mysql provides the MySQL engine adapter.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for MySQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new MySQL adapter instance.
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

// Connect establishes a connection to MySQL.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return err
	}

	a.Logger.Debug("connecting to mysql", "host", cfg.Host, "database", cfg.Database)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a MySQL connection string via the driver's own
// config type so escaping rules stay the driver's problem.
func buildMySQLDSN(cfg core.ConnConfig) (string, error) {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", host, port)
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Timeout = 10 * time.Second
	for k, v := range cfg.Options {
		if mc.Params == nil {
			mc.Params = map[string]string{}
		}
		mc.Params[k] = v
	}
	return mc.FormatDSN(), nil
}

// systemSchemas are MySQL's built-in databases, excluded from listings.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"performance_schema": true,
	"mysql":              true,
	"sys":                true,
}

// GetSchemas lists user databases via SHOW DATABASES.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	rows, err := a.ExecuteQuery(ctx, "SHOW DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	schemas := make([]core.SchemaInfo, 0, len(rows))
	for _, row := range rows {
		name, _ := row["Database"].(string)
		if name == "" || systemSchemas[name] {
			continue
		}
		schemas = append(schemas, core.SchemaInfo{Name: name})
	}
	return schemas, nil
}

// GetTablesBySchema lists tables via SHOW FULL TABLES, normalizing the
// schema-dependent column name of the result.
func (a *Adapter) GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	query := fmt.Sprintf("SHOW FULL TABLES FROM %s", a.Quote(schema))
	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	defer func() { _ = rows.Close() }()

	var tables []core.TableInfo
	for rows.Next() {
		var name, tableType string
		if err := rows.Scan(&name, &tableType); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, core.TableInfo{Schema: schema, Name: name, Type: tableType})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// GetFieldsAndRelationships joins column metadata with foreign-key metadata
// from information_schema. A relationship lookup failure degrades the result
// to columns only.
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
		SELECT table_name, column_name, column_type, is_nullable,
		       column_key, column_comment, ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name IN (%s)
		ORDER BY table_name, ordinal_position`, placeholders)

	rows, err := a.ExecuteQuery(ctx, colQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}

	details := &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}
	for _, row := range rows {
		col := core.ColumnInfo{
			Table:      adapter.AsString(row["table_name"]),
			Name:       adapter.AsString(row["column_name"]),
			Type:       adapter.AsString(row["column_type"]),
			Nullable:   adapter.AsString(row["is_nullable"]) == "YES",
			PrimaryKey: adapter.AsString(row["column_key"]) == "PRI",
			Comment:    adapter.AsString(row["column_comment"]),
			Position:   adapter.AsInt(row["ordinal_position"]),
		}
		details.Columns = append(details.Columns, col)
	}

	fkQuery := fmt.Sprintf(`
		SELECT table_name, column_name, referenced_table_name,
		       referenced_column_name, constraint_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name IN (%s)
		  AND referenced_table_name IS NOT NULL`, placeholders)

	fkRows, err := a.ExecuteQuery(ctx, fkQuery, args...)
	if err != nil {
		a.Logger.Debug("relationship detection failed, returning columns only", "schema", schema, "error", err)
		return details, nil
	}
	for _, row := range fkRows {
		details.Relationships = append(details.Relationships, core.Relationship{
			Table:            adapter.AsString(row["table_name"]),
			Column:           adapter.AsString(row["column_name"]),
			ReferencedTable:  adapter.AsString(row["referenced_table_name"]),
			ReferencedColumn: adapter.AsString(row["referenced_column_name"]),
			ConstraintName:   adapter.AsString(row["constraint_name"]),
		})
	}
	return details, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
