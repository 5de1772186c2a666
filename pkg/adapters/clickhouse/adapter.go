// Package clickhouse provides the ClickHouse engine adapter.
package clickhouse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

// Adapter implements the adapter.Adapter interface for ClickHouse.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new ClickHouse adapter instance.
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

// Connect establishes a connection to ClickHouse over the native protocol.
func (a *Adapter) Connect(ctx context.Context, cfg core.ConnConfig) error {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 9000
	}

	a.Logger.Debug("connecting to clickhouse", "host", host, "database", cfg.Database)

	db := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", host, port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
	})
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// GetSchemas lists user databases from system.databases.
func (a *Adapter) GetSchemas(ctx context.Context) ([]core.SchemaInfo, error) {
	rows, err := a.ExecuteQuery(ctx, `
		SELECT name FROM system.databases
		WHERE name NOT IN ('system', 'information_schema', 'INFORMATION_SCHEMA')
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	schemas := make([]core.SchemaInfo, 0, len(rows))
	for _, row := range rows {
		schemas = append(schemas, core.SchemaInfo{Name: adapter.AsString(row["name"])})
	}
	return schemas, nil
}

// GetTablesBySchema lists tables from system.tables.
func (a *Adapter) GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error) {
	rows, err := a.ExecuteQuery(ctx, `
		SELECT name, engine, comment
		FROM system.tables
		WHERE database = ?
		ORDER BY name`, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables in %s: %w", schema, err)
	}
	tables := make([]core.TableInfo, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, core.TableInfo{
			Schema:  schema,
			Name:    adapter.AsString(row["name"]),
			Type:    adapter.AsString(row["engine"]),
			Comment: adapter.AsString(row["comment"]),
		})
	}
	return tables, nil
}

// GetFieldsAndRelationships reads system.columns. ClickHouse does not track
// foreign keys, so relationships are always empty; this is a property of the
// engine, not an error.
func (a *Adapter) GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error) {
	details := &core.FieldDetails{Columns: []core.ColumnInfo{}, Relationships: []core.Relationship{}}
	if len(tables) == 0 {
		return details, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tables)), ",")
	args := make([]any, 0, len(tables)+1)
	args = append(args, schema)
	for _, t := range tables {
		args = append(args, t)
	}

	colQuery := fmt.Sprintf(`
		SELECT table, name, type, comment, is_in_primary_key, position
		FROM system.columns
		WHERE database = ? AND table IN (%s)
		ORDER BY table, position`, placeholders)

	rows, err := a.ExecuteQuery(ctx, colQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	for _, row := range rows {
		colType := adapter.AsString(row["type"])
		details.Columns = append(details.Columns, core.ColumnInfo{
			Table:      adapter.AsString(row["table"]),
			Name:       adapter.AsString(row["name"]),
			Type:       colType,
			Nullable:   strings.HasPrefix(colType, "Nullable("),
			PrimaryKey: adapter.AsInt(row["is_in_primary_key"]) == 1,
			Comment:    adapter.AsString(row["comment"]),
			Position:   adapter.AsInt(row["position"]),
		})
	}
	return details, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
