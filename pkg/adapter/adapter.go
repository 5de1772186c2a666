// Package adapter defines the uniform capability contract that every engine
// adapter implements, a BaseSQLAdapter with the shared database/sql plumbing,
// and the registry that maps engine types to adapter factories.
//
// Concrete adapter implementations live in pkg/adapters/ subdirectories and
// register themselves in their init() functions.
package adapter

import (
	"context"

	"github.com/querypilot/querypilot/pkg/core"
)

// SampleQuery describes a bounded sample-data fetch for one field.
type SampleQuery struct {
	Table    string
	Field    string
	DataType string
	Limit    int
	Schema   string
	Catalog  string
}

// Adapter is the uniform contract over one database engine. An adapter is
// created per logical operation and must be closed on every exit path.
type Adapter interface {
	// Connect establishes the connection described by cfg. It fails fast:
	// on error no usable adapter state remains.
	Connect(ctx context.Context, cfg core.ConnConfig) error

	// Close releases the underlying connection(s). Idempotent.
	Close() error

	// ExecuteQuery runs sql and returns all rows as an array, wrapping
	// single-row or acknowledgement-style results.
	ExecuteQuery(ctx context.Context, sql string, args ...any) ([]core.Row, error)

	// GetSchemas lists the databases/schemas visible to the connection.
	GetSchemas(ctx context.Context) ([]core.SchemaInfo, error)

	// GetTablesBySchema lists tables in one schema, normalized across the
	// engine-specific system catalogs.
	GetTablesBySchema(ctx context.Context, schema string) ([]core.TableInfo, error)

	// GetFieldsAndRelationships returns column metadata for the given tables
	// together with foreign-key relationships among them. Relationship
	// detection failures degrade the result instead of failing the call.
	GetFieldsAndRelationships(ctx context.Context, schema string, tables []string) (*core.FieldDetails, error)

	// GetSampleData fetches up to q.Limit values of one field. Failures are
	// cosmetic: on error the result is a single descriptive placeholder
	// string, never a propagated error.
	GetSampleData(ctx context.Context, q SampleQuery) []any

	// HealthCheck runs a trivial probe query and reports reachability.
	// It returns false on any error rather than failing.
	HealthCheck(ctx context.Context) bool
}
