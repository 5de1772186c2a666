// Package core defines the shared data model for the query execution core:
// engine types, connection configuration, execution outcomes, and the
// introspection descriptors returned by engine adapters.
package core

import "fmt"

// EngineType identifies a supported database engine. The set is closed:
// every value maps to exactly one registered adapter or to an explicit
// "unknown engine" error, never a silent fallback.
type EngineType string

const (
	EngineMySQL      EngineType = "mysql"
	EnginePostgres   EngineType = "postgres"
	EngineSQLite     EngineType = "sqlite"
	EngineDuckDB     EngineType = "duckdb"
	EngineClickHouse EngineType = "clickhouse"
	EngineDatabricks EngineType = "databricks"
)

// EngineTypes lists every engine this build knows about, in registration order.
func EngineTypes() []EngineType {
	return []EngineType{
		EngineMySQL,
		EnginePostgres,
		EngineSQLite,
		EngineDuckDB,
		EngineClickHouse,
		EngineDatabricks,
	}
}

// ParseEngineType converts a config string into an EngineType.
func ParseEngineType(s string) (EngineType, error) {
	for _, e := range EngineTypes() {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown engine type %q", s)
}

// String implements fmt.Stringer.
func (e EngineType) String() string { return string(e) }
