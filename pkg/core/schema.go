package core

// SchemaInfo describes one database/schema visible to a connection.
type SchemaInfo struct {
	Name    string `json:"name"`
	Catalog string `json:"catalog,omitempty"`
}

// TableInfo describes one table within a schema, normalized across the
// engine-specific system catalogs.
type TableInfo struct {
	Schema  string `json:"schema"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"` // BASE TABLE, VIEW, ...
	Comment string `json:"comment,omitempty"`
}

// ColumnInfo describes one column of a table.
type ColumnInfo struct {
	Table      string `json:"table"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Comment    string `json:"comment,omitempty"`
	Position   int    `json:"position,omitempty"`
}

// Relationship describes a foreign-key edge between two tables.
type Relationship struct {
	Table            string `json:"table"`
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
	ConstraintName   string `json:"constraint_name,omitempty"`
}

// FieldDetails bundles column metadata with the foreign-key relationships
// detected among the requested tables. Relationships may be empty when the
// engine does not track them or when detection failed; that is a degraded
// result, not an error.
type FieldDetails struct {
	Columns       []ColumnInfo   `json:"columns"`
	Relationships []Relationship `json:"relationships"`
}
