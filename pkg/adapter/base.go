package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/querypilot/querypilot/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// ExecuteQuery, GetSampleData, HealthCheck, and Close implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.ConnConfig
	Logger *slog.Logger

	// IdentQuote is the identifier quote character for the engine's dialect
	// ("\"" by default, "`" for mysql and databricks).
	IdentQuote string
}

// Close closes the database connection. Safe to call more than once.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", "engine", b.Cfg.Type)
	}
	db := b.DB
	b.DB = nil
	return db.Close()
}

// ExecuteQuery runs sql and scans every row into a column-keyed map.
// Single-row and scalar results come back as a one-element array; byte
// slices are converted to strings so results serialize cleanly.
func (b *BaseSQLAdapter) ExecuteQuery(ctx context.Context, sqlStr string, args ...any) ([]core.Row, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	rows, err := b.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return ScanRows(rows)
}

// ScanRows drains sql.Rows into column-keyed maps.
func ScanRows(rows *sql.Rows) ([]core.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	out := make([]core.Row, 0, 16)
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(cols))
		for i, col := range cols {
			row[col] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// normalizeValue converts driver-specific scan results into plain Go values.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return v
	}
}

// Quote wraps an identifier in the dialect's quote character, doubling any
// embedded quotes.
func (b *BaseSQLAdapter) Quote(name string) string {
	q := b.IdentQuote
	if q == "" {
		q = `"`
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// QualifiedTable builds a fully qualified, quoted table reference from the
// optional catalog/schema parts of a sample query.
func (b *BaseSQLAdapter) QualifiedTable(q SampleQuery) string {
	parts := make([]string, 0, 3)
	if q.Catalog != "" {
		parts = append(parts, b.Quote(q.Catalog))
	}
	if q.Schema != "" {
		parts = append(parts, b.Quote(q.Schema))
	}
	parts = append(parts, b.Quote(q.Table))
	return strings.Join(parts, ".")
}

// structuredTypes are data types where DISTINCT is meaningless or expensive;
// sample queries against them skip deduplication.
var structuredTypes = map[string]bool{
	"json": true, "jsonb": true, "struct": true, "map": true,
	"array": true, "variant": true, "object": true, "super": true,
}

// IsStructuredType reports whether dataType names a nested/JSON-style type.
func IsStructuredType(dataType string) bool {
	t := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexAny(t, "(<"); i > 0 {
		t = t[:i]
	}
	return structuredTypes[t]
}

// GetSampleData issues a bounded SELECT [DISTINCT] field FROM table LIMIT n.
// Sample fetches are cosmetic; any failure yields a single descriptive
// placeholder value instead of an error.
func (b *BaseSQLAdapter) GetSampleData(ctx context.Context, q SampleQuery) []any {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	distinct := "DISTINCT "
	if IsStructuredType(q.DataType) {
		distinct = ""
	}

	query := fmt.Sprintf("SELECT %s%s FROM %s LIMIT %d",
		distinct, b.Quote(q.Field), b.QualifiedTable(q), limit)

	rows, err := b.ExecuteQuery(ctx, query)
	if err != nil {
		if b.Logger != nil {
			b.Logger.Debug("sample data fetch failed", "table", q.Table, "field", q.Field, "error", err)
		}
		return []any{fmt.Sprintf("sample data unavailable for %s.%s: %v", q.Table, q.Field, err)}
	}

	values := make([]any, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[q.Field]; ok {
			values = append(values, v)
			continue
		}
		// engines that uppercase result columns still yield one column
		for _, v := range row {
			values = append(values, v)
			break
		}
	}
	return values
}

// HealthCheck runs SELECT 1 and reports success. It never returns an error.
func (b *BaseSQLAdapter) HealthCheck(ctx context.Context) bool {
	if b.DB == nil {
		return false
	}
	var one int
	if err := b.DB.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		if b.Logger != nil {
			b.Logger.Debug("health check failed", "engine", b.Cfg.Type, "error", err)
		}
		return false
	}
	return true
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}
