package core

import "maps"

// Row is a single result row keyed by column name.
type Row = map[string]any

// Outcome is the structured result of one execution request. ExecutedQuery
// always reflects the SQL that actually ran, which may differ from the input
// when an auto-fix rewrite occurred.
//
// Invariant: Success == false implies Rows is empty and RowCount is 0.
type Outcome struct {
	Success         bool   `json:"success"`
	Rows            []Row  `json:"rows"`
	RowCount        int    `json:"row_count"`
	TotalCount      *int64 `json:"total_count,omitempty"`
	ExecutedQuery   string `json:"executed_query"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	Error           string `json:"error,omitempty"`
	Title           string `json:"title,omitempty"`
	Cached          bool   `json:"cached,omitempty"`
}

// Clone copies the outcome deeply enough that mutating the copy's rows
// cannot affect the original. Shared by the cache and by concurrent callers
// of a deduplicated execution.
func (o *Outcome) Clone() *Outcome {
	out := *o
	if o.Rows != nil {
		out.Rows = make([]Row, len(o.Rows))
		for i, r := range o.Rows {
			out.Rows[i] = maps.Clone(r)
		}
	}
	if o.TotalCount != nil {
		tc := *o.TotalCount
		out.TotalCount = &tc
	}
	return &out
}

// Failed builds a terminal failure outcome for the given SQL text.
// Callers never see raw driver errors; msg is the human-readable message.
func Failed(sql, msg string) *Outcome {
	return &Outcome{
		Success:       false,
		Rows:          nil,
		RowCount:      0,
		ExecutedQuery: sql,
		Error:         msg,
	}
}

// ErrorCategory is a closed classification of execution failures, used for
// user-facing messaging only. Retry decisions are made independently by
// sqlfix.Fixable.
type ErrorCategory string

const (
	CategorySyntax     ErrorCategory = "syntax"
	CategoryFunction   ErrorCategory = "function"
	CategoryColumn     ErrorCategory = "column"
	CategoryTable      ErrorCategory = "table"
	CategoryType       ErrorCategory = "type"
	CategoryAggregate  ErrorCategory = "aggregate"
	CategoryPermission ErrorCategory = "permission"
	CategoryUnknown    ErrorCategory = "unknown"
)
