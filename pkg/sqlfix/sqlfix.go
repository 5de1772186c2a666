// Package sqlfix classifies execution errors: whether an error looks like a
// syntax-level problem that regenerating the SQL could fix, and which broad
// category it falls into for user-facing messaging.
//
// Classification is data-driven: each engine contributes a list of message
// signatures. Supporting a new engine means adding a table entry, not new
// control flow.
package sqlfix

import (
	"strings"

	"github.com/querypilot/querypilot/pkg/core"
)

// genericFixable are dialect-independent indicators of a rewritable error.
var genericFixable = []string{
	"syntax error",
	"parse error",
	"unexpected token",
	"unexpected keyword",
	"sql syntax",
}

// neverFixable are indicators of permission or connectivity failures.
// These are never retried: regenerating SQL cannot fix a credential, and
// retrying against a dead server only multiplies load.
var neverFixable = []string{
	"permission denied",
	"access denied",
	"access is denied",
	"not authorized",
	"authentication failed",
	"password authentication",
	"invalid credentials",
	"login failed",
	"connection refused",
	"connection reset",
	"no such host",
	"network is unreachable",
	"too many connections",
	"certificate",
	"insufficient privilege",
}

// engineFixable maps each engine to its own vocabulary of fixable error
// classes: undefined column/function/table, type mismatches, divide-by-zero,
// GROUP BY violations, reserved-keyword collisions.
var engineFixable = map[core.EngineType][]string{
	core.EngineMySQL: {
		"you have an error in your sql syntax",
		"unknown column",
		"unknown table",
		"doesn't exist",
		"incorrect number of arguments",
		"invalid use of group function",
		"in group by",
		"incorrect datetime value",
		"truncated incorrect",
		"division by 0",
		"ambiguous",
	},
	core.EnginePostgres: {
		"does not exist",
		"undefined column",
		"undefined function",
		"undefined table",
		"must appear in the group by clause",
		"grouping error",
		"division by zero",
		"cannot be cast",
		"invalid input syntax",
		"operator does not exist",
		"ambiguous",
		"missing from-clause entry",
	},
	core.EngineSQLite: {
		"no such table",
		"no such column",
		"no such function",
		"near \"",
		"ambiguous column name",
		"wrong number of arguments",
		"misuse of aggregate",
	},
	core.EngineDuckDB: {
		"parser error",
		"binder error",
		"catalog error",
		"not found in from clause",
		"referenced column",
		"could not convert",
		"conversion error",
		"must appear in the group by clause",
	},
	core.EngineClickHouse: {
		"unknown identifier",
		"unknown function",
		"there is no column",
		"missing columns",
		"cannot convert",
		"illegal type",
		"illegal aggregation",
		"not under aggregate function",
		"unknown table",
		"code: 47",
		"code: 62",
	},
	core.EngineDatabricks: {
		"parse_syntax_error",
		"unresolved_column",
		"unresolved_routine",
		"table_or_view_not_found",
		"cast_invalid_input",
		"missing_aggregation",
		"group_by_pos_out_of_range",
		"divide_by_zero",
		"analysisexception",
		"cannot resolve",
	},
}

// Fixable reports whether err looks like a syntax-level failure that a
// regenerated SQL text could correct for the given engine. Permission and
// connectivity failures are never fixable.
func Fixable(err error, engine core.EngineType) bool {
	if err == nil {
		return false
	}
	return FixableMessage(err.Error(), engine)
}

// FixableMessage is Fixable over a raw error string.
func FixableMessage(msg string, engine core.EngineType) bool {
	m := strings.ToLower(msg)
	if m == "" {
		return false
	}

	for _, sig := range neverFixable {
		if strings.Contains(m, sig) {
			return false
		}
	}
	for _, sig := range genericFixable {
		if strings.Contains(m, sig) {
			return true
		}
	}
	for _, sig := range engineFixable[engine] {
		if strings.Contains(m, strings.ToLower(sig)) {
			return true
		}
	}
	return false
}
