package sqlfix

import (
	"strings"

	"github.com/querypilot/querypilot/pkg/core"
)

// categorySignatures maps message fragments to error categories, checked in
// order. Used only for user-facing messaging; retry decisions come from
// Fixable, which is independent of this table.
var categorySignatures = []struct {
	category core.ErrorCategory
	matches  []string
}{
	{core.CategoryPermission, []string{
		"permission denied", "access denied", "not authorized",
		"authentication", "insufficient privilege", "login failed",
	}},
	{core.CategoryAggregate, []string{
		"group by", "aggregate", "grouping", "missing_aggregation",
	}},
	{core.CategoryFunction, []string{
		"unknown function", "undefined function", "no such function",
		"unresolved_routine", "incorrect number of arguments",
		"wrong number of arguments", "operator does not exist",
	}},
	{core.CategoryColumn, []string{
		"unknown column", "undefined column", "no such column",
		"unresolved_column", "there is no column", "missing columns",
		"unknown identifier", "referenced column", "ambiguous column",
	}},
	{core.CategoryTable, []string{
		"unknown table", "undefined table", "no such table",
		"table_or_view_not_found", "relation", "doesn't exist",
		"not found in from clause",
	}},
	{core.CategoryType, []string{
		"cannot be cast", "cannot convert", "could not convert",
		"cast_invalid_input", "invalid input syntax", "type mismatch",
		"incorrect datetime value", "illegal type", "conversion error",
	}},
	{core.CategorySyntax, []string{
		"syntax error", "parse error", "parser error", "unexpected token",
		"sql syntax", "parse_syntax_error", "near \"",
	}},
}

// Categorize maps an execution error to its closed category. Unknown wins
// when nothing matches; the category is derived per failure, never stored.
func Categorize(err error) core.ErrorCategory {
	if err == nil {
		return core.CategoryUnknown
	}
	m := strings.ToLower(err.Error())
	for _, group := range categorySignatures {
		for _, sig := range group.matches {
			if strings.Contains(m, sig) {
				return group.category
			}
		}
	}
	return core.CategoryUnknown
}
