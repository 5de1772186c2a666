package executor

import (
	"regexp"
	"strings"

	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
)

var (
	limitRe      = regexp.MustCompile(`(?i)\blimit\s+\d+`)
	trailLimitRe = regexp.MustCompile(`(?i)\s+limit\s+\d+(\s*,\s*\d+)?(\s+offset\s+\d+)?\s*$`)
)

// HasLimit reports whether sql contains a LIMIT clause, signalling a
// paginated query whose total row count is worth reporting.
func HasLimit(sql string) bool {
	return limitRe.MatchString(sql)
}

// BuildCountQuery derives a COUNT(*) query reporting how many rows the
// statement would return without its pagination. A trailing LIMIT/OFFSET is
// stripped from the inner query; a CTE prefix is preserved ahead of the
// count wrapper because WITH cannot appear inside a derived table for every
// engine.
func BuildCountQuery(sql string) string {
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(sql), ";"))

	if prefix, body, ok := splitCTE(s); ok {
		return prefix + "SELECT COUNT(*) AS total_count FROM (" + stripTrailingLimit(body) + ") AS count_sub"
	}
	return "SELECT COUNT(*) AS total_count FROM (" + stripTrailingLimit(s) + ") AS count_sub"
}

// stripTrailingLimit removes a trailing LIMIT n [OFFSET m] (or LIMIT n,m)
// clause so the count reflects the unpaginated result.
func stripTrailingLimit(sql string) string {
	return trailLimitRe.ReplaceAllString(sql, "")
}

// splitCTE splits "WITH a AS (...), b AS (...) SELECT ..." into the CTE
// prefix (up to and including the whitespace before the main SELECT) and the
// main statement body. It scans for the first top-level SELECT keyword,
// honoring parentheses, quoting, and comments; no full SQL parse is needed.
func splitCTE(sql string) (prefix, body string, ok bool) {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) < 4 || !strings.EqualFold(trimmed[:4], "with") {
		return "", "", false
	}

	depth := 0
	i := 4 // past "with"
	n := len(sql)
	for i < n {
		c := sql[i]
		switch {
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
		case c == '\'' || c == '"' || c == '`':
			i = skipQuoted(sql, i, c)
		case c == '-' && i+1 < n && sql[i+1] == '-':
			for i < n && sql[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				return "", "", false
			}
			i += end + 4
		case depth == 0 && (c == 's' || c == 'S'):
			if matchKeyword(sql, i, "select") {
				return sql[:i], sql[i:], true
			}
			i++
		default:
			i++
		}
	}
	return "", "", false
}

// skipQuoted advances past a quoted literal starting at i, handling doubled
// quote escapes.
func skipQuoted(sql string, i int, quote byte) int {
	n := len(sql)
	i++ // opening quote
	for i < n {
		if sql[i] == quote {
			if i+1 < n && sql[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

// matchKeyword reports whether sql[i:] starts with the keyword as a whole
// word (preceded and followed by non-identifier characters).
func matchKeyword(sql string, i int, keyword string) bool {
	if i+len(keyword) > len(sql) {
		return false
	}
	if !strings.EqualFold(sql[i:i+len(keyword)], keyword) {
		return false
	}
	if i > 0 && isIdentChar(sql[i-1]) {
		return false
	}
	if i+len(keyword) < len(sql) && isIdentChar(sql[i+len(keyword)]) {
		return false
	}
	return true
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// countColumnNames are the result-column spellings different engines use for
// the synthesized count.
var countColumnNames = []string{"total_count", "count(*)", "count_star()", "count", "total"}

// extractCount pulls the total from a count-query result, tolerating
// engine-specific column naming and numeric types. Falls back to the first
// numeric value in the row.
func extractCount(rows []core.Row) (int64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	row := rows[0]
	for key, v := range row {
		for _, name := range countColumnNames {
			if strings.EqualFold(key, name) {
				if n, ok := adapter.AsInt64(v); ok {
					return n, true
				}
			}
		}
	}
	for _, v := range row {
		if n, ok := adapter.AsInt64(v); ok {
			return n, true
		}
	}
	return 0, false
}
