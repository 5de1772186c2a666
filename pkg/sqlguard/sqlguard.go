// Package sqlguard is a static allow/deny filter applied to generated SQL
// before execution.
//
// This is a best-effort, pattern-based layer, not a security boundary: it
// does not parse SQL and cannot reject every unsafe statement. The patterns
// are deliberately precise (whole words, specific shapes) to keep the
// false-positive rate low on legitimate analytic SQL: a legitimate
// UNION ALL must pass. Hardening it into a grammar-level proof is explicitly
// out of scope; database-side permissions remain the real enforcement point.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxQueryLength is the hard ceiling on accepted SQL text length.
const MaxQueryLength = 10000

// Verdict is the result of validating one SQL text. A false verdict is
// terminal for that text: callers must not retry without a rewrite.
type Verdict struct {
	OK     bool
	Reason string
}

func reject(format string, args ...any) Verdict {
	return Verdict{OK: false, Reason: fmt.Sprintf(format, args...)}
}

// allowedPrefix matches statements whose first word is SELECT or WITH.
var allowedPrefix = regexp.MustCompile(`(?i)^(select|with)\b`)

// deniedPhrases are DDL/DML/DCL keyword phrases matched as whole words so
// identifiers that merely contain a verb (e.g. last_update) pass.
var deniedPhrases = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`(?i)\bdrop\s+(table|database|schema|view|index|user)\b`), "DROP"},
	{regexp.MustCompile(`(?i)\btruncate\s+table\b`), "TRUNCATE TABLE"},
	{regexp.MustCompile(`(?i)\bdelete\s+from\b`), "DELETE FROM"},
	{regexp.MustCompile(`(?i)\binsert\s+into\b`), "INSERT INTO"},
	{regexp.MustCompile(`(?i)\bupdate\s+\S+\s+set\b`), "UPDATE ... SET"},
	{regexp.MustCompile(`(?i)\balter\s+(table|database|schema|view|user)\b`), "ALTER"},
	{regexp.MustCompile(`(?i)\bcreate\s+(table|database|schema|view|index|user|function|procedure)\b`), "CREATE"},
	{regexp.MustCompile(`(?i)\brename\s+table\b`), "RENAME TABLE"},
	{regexp.MustCompile(`(?i)\bmerge\s+into\b`), "MERGE INTO"},
	{regexp.MustCompile(`(?i)\bgrant\s+`), "GRANT"},
	{regexp.MustCompile(`(?i)\brevoke\s+`), "REVOKE"},
	{regexp.MustCompile(`(?i)\b(exec|execute)\s+`), "EXEC"},
	{regexp.MustCompile(`(?i)\bcall\s+\w+`), "CALL"},
	{regexp.MustCompile(`(?i)\bxp_cmdshell\b`), "xp_cmdshell"},
	{regexp.MustCompile(`(?i)\bsp_executesql\b`), "sp_executesql"},
	{regexp.MustCompile(`(?i)\binto\s+(outfile|dumpfile)\b`), "INTO OUTFILE"},
	{regexp.MustCompile(`(?i)\bload_file\s*\(`), "LOAD_FILE"},
	{regexp.MustCompile(`(?i)\bload\s+data\b`), "LOAD DATA"},
	{regexp.MustCompile(`(?i)\battach\s+database\b`), "ATTACH DATABASE"},
	{regexp.MustCompile(`(?i)\bset\s+global\b`), "SET GLOBAL"},
	{regexp.MustCompile(`(?i)\bshutdown\b`), "SHUTDOWN"},
}

// injectionShapes are known injection patterns. Each is a precise shape, not
// a broad substring, so analytic SQL with UNION ALL or legitimate comments
// is not caught. Known false-positive risk: a deny-listed phrase inside a
// string literal still rejects the statement; accepted as the safer default.
var injectionShapes = []struct {
	re     *regexp.Regexp
	reason string
}{
	{
		regexp.MustCompile(`(?i)'\s*or\s+'[^']*'\s*=\s*'[^']*'`),
		"boolean tautology pattern",
	},
	{
		regexp.MustCompile(`(?i)\bor\s+\d+\s*=\s*\d+\s*(--|#|/\*)`),
		"boolean tautology followed by comment",
	},
	{
		regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b[^;]*\b(information_schema|pg_catalog|pg_shadow|mysql\.user|sqlite_master|system\.)`),
		"UNION SELECT against system catalogs",
	},
	{
		regexp.MustCompile(`(?i);\s*(insert|update|delete|drop|alter|create|truncate|grant|revoke|merge|exec|call)\b`),
		"statement chaining into a mutating verb",
	},
}

// Validate applies the allow/deny rules in order; the first violated rule
// short-circuits. Validate is pure and stateless: the same input always
// produces the same verdict.
func Validate(sql string) Verdict {
	if len(sql) > MaxQueryLength {
		return reject("query exceeds maximum length of %d characters", MaxQueryLength)
	}

	trimmed := strings.TrimSpace(sql)
	if trimmed == "" {
		return reject("query is empty")
	}

	if !allowedPrefix.MatchString(trimmed) {
		return reject("only SELECT and WITH statements are allowed")
	}

	for _, p := range deniedPhrases {
		if p.re.MatchString(trimmed) {
			return reject("statement contains forbidden keyword: %s", p.name)
		}
	}

	for _, s := range injectionShapes {
		if s.re.MatchString(trimmed) {
			return reject("statement matches suspicious pattern: %s", s.reason)
		}
	}

	return Verdict{OK: true}
}
