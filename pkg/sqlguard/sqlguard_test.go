package sqlguard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_AllowedStatements(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"plain select", "SELECT id, name FROM users"},
		{"select with limit", "select * from orders limit 100"},
		{"cte", "WITH recent AS (SELECT * FROM orders WHERE created_at > now() - interval '7 days') SELECT count(*) FROM recent"},
		{"legitimate union all", "SELECT id FROM a UNION ALL SELECT id FROM b"},
		{"identifier containing verb", "SELECT last_update, created_by FROM audit_log"},
		{"information_schema without union", "SELECT table_name FROM information_schema.tables"},
		{"line comment", "SELECT 1 -- trailing note"},
		{"string literal with apostrophe", "SELECT * FROM users WHERE name = 'O''Brien'"},
		{"window function", "SELECT id, row_number() OVER (ORDER BY id) FROM t"},
		{"leading whitespace", "   \n\tSELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.sql)
			assert.True(t, v.OK, "expected OK, got reason: %s", v.Reason)
			assert.Empty(t, v.Reason)
		})
	}
}

func TestValidate_RejectedStatements(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		reason string
	}{
		{"empty", "", "query is empty"},
		{"whitespace only", "   \n\t ", "query is empty"},
		{"not a select", "EXPLAIN SELECT 1", "only SELECT and WITH"},
		{"bare insert", "INSERT INTO users VALUES (1)", "only SELECT and WITH"},
		{"drop table", "SELECT 1; DROP TABLE users", "DROP"},
		{"truncate", "WITH t AS (SELECT 1) SELECT * FROM t; TRUNCATE TABLE users", "TRUNCATE TABLE"},
		{"delete from", "SELECT * FROM x WHERE id IN (DELETE FROM y RETURNING id)", "DELETE FROM"},
		{"update set", "SELECT 1; UPDATE users SET admin = 1", "UPDATE ... SET"},
		{"grant", "SELECT 1; GRANT ALL ON db.* TO 'u'@'%'", "GRANT"},
		{"into outfile", "SELECT * FROM users INTO OUTFILE '/tmp/x'", "INTO OUTFILE"},
		{"load_file", "SELECT load_file('/etc/passwd')", "LOAD_FILE"},
		{"attach database", "SELECT 1; ATTACH DATABASE '/tmp/x.db' AS x", "ATTACH DATABASE"},
		{"xp_cmdshell", "SELECT 1; exec xp_cmdshell 'dir'", "forbidden keyword"},
		{"quoted tautology", "SELECT * FROM users WHERE name = '' OR '1'='1'", "tautology"},
		{"numeric tautology with comment", "SELECT * FROM users WHERE id = 1 OR 1=1 --", "tautology"},
		{"union select against catalog", "SELECT name FROM t UNION SELECT password FROM mysql.user", "system catalogs"},
		{"chained mutation", "SELECT 1; DELETE FROM audit_log", "DELETE FROM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(tt.sql)
			assert.False(t, v.OK)
			assert.Contains(t, v.Reason, tt.reason)
		})
	}
}

func TestValidate_MaxLength(t *testing.T) {
	long := "SELECT '" + strings.Repeat("x", MaxQueryLength) + "'"
	v := Validate(long)
	assert.False(t, v.OK)
	assert.Contains(t, v.Reason, "maximum length")

	// Exactly at the limit is accepted.
	exact := "SELECT '" + strings.Repeat("x", MaxQueryLength-len("SELECT ''")) + "'"
	assert.Len(t, exact, MaxQueryLength)
	assert.True(t, Validate(exact).OK)
}

func TestValidate_Deterministic(t *testing.T) {
	sql := "SELECT * FROM users WHERE id = 1 OR 1=1 --"
	first := Validate(sql)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Validate(sql))
	}
}
