package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querypilot/querypilot/pkg/core"
)

func TestCacheable(t *testing.T) {
	assert.True(t, Cacheable("SELECT 1"))
	assert.True(t, Cacheable("  with t as (select 1) select * from t"))
	assert.False(t, Cacheable("INSERT INTO t VALUES (1)"))
	assert.False(t, Cacheable("EXPLAIN SELECT 1"))
	assert.False(t, Cacheable(""))
}

func TestKey(t *testing.T) {
	conn := core.ConnConfig{Type: core.EnginePostgres, Host: "h", Database: "db"}

	// Whitespace differences normalize to the same key.
	k1 := Key("SELECT  *\nFROM users", conn)
	k2 := Key("SELECT * FROM users", conn)
	assert.Equal(t, k1, k2)

	// Different SQL or a different connection changes the key.
	assert.NotEqual(t, k1, Key("SELECT id FROM users", conn))
	other := conn
	other.Database = "db2"
	assert.NotEqual(t, k1, Key("SELECT * FROM users", other))

	// Credentials do not participate in the key.
	withPass := conn
	withPass.Password = "hunter2"
	assert.Equal(t, k1, Key("SELECT * FROM users", withPass))
}

func TestKey_CaseIsSignificant(t *testing.T) {
	conn := core.ConnConfig{Type: core.EnginePostgres, Host: "h", Database: "db"}

	// String literals are case-sensitive; these queries return different
	// rows and must never share a cache entry.
	k1 := Key("SELECT * FROM users WHERE name = 'Alice'", conn)
	k2 := Key("SELECT * FROM users WHERE name = 'ALICE'", conn)
	assert.NotEqual(t, k1, k2)

	// Keyword casing is significant too; only whitespace is folded.
	assert.NotEqual(t,
		Key("SELECT * FROM users", conn),
		Key("select * from users", conn))
}

func TestGetPut(t *testing.T) {
	c := New(time.Minute, 100)

	out := &core.Outcome{Success: true, Rows: []core.Row{{"id": 1}}, RowCount: 1}
	c.Put("k", out)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, out, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestPut_IgnoresFailures(t *testing.T) {
	c := New(time.Minute, 100)
	c.Put("k", &core.Outcome{Success: false, Error: "boom"})
	c.Put("k2", nil)
	assert.Zero(t, c.Len())
}

func TestPut_BoundsRows(t *testing.T) {
	c := New(time.Minute, 2)

	rows := []core.Row{{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}}
	c.Put("k", &core.Outcome{Success: true, Rows: rows, RowCount: 4})

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Len(t, got.Rows, 2)
	assert.Equal(t, 2, got.RowCount)
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	c := New(time.Minute, 100)
	c.Put("k", &core.Outcome{Success: true, Rows: []core.Row{{"name": "a"}}, RowCount: 1})

	first, ok := c.Get("k")
	require.True(t, ok)
	first.Rows[0]["name"] = "mutated"

	second, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "a", second.Rows[0]["name"])
}

func TestTTLExpiry(t *testing.T) {
	c := New(time.Minute, 100)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	c.Put("k", &core.Outcome{Success: true, RowCount: 0})

	_, ok := c.Get("k")
	assert.True(t, ok)

	// Just before expiry the entry is still served.
	now = now.Add(time.Minute)
	_, ok = c.Get("k")
	assert.True(t, ok)

	// Past expiry the entry is gone and evicted lazily.
	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestNew_Defaults(t *testing.T) {
	c := New(0, 0)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, DefaultMaxRows, c.maxRows)
}
