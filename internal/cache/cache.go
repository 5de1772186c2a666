// Package cache provides a content-addressed, TTL-bound result cache around
// the executor. Caching is best-effort acceleration: a miss or a full cache
// never fails a request, and entries go stale for at most one TTL (there is
// no invalidation channel).
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/querypilot/querypilot/pkg/core"
)

// DefaultTTL bounds how long a cached outcome is served.
const DefaultTTL = 5 * time.Minute

// DefaultMaxRows bounds how many rows of an outcome are stored.
const DefaultMaxRows = 1000

var readPrefix = regexp.MustCompile(`(?i)^\s*(select|with)\b`)

// Cacheable reports whether sql is a read statement eligible for caching.
func Cacheable(sql string) bool {
	return readPrefix.MatchString(sql)
}

// Key derives the content-addressed cache key from whitespace-normalized SQL
// text and the credential-free connection identity. Case is preserved: SQL
// differing only in case may carry different string literals or quoted
// identifiers, so it must never share a key.
func Key(sql string, conn core.ConnConfig) string {
	normalized := strings.Join(strings.Fields(sql), " ")
	h := sha256.Sum256([]byte(normalized + "\x00" + conn.Identity()))
	return hex.EncodeToString(h[:])
}

type entry struct {
	outcome core.Outcome
	expires time.Time
}

// ResultCache is a TTL-bound map of execution outcomes, safe for concurrent
// use from unrelated calls. Last writer wins on key collision.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxRows int

	// now is injectable for tests.
	now func() time.Time
}

// New creates a ResultCache. Non-positive ttl/maxRows fall back to defaults.
func New(ttl time.Duration, maxRows int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &ResultCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxRows: maxRows,
		now:     time.Now,
	}
}

// Get returns a copy of the cached outcome for key, if present and fresh.
// Expired entries are evicted lazily on lookup.
func (c *ResultCache) Get(key string) (*core.Outcome, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expires) {
		c.mu.Lock()
		// re-check under the write lock; another writer may have refreshed
		if cur, ok := c.entries[key]; ok && c.now().After(cur.expires) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.outcome.Clone(), true
}

// Put stores a size-bounded copy of outcome under key with a fresh TTL.
// Only successful outcomes are worth storing; failures are cheap to recompute
// and should not be pinned for the TTL.
func (c *ResultCache) Put(key string, outcome *core.Outcome) {
	if outcome == nil || !outcome.Success {
		return
	}
	stored := outcome.Clone()
	if len(stored.Rows) > c.maxRows {
		stored.Rows = stored.Rows[:c.maxRows]
		stored.RowCount = len(stored.Rows)
	}
	c.mu.Lock()
	c.entries[key] = entry{outcome: *stored, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// Len reports the number of live entries (including not-yet-evicted expired
// ones); used for observability and tests.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// SetClock overrides the cache's time source. Tests only.
func (c *ResultCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
