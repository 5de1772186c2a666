// Package executor drives the execution pipeline for one SQL request:
// validate, execute under a hard timeout, retry once through the external
// code-generation collaborator on a fixable error, synthesize a row-count
// query for paginated statements, truncate oversized results, and return a
// structured outcome. Adapters live for exactly one call and are closed on
// every exit path.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/querypilot/querypilot/internal/cache"
	"github.com/querypilot/querypilot/pkg/adapter"
	"github.com/querypilot/querypilot/pkg/core"
	"github.com/querypilot/querypilot/pkg/sqlfix"
	"github.com/querypilot/querypilot/pkg/sqlguard"
)

// Default limits. The query timeout is a hard circuit-breaker independent of
// any driver-side timeout; the count timeout is deliberately much shorter
// because a missing total count only degrades the outcome.
const (
	DefaultQueryTimeout = 10 * time.Minute
	DefaultCountTimeout = 30 * time.Second
	DefaultMaxRows      = 10000
)

// ErrQueryTimeout marks a wall-clock timeout. For retry purposes it is an
// execution error like any other.
var ErrQueryTimeout = errors.New("query timed out")

// Limits bounds one execution.
type Limits struct {
	QueryTimeout time.Duration
	CountTimeout time.Duration
	MaxRows      int
}

func (l Limits) withDefaults() Limits {
	if l.QueryTimeout <= 0 {
		l.QueryTimeout = DefaultQueryTimeout
	}
	if l.CountTimeout <= 0 {
		l.CountTimeout = DefaultCountTimeout
	}
	if l.MaxRows <= 0 {
		l.MaxRows = DefaultMaxRows
	}
	return l
}

// Regenerator is the external code-generation collaborator, consulted once
// per request when an execution error is classified fixable. A return of
// "" (or a candidate textually identical to the original) means no fix is
// available.
type Regenerator interface {
	Regenerate(ctx context.Context, sql, errText string, engine core.EngineType) (string, error)
}

// RegeneratorFunc adapts a function to the Regenerator interface.
type RegeneratorFunc func(ctx context.Context, sql, errText string, engine core.EngineType) (string, error)

// Regenerate implements Regenerator.
func (f RegeneratorFunc) Regenerate(ctx context.Context, sql, errText string, engine core.EngineType) (string, error) {
	return f(ctx, sql, errText, engine)
}

// Opener builds and connects an adapter for a connection config.
// adapter.Open is the production implementation; tests substitute fakes.
type Opener func(ctx context.Context, cfg core.ConnConfig, logger *slog.Logger) (adapter.Adapter, error)

// Request is one inbound execution call.
type Request struct {
	SQL    string
	Engine core.EngineType
	Conn   core.ConnConfig
	Title  string
}

// Config wires an Executor's collaborators explicitly; there is no global
// state. A nil Opener uses adapter.Open, a nil Regenerator disables the
// auto-fix retry, a nil Cache disables caching.
type Config struct {
	Opener      Opener
	Regenerator Regenerator
	Cache       *cache.ResultCache
	Limits      Limits
	Logger      *slog.Logger
}

// Executor runs SQL requests against heterogeneous engines behind one
// contract. Safe for concurrent use: each call builds and closes its own
// adapter.
type Executor struct {
	open   Opener
	regen  Regenerator
	cache  *cache.ResultCache
	limits Limits
	logger *slog.Logger
	group  singleflight.Group
}

// New creates an Executor from cfg.
func New(cfg Config) *Executor {
	open := cfg.Opener
	if open == nil {
		open = adapter.Open
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{
		open:   open,
		regen:  cfg.Regenerator,
		cache:  cfg.Cache,
		limits: cfg.Limits.withDefaults(),
		logger: logger,
	}
}

// Execute runs one request through the full pipeline and always returns a
// structured outcome, never an error: terminal failures surface as
// Outcome{Success: false, Error: ...}.
func (e *Executor) Execute(ctx context.Context, req Request) *core.Outcome {
	req.Conn.Type = req.Engine
	logger := e.logger.With("query_id", uuid.NewString()[:8], "engine", req.Engine)

	cacheable := e.cache != nil && cache.Cacheable(req.SQL)
	if !cacheable {
		return e.run(ctx, req, logger)
	}

	key := cache.Key(req.SQL, req.Conn)
	if hit, ok := e.cache.Get(key); ok {
		logger.Debug("cache hit", "key", key[:12])
		hit.ExecutedQuery = req.SQL
		hit.Cached = true
		if req.Title != "" {
			hit.Title = req.Title
		}
		return hit
	}

	// Collapse concurrent identical calls into one execution; extra waiters
	// get their own copy of the shared outcome.
	v, _, shared := e.group.Do(key, func() (any, error) {
		out := e.run(ctx, req, logger)
		if out.Success {
			e.cache.Put(key, out)
		}
		return out, nil
	})
	out := v.(*core.Outcome)
	if shared {
		out = out.Clone()
	}
	return out
}

// run is the sequential pipeline within one call:
// validate -> execute -> (one retry) -> count -> truncate.
func (e *Executor) run(ctx context.Context, req Request, logger *slog.Logger) *core.Outcome {
	if verdict := sqlguard.Validate(req.SQL); !verdict.OK {
		logger.Warn("validation rejected query", "reason", verdict.Reason)
		return core.Failed(req.SQL, "validation failed: "+verdict.Reason)
	}

	a, err := e.open(ctx, req.Conn, logger)
	if err != nil {
		logger.Error("adapter connection failed", "error", err)
		return core.Failed(req.SQL, fmt.Sprintf("connection failed: %v", err))
	}
	defer func() { _ = a.Close() }()

	start := time.Now()
	executed := req.SQL
	rows, execErr := e.execWithTimeout(ctx, a, executed, e.limits.QueryTimeout)

	// Exactly one auto-fix attempt is permitted; the bound is structural,
	// not a configurable retry policy.
	if execErr != nil && e.regen != nil && sqlfix.Fixable(execErr, req.Engine) {
		if candidate := e.regenerate(ctx, req, execErr, logger); candidate != "" {
			executed = candidate
			rows, execErr = e.execWithTimeout(ctx, a, candidate, e.limits.QueryTimeout)
		}
	}

	elapsed := time.Since(start).Milliseconds()

	if execErr != nil {
		logger.Warn("query failed", "category", sqlfix.Categorize(execErr), "error", execErr)
		out := core.Failed(executed, humanMessage(execErr, e.limits.QueryTimeout))
		out.ExecutionTimeMs = elapsed
		return out
	}

	out := &core.Outcome{
		Success:         true,
		ExecutedQuery:   executed,
		ExecutionTimeMs: elapsed,
		Title:           req.Title,
	}

	if HasLimit(executed) {
		out.TotalCount = e.fetchTotalCount(ctx, a, executed, logger)
	}

	if len(rows) > e.limits.MaxRows {
		logger.Debug("truncating result set", "rows", len(rows), "max", e.limits.MaxRows)
		rows = rows[:e.limits.MaxRows]
	}
	out.Rows = rows
	out.RowCount = len(rows)

	logger.Info("query executed", "rows", out.RowCount, "elapsed_ms", elapsed)
	return out
}

// regenerate asks the collaborator for a corrected rewrite and vets it.
// An empty, identical, or invalid candidate yields "" and the caller fails
// terminally with the original error.
func (e *Executor) regenerate(ctx context.Context, req Request, execErr error, logger *slog.Logger) string {
	logger.Info("requesting corrected rewrite", "error", execErr)
	candidate, err := e.regen.Regenerate(ctx, req.SQL, execErr.Error(), req.Engine)
	if err != nil {
		logger.Warn("rewrite request failed", "error", err)
		return ""
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || candidate == strings.TrimSpace(req.SQL) {
		logger.Info("no fix available from collaborator")
		return ""
	}
	if verdict := sqlguard.Validate(candidate); !verdict.OK {
		logger.Warn("rewritten query rejected by validation", "reason", verdict.Reason)
		return ""
	}
	return candidate
}

// execWithTimeout executes sql under a hard wall-clock ceiling. A result
// arriving after the cutoff is discarded: the goroutine writes into a
// buffered channel nobody reads, and the server-side query may keep running.
// The select cuts off even drivers that ignore context cancellation.
func (e *Executor) execWithTimeout(ctx context.Context, a adapter.Adapter, sql string, timeout time.Duration) ([]core.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		rows []core.Row
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		rows, err := a.ExecuteQuery(ctx, sql)
		ch <- result{rows, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) {
			return nil, ErrQueryTimeout
		}
		return r.rows, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrQueryTimeout
		}
		return nil, ctx.Err()
	}
}

// fetchTotalCount runs the synthesized count query under its own shorter
// timeout. Failure is non-fatal: the total is simply omitted.
func (e *Executor) fetchTotalCount(ctx context.Context, a adapter.Adapter, sql string, logger *slog.Logger) *int64 {
	countSQL := BuildCountQuery(sql)

	rows, err := e.execWithTimeout(ctx, a, countSQL, e.limits.CountTimeout)
	if err != nil {
		logger.Debug("count query failed, omitting total", "error", err)
		return nil
	}
	n, ok := extractCount(rows)
	if !ok {
		logger.Debug("count query returned no usable total")
		return nil
	}
	return &n
}

// humanMessage renders an execution error for callers, who never receive
// raw driver errors or stack traces.
func humanMessage(err error, timeout time.Duration) string {
	if errors.Is(err, ErrQueryTimeout) {
		return fmt.Sprintf("query timed out after %s", timeout)
	}
	category := sqlfix.Categorize(err)
	if category == core.CategoryUnknown {
		return fmt.Sprintf("query execution failed: %v", err)
	}
	return fmt.Sprintf("query execution failed (%s error): %v", category, err)
}
