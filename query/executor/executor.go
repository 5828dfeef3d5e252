// Package executor runs compiled statements through database/sql and maps
// rows into records.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/satishbabariya/prisma-query-engine/internal/debug"
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/cache"
	"github.com/satishbabariya/prisma-query-engine/query/sqlgen"
)

// stmtCache holds prepared statements by SQL text. It is shared between an
// executor and the transactional executors derived from it.
type stmtCache struct {
	mu    sync.RWMutex
	stmts map[string]*sql.Stmt
}

// Executor renders and executes statements
type Executor struct {
	db        *sql.DB
	tx        *sql.Tx
	generator sqlgen.Generator
	stmts     *stmtCache
	prepare   bool

	results   cache.Cache
	resultTTL time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithResultCache memoizes read results outside transactions.
func WithResultCache(c cache.Cache, ttl time.Duration) Option {
	return func(e *Executor) {
		e.results = c
		e.resultTTL = ttl
	}
}

// WithoutPreparedStatements sends every statement unprepared.
func WithoutPreparedStatements() Option {
	return func(e *Executor) {
		e.prepare = false
	}
}

// New creates a new query executor
func New(db *sql.DB, gen sqlgen.Generator, opts ...Option) *Executor {
	e := &Executor{
		db:        db,
		generator: gen,
		stmts:     &stmtCache{stmts: make(map[string]*sql.Stmt)},
		prepare:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generator returns the renderer statements go through
func (e *Executor) Generator() sqlgen.Generator {
	return e.generator
}

// getCachedStmt gets a cached prepared statement or creates a new one
func (e *Executor) getCachedStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	e.stmts.mu.RLock()
	stmt, ok := e.stmts.stmts[query]
	e.stmts.mu.RUnlock()
	if ok {
		return stmt, nil
	}

	stmt, err := e.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	e.stmts.mu.Lock()
	defer e.stmts.mu.Unlock()
	if existing, ok := e.stmts.stmts[query]; ok {
		stmt.Close()
		return existing, nil
	}
	e.stmts.stmts[query] = stmt
	return stmt, nil
}

// ClearStmtCache closes and forgets every prepared statement
func (e *Executor) ClearStmtCache() {
	e.stmts.mu.Lock()
	defer e.stmts.mu.Unlock()

	for _, stmt := range e.stmts.stmts {
		stmt.Close()
	}
	e.stmts.stmts = make(map[string]*sql.Stmt)
}

func (e *Executor) query(ctx context.Context, q *sqlgen.Query) (*sql.Rows, error) {
	if e.tx != nil {
		// Preparing on the pool would need a second connection while the
		// transaction holds one, so only already prepared statements are
		// rebound.
		e.stmts.mu.RLock()
		stmt, ok := e.stmts.stmts[q.SQL]
		e.stmts.mu.RUnlock()
		if ok && e.prepare {
			return e.tx.StmtContext(ctx, stmt).QueryContext(ctx, q.Args...)
		}
		return e.tx.QueryContext(ctx, q.SQL, q.Args...)
	}
	if !e.prepare {
		return e.db.QueryContext(ctx, q.SQL, q.Args...)
	}

	stmt, err := e.getCachedStmt(ctx, q.SQL)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, q.Args...)
}

// Query renders a statement and returns every row in query order.
func (e *Executor) Query(ctx context.Context, op string, sel ast.Select) ([]Record, error) {
	model := modelName(sel)

	q, err := e.generator.Render(sel)
	if err != nil {
		return nil, newQueryError(op, model, "", err)
	}

	useCache := e.results != nil && e.tx == nil
	var key string
	if useCache {
		key = cache.Key(model, q.SQL, q.Args)
		if v, ok := e.results.Get(key); ok {
			debug.Component("executor").Debug("result cache hit", "op", op, "model", model)
			return copyRecords(v.([]Record)), nil
		}
	}

	debug.Component("executor").Debug("executing statement",
		"op", op,
		"model", model,
		"sql", q.SQL,
		"args", len(q.Args),
		"tx", e.tx != nil,
	)

	rows, err := e.query(ctx, q)
	if err != nil {
		return nil, newQueryError(op, model, q.SQL, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, newQueryError(op, model, q.SQL, err)
	}

	if useCache {
		e.results.Set(key, copyRecords(records), e.resultTTL)
	}
	return records, nil
}

// FindMany executes a compiled read and post-processes the rows.
func (e *Executor) FindMany(ctx context.Context, sel ast.Select, opts ReadOptions) ([]Record, error) {
	records, err := e.Query(ctx, "findMany", sel)
	if err != nil {
		return nil, err
	}
	records, err = postProcess(records, opts)
	if err != nil {
		return nil, newQueryError("findMany", modelName(sel), "", err)
	}
	return records, nil
}

// FindFirst executes a compiled read and returns its first record.
func (e *Executor) FindFirst(ctx context.Context, sel ast.Select, opts ReadOptions) (Record, error) {
	records, err := e.FindMany(ctx, sel, opts)
	if err != nil {
		return Record{}, err
	}
	if len(records) == 0 {
		return Record{}, newQueryError("findFirst", modelName(sel), "", ErrNoRows)
	}
	return records[0], nil
}

// Aggregate executes a compiled aggregate, which yields exactly one row.
func (e *Executor) Aggregate(ctx context.Context, sel ast.Select) (Record, error) {
	records, err := e.Query(ctx, "aggregate", sel)
	if err != nil {
		return Record{}, err
	}
	if len(records) != 1 {
		return Record{}, newQueryError("aggregate", modelName(sel), "",
			fmt.Errorf("expected one row, got %d", len(records)))
	}
	return records[0], nil
}

// GroupBy executes a compiled group by and returns one record per group,
// in the requested order for backward reads.
func (e *Executor) GroupBy(ctx context.Context, sel ast.Select, opts ReadOptions) ([]Record, error) {
	records, err := e.Query(ctx, "groupBy", sel)
	if err != nil {
		return nil, err
	}
	records, err = postProcess(records, opts)
	if err != nil {
		return nil, newQueryError("groupBy", modelName(sel), "", err)
	}
	return records, nil
}

// Transaction runs fn with an executor bound to a new transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (e *Executor) Transaction(ctx context.Context, fn func(*Executor) error) (err error) {
	if e.tx != nil {
		return fn(e)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txe := *e
	txe.tx = tx

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(&txe)
}

// modelName finds the table a statement reads, looking through derived tables.
func modelName(sel ast.Select) string {
	t := sel.Table
	for t.Sub != nil {
		t = t.Sub.Table
	}
	return t.Name
}

func copyRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = Record{Columns: r.Columns, Values: append([]interface{}(nil), r.Values...)}
	}
	return out
}
