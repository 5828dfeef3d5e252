// Package query ties the compiler, the SQL renderers and the executor
// together: domain queries go in, SQL text or records come out.
package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/satishbabariya/prisma-query-engine/internal/debug"
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/cache"
	"github.com/satishbabariya/prisma-query-engine/query/compiler"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/document"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/executor"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
	"github.com/satishbabariya/prisma-query-engine/query/sqlgen"
)

// ErrNoDatabase is returned by executing methods of an engine built
// without a database handle.
var ErrNoDatabase = errors.New("engine has no database")

// Engine compiles and runs reads for one catalog and connector.
type Engine struct {
	catalog   *schema.Catalog
	connector *connector.Connector
	generator sqlgen.Generator
	executor  *executor.Executor

	schemaName string
	tracing    bool
}

type config struct {
	schemaName string
	tracing    bool
	execOpts   []executor.Option
}

// Option configures an Engine.
type Option func(*config)

// WithSchemaName sets the default database schema of unqualified tables.
func WithSchemaName(name string) Option {
	return func(c *config) {
		c.schemaName = name
	}
}

// WithTracing tags every statement with a fresh trace id comment.
func WithTracing() Option {
	return func(c *config) {
		c.tracing = true
	}
}

// WithResultCache memoizes read results for ttl.
func WithResultCache(c cache.Cache, ttl time.Duration) Option {
	return func(cfg *config) {
		cfg.execOpts = append(cfg.execOpts, executor.WithResultCache(c, ttl))
	}
}

// WithoutPreparedStatements disables the prepared statement cache.
func WithoutPreparedStatements() Option {
	return func(c *config) {
		c.execOpts = append(c.execOpts, executor.WithoutPreparedStatements())
	}
}

// NewEngine creates an engine. db may be nil for an engine that only
// compiles.
func NewEngine(catalog *schema.Catalog, conn *connector.Connector, db *sql.DB, opts ...Option) *Engine {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		catalog:    catalog,
		connector:  conn,
		generator:  sqlgen.NewGenerator(conn),
		schemaName: cfg.schemaName,
		tracing:    cfg.tracing,
	}
	if db != nil {
		e.executor = executor.New(db, e.generator, cfg.execOpts...)
	}
	return e
}

// Catalog returns the catalog queries are compiled against
func (e *Engine) Catalog() *schema.Catalog {
	return e.catalog
}

// Connector returns the target connector
func (e *Engine) Connector() *connector.Connector {
	return e.connector
}

// Executor returns the executor, nil when the engine has no database
func (e *Engine) Executor() *executor.Executor {
	return e.executor
}

// Close releases prepared statements.
func (e *Engine) Close() {
	if e.executor != nil {
		e.executor.ClearStmtCache()
	}
}

func (e *Engine) context() *compiler.Context {
	opts := []compiler.Option{compiler.WithSchemaName(e.schemaName)}
	if e.tracing {
		opts = append(opts, compiler.WithNewTraceID())
	}
	return compiler.NewContext(e.catalog, e.connector, opts...)
}

// prepareFindMany moves distinct and pagination out of the statement when
// the connector cannot deduplicate in SQL for this ordering.
func prepareFindMany(ctx *compiler.Context, q domain.FindManyQuery) (domain.FindManyQuery, executor.ReadOptions) {
	opts := executor.ReadOptions{Direction: q.Args.Direction}
	if !compiler.NeedsInMemoryDistinct(ctx, q.Args) {
		return q, opts
	}

	for _, f := range q.Args.Distinct {
		opts.Distinct = append(opts.Distinct, f.DBName)
	}
	if !q.Args.IgnoreSkip {
		opts.Skip = q.Args.Skip
	}
	if !q.Args.IgnoreTake {
		opts.Take = q.Args.Take
	}
	q.Args.IgnoreSkip = true
	q.Args.IgnoreTake = true
	return q, opts
}

func (e *Engine) render(sel ast.Select) (*sqlgen.Query, error) {
	q, err := e.generator.Render(sel)
	if err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return q, nil
}

func (e *Engine) compileStatement(q interface{}) (*sqlgen.Query, error) {
	sel, err := compiler.NewCompiler(e.context()).Statement(q)
	if err != nil {
		return nil, err
	}
	return e.render(sel)
}

// CompileFindMany compiles a findMany into the statement FindMany would run.
func (e *Engine) CompileFindMany(q domain.FindManyQuery) (*sqlgen.Query, error) {
	ctx := e.context()
	q, _ = prepareFindMany(ctx, q)
	sel, err := compiler.GetRecords(ctx, q)
	if err != nil {
		return nil, err
	}
	return e.render(sel)
}

// CompileAggregate compiles an aggregate.
func (e *Engine) CompileAggregate(q domain.AggregateQuery) (*sqlgen.Query, error) {
	return e.compileStatement(q)
}

// CompileGroupBy compiles a group-by.
func (e *Engine) CompileGroupBy(q domain.GroupByQuery) (*sqlgen.Query, error) {
	return e.compileStatement(q)
}

// Compile compiles a parsed document.
func (e *Engine) Compile(op *document.Operation) (*sqlgen.Query, error) {
	switch q := op.Query.(type) {
	case domain.FindManyQuery:
		return e.CompileFindMany(q)
	case domain.AggregateQuery:
		return e.CompileAggregate(q)
	case domain.GroupByQuery:
		return e.CompileGroupBy(q)
	}
	return nil, fmt.Errorf("%w: %T", compiler.ErrUnsupportedQuery, op.Query)
}

// FindMany reads records. Backward takes come back in the requested order.
func (e *Engine) FindMany(ctx context.Context, q domain.FindManyQuery) ([]executor.Record, error) {
	if e.executor == nil {
		return nil, ErrNoDatabase
	}
	cctx := e.context()
	q, opts := prepareFindMany(cctx, q)
	sel, err := compiler.GetRecords(cctx, q)
	if err != nil {
		return nil, err
	}
	debug.Component("engine").Debug("find many",
		"model", q.Args.Model.Name,
		"in_memory_distinct", len(opts.Distinct) > 0,
		"trace_id", cctx.TraceID,
	)
	return e.executor.FindMany(ctx, sel, opts)
}

// FindFirst reads the first record, or executor.ErrNoRows.
func (e *Engine) FindFirst(ctx context.Context, q domain.FindManyQuery) (executor.Record, error) {
	one := 1
	q.Args.Take = &one
	records, err := e.FindMany(ctx, q)
	if err != nil {
		return executor.Record{}, err
	}
	if len(records) == 0 {
		return executor.Record{}, executor.ErrNoRows
	}
	return records[0], nil
}

// Aggregate computes aggregates over the filtered set.
func (e *Engine) Aggregate(ctx context.Context, q domain.AggregateQuery) (executor.Record, error) {
	if e.executor == nil {
		return executor.Record{}, ErrNoDatabase
	}
	sel, err := compiler.Aggregate(e.context(), q)
	if err != nil {
		return executor.Record{}, err
	}
	return e.executor.Aggregate(ctx, sel)
}

// GroupBy computes aggregates per group. Groups of a backward read come
// back in the requested order.
func (e *Engine) GroupBy(ctx context.Context, q domain.GroupByQuery) ([]executor.Record, error) {
	if e.executor == nil {
		return nil, ErrNoDatabase
	}
	sel, err := compiler.GroupByAggregate(e.context(), q)
	if err != nil {
		return nil, err
	}
	return e.executor.GroupBy(ctx, sel, executor.ReadOptions{Direction: q.Args.Direction})
}

// Execute runs a parsed document. findFirst yields at most one record and
// aggregate exactly one.
func (e *Engine) Execute(ctx context.Context, op *document.Operation) ([]executor.Record, error) {
	switch q := op.Query.(type) {
	case domain.FindManyQuery:
		if op.Action != document.ActionFindFirst {
			return e.FindMany(ctx, q)
		}
		r, err := e.FindFirst(ctx, q)
		if errors.Is(err, executor.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []executor.Record{r}, nil
	case domain.AggregateQuery:
		r, err := e.Aggregate(ctx, q)
		if err != nil {
			return nil, err
		}
		return []executor.Record{r}, nil
	case domain.GroupByQuery:
		return e.GroupBy(ctx, q)
	}
	return nil, fmt.Errorf("%w: %T", compiler.ErrUnsupportedQuery, op.Query)
}
