package compiler

import (
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/sqlgen"
)

// Compiler compiles domain queries into SQL for one connector
type Compiler struct {
	ctx       *Context
	generator sqlgen.Generator
}

// NewCompiler creates a new query compiler
func NewCompiler(ctx *Context) *Compiler {
	return &Compiler{
		ctx:       ctx,
		generator: sqlgen.NewGenerator(ctx.Connector),
	}
}

// Context returns the compilation context
func (c *Compiler) Context() *Context {
	return c.ctx
}

// Generator returns the SQL generator used for rendering
func (c *Compiler) Generator() sqlgen.Generator {
	return c.generator
}

// Statement compiles a query into its statement tree
func (c *Compiler) Statement(query interface{}) (ast.Select, error) {
	switch q := query.(type) {
	case domain.FindManyQuery:
		return GetRecords(c.ctx, q)
	case *domain.FindManyQuery:
		return GetRecords(c.ctx, *q)
	case domain.AggregateQuery:
		return Aggregate(c.ctx, q)
	case *domain.AggregateQuery:
		return Aggregate(c.ctx, *q)
	case domain.GroupByQuery:
		return GroupByAggregate(c.ctx, q)
	case *domain.GroupByQuery:
		return GroupByAggregate(c.ctx, *q)
	default:
		return ast.Select{}, ErrUnsupportedQuery
	}
}

// Compile compiles a query into SQL and bind arguments
func (c *Compiler) Compile(query interface{}) (string, []interface{}, error) {
	sel, err := c.Statement(query)
	if err != nil {
		return "", nil, err
	}
	q, err := c.generator.Render(sel)
	if err != nil {
		return "", nil, err
	}
	return q.SQL, q.Args, nil
}
