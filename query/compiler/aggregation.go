package compiler

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/internal/debug"
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// subqueryAlias names the derived table scalar aggregates read from.
const subqueryAlias = "sub"

// AggregateAlias is the output column name of an aggregate, such as
// "_count._all" or "_sum.age".
func AggregateAlias(fn domain.AggregateFunc, name string) string {
	return "_" + string(fn) + "." + name
}

// Aggregate compiles aggregates over the whole filtered and paginated set.
// The base read becomes a subquery aliased "sub" and the aggregates
// reference its columns unqualified.
func Aggregate(ctx *Context, query domain.AggregateQuery) (ast.Select, error) {
	model := query.Args.Model

	inner, _, err := IntoSelect(ctx, model, query.Args, nil)
	if err != nil {
		return ast.Select{}, err
	}
	inner.Comment = ""

	ref := inner.Table.Ref()
	for _, f := range extractColumns(model, query.Selections) {
		inner = inner.Column(fieldColumn(f, ref))
	}

	outer := ast.From(ast.FromSelect(inner, subqueryAlias))
	for _, s := range query.Selections {
		projections, err := aggregateProjections(s, func(f *schema.ScalarField) ast.Expression {
			return ast.Column{Name: f.DBName}
		})
		if err != nil {
			return ast.Select{}, err
		}
		for _, p := range projections {
			outer = outer.Column(p)
		}
	}
	if len(outer.Columns) == 0 {
		return ast.Select{}, fmt.Errorf("%w: aggregate without selections", ErrInvalidQuery)
	}
	outer.Comment = ctx.comment()

	debug.Component("compiler").Debug("compiled aggregate",
		"model", model.Name,
		"selections", len(query.Selections),
		"trace_id", ctx.TraceID,
	)
	return outer, nil
}

// aggregateProjections renders one selection. Plain fields are projected
// as they are.
func aggregateProjections(s domain.AggregationSelection, column func(*schema.ScalarField) ast.Expression) ([]ast.Expression, error) {
	var out []ast.Expression
	each := func(fn domain.AggregateFunc, fields []*schema.ScalarField) {
		for _, f := range fields {
			out = append(out, ast.As(aggregateExpr(fn, column(f)), AggregateAlias(fn, f.Name)))
		}
	}

	switch s := s.(type) {
	case domain.FieldSelection:
		for _, f := range s.Fields {
			out = append(out, column(f))
		}
	case domain.CountSelection:
		if s.All {
			out = append(out, ast.As(ast.CountAll(), AggregateAlias(domain.AggCount, "_all")))
		}
		each(domain.AggCount, s.Fields)
	case domain.AverageSelection:
		each(domain.AggAvg, s.Fields)
	case domain.SumSelection:
		each(domain.AggSum, s.Fields)
	case domain.MinSelection:
		each(domain.AggMin, s.Fields)
	case domain.MaxSelection:
		each(domain.AggMax, s.Fields)
	default:
		panic(fmt.Sprintf("aggregation: unhandled selection %T", s))
	}
	return out, nil
}

// extractColumns lists the fields the inner read must project, unique by
// database name. A count without fields projects the primary identifier.
func extractColumns(model *schema.Model, selections []domain.AggregationSelection) []*schema.ScalarField {
	var fields []*schema.ScalarField
	seen := make(map[string]bool)
	add := func(fs []*schema.ScalarField) {
		for _, f := range fs {
			if seen[f.DBName] {
				continue
			}
			seen[f.DBName] = true
			fields = append(fields, f)
		}
	}

	for _, s := range selections {
		switch s := s.(type) {
		case domain.FieldSelection:
			add(s.Fields)
		case domain.CountSelection:
			if len(s.Fields) == 0 {
				add(model.PrimaryIdentifier())
			} else {
				add(s.Fields)
			}
		case domain.AverageSelection:
			add(s.Fields)
		case domain.SumSelection:
			add(s.Fields)
		case domain.MinSelection:
			add(s.Fields)
		case domain.MaxSelection:
			add(s.Fields)
		}
	}
	return fields
}

// GroupByAggregate compiles aggregates per group directly on the base read.
// The HAVING filter is built without top-level joins.
func GroupByAggregate(ctx *Context, query domain.GroupByQuery) (ast.Select, error) {
	model := query.Args.Model
	if len(query.By) == 0 {
		return ast.Select{}, fmt.Errorf("%w: group-by needs at least one field", ErrInvalidQuery)
	}
	if query.Args.HasCursor() {
		return ast.Select{}, fmt.Errorf("%w: group-by does not support cursors", ErrInvalidQuery)
	}
	if query.Args.NeedsReversedOrder() && len(query.Args.OrderBy) == 0 {
		return ast.Select{}, fmt.Errorf("%w: group-by with a negative take needs an ordering", ErrInvalidQuery)
	}

	sel, _, err := IntoSelect(ctx, model, query.Args, nil)
	if err != nil {
		return ast.Select{}, err
	}
	ref := sel.Table.Ref()

	grouped := make(map[*schema.ScalarField]bool, len(query.By))
	for _, f := range query.By {
		grouped[f] = true
	}

	column := func(f *schema.ScalarField) ast.Expression { return fieldColumn(f, ref) }
	for _, s := range query.Selections {
		if fs, ok := s.(domain.FieldSelection); ok {
			for _, f := range fs.Fields {
				if !grouped[f] {
					return ast.Select{}, fmt.Errorf("%w: field %s is selected but not grouped by", ErrInvalidQuery, f.Name)
				}
				sel = sel.Column(column(f))
			}
			continue
		}
		projections, err := aggregateProjections(s, column)
		if err != nil {
			return ast.Select{}, err
		}
		for _, p := range projections {
			sel = sel.Column(p)
		}
	}

	for _, f := range query.By {
		sel = sel.Group(column(f))
	}

	having, _, err := NewFilterBuilder(ctx, model, ref, false).Build(query.Having)
	if err != nil {
		return ast.Select{}, err
	}
	sel.Having = having

	debug.Component("compiler").Debug("compiled group-by",
		"model", model.Name,
		"groups", len(query.By),
		"having", !having.IsTrivial(),
		"trace_id", ctx.TraceID,
	)
	return sel, nil
}
