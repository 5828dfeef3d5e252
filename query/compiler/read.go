package compiler

import (
	"github.com/satishbabariya/prisma-query-engine/internal/debug"
	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// IntoSelect compiles query arguments into a statement over the model's
// table without projections. It returns the statement and the extra
// columns the nested relation counts need.
//
// Joins are folded in a fixed order: ordering joins, then relation count
// joins, then filter joins. The cursor condition is ANDed after the filter.
func IntoSelect(ctx *Context, model *schema.Model, args domain.QueryArguments, counts []domain.RelationCount) (ast.Select, []ast.Expression, error) {
	table := ctx.modelTable(model)
	ref := table.Ref()

	defs := readOrdering(ctx, model, ref, args)

	cursor, err := CursorCondition(ctx, args, ref, defs)
	if err != nil {
		return ast.Select{}, nil, err
	}

	aggJoins, aggColumns, err := relationCountJoins(ctx, model, ref, counts)
	if err != nil {
		return ast.Select{}, nil, err
	}

	filter, filterJoins, err := NewFilterBuilder(ctx, model, ref, true).Build(args.Filter)
	if err != nil {
		return ast.Select{}, nil, err
	}

	var joins joinSet
	for _, def := range defs {
		joins.add(def.Joins...)
	}
	joins.add(aggJoins...)
	joins.add(filterJoins...)

	sel := ast.From(table.WithJoins(joins.joins...)).
		Where(filter.AndThen(cursor)).
		WithOffset(args.EffectiveSkip())

	for _, def := range defs {
		sel = sel.OrderBy(def.Definition)
	}
	if take, ok := args.EffectiveTake(); ok {
		sel = sel.WithLimit(take)
	}
	if ctx.capabilities().DistinctOn && distinctOnCompatible(defs, args.Distinct) {
		for _, f := range args.Distinct {
			sel.DistinctOn = append(sel.DistinctOn, fieldColumn(f, ref))
		}
	}
	sel.Comment = ctx.comment()

	debug.Component("compiler").Debug("compiled select",
		"model", model.Name,
		"joins", len(sel.Table.Joins),
		"orderings", len(defs),
		"cursor", !cursor.IsTrivial(),
		"trace_id", ctx.TraceID,
	)

	return sel, aggColumns, nil
}

// readOrdering resolves the ordering of a read. A cursor or backward read
// without one sorts by the primary identifier.
func readOrdering(ctx *Context, model *schema.Model, ref string, args domain.QueryArguments) []OrderByDefinition {
	if len(args.OrderBy) == 0 && (args.HasCursor() || args.NeedsReversedOrder()) {
		return primaryKeyOrdering(ctx, model, ref, args.NeedsReversedOrder())
	}
	return NewOrderByBuilder(ctx, model, ref, args.NeedsReversedOrder()).Build(args.OrderBy)
}

// distinctOnCompatible reports whether DISTINCT ON over the fields agrees
// with the ordering: the leading ORDER BY terms must be exactly those fields.
func distinctOnCompatible(defs []OrderByDefinition, distinct []*schema.ScalarField) bool {
	if len(distinct) == 0 {
		return false
	}
	if len(defs) == 0 {
		return true
	}
	if len(defs) < len(distinct) {
		return false
	}

	wanted := make(map[*schema.ScalarField]bool, len(distinct))
	for _, f := range distinct {
		wanted[f] = true
	}
	for _, def := range defs[:len(distinct)] {
		if def.Field == nil || len(def.Joins) > 0 || !wanted[def.Field] {
			return false
		}
		delete(wanted, def.Field)
	}
	return len(wanted) == 0
}

// GetRecords compiles a findMany: the selected scalar fields (every
// supported field when selection is empty) plus nested relation counts.
// Spatial columns are read through AS_TEXT unless the connector reads raw
// geometry.
func GetRecords(ctx *Context, query domain.FindManyQuery) (ast.Select, error) {
	model := query.Args.Model
	sel, extra, err := IntoSelect(ctx, model, query.Args, query.Counts)
	if err != nil {
		return ast.Select{}, err
	}

	ref := sel.Table.Ref()
	for _, f := range SelectedFields(model, query.Selection) {
		sel = sel.Column(readExpression(ctx, f, ref))
	}
	for _, e := range extra {
		sel = sel.Column(e)
	}
	return sel, nil
}

// SelectedFields resolves a selection, defaulting to every field that has
// a supported type.
func SelectedFields(model *schema.Model, selection []*schema.ScalarField) []*schema.ScalarField {
	if len(selection) > 0 {
		return selection
	}
	fields := make([]*schema.ScalarField, 0, len(model.Fields))
	for _, f := range model.Fields {
		if f.Type != schema.TypeUnsupported {
			fields = append(fields, f)
		}
	}
	return fields
}

func readExpression(ctx *Context, f *schema.ScalarField, ref string) ast.Expression {
	col := fieldColumn(f, ref)
	if col.Family != nil && col.Family.IsSpatial() && !ctx.capabilities().RawGeometryRead {
		return ast.As(ast.Call(ast.FuncAsText, col), f.DBName)
	}
	return col
}

// NeedsInMemoryDistinct reports whether distinct cannot be expressed as
// DISTINCT ON for these arguments and must be applied after fetching. Such
// reads are compiled with IgnoreSkip and IgnoreTake so pagination can run
// after deduplication.
func NeedsInMemoryDistinct(ctx *Context, args domain.QueryArguments) bool {
	if len(args.Distinct) == 0 {
		return false
	}
	if !ctx.capabilities().DistinctOn {
		return true
	}
	defs := readOrdering(ctx, args.Model, ctx.modelTable(args.Model).Ref(), args)
	return !distinctOnCompatible(defs, args.Distinct)
}
