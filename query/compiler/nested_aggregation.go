package compiler

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// RelationCountColumn is the output name of a nested relation count.
func RelationCountColumn(rf *schema.RelationField) string {
	return "_aggr_count_" + rf.Name
}

// relationCountJoins compiles nested relation counts into LEFT JOINs over
// grouped subqueries, one per request, and the COALESCE projections reading
// them.
func relationCountJoins(ctx *Context, model *schema.Model, tableRef string, counts []domain.RelationCount) ([]ast.Join, []ast.Expression, error) {
	joins := make([]ast.Join, 0, len(counts))
	columns := make([]ast.Expression, 0, len(counts))

	for i, rc := range counts {
		if !rc.Field.IsList {
			return nil, nil, fmt.Errorf("%w: _count over to-one relation %s.%s", ErrInvalidQuery, model.Name, rc.Field.Name)
		}

		related := ctx.Catalog.RelatedModel(rc.Field)
		alias := fmt.Sprintf("aggr_selection_%d_%s", i, related.Name)
		countColumn := RelationCountColumn(rc.Field)

		childRef := related.DBName
		fb := NewFilterBuilder(ctx, related, childRef, true)
		cond, filterJoins, err := fb.Build(rc.Filter)
		if err != nil {
			return nil, nil, err
		}

		_, remote := ctx.Catalog.JoinFields(rc.Field)
		child := ast.From(ctx.modelTable(related).WithJoins(filterJoins...)).Where(cond)
		for _, f := range remote {
			col := fieldColumn(f, childRef)
			child = child.Column(col).Group(col)
		}
		child = child.Column(ast.As(ast.CountAll(), countColumn))

		joins = append(joins, ast.Join{
			Kind:  ast.LeftJoin,
			Table: ast.FromSelect(child, alias),
			On:    joinCondition(ctx, rc.Field, tableRef, alias),
		})

		coalesced := ast.Call(ast.FuncCoalesce, ast.Col(alias, countColumn), ast.Int64(0))
		columns = append(columns, ast.As(coalesced, countColumn))
	}

	return joins, columns, nil
}
