package compiler

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// CursorCondition builds the seek predicate selecting the anchor row and
// every row after it under the resolved ordering.
//
// For orderings f1..fk the predicate is a disjunction of k terms where term
// i requires f1..f(i-1) to equal their anchors and fi to come strictly after
// its anchor; the last term compares inclusively. Without an ordering the
// primary identifier is used, ascending.
//
// An anchor is the cursor's value under the ordering key. Orderings the
// cursor does not name are read from the anchor row, located by the
// primary identifier values the cursor must then carry.
func CursorCondition(ctx *Context, args domain.QueryArguments, tableRef string, defs []OrderByDefinition) (ast.ConditionTree, error) {
	if !args.HasCursor() {
		return ast.True(), nil
	}

	if len(defs) == 0 {
		defs = primaryKeyOrdering(ctx, args.Model, tableRef, args.NeedsReversedOrder())
	}

	anchors := make([]cursorAnchor, len(defs))
	var row *anchorRow
	for i, def := range defs {
		if raw, ok := args.Cursor.Get(def.Key); ok {
			v, err := encodeAnchor(ctx, def, raw)
			if err != nil {
				return ast.ConditionTree{}, err
			}
			anchors[i] = cursorAnchor{value: v, null: domain.IsNull(raw)}
			continue
		}

		if row == nil {
			r, err := newAnchorRow(ctx, args)
			if err != nil {
				return ast.ConditionTree{}, fmt.Errorf("%w: cursor has no value for ordering %q: %v", ErrInvalidQuery, def.Key, err)
			}
			row = r
		}
		expr, err := row.read(args, i)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		anchors[i] = cursorAnchor{expr: expr}
	}

	caps := ctx.capabilities()
	terms := make([]ast.ConditionTree, 0, len(defs))
	for i, def := range defs {
		parts := make([]ast.ConditionTree, 0, i+1)
		for j := 0; j < i; j++ {
			parts = append(parts, anchors[j].equals(defs[j]))
		}

		inclusive := i == len(defs)-1
		first := nullsFirst(def.Definition, caps)
		parts = append(parts, anchors[i].after(def, inclusive, first))

		terms = append(terms, conjoin(parts...))
	}

	if len(terms) == 1 {
		return terms[0], nil
	}
	return disjoin(terms...), nil
}

// cursorAnchor is either a literal cursor value or a scalar subquery
// reading the ordered expression off the anchor row.
type cursorAnchor struct {
	value ast.Value
	null  bool
	expr  ast.Expression
}

func (a cursorAnchor) equals(def OrderByDefinition) ast.ConditionTree {
	if a.expr == nil {
		return anchorEquals(def, a.value, a.null)
	}
	eq := ast.Equals(def.Expr, a.expr)
	if !def.Nullable {
		return eq
	}
	return ast.Or(eq, ast.And(ast.IsNull(def.Expr), ast.IsNull(a.expr)))
}

func (a cursorAnchor) after(def OrderByDefinition, inclusive, nullsLead bool) ast.ConditionTree {
	if a.expr == nil {
		return anchorAfter(def, a.value, a.null, inclusive, nullsLead)
	}
	cmp := ast.Cmp(seekOperator(def, inclusive), def.Expr, a.expr)
	if !def.Nullable {
		return cmp
	}
	switch {
	case nullsLead && inclusive:
		return ast.Or(ast.IsNull(a.expr), cmp)
	case nullsLead:
		return ast.Or(ast.And(ast.IsNull(a.expr), ast.IsNotNull(def.Expr)), cmp)
	case inclusive:
		return ast.Or(cmp, ast.IsNull(def.Expr))
	default:
		return ast.Or(cmp, ast.And(ast.IsNull(def.Expr), ast.IsNotNull(a.expr)))
	}
}

const cursorAlias = "cursor"

// anchorRow selects the anchor row by its primary identifier.
type anchorRow struct {
	table ast.Table
	where ast.ConditionTree
	defs  []OrderByDefinition
}

func newAnchorRow(ctx *Context, args domain.QueryArguments) (*anchorRow, error) {
	model := args.Model
	conds := make([]ast.ConditionTree, 0, len(model.PrimaryKey))
	for _, f := range model.PrimaryIdentifier() {
		raw, ok := args.Cursor.Get(f.Name)
		if !ok || domain.IsNull(raw) {
			return nil, fmt.Errorf("no value for primary key field %q", f.Name)
		}
		v, err := Encode(f, raw, ctx)
		if err != nil {
			return nil, err
		}
		conds = append(conds, ast.Equals(fieldColumn(f, cursorAlias), v))
	}

	defs := NewOrderByBuilder(ctx, model, cursorAlias, args.NeedsReversedOrder()).
		withJoinPrefix(cursorAlias + "_orderby").
		Build(args.OrderBy)

	var joins joinSet
	for _, def := range defs {
		joins.add(def.Joins...)
	}
	return &anchorRow{
		table: ctx.modelTable(model).As(cursorAlias).WithJoins(joins.joins...),
		where: conjoin(conds...),
		defs:  defs,
	}, nil
}

// read returns a subquery yielding the i-th ordered expression of the
// anchor row.
func (r *anchorRow) read(args domain.QueryArguments, i int) (ast.Expression, error) {
	if i >= len(r.defs) {
		return nil, fmt.Errorf("%w: cursor cannot anchor ordering %d", ErrInvalidQuery, i)
	}
	if _, ok := args.OrderBy[i].(domain.OrderByAggregate); ok {
		return nil, fmt.Errorf("%w: cursor needs a value for aggregate ordering %q", ErrInvalidQuery, r.defs[i].Key)
	}
	sel := ast.From(r.table).Column(r.defs[i].Expr).Where(r.where)
	return ast.SubSelect{Select: sel}, nil
}

func primaryKeyOrdering(ctx *Context, model *schema.Model, tableRef string, reverse bool) []OrderByDefinition {
	b := NewOrderByBuilder(ctx, model, tableRef, reverse)
	orderings := make([]domain.OrderBy, 0, len(model.PrimaryKey))
	for _, f := range model.PrimaryIdentifier() {
		orderings = append(orderings, domain.Asc(f))
	}
	return b.Build(orderings)
}

func encodeAnchor(ctx *Context, def OrderByDefinition, raw domain.PrismaValue) (ast.Value, error) {
	if def.Field != nil {
		return Encode(def.Field, raw, ctx)
	}
	switch v := raw.(type) {
	case domain.IntValue:
		return ast.Int64(int64(v)), nil
	case domain.BigIntValue:
		return ast.Int64(int64(v)), nil
	case domain.FloatValue:
		return ast.Numeric(v.Dec), nil
	case domain.NullValue:
		return ast.Null(ast.TypeInt64), nil
	default:
		return ast.Value{}, fmt.Errorf("%w: cursor value %T for %s", ErrInvalidQuery, raw, def.Key)
	}
}

func anchorEquals(def OrderByDefinition, anchor ast.Value, isNull bool) ast.ConditionTree {
	if isNull {
		return ast.IsNull(def.Expr)
	}
	return ast.Equals(def.Expr, anchor)
}

// anchorAfter matches rows sorting after the anchor, or at it when inclusive.
func anchorAfter(def OrderByDefinition, anchor ast.Value, isNull, inclusive, nullsLead bool) ast.ConditionTree {
	if isNull {
		switch {
		case inclusive && nullsLead:
			return ast.True()
		case inclusive:
			return ast.IsNull(def.Expr)
		case nullsLead:
			return ast.IsNotNull(def.Expr)
		default:
			return ast.False()
		}
	}

	cmp := ast.Cmp(seekOperator(def, inclusive), def.Expr, anchor)

	if def.Nullable && !nullsLead {
		return ast.Or(cmp, ast.IsNull(def.Expr))
	}
	return cmp
}

func seekOperator(def OrderByDefinition, inclusive bool) ast.Operator {
	switch {
	case def.Definition.Direction == ast.Asc && inclusive:
		return ast.OpGreaterOrEqual
	case def.Definition.Direction == ast.Asc:
		return ast.OpGreater
	case inclusive:
		return ast.OpLessOrEqual
	default:
		return ast.OpLess
	}
}
