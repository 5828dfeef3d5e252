package compiler

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// FilterBuilder compiles a filter tree over one model into a condition tree.
//
// With top-level joins enabled, scalar filters reached through to-one
// relations are answered by LEFT JOINs the caller must attach to the FROM
// clause. With them disabled (HAVING clauses) the same filters become
// correlated EXISTS subqueries instead.
type FilterBuilder struct {
	ctx           *Context
	model         *schema.Model
	tableRef      string
	topLevelJoins bool
	joinPrefix    string
	aliases       *aliasGen
	joins         joinSet
}

// NewFilterBuilder returns a builder for filters over model, whose rows are
// referenced as tableRef.
func NewFilterBuilder(ctx *Context, model *schema.Model, tableRef string, topLevelJoins bool) *FilterBuilder {
	return &FilterBuilder{
		ctx:           ctx,
		model:         model,
		tableRef:      tableRef,
		topLevelJoins: topLevelJoins,
		joinPrefix:    "j",
		aliases:       &aliasGen{},
	}
}

// nested returns a builder for a correlated subquery over model, sharing
// the alias counter so subquery aliases never collide.
func (b *FilterBuilder) nested(model *schema.Model, tableRef string) *FilterBuilder {
	return &FilterBuilder{
		ctx:           b.ctx,
		model:         model,
		tableRef:      tableRef,
		topLevelJoins: true,
		joinPrefix:    tableRef + "_j",
		aliases:       b.aliases,
	}
}

// Build compiles the filter. The returned joins are nil when top-level
// joins are disabled or none were needed.
func (b *FilterBuilder) Build(filter domain.Filter) (ast.ConditionTree, []ast.Join, error) {
	if filter == nil {
		return ast.True(), nil, nil
	}
	cond, err := b.visit(filter)
	if err != nil {
		return ast.ConditionTree{}, nil, err
	}
	return cond, b.joins.joins, nil
}

func (b *FilterBuilder) visit(filter domain.Filter) (ast.ConditionTree, error) {
	switch f := filter.(type) {
	case domain.AndFilter:
		children, err := b.visitAll(f.Filters)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		switch len(children) {
		case 0:
			return ast.True(), nil
		case 1:
			return children[0], nil
		default:
			return ast.And(children...), nil
		}
	case domain.OrFilter:
		children, err := b.visitAll(f.Filters)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		switch len(children) {
		case 0:
			return ast.False(), nil
		case 1:
			return children[0], nil
		default:
			return ast.Or(children...), nil
		}
	case domain.NotFilter:
		children, err := b.visitAll(f.Filters)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		switch len(children) {
		case 0:
			return ast.True(), nil
		case 1:
			return ast.Not(children[0]), nil
		default:
			return ast.Not(ast.And(children...)), nil
		}
	case domain.ScalarFilter:
		return b.visitScalar(f)
	case domain.RelationFilter:
		return b.visitRelation(f)
	case domain.OneRelationIsNull:
		return b.visitRelationIsNull(f)
	case domain.AggregationFilter:
		return b.visitAggregation(f)
	default:
		panic(fmt.Sprintf("filter: unhandled filter %T", filter))
	}
}

func (b *FilterBuilder) visitAll(filters []domain.Filter) ([]ast.ConditionTree, error) {
	out := make([]ast.ConditionTree, 0, len(filters))
	for _, f := range filters {
		c, err := b.visit(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *FilterBuilder) visitScalar(f domain.ScalarFilter) (ast.ConditionTree, error) {
	if len(f.Path) == 0 {
		return b.compare(fieldColumn(f.Field, b.tableRef), f)
	}

	if b.topLevelJoins {
		joins, alias := joinPath(b.ctx, b.joinPrefix, b.tableRef, f.Path)
		b.joins.add(joins...)
		return b.compare(fieldColumn(f.Field, alias), f)
	}

	// Without joins, walk the first hop as a correlated subquery and let the
	// nested builder resolve the rest of the path.
	rest := f
	rest.Path = f.Path[1:]
	return b.visitRelation(domain.RelationFilter{
		Field:     f.Path[0],
		Condition: domain.Is,
		Nested:    rest,
	})
}

func (b *FilterBuilder) visitRelation(f domain.RelationFilter) (ast.ConditionTree, error) {
	related := b.ctx.Catalog.RelatedModel(f.Field)
	alias := b.aliases.alias("t")
	inner := b.nested(related, alias)

	nested := ast.True()
	if f.Nested != nil {
		var err error
		nested, err = inner.visit(f.Nested)
		if err != nil {
			return ast.ConditionTree{}, err
		}
	}

	correlation := joinCondition(b.ctx, f.Field, b.tableRef, alias)

	switch f.Condition {
	case domain.Some, domain.Is:
		return ast.Exists(inner.subquery(f.Field, conjoin(correlation, nested))), nil
	case domain.None, domain.IsNot:
		return ast.NotExists(inner.subquery(f.Field, conjoin(correlation, nested))), nil
	case domain.Every:
		return ast.NotExists(inner.subquery(f.Field, conjoin(correlation, nested.Invert()))), nil
	default:
		panic(fmt.Sprintf("filter: unknown relation condition %d", f.Condition))
	}
}

// subquery selects the related rows of rf matching cond, from the nested
// builder's table with any joins it collected.
func (b *FilterBuilder) subquery(rf *schema.RelationField, cond ast.ConditionTree) ast.Select {
	table := b.ctx.modelTable(b.model).As(b.tableRef).WithJoins(b.joins.joins...)
	_, remote := b.ctx.Catalog.JoinFields(rf)

	sel := ast.From(table).Where(cond)
	for _, f := range remote {
		sel = sel.Column(fieldColumn(f, b.tableRef))
	}
	return sel
}

func (b *FilterBuilder) visitRelationIsNull(f domain.OneRelationIsNull) (ast.ConditionTree, error) {
	if f.Field.IsInlined() {
		local, _ := b.ctx.Catalog.JoinFields(f.Field)
		conds := make([]ast.ConditionTree, 0, len(local))
		for _, lf := range local {
			conds = append(conds, ast.IsNull(fieldColumn(lf, b.tableRef)))
		}
		return conjoin(conds...), nil
	}
	return b.visitRelation(domain.RelationFilter{Field: f.Field, Condition: domain.IsNot})
}

func (b *FilterBuilder) visitAggregation(f domain.AggregationFilter) (ast.ConditionTree, error) {
	if len(f.Filter.Path) > 0 {
		return ast.ConditionTree{}, fmt.Errorf("%w: aggregate filters cannot traverse relations", ErrInvalidQuery)
	}
	expr := aggregateExpr(f.Func, fieldColumn(f.Filter.Field, b.tableRef))
	return b.compare(expr, f.Filter)
}

func aggregateExpr(fn domain.AggregateFunc, col ast.Expression) ast.Function {
	switch fn {
	case domain.AggCount:
		return ast.Count(col)
	case domain.AggAvg:
		return ast.Call(ast.FuncAvg, col)
	case domain.AggSum:
		return ast.Call(ast.FuncSum, col)
	case domain.AggMin:
		return ast.Call(ast.FuncMin, col)
	case domain.AggMax:
		return ast.Call(ast.FuncMax, col)
	default:
		panic(fmt.Sprintf("filter: unknown aggregate %q", fn))
	}
}

// compare renders one scalar comparison with expr as the left-hand side.
func (b *FilterBuilder) compare(expr ast.Expression, f domain.ScalarFilter) (ast.ConditionTree, error) {
	switch f.Operator {
	case domain.Has, domain.HasSome, domain.HasEvery, domain.IsEmpty:
		return b.compareList(expr, f)
	case domain.GeoWithin:
		v, err := Encode(f.Field, f.Value, b.ctx)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		return ast.Cmp(ast.OpGeoWithinRadius, expr, v), nil
	case domain.In, domain.NotIn:
		return b.compareIn(expr, f)
	case domain.Contains, domain.NotContains, domain.StartsWith, domain.NotStartsWith, domain.EndsWith, domain.NotEndsWith:
		return b.compareLike(expr, f)
	}

	if domain.IsNull(f.Value) {
		switch f.Operator {
		case domain.Equals:
			return ast.IsNull(expr), nil
		case domain.NotEquals:
			return ast.IsNotNull(expr), nil
		}
	}

	v, err := Encode(f.Field, f.Value, b.ctx)
	if err != nil {
		return ast.ConditionTree{}, err
	}

	insensitive := f.Mode == domain.ModeInsensitive
	if insensitive && b.ctx.capabilities().InsensitiveFilters {
		switch f.Operator {
		case domain.Equals:
			return ast.Cmp(ast.OpILike, expr, v), nil
		case domain.NotEquals:
			return ast.Cmp(ast.OpNotILike, expr, v), nil
		}
	}

	var left, right ast.Expression = expr, v
	if insensitive {
		left, right = lower(expr), lower(v)
	}

	switch f.Operator {
	case domain.Equals:
		return ast.Cmp(ast.OpEquals, left, right), nil
	case domain.NotEquals:
		return ast.Cmp(ast.OpNotEquals, left, right), nil
	case domain.LessThan:
		return ast.Cmp(ast.OpLess, left, right), nil
	case domain.LessOrEqual:
		return ast.Cmp(ast.OpLessOrEqual, left, right), nil
	case domain.GreaterThan:
		return ast.Cmp(ast.OpGreater, left, right), nil
	case domain.GreaterOrEqual:
		return ast.Cmp(ast.OpGreaterOrEqual, left, right), nil
	default:
		return ast.ConditionTree{}, fmt.Errorf("%w: operator %s", ErrUnsupportedQuery, f.Operator)
	}
}

func (b *FilterBuilder) compareIn(expr ast.Expression, f domain.ScalarFilter) (ast.ConditionTree, error) {
	list, ok := f.Value.(domain.ListValue)
	if !ok {
		list = domain.ListValue{f.Value}
	}

	items := make([]ast.Expression, 0, len(list))
	hasNull := false
	for _, item := range list {
		if domain.IsNull(item) {
			hasNull = true
			continue
		}
		v, err := Encode(f.Field, item, b.ctx)
		if err != nil {
			return ast.ConditionTree{}, err
		}
		if f.Mode == domain.ModeInsensitive {
			items = append(items, lower(v))
		} else {
			items = append(items, v)
		}
	}

	left := expr
	if f.Mode == domain.ModeInsensitive {
		left = lower(expr)
	}

	if f.Operator == domain.In {
		in := ast.False()
		if len(items) > 0 {
			in = ast.Cmp(ast.OpIn, left, ast.List{Items: items})
		}
		if hasNull {
			return disjoin(in, ast.IsNull(expr)), nil
		}
		return in, nil
	}

	notIn := ast.True()
	if len(items) > 0 {
		notIn = ast.Cmp(ast.OpNotIn, left, ast.List{Items: items})
	}
	if hasNull {
		return conjoin(notIn, ast.IsNotNull(expr)), nil
	}
	return notIn, nil
}

// compareLike renders the pattern operators. Wildcards inside the value
// are not escaped.
func (b *FilterBuilder) compareLike(expr ast.Expression, f domain.ScalarFilter) (ast.ConditionTree, error) {
	s, ok := f.Value.(domain.StringValue)
	if !ok {
		return ast.ConditionTree{}, fmt.Errorf("%w: %s expects a string for field %s", ErrInvalidQuery, f.Operator, f.Field.Name)
	}

	var pattern string
	negated := false
	switch f.Operator {
	case domain.Contains:
		pattern = "%" + string(s) + "%"
	case domain.NotContains:
		pattern, negated = "%"+string(s)+"%", true
	case domain.StartsWith:
		pattern = string(s) + "%"
	case domain.NotStartsWith:
		pattern, negated = string(s)+"%", true
	case domain.EndsWith:
		pattern = "%" + string(s)
	case domain.NotEndsWith:
		pattern, negated = "%"+string(s), true
	}

	var value ast.Expression = ast.Text(pattern)
	left := expr
	op := ast.OpLike

	if f.Mode == domain.ModeInsensitive {
		if b.ctx.capabilities().InsensitiveFilters {
			op = ast.OpILike
		} else {
			left, value = lower(expr), lower(value)
		}
	}

	if negated {
		if op == ast.OpILike {
			op = ast.OpNotILike
		} else {
			op = ast.OpNotLike
		}
	}
	return ast.Cmp(op, left, value), nil
}

func (b *FilterBuilder) compareList(expr ast.Expression, f domain.ScalarFilter) (ast.ConditionTree, error) {
	if !b.ctx.capabilities().ScalarLists {
		return ast.ConditionTree{}, fmt.Errorf("%w: scalar list filter %s on %s", ErrUnsupportedQuery, f.Operator, b.ctx.Connector)
	}

	if f.Operator == domain.IsEmpty {
		empty, ok := f.Value.(domain.BooleanValue)
		if !ok {
			return ast.ConditionTree{}, fmt.Errorf("%w: isEmpty expects a boolean", ErrInvalidQuery)
		}
		cond := ast.Cmp(ast.OpArrayEmpty, expr, nil)
		if !empty {
			return ast.Not(cond), nil
		}
		return cond, nil
	}

	value := f.Value
	if f.Operator == domain.Has {
		value = domain.ListValue{f.Value}
	}
	v, err := Encode(f.Field, value, b.ctx)
	if err != nil {
		return ast.ConditionTree{}, err
	}

	switch f.Operator {
	case domain.HasSome:
		return ast.Cmp(ast.OpArrayOverlaps, expr, v), nil
	default:
		return ast.Cmp(ast.OpArrayContains, expr, v), nil
	}
}

func lower(e ast.Expression) ast.Expression {
	return ast.Call(ast.FuncLower, e)
}
