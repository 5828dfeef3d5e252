package compiler

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// OrderByDefinition is one resolved ordering: the expression to sort by,
// its effective direction and NULL placement, and the joins it needs.
type OrderByDefinition struct {
	Key        string
	Expr       ast.Expression
	Definition ast.OrderDefinition
	Joins      []ast.Join
	// Field is the ordered scalar field, nil for aggregate orderings.
	Field *schema.ScalarField
	// Nullable is true when the ordered expression can be NULL.
	Nullable bool
}

// OrderByBuilder resolves ordering specifications against a model.
type OrderByBuilder struct {
	ctx      *Context
	model    *schema.Model
	tableRef string
	reverse  bool
	prefix   string
}

// NewOrderByBuilder returns a builder over model rows referenced as
// tableRef. With reverse set every direction and explicit NULL placement
// is flipped.
func NewOrderByBuilder(ctx *Context, model *schema.Model, tableRef string, reverse bool) *OrderByBuilder {
	return &OrderByBuilder{ctx: ctx, model: model, tableRef: tableRef, reverse: reverse, prefix: "orderby"}
}

// withJoinPrefix sets the prefix of the join aliases the builder creates.
func (b *OrderByBuilder) withJoinPrefix(prefix string) *OrderByBuilder {
	b.prefix = prefix
	return b
}

// Build resolves orderings in input order.
func (b *OrderByBuilder) Build(orderings []domain.OrderBy) []OrderByDefinition {
	defs := make([]OrderByDefinition, 0, len(orderings))
	for _, o := range orderings {
		defs = append(defs, b.build(o))
	}
	return defs
}

func (b *OrderByBuilder) build(o domain.OrderBy) OrderByDefinition {
	switch o := o.(type) {
	case domain.OrderByScalar:
		return b.buildScalar(o)
	case domain.OrderByToManyAggregation:
		return b.buildRelationCount(o)
	case domain.OrderByAggregate:
		expr := aggregateExpr(o.Func, fieldColumn(o.Field, b.tableRef))
		return OrderByDefinition{
			Key:        o.Key(),
			Expr:       expr,
			Definition: b.definition(expr, o.Order, domain.NullsDefault),
			Nullable:   o.Func != domain.AggCount,
		}
	default:
		panic(fmt.Sprintf("orderBy: unhandled ordering %T", o))
	}
}

func (b *OrderByBuilder) buildScalar(o domain.OrderByScalar) OrderByDefinition {
	if len(o.Path) == 0 && o.Field.Model != b.model.Name {
		panic(fmt.Sprintf("orderBy: field %s.%s does not belong to %s", o.Field.Model, o.Field.Name, b.model.Name))
	}
	joins, ref := joinPath(b.ctx, b.prefix, b.tableRef, o.Path)
	col := fieldColumn(o.Field, ref)

	nullable := !o.Field.IsRequired
	for _, rf := range o.Path {
		if !rf.IsRequired {
			nullable = true
		}
	}

	return OrderByDefinition{
		Key:        o.Key(),
		Expr:       col,
		Definition: b.definition(col, o.Order, o.Nulls),
		Joins:      joins,
		Field:      o.Field,
		Nullable:   nullable,
	}
}

// buildRelationCount orders by the number of rows of the last, to-many hop,
// counted by an inline correlated subquery. Leading to-one hops are joined.
func (b *OrderByBuilder) buildRelationCount(o domain.OrderByToManyAggregation) OrderByDefinition {
	if len(o.Path) == 0 {
		panic("orderBy: relation count ordering without a relation")
	}
	last := o.Path[len(o.Path)-1]
	if !last.IsList {
		panic(fmt.Sprintf("orderBy: relation count over to-one relation %s.%s", last.Model, last.Name))
	}

	joins, ref := joinPath(b.ctx, b.prefix, b.tableRef, o.Path[:len(o.Path)-1])

	alias := pathAlias(b.prefix, o.Path) + "_count"
	related := b.ctx.modelTable(b.ctx.Catalog.RelatedModel(last)).As(alias)
	count := ast.From(related).
		Column(ast.CountAll()).
		Where(joinCondition(b.ctx, last, ref, alias))
	expr := ast.SubSelect{Select: count}

	return OrderByDefinition{
		Key:        o.Key(),
		Expr:       expr,
		Definition: b.definition(expr, o.Order, domain.NullsDefault),
		Joins:      joins,
	}
}

func (b *OrderByBuilder) definition(expr ast.Expression, order domain.SortOrder, nulls domain.NullsOrder) ast.OrderDefinition {
	dir := ast.Asc
	if order == domain.Descending {
		dir = ast.Desc
	}

	var placement ast.NullsOrder
	switch nulls {
	case domain.NullsFirst:
		placement = ast.NullsFirst
	case domain.NullsLast:
		placement = ast.NullsLast
	}

	if b.reverse {
		dir = dir.Reverse()
		placement = placement.Reverse()
	}

	return ast.OrderDefinition{Expr: expr, Direction: dir, Nulls: placement}
}

// nullsFirst reports where NULLs land under the definition's effective
// direction, using the connector's default when no placement is explicit.
func nullsFirst(def ast.OrderDefinition, caps connector.Capabilities) bool {
	switch def.Nulls {
	case ast.NullsFirst:
		return true
	case ast.NullsLast:
		return false
	}
	if caps.NullsSortHigh {
		return def.Direction == ast.Desc
	}
	return def.Direction == ast.Asc
}
