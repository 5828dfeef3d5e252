package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

func TestAggregateAlias(t *testing.T) {
	assert.Equal(t, "_count._all", AggregateAlias(domain.AggCount, "_all"))
	assert.Equal(t, "_sum.age", AggregateAlias(domain.AggSum, "age"))
	assert.Equal(t, "_avg.rating", AggregateAlias(domain.AggAvg, "rating"))
}

func TestAggregateCountAll(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	args := domain.NewQueryArguments(m)
	args.Filter = domain.Scalar(field(t, ctx, "User", "age"), domain.Equals, domain.IntValue(30))

	sel, err := Aggregate(ctx, domain.AggregateQuery{
		Args:       args,
		Selections: []domain.AggregationSelection{domain.CountSelection{All: true}},
	})
	require.NoError(t, err)

	sql, params := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT COUNT(*) AS "_count._all" FROM (SELECT "User"."id" FROM "User" WHERE "User"."age" = ?) AS "sub"`, sql)
	assert.Equal(t, []interface{}{int64(30)}, params)
}

func TestAggregateProjectsEachFieldOnce(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	age := field(t, ctx, "User", "age")
	args := domain.NewQueryArguments(m)
	args.Take = intPtr(100)

	sel, err := Aggregate(ctx, domain.AggregateQuery{
		Args: args,
		Selections: []domain.AggregationSelection{
			domain.SumSelection{Fields: []*schema.ScalarField{age}},
			domain.AverageSelection{Fields: []*schema.ScalarField{age}},
			domain.MaxSelection{Fields: []*schema.ScalarField{age}},
			domain.CountSelection{All: true, Fields: []*schema.ScalarField{age}},
		},
	})
	require.NoError(t, err)

	sql, params := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT SUM("age") AS "_sum.age", AVG("age") AS "_avg.age", MAX("age") AS "_max.age", COUNT(*) AS "_count._all", COUNT("age") AS "_count.age" FROM (SELECT "User"."age" FROM "User" LIMIT ?) AS "sub"`, sql)
	assert.Equal(t, []interface{}{int64(100)}, params)
}

func TestAggregateTraceCommentOnOuterOnly(t *testing.T) {
	ctx := testContext(t, "sqlite", WithTraceID("t1"))
	args := domain.NewQueryArguments(model(t, ctx, "User"))

	sel, err := Aggregate(ctx, domain.AggregateQuery{
		Args:       args,
		Selections: []domain.AggregationSelection{domain.CountSelection{All: true}},
	})
	require.NoError(t, err)
	assert.Empty(t, sel.Table.Sub.Comment)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT COUNT(*) AS "_count._all" FROM (SELECT "User"."id" FROM "User") AS "sub" /* traceparent=t1 */`, sql)
}

func TestAggregateErrors(t *testing.T) {
	ctx := testContext(t, "sqlite")
	args := domain.NewQueryArguments(model(t, ctx, "User"))

	_, err := Aggregate(ctx, domain.AggregateQuery{Args: args})
	assert.ErrorIs(t, err, ErrInvalidQuery)

}

func TestAggregateCountAllWithOtherSelections(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")
	args := domain.NewQueryArguments(model(t, ctx, "User"))

	sel, err := Aggregate(ctx, domain.AggregateQuery{
		Args: args,
		Selections: []domain.AggregationSelection{
			domain.SumSelection{Fields: []*schema.ScalarField{age}},
			domain.CountSelection{All: true},
		},
	})
	require.NoError(t, err)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT SUM("age") AS "_sum.age", COUNT(*) AS "_count._all" FROM (SELECT "User"."age", "User"."id" FROM "User") AS "sub"`, sql)
}

func TestAggregatePlainFieldSelection(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")
	args := domain.NewQueryArguments(model(t, ctx, "User"))

	sel, err := Aggregate(ctx, domain.AggregateQuery{
		Args: args,
		Selections: []domain.AggregationSelection{
			domain.FieldSelection{Fields: []*schema.ScalarField{age}},
			domain.MaxSelection{Fields: []*schema.ScalarField{age}},
		},
	})
	require.NoError(t, err)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "age", MAX("age") AS "_max.age" FROM (SELECT "User"."age" FROM "User") AS "sub"`, sql)
}

func TestGroupBy(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	id := field(t, ctx, "User", "id")
	role := field(t, ctx, "User", "role")

	sel, err := GroupByAggregate(ctx, domain.GroupByQuery{
		Args: domain.NewQueryArguments(m),
		Selections: []domain.AggregationSelection{
			domain.FieldSelection{Fields: []*schema.ScalarField{role}},
			domain.CountSelection{Fields: []*schema.ScalarField{id}},
		},
		By: []*schema.ScalarField{role},
		Having: domain.AggregationFilter{
			Func:   domain.AggCount,
			Filter: domain.Scalar(id, domain.GreaterThan, domain.IntValue(1)),
		},
	})
	require.NoError(t, err)

	sql, params := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."role", COUNT("User"."id") AS "_count.id" FROM "User" GROUP BY "User"."role" HAVING COUNT("User"."id") > ?`, sql)
	assert.Equal(t, []interface{}{int64(1)}, params)
}

func TestGroupByOrderedByAggregate(t *testing.T) {
	ctx := testContext(t, "postgresql")
	m := model(t, ctx, "User")
	age := field(t, ctx, "User", "age")
	role := field(t, ctx, "User", "role")

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{domain.OrderByAggregate{Func: domain.AggAvg, Field: age, Order: domain.Descending}}
	args.Filter = domain.Scalar(field(t, ctx, "User", "name"), domain.NotEquals, domain.StringValue("bot"))

	sel, err := GroupByAggregate(ctx, domain.GroupByQuery{
		Args: args,
		Selections: []domain.AggregationSelection{
			domain.FieldSelection{Fields: []*schema.ScalarField{role}},
			domain.AverageSelection{Fields: []*schema.ScalarField{age}},
		},
		By: []*schema.ScalarField{role},
	})
	require.NoError(t, err)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."role", AVG("User"."age") AS "_avg.age" FROM "User" WHERE "User"."name" <> $1 GROUP BY "User"."role" ORDER BY AVG("User"."age") DESC`, sql)
}

func TestGroupByHavingThroughRelationUsesExists(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "Post")
	published := field(t, ctx, "Post", "published")

	sel, err := GroupByAggregate(ctx, domain.GroupByQuery{
		Args:       domain.NewQueryArguments(m),
		Selections: []domain.AggregationSelection{domain.FieldSelection{Fields: []*schema.ScalarField{published}}},
		By:         []*schema.ScalarField{published},
		Having: domain.Scalar(field(t, ctx, "User", "name"), domain.Equals, domain.StringValue("Ada")).
			Through(relation(t, ctx, "Post", "author")),
	})
	require.NoError(t, err)
	assert.Empty(t, sel.Table.Joins)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "Post"."published" FROM "Post" GROUP BY "Post"."published" HAVING EXISTS (SELECT "t0"."id" FROM "User" AS "t0" WHERE "t0"."id" = "Post"."authorId" AND "t0"."name" = ?)`, sql)
}

func TestGroupByErrors(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	role := field(t, ctx, "User", "role")
	name := field(t, ctx, "User", "name")

	_, err := GroupByAggregate(ctx, domain.GroupByQuery{Args: domain.NewQueryArguments(m)})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	withCursor := domain.NewQueryArguments(m)
	withCursor.Cursor = domain.Cursor{{Key: "id", Value: domain.IntValue(1)}}
	_, err = GroupByAggregate(ctx, domain.GroupByQuery{Args: withCursor, By: []*schema.ScalarField{role}})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	backward := domain.NewQueryArguments(m)
	backward.Take = intPtr(2)
	backward.Direction = domain.Backward
	_, err = GroupByAggregate(ctx, domain.GroupByQuery{Args: backward, By: []*schema.ScalarField{role}})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = GroupByAggregate(ctx, domain.GroupByQuery{
		Args:       domain.NewQueryArguments(m),
		Selections: []domain.AggregationSelection{domain.FieldSelection{Fields: []*schema.ScalarField{name}}},
		By:         []*schema.ScalarField{role},
	})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
