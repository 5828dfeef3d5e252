package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

func TestPaginationSkipTake(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	id := field(t, ctx, "User", "id")

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{domain.Asc(id)}
	args.Skip = 10
	args.Take = intPtr(5)

	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, params := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id" FROM "User" ORDER BY "User"."id" ASC LIMIT ? OFFSET ?`, sql)
	assert.Equal(t, []interface{}{int64(5), int64(10)}, params)

	args.Direction = domain.Backward
	sel, err = GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, params = renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id" FROM "User" ORDER BY "User"."id" DESC LIMIT ? OFFSET ?`, sql)
	assert.Equal(t, []interface{}{int64(5), int64(10)}, params)
}

func TestPaginationIgnoreFlags(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")

	args := domain.NewQueryArguments(m)
	args.Skip = 3
	args.Take = intPtr(2)
	args.IgnoreSkip = true
	args.IgnoreTake = true

	sel, _, err := IntoSelect(ctx, m, args, nil)
	require.NoError(t, err)
	assert.Nil(t, sel.Limit)
	assert.Zero(t, sel.Offset)
}

func TestOrderingJoinsAreShared(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "Post")
	author := relation(t, ctx, "Post", "author")

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{
		domain.Asc(field(t, ctx, "User", "name")).Through(author),
		domain.Desc(field(t, ctx, "User", "email")).Through(author),
	}

	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	require.Len(t, sel.Table.Joins, 1)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "Post"."id" FROM "Post" LEFT JOIN "User" AS "orderby_author" ON "orderby_author"."id" = "Post"."authorId" ORDER BY "orderby_author"."name" ASC, "orderby_author"."email" DESC`, sql)
}

func TestJoinFoldOrder(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "Post")
	author := relation(t, ctx, "Post", "author")

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{domain.Asc(field(t, ctx, "User", "name")).Through(author)}
	args.Filter = domain.Scalar(field(t, ctx, "User", "email"), domain.Equals, domain.StringValue("a@x.io")).Through(author)
	counts := []domain.RelationCount{{Field: relation(t, ctx, "Post", "comments")}}

	sel, _, err := IntoSelect(ctx, m, args, counts)
	require.NoError(t, err)
	require.Len(t, sel.Table.Joins, 3)
	assert.Equal(t, "orderby_author", sel.Table.Joins[0].Table.Ref())
	assert.Equal(t, "aggr_selection_0_Comment", sel.Table.Joins[1].Table.Ref())
	assert.Equal(t, "j_author", sel.Table.Joins[2].Table.Ref())
}

func TestOrderByBuilderReverseFlipsNulls(t *testing.T) {
	ctx := testContext(t, "postgresql")
	m := model(t, ctx, "User")
	age := field(t, ctx, "User", "age")

	defs := NewOrderByBuilder(ctx, m, "User", true).Build([]domain.OrderBy{
		domain.Asc(age).WithNulls(domain.NullsFirst),
	})
	require.Len(t, defs, 1)
	assert.Equal(t, "age", defs[0].Key)
	assert.True(t, defs[0].Nullable)

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{domain.Asc(age).WithNulls(domain.NullsFirst)}
	args.Direction = domain.Backward
	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id" FROM "User" ORDER BY "User"."age" DESC NULLS LAST`, sql)
}

func TestOrderByForeignFieldWithoutPathPanics(t *testing.T) {
	ctx := testContext(t, "sqlite")
	assert.Panics(t, func() {
		NewOrderByBuilder(ctx, model(t, ctx, "User"), "User", false).
			Build([]domain.OrderBy{domain.Asc(field(t, ctx, "Post", "title"))})
	})
}

func TestOrderByRelationCount(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")

	posts := relation(t, ctx, "User", "posts")

	args := domain.NewQueryArguments(m)
	args.OrderBy = []domain.OrderBy{domain.OrderByToManyAggregation{Order: domain.Descending}}
	assert.Panics(t, func() {
		_, _, _ = IntoSelect(ctx, m, args, nil)
	})

	args.OrderBy = []domain.OrderBy{domain.OrderByToManyAggregation{
		Path:  []*schema.RelationField{posts},
		Order: domain.Descending,
	}}

	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id" FROM "User" ORDER BY (SELECT COUNT(*) FROM "Post" AS "orderby_posts_count" WHERE "orderby_posts_count"."authorId" = "User"."id") DESC`, sql)
	assert.Equal(t, "_count.posts", args.OrderBy[0].Key())
}

func TestNestedRelationCount(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")
	posts := relation(t, ctx, "User", "posts")

	sel, err := GetRecords(ctx, domain.FindManyQuery{
		Args:      domain.NewQueryArguments(m),
		Selection: m.PrimaryIdentifier(),
		Counts:    []domain.RelationCount{{Field: posts}},
	})
	require.NoError(t, err)

	sql, args := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id", COALESCE("aggr_selection_0_Post"."_aggr_count_posts", ?) AS "_aggr_count_posts" FROM "User" LEFT JOIN (SELECT "Post"."authorId", COUNT(*) AS "_aggr_count_posts" FROM "Post" GROUP BY "Post"."authorId") AS "aggr_selection_0_Post" ON "aggr_selection_0_Post"."authorId" = "User"."id"`, sql)
	assert.Equal(t, []interface{}{int64(0)}, args)
	assert.Equal(t, "_aggr_count_posts", RelationCountColumn(posts))
}

func TestNestedRelationCountFiltered(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "User")

	sel, err := GetRecords(ctx, domain.FindManyQuery{
		Args:      domain.NewQueryArguments(m),
		Selection: m.PrimaryIdentifier(),
		Counts: []domain.RelationCount{{
			Field:  relation(t, ctx, "User", "posts"),
			Filter: domain.Scalar(field(t, ctx, "Post", "published"), domain.Equals, domain.BooleanValue(true)),
		}},
	})
	require.NoError(t, err)

	sql, args := renderSQL(t, ctx, sel)
	assert.Contains(t, sql, `(SELECT "Post"."authorId", COUNT(*) AS "_aggr_count_posts" FROM "Post" WHERE "Post"."published" = ? GROUP BY "Post"."authorId")`)
	assert.Equal(t, []interface{}{int64(0), true}, args)
}

func TestNestedRelationCountRejectsToOne(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "Post")

	_, err := GetRecords(ctx, domain.FindManyQuery{
		Args:   domain.NewQueryArguments(m),
		Counts: []domain.RelationCount{{Field: relation(t, ctx, "Post", "author")}},
	})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestDefaultSelectionSkipsUnsupported(t *testing.T) {
	ctx := testContext(t, "postgresql")
	m := model(t, ctx, "Place")

	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: domain.NewQueryArguments(m)})
	require.NoError(t, err)

	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "Place"."id", "Place"."code", ST_AsText("Place"."location") AS "location", ST_AsText("Place"."area") AS "area", "Place"."label" FROM "Place"`, sql)
}

func TestSpatialReadOnSQLite(t *testing.T) {
	ctx := testContext(t, "sqlite")
	m := model(t, ctx, "Place")

	sel, err := GetRecords(ctx, domain.FindManyQuery{
		Args:      domain.NewQueryArguments(m),
		Selection: []*schema.ScalarField{field(t, ctx, "Place", "location")},
	})
	require.NoError(t, err)
	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT AsText("Place"."location") AS "location" FROM "Place"`, sql)
}

func TestDistinctOn(t *testing.T) {
	ctx := testContext(t, "postgresql", WithSchemaName("public"))
	m := model(t, ctx, "User")
	role := field(t, ctx, "User", "role")

	args := domain.NewQueryArguments(m)
	args.Distinct = []*schema.ScalarField{role}
	args.OrderBy = []domain.OrderBy{domain.Asc(role)}

	assert.False(t, NeedsInMemoryDistinct(ctx, args))
	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT DISTINCT ON ("User"."role") "User"."id" FROM "public"."User" ORDER BY "User"."role" ASC`, sql)

	args.OrderBy = []domain.OrderBy{domain.Asc(field(t, ctx, "User", "name"))}
	assert.True(t, NeedsInMemoryDistinct(ctx, args))
	sel, err = GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	assert.Empty(t, sel.DistinctOn)
}

func TestDistinctInMemoryWithoutDistinctOn(t *testing.T) {
	ctx := testContext(t, "sqlite")
	args := domain.NewQueryArguments(model(t, ctx, "User"))
	assert.False(t, NeedsInMemoryDistinct(ctx, args))

	args.Distinct = []*schema.ScalarField{field(t, ctx, "User", "role")}
	assert.True(t, NeedsInMemoryDistinct(ctx, args))
}

func TestTraceComment(t *testing.T) {
	ctx := testContext(t, "sqlite", WithTraceID("00-abc-01"))
	m := model(t, ctx, "User")

	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: domain.NewQueryArguments(m), Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	sql, _ := renderSQL(t, ctx, sel)
	assert.Equal(t, `SELECT "User"."id" FROM "User" /* traceparent=00-abc-01 */`, sql)
}

func TestCompilationIsDeterministic(t *testing.T) {
	ctx := testContext(t, "postgresql")
	m := model(t, ctx, "User")
	posts := relation(t, ctx, "User", "posts")

	args := domain.NewQueryArguments(m)
	args.Filter = domain.And(
		domain.Scalar(field(t, ctx, "User", "email"), domain.Contains, domain.StringValue("x")).Insensitive(),
		domain.RelationFilter{Field: posts, Condition: domain.Some},
	)
	args.OrderBy = []domain.OrderBy{domain.Desc(field(t, ctx, "User", "age"))}
	args.Cursor = domain.Cursor{{Key: "age", Value: domain.IntValue(30)}}
	args.Take = intPtr(10)
	query := domain.FindManyQuery{Args: args, Counts: []domain.RelationCount{{Field: posts}}}

	c := NewCompiler(ctx)
	first, firstArgs, err := c.Compile(query)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		sql, params, err := c.Compile(query)
		require.NoError(t, err)
		assert.Equal(t, first, sql)
		assert.Equal(t, firstArgs, params)
	}
}
