package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

func findUsers(t *testing.T, ctx *Context, filter domain.Filter) (string, []interface{}) {
	t.Helper()
	return findMany(t, ctx, "User", filter)
}

func findMany(t *testing.T, ctx *Context, modelName string, filter domain.Filter) (string, []interface{}) {
	t.Helper()
	m := model(t, ctx, modelName)
	args := domain.NewQueryArguments(m)
	args.Filter = filter
	sel, err := GetRecords(ctx, domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()})
	require.NoError(t, err)
	return renderSQL(t, ctx, sel)
}

func TestFilterBuilderNilFilter(t *testing.T) {
	ctx := testContext(t, "sqlite")
	cond, joins, err := NewFilterBuilder(ctx, model(t, ctx, "User"), "User", true).Build(nil)
	require.NoError(t, err)
	assert.Equal(t, ast.True(), cond)
	assert.Empty(t, joins)
}

func TestFilterLogicalFolding(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")
	name := field(t, ctx, "User", "name")
	b := NewFilterBuilder(ctx, model(t, ctx, "User"), "User", true)

	tests := []struct {
		name   string
		filter domain.Filter
		kind   ast.ConditionKind
	}{
		{"empty and", domain.And(), ast.NoCondition},
		{"empty or", domain.Or(), ast.NegativeCondition},
		{"empty not", domain.Not(), ast.NoCondition},
		{"single and unwrapped", domain.And(domain.Scalar(age, domain.Equals, domain.IntValue(1))), ast.Single},
		{"single or unwrapped", domain.Or(domain.Scalar(age, domain.Equals, domain.IntValue(1))), ast.Single},
		{"single not", domain.Not(domain.Scalar(age, domain.Equals, domain.IntValue(1))), ast.NotKind},
		{"and", domain.And(
			domain.Scalar(age, domain.Equals, domain.IntValue(1)),
			domain.Scalar(name, domain.Equals, domain.StringValue("a")),
		), ast.AndKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, _, err := b.Build(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cond.Kind)
		})
	}
}

func TestFilterNotOfManyNegatesConjunction(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")
	name := field(t, ctx, "User", "name")

	sql, args := findUsers(t, ctx, domain.Not(
		domain.Scalar(age, domain.GreaterThan, domain.IntValue(18)),
		domain.Scalar(name, domain.Equals, domain.StringValue("Ada")),
	))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT ("User"."age" > ? AND "User"."name" = ?)`, sql)
	assert.Equal(t, []interface{}{int64(18), "Ada"}, args)
}

func TestFilterOrWrapsEveryChild(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")
	name := field(t, ctx, "User", "name")

	sql, _ := findUsers(t, ctx, domain.Or(
		domain.Scalar(age, domain.LessThan, domain.IntValue(18)),
		domain.And(
			domain.Scalar(name, domain.Equals, domain.StringValue("Ada")),
			domain.Scalar(age, domain.GreaterOrEqual, domain.IntValue(65)),
		),
	))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE ("User"."age" < ?) OR ("User"."name" = ? AND "User"."age" >= ?)`, sql)
}

func TestFilterNullComparisons(t *testing.T) {
	ctx := testContext(t, "sqlite")
	nickname := field(t, ctx, "User", "nickname")

	sql, args := findUsers(t, ctx, domain.Scalar(nickname, domain.Equals, domain.Null))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."nickname" IS NULL`, sql)
	assert.Empty(t, args)

	sql, _ = findUsers(t, ctx, domain.Scalar(nickname, domain.NotEquals, domain.Null))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."nickname" IS NOT NULL`, sql)
}

func TestFilterIn(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")

	tests := []struct {
		name   string
		filter domain.Filter
		where  string
		args   []interface{}
	}{
		{
			name:   "values",
			filter: domain.Scalar(age, domain.In, domain.ListValue{domain.IntValue(1), domain.IntValue(2)}),
			where:  `"User"."age" IN (?, ?)`,
			args:   []interface{}{int64(1), int64(2)},
		},
		{
			name:   "empty in matches nothing",
			filter: domain.Scalar(age, domain.In, domain.ListValue{}),
			where:  `1=0`,
		},
		{
			name:   "in with null",
			filter: domain.Scalar(age, domain.In, domain.ListValue{domain.IntValue(1), domain.Null}),
			where:  `("User"."age" IN (?)) OR ("User"."age" IS NULL)`,
			args:   []interface{}{int64(1)},
		},
		{
			name:   "not in with null",
			filter: domain.Scalar(age, domain.NotIn, domain.ListValue{domain.IntValue(1), domain.Null}),
			where:  `"User"."age" NOT IN (?) AND "User"."age" IS NOT NULL`,
			args:   []interface{}{int64(1)},
		},
		{
			name:   "only null",
			filter: domain.Scalar(age, domain.In, domain.ListValue{domain.Null}),
			where:  `"User"."age" IS NULL`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := findUsers(t, ctx, tt.filter)
			assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE `+tt.where, sql)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestFilterEmptyNotInIsTrivial(t *testing.T) {
	ctx := testContext(t, "sqlite")
	age := field(t, ctx, "User", "age")

	sql, args := findUsers(t, ctx, domain.Scalar(age, domain.NotIn, domain.ListValue{}))
	assert.Equal(t, `SELECT "User"."id" FROM "User"`, sql)
	assert.Empty(t, args)
}

func TestFilterPatterns(t *testing.T) {
	ctx := testContext(t, "sqlite")
	email := field(t, ctx, "User", "email")

	tests := []struct {
		op      domain.ScalarOperator
		where   string
		pattern string
	}{
		{domain.Contains, `"User"."email" LIKE ?`, "%ada%"},
		{domain.NotContains, `"User"."email" NOT LIKE ?`, "%ada%"},
		{domain.StartsWith, `"User"."email" LIKE ?`, "ada%"},
		{domain.NotStartsWith, `"User"."email" NOT LIKE ?`, "ada%"},
		{domain.EndsWith, `"User"."email" LIKE ?`, "%ada"},
		{domain.NotEndsWith, `"User"."email" NOT LIKE ?`, "%ada"},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			sql, args := findUsers(t, ctx, domain.Scalar(email, tt.op, domain.StringValue("ada")))
			assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE `+tt.where, sql)
			assert.Equal(t, []interface{}{tt.pattern}, args)
		})
	}
}

func TestFilterPatternRequiresString(t *testing.T) {
	ctx := testContext(t, "sqlite")
	_, _, err := NewFilterBuilder(ctx, model(t, ctx, "User"), "User", true).
		Build(domain.Scalar(field(t, ctx, "User", "email"), domain.Contains, domain.IntValue(3)))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestFilterInsensitive(t *testing.T) {
	email := func(ctx *Context) *schema.ScalarField { return field(t, ctx, "User", "email") }

	t.Run("lowered without native support", func(t *testing.T) {
		ctx := testContext(t, "sqlite")
		sql, args := findUsers(t, ctx, domain.Scalar(email(ctx), domain.Equals, domain.StringValue("Ada@X.io")).Insensitive())
		assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE LOWER("User"."email") = LOWER(?)`, sql)
		assert.Equal(t, []interface{}{"Ada@X.io"}, args)

		sql, _ = findUsers(t, ctx, domain.Scalar(email(ctx), domain.Contains, domain.StringValue("ada")).Insensitive())
		assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE LOWER("User"."email") LIKE LOWER(?)`, sql)
	})

	t.Run("ilike on postgres", func(t *testing.T) {
		ctx := testContext(t, "postgresql")
		sql, args := findUsers(t, ctx, domain.Scalar(email(ctx), domain.Equals, domain.StringValue("Ada@X.io")).Insensitive())
		assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."email" ILIKE $1`, sql)
		assert.Equal(t, []interface{}{"Ada@X.io"}, args)

		sql, _ = findUsers(t, ctx, domain.Scalar(email(ctx), domain.NotStartsWith, domain.StringValue("ada")).Insensitive())
		assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."email" NOT ILIKE $1`, sql)

		sql, _ = findUsers(t, ctx, domain.Scalar(email(ctx), domain.GreaterThan, domain.StringValue("m")).Insensitive())
		assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE LOWER("User"."email") > LOWER($1)`, sql)
	})
}

func TestFilterRelationSome(t *testing.T) {
	ctx := testContext(t, "sqlite")
	posts := relation(t, ctx, "User", "posts")
	published := field(t, ctx, "Post", "published")

	sql, args := findUsers(t, ctx, domain.RelationFilter{
		Field:     posts,
		Condition: domain.Some,
		Nested:    domain.Scalar(published, domain.Equals, domain.BooleanValue(true)),
	})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE "t0"."authorId" = "User"."id" AND "t0"."published" = ?)`, sql)
	assert.Equal(t, []interface{}{true}, args)
}

func TestFilterRelationEveryAndNone(t *testing.T) {
	ctx := testContext(t, "sqlite")
	posts := relation(t, ctx, "User", "posts")
	published := field(t, ctx, "Post", "published")
	nested := domain.Scalar(published, domain.Equals, domain.BooleanValue(true))

	sql, _ := findUsers(t, ctx, domain.RelationFilter{Field: posts, Condition: domain.Every, Nested: nested})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE "t0"."authorId" = "User"."id" AND (NOT ("t0"."published" = ?)))`, sql)

	sql, _ = findUsers(t, ctx, domain.RelationFilter{Field: posts, Condition: domain.None, Nested: nested})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE "t0"."authorId" = "User"."id" AND "t0"."published" = ?)`, sql)
}

func TestFilterRelationWithoutNestedFilter(t *testing.T) {
	ctx := testContext(t, "sqlite")
	posts := relation(t, ctx, "User", "posts")

	sql, _ := findUsers(t, ctx, domain.RelationFilter{Field: posts, Condition: domain.Some})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE "t0"."authorId" = "User"."id")`, sql)

	// every with nothing to fail always holds
	sql, _ = findUsers(t, ctx, domain.RelationFilter{Field: posts, Condition: domain.Every})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE 1=0)`, sql)
}

func TestFilterNestedRelationsGetDistinctAliases(t *testing.T) {
	ctx := testContext(t, "sqlite")
	posts := relation(t, ctx, "User", "posts")
	comments := relation(t, ctx, "Post", "comments")
	body := field(t, ctx, "Comment", "body")

	sql, _ := findUsers(t, ctx, domain.RelationFilter{
		Field:     posts,
		Condition: domain.Some,
		Nested: domain.RelationFilter{
			Field:     comments,
			Condition: domain.Some,
			Nested:    domain.Scalar(body, domain.Equals, domain.StringValue("hi")),
		},
	})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE EXISTS (SELECT "t0"."authorId" FROM "Post" AS "t0" WHERE "t0"."authorId" = "User"."id" AND EXISTS (SELECT "t1"."postId" FROM "Comment" AS "t1" WHERE "t1"."postId" = "t0"."id" AND "t1"."body" = ?))`, sql)
}

func TestFilterPathedScalarJoins(t *testing.T) {
	ctx := testContext(t, "sqlite")
	author := relation(t, ctx, "Post", "author")
	email := field(t, ctx, "User", "email")

	sql, args := findMany(t, ctx, "Post", domain.And(
		domain.Scalar(email, domain.Equals, domain.StringValue("a@x.io")).Through(author),
		domain.Scalar(email, domain.NotEquals, domain.StringValue("b@x.io")).Through(author),
	))
	assert.Equal(t, `SELECT "Post"."id" FROM "Post" LEFT JOIN "User" AS "j_author" ON "j_author"."id" = "Post"."authorId" WHERE "j_author"."email" = ? AND "j_author"."email" <> ?`, sql)
	assert.Equal(t, []interface{}{"a@x.io", "b@x.io"}, args)
}

func TestFilterPathedScalarWithoutJoinsUsesExists(t *testing.T) {
	ctx := testContext(t, "sqlite")
	author := relation(t, ctx, "Post", "author")
	email := field(t, ctx, "User", "email")

	cond, joins, err := NewFilterBuilder(ctx, model(t, ctx, "Post"), "Post", false).
		Build(domain.Scalar(email, domain.Equals, domain.StringValue("a@x.io")).Through(author))
	require.NoError(t, err)
	assert.Empty(t, joins)
	require.Equal(t, ast.Single, cond.Kind)
	assert.Equal(t, ast.OpExists, cond.Compare.Op)
}

func TestFilterOneRelationIsNull(t *testing.T) {
	ctx := testContext(t, "sqlite")

	sql, _ := findMany(t, ctx, "Profile", domain.OneRelationIsNull{Field: relation(t, ctx, "Profile", "user")})
	assert.Equal(t, `SELECT "Profile"."id" FROM "Profile" WHERE "Profile"."userId" IS NULL`, sql)

	sql, _ = findUsers(t, ctx, domain.OneRelationIsNull{Field: relation(t, ctx, "User", "profile")})
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT EXISTS (SELECT "t0"."userId" FROM "Profile" AS "t0" WHERE "t0"."userId" = "User"."id")`, sql)
}

func TestFilterScalarListsNeedCapability(t *testing.T) {
	ctx := testContext(t, "sqlite")
	tags := field(t, ctx, "User", "tags")

	_, _, err := NewFilterBuilder(ctx, model(t, ctx, "User"), "User", true).
		Build(domain.Scalar(tags, domain.Has, domain.StringValue("go")))
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestFilterScalarListsOnPostgres(t *testing.T) {
	ctx := testContext(t, "postgresql")
	tags := field(t, ctx, "User", "tags")

	sql, _ := findUsers(t, ctx, domain.Scalar(tags, domain.Has, domain.StringValue("go")))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."tags" @> $1`, sql)

	sql, _ = findUsers(t, ctx, domain.Scalar(tags, domain.HasSome, domain.ListValue{domain.StringValue("go"), domain.StringValue("rust")}))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE "User"."tags" && $1`, sql)

	sql, _ = findUsers(t, ctx, domain.Scalar(tags, domain.IsEmpty, domain.BooleanValue(false)))
	assert.Equal(t, `SELECT "User"."id" FROM "User" WHERE NOT (cardinality("User"."tags") = 0)`, sql)
}

func TestFilterDecodeErrorPropagates(t *testing.T) {
	ctx := testContext(t, "postgresql")
	m := model(t, ctx, "User")
	args := domain.NewQueryArguments(m)
	args.Filter = domain.Scalar(field(t, ctx, "User", "settings"), domain.Equals, domain.JSONValue("{"))

	_, err := GetRecords(ctx, domain.FindManyQuery{Args: args})
	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
}
