package document

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

const catalogYAML = `
enums:
  - name: Role
    values: [USER, ADMIN]
models:
  - name: User
    primary_key: [id]
    fields:
      - { name: id, type: Int }
      - { name: email, type: String }
      - { name: age, type: Int, optional: true }
      - { name: role, type: Role }
    relations:
      - { name: posts, model: Post, list: true, relation_name: UserPosts }
  - name: Post
    primary_key: [id]
    fields:
      - { name: id, type: Int }
      - { name: title, type: String }
      - { name: authorId, type: Int, optional: true }
    relations:
      - { name: author, model: User, optional: true, relation_name: UserPosts, fields: [authorId], references: [id] }
`

type fixture struct {
	catalog *schema.Catalog
	user    *schema.Model
	post    *schema.Model
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	catalog, err := schema.ParseCatalog([]byte(catalogYAML))
	require.NoError(t, err)
	user, err := catalog.Model("User")
	require.NoError(t, err)
	post, err := catalog.Model("Post")
	require.NoError(t, err)
	return fixture{catalog: catalog, user: user, post: post}
}

func mustParseFindMany(t *testing.T, catalog *schema.Catalog, doc string) domain.FindManyQuery {
	t.Helper()
	op, err := Parse(catalog, []byte(doc))
	require.NoError(t, err)
	q, ok := op.Query.(domain.FindManyQuery)
	require.True(t, ok, "got %T", op.Query)
	return q
}

func TestParseWhere(t *testing.T) {
	fx := newFixture(t)
	email := fx.user.ScalarField("email")
	age := fx.user.ScalarField("age")

	t.Run("plain values and operators", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"email":"a@b.c","age":{"gt":30,"lte":60}}}}`)
		assert.Equal(t, domain.And(
			domain.Scalar(age, domain.GreaterThan, domain.IntValue(30)),
			domain.Scalar(age, domain.LessOrEqual, domain.IntValue(60)),
			domain.Scalar(email, domain.Equals, domain.StringValue("a@b.c")),
		), q.Args.Filter)
	})

	t.Run("null and in", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"age":null,"role":{"in":["USER","ADMIN"]}}}}`)
		assert.Equal(t, domain.And(
			domain.Scalar(age, domain.Equals, domain.Null),
			domain.Scalar(fx.user.ScalarField("role"), domain.In,
				domain.ListValue{domain.EnumValue("USER"), domain.EnumValue("ADMIN")}),
		), q.Args.Filter)
	})

	t.Run("insensitive mode", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"email":{"contains":"ADA","mode":"insensitive"}}}}`)
		assert.Equal(t, domain.Scalar(email, domain.Contains, domain.StringValue("ADA")).Insensitive(), q.Args.Filter)
	})

	t.Run("or list and not", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"OR":[{"email":"a"},{"email":"b"}],"NOT":{"age":1}}}}`)
		assert.Equal(t, domain.And(
			domain.Not(domain.Scalar(age, domain.Equals, domain.IntValue(1))),
			domain.Or(
				domain.Scalar(email, domain.Equals, domain.StringValue("a")),
				domain.Scalar(email, domain.Equals, domain.StringValue("b")),
			),
		), q.Args.Filter)
	})

	t.Run("nested not", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"email":{"not":{"startsWith":"x"}}}}}`)
		assert.Equal(t, domain.Not(
			domain.Scalar(email, domain.StartsWith, domain.StringValue("x")),
		), q.Args.Filter)
	})

	t.Run("to-many relation", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
			"args":{"where":{"posts":{"some":{"title":"Go"}}}}}`)
		assert.Equal(t, domain.RelationFilter{
			Field:     fx.user.RelationField("posts"),
			Condition: domain.Some,
			Nested:    domain.Scalar(fx.post.ScalarField("title"), domain.Equals, domain.StringValue("Go")),
		}, q.Args.Filter)
	})

	t.Run("to-one shorthand and null", func(t *testing.T) {
		q := mustParseFindMany(t, fx.catalog, `{"model":"Post","action":"findMany",
			"args":{"where":{"author":{"email":"a"}}}}`)
		assert.Equal(t, domain.RelationFilter{
			Field:     fx.post.RelationField("author"),
			Condition: domain.Is,
			Nested:    domain.Scalar(email, domain.Equals, domain.StringValue("a")),
		}, q.Args.Filter)

		q = mustParseFindMany(t, fx.catalog, `{"model":"Post","action":"findMany","args":{"where":{"author":null}}}`)
		assert.Equal(t, domain.OneRelationIsNull{Field: fx.post.RelationField("author")}, q.Args.Filter)
	})
}

func TestParseOrderBy(t *testing.T) {
	fx := newFixture(t)

	q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
		"args":{"orderBy":[{"age":{"sort":"asc","nulls":"last"}},{"posts":{"_count":"desc"}},{"email":"desc"}]}}`)
	assert.Equal(t, []domain.OrderBy{
		domain.Asc(fx.user.ScalarField("age")).WithNulls(domain.NullsLast),
		domain.OrderByToManyAggregation{Path: []*schema.RelationField{fx.user.RelationField("posts")}, Order: domain.Descending},
		domain.Desc(fx.user.ScalarField("email")),
	}, q.Args.OrderBy)

	q = mustParseFindMany(t, fx.catalog, `{"model":"Post","action":"findMany",
		"args":{"orderBy":{"author":{"email":"asc"}}}}`)
	assert.Equal(t, []domain.OrderBy{
		domain.Asc(fx.user.ScalarField("email")).Through(fx.post.RelationField("author")),
	}, q.Args.OrderBy)
}

func TestParsePagination(t *testing.T) {
	fx := newFixture(t)

	q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
		"args":{"orderBy":[{"id":"asc"}],"cursor":{"id":5},"skip":1,"take":-5,"distinct":["email"]}}`)
	require.NotNil(t, q.Args.Take)
	assert.Equal(t, 5, *q.Args.Take)
	assert.Equal(t, domain.Backward, q.Args.Direction)
	assert.Equal(t, 1, q.Args.Skip)
	assert.Equal(t, domain.Cursor{{Key: "id", Value: domain.IntValue(5)}}, q.Args.Cursor)
	assert.Equal(t, []*schema.ScalarField{fx.user.ScalarField("email")}, q.Args.Distinct)

	q = mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findFirst"}`)
	require.NotNil(t, q.Args.Take)
	assert.Equal(t, 1, *q.Args.Take)
	assert.Equal(t, domain.Forward, q.Args.Direction)

	q = mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findFirst","args":{"take":-3}}`)
	assert.Equal(t, 1, *q.Args.Take)
	assert.Equal(t, domain.Backward, q.Args.Direction)
}

func TestParseCursorByPrimaryKey(t *testing.T) {
	fx := newFixture(t)

	q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
		"args":{"orderBy":[{"email":"asc"}],"cursor":{"id":2}}}`)
	assert.Equal(t, domain.Cursor{{Key: "id", Value: domain.IntValue(2)}}, q.Args.Cursor)
	assert.Equal(t, []domain.OrderBy{
		domain.Asc(fx.user.ScalarField("email")),
		domain.Asc(fx.user.ScalarField("id")),
	}, q.Args.OrderBy)

	q = mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany","args":{"take":-2}}`)
	assert.Equal(t, []domain.OrderBy{domain.Asc(fx.user.ScalarField("id"))}, q.Args.OrderBy)

	q = mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany","args":{"orderBy":[{"email":"asc"}]}}`)
	assert.Equal(t, []domain.OrderBy{domain.Asc(fx.user.ScalarField("email"))}, q.Args.OrderBy)
}

func TestParseSelect(t *testing.T) {
	fx := newFixture(t)

	q := mustParseFindMany(t, fx.catalog, `{"model":"User","action":"findMany",
		"args":{"select":{"id":true,"email":false,"_count":{"select":{"posts":{"where":{"title":"Go"}}}}}}}`)
	assert.Equal(t, []*schema.ScalarField{fx.user.ScalarField("id")}, q.Selection)
	assert.Equal(t, []domain.RelationCount{{
		Field:  fx.user.RelationField("posts"),
		Filter: domain.Scalar(fx.post.ScalarField("title"), domain.Equals, domain.StringValue("Go")),
	}}, q.Counts)
}

func TestParseAggregate(t *testing.T) {
	fx := newFixture(t)
	age := fx.user.ScalarField("age")

	op, err := Parse(fx.catalog, []byte(`{"model":"User","action":"aggregate",
		"args":{"where":{"role":"ADMIN"},"_count":true,"_sum":{"age":true},"_max":{"age":true,"id":false}}}`))
	require.NoError(t, err)
	q, ok := op.Query.(domain.AggregateQuery)
	require.True(t, ok)
	assert.Equal(t, []domain.AggregationSelection{
		domain.CountSelection{All: true},
		domain.SumSelection{Fields: []*schema.ScalarField{age}},
		domain.MaxSelection{Fields: []*schema.ScalarField{age}},
	}, q.Selections)
	assert.NotNil(t, q.Args.Filter)
}

func TestParseGroupBy(t *testing.T) {
	fx := newFixture(t)
	age := fx.user.ScalarField("age")
	role := fx.user.ScalarField("role")

	op, err := Parse(fx.catalog, []byte(`{"model":"User","action":"groupBy",
		"args":{"by":["role"],"_count":{"_all":true},"_avg":{"age":true},
		"having":{"age":{"_avg":{"gt":30}}},"orderBy":[{"_avg":{"age":"desc"}}]}}`))
	require.NoError(t, err)
	assert.Equal(t, ActionGroupBy, op.Action)

	q, ok := op.Query.(domain.GroupByQuery)
	require.True(t, ok)
	assert.Equal(t, []*schema.ScalarField{role}, q.By)
	assert.Equal(t, []domain.AggregationSelection{
		domain.FieldSelection{Fields: []*schema.ScalarField{role}},
		domain.CountSelection{All: true},
		domain.AverageSelection{Fields: []*schema.ScalarField{age}},
	}, q.Selections)
	assert.Equal(t, domain.AggregationFilter{
		Func:   domain.AggAvg,
		Filter: domain.Scalar(age, domain.GreaterThan, domain.IntValue(30)),
	}, q.Having)
	assert.Equal(t, []domain.OrderBy{
		domain.OrderByAggregate{Func: domain.AggAvg, Field: age, Order: domain.Descending},
	}, q.Args.OrderBy)
}

func TestParseErrors(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"malformed json", `{"model":`, ""},
		{"missing model", `{"action":"findMany"}`, "model"},
		{"unknown model", `{"model":"Nope","action":"findMany"}`, "model"},
		{"unknown action", `{"model":"User","action":"deleteMany"}`, "action"},
		{"unknown argument", `{"model":"User","action":"findMany","args":{"limit":1}}`, "args.limit"},
		{"unknown field", `{"model":"User","action":"findMany","args":{"where":{"nope":1}}}`, "args.where.nope"},
		{"wrong value type", `{"model":"User","action":"findMany","args":{"where":{"age":"old"}}}`, "args.where"},
		{"aggregate outside having", `{"model":"User","action":"findMany","args":{"where":{"age":{"_avg":{"gt":1}}}}}`, "args.where.age._avg"},
		{"bad sort order", `{"model":"User","action":"findMany","args":{"orderBy":{"email":"up"}}}`, "args.orderBy.email"},
		{"to-many without quantifier", `{"model":"User","action":"findMany","args":{"where":{"posts":{"title":"x"}}}}`, "args.where.posts"},
		{"cursor missing an ordered value", `{"model":"User","action":"findMany","args":{"orderBy":[{"email":"asc"}],"cursor":{"age":3}}}`, "args.cursor"},
		{"negative skip", `{"model":"User","action":"findMany","args":{"skip":-1}}`, "args.skip"},
		{"by outside groupBy", `{"model":"User","action":"aggregate","args":{"by":["role"]}}`, "args.by"},
		{"unknown aggregate field", `{"model":"User","action":"aggregate","args":{"_sum":{"nope":true}}}`, "args._sum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(fx.catalog, []byte(tt.doc))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %T: %v", err, err)
			assert.Equal(t, tt.path, pe.Path)
		})
	}

	_, err := Parse(fx.catalog, []byte(`{"model":"User","action":"upsert"}`))
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseFile(t *testing.T) {
	fx := newFixture(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "q.json", []byte(`{"model":"Post","action":"findMany","args":{"take":2}}`), 0o644))

	op, err := ParseFile(fs, fx.catalog, "q.json")
	require.NoError(t, err)
	assert.Equal(t, "Post", op.Model)
	assert.Equal(t, ActionFindMany, op.Action)

	_, err = ParseFile(fs, fx.catalog, "missing.json")
	assert.Error(t, err)
}
