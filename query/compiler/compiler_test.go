package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

func TestNewCompiler(t *testing.T) {
	ctx := testContext(t, "mysql")
	c := NewCompiler(ctx)

	assert.Same(t, ctx, c.Context())
	assert.Equal(t, connector.MySQL, c.Generator().Provider())
}

func TestCompilerDispatch(t *testing.T) {
	ctx := testContext(t, "mysql")
	c := NewCompiler(ctx)
	m := model(t, ctx, "User")
	role := field(t, ctx, "User", "role")
	args := domain.NewQueryArguments(m)
	args.Take = intPtr(1)

	tests := []struct {
		name  string
		query interface{}
		sql   string
	}{
		{
			name:  "find many",
			query: domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()},
			sql:   "SELECT `User`.`id` FROM `User` LIMIT ?",
		},
		{
			name:  "find many pointer",
			query: &domain.FindManyQuery{Args: args, Selection: m.PrimaryIdentifier()},
			sql:   "SELECT `User`.`id` FROM `User` LIMIT ?",
		},
		{
			name: "aggregate",
			query: domain.AggregateQuery{
				Args:       domain.NewQueryArguments(m),
				Selections: []domain.AggregationSelection{domain.CountSelection{All: true}},
			},
			sql: "SELECT COUNT(*) AS `_count._all` FROM (SELECT `User`.`id` FROM `User`) AS `sub`",
		},
		{
			name: "group by",
			query: &domain.GroupByQuery{
				Args:       domain.NewQueryArguments(m),
				Selections: []domain.AggregationSelection{domain.FieldSelection{Fields: []*schema.ScalarField{role}}},
				By:         []*schema.ScalarField{role},
			},
			sql: "SELECT `User`.`role` FROM `User` GROUP BY `User`.`role`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := c.Compile(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
		})
	}
}

func TestCompilerRejectsUnknownQueries(t *testing.T) {
	c := NewCompiler(testContext(t, "sqlite"))

	_, err := c.Statement("SELECT 1")
	assert.ErrorIs(t, err, ErrUnsupportedQuery)

	_, _, err = c.Compile(struct{}{})
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestCompileReportsDialectErrors(t *testing.T) {
	ctx := testContext(t, "mysql")
	m := model(t, ctx, "User")
	args := domain.NewQueryArguments(m)
	args.Filter = domain.Scalar(field(t, ctx, "User", "tags"), domain.Has, domain.StringValue("go"))

	_, _, err := NewCompiler(ctx).Compile(domain.FindManyQuery{Args: args})
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestContextDerive(t *testing.T) {
	ctx := testContext(t, "postgresql", WithSchemaName("public"))
	traced := ctx.Derive(WithNewTraceID())

	assert.Empty(t, ctx.TraceID)
	assert.NotEmpty(t, traced.TraceID)
	assert.Equal(t, "public", traced.SchemaName)
	assert.Equal(t, "traceparent="+traced.TraceID, traced.comment())
}
