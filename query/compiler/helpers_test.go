package compiler

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
	"github.com/satishbabariya/prisma-query-engine/query/sqlgen"
)

func testContext(t *testing.T, provider string, opts ...Option) *Context {
	t.Helper()
	catalog, err := schema.LoadCatalog(afero.NewOsFs(), "testdata/catalog.yaml")
	require.NoError(t, err)
	conn, err := connector.ForProvider(provider, "")
	require.NoError(t, err)
	return NewContext(catalog, conn, opts...)
}

func model(t *testing.T, ctx *Context, name string) *schema.Model {
	t.Helper()
	m, err := ctx.Catalog.Model(name)
	require.NoError(t, err)
	return m
}

func field(t *testing.T, ctx *Context, modelName, fieldName string) *schema.ScalarField {
	t.Helper()
	f := model(t, ctx, modelName).ScalarField(fieldName)
	require.NotNil(t, f, "%s.%s", modelName, fieldName)
	return f
}

func relation(t *testing.T, ctx *Context, modelName, relationName string) *schema.RelationField {
	t.Helper()
	rf := model(t, ctx, modelName).RelationField(relationName)
	require.NotNil(t, rf, "%s.%s", modelName, relationName)
	return rf
}

func renderSQL(t *testing.T, ctx *Context, sel ast.Select) (string, []interface{}) {
	t.Helper()
	q, err := sqlgen.NewGenerator(ctx.Connector).Render(sel)
	require.NoError(t, err)
	return q.SQL, q.Args
}

func intPtr(i int) *int {
	return &i
}
