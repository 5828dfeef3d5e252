package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/inf.v0"
)

func TestConditionAndThen(t *testing.T) {
	a := Equals(Col("t", "a"), Int64(1))
	b := Equals(Col("t", "b"), Int64(2))

	assert.Equal(t, a, True().AndThen(a))
	assert.Equal(t, a, a.AndThen(True()))
	assert.Equal(t, AndKind, a.AndThen(b).Kind)
	assert.Len(t, a.AndThen(b).Children, 2)
}

func TestConditionInvert(t *testing.T) {
	a := IsNull(Col("t", "a"))

	assert.Equal(t, False(), True().Invert())
	assert.Equal(t, True(), False().Invert())

	inv := a.Invert()
	require.Equal(t, NotKind, inv.Kind)
	assert.Equal(t, a, inv.Children[0])
}

func TestConditionShape(t *testing.T) {
	assert.True(t, True().IsTrivial())
	assert.False(t, False().IsTrivial())
	assert.False(t, Equals(Col("", "a"), Text("x")).IsCompound())
	assert.True(t, Or(True(), False()).IsCompound())
	assert.True(t, Not(True()).IsCompound())

	exists := Exists(From(TableRef("", "t")))
	require.NotNil(t, exists.Compare)
	assert.Equal(t, OpExists, exists.Compare.Op)
	assert.IsType(t, SubSelect{}, exists.Compare.Right)
}

func TestOperatorUnary(t *testing.T) {
	assert.True(t, OpIsNull.Unary())
	assert.True(t, OpNotExists.Unary())
	assert.False(t, OpEquals.Unary())
	assert.False(t, OpIn.Unary())
}

func TestSelectBuildersDoNotAlias(t *testing.T) {
	base := From(TableRef("", "User")).Column(Col("User", "id"))
	a := base.Column(Col("User", "name"))
	b := base.Column(Col("User", "email"))

	assert.Len(t, base.Columns, 1)
	assert.Equal(t, Col("User", "name"), a.Columns[1])
	assert.Equal(t, Col("User", "email"), b.Columns[1])

	limited := base.WithLimit(5).WithOffset(2)
	assert.Nil(t, base.Limit)
	require.NotNil(t, limited.Limit)
	assert.Equal(t, 5, *limited.Limit)
	assert.Equal(t, 2, limited.Offset)
}

func TestTableRef(t *testing.T) {
	table := TableRef("public", "User")
	assert.Equal(t, "User", table.Ref())
	assert.Equal(t, "u", table.As("u").Ref())
	assert.Equal(t, "sub", FromSelect(From(table), "sub").Ref())

	joined := table.LeftJoin(TableRef("public", "Post").As("p"), True())
	require.Len(t, joined.Joins, 1)
	assert.Empty(t, table.Joins)
	assert.Equal(t, LeftJoin, joined.Joins[0].Kind)
}

func TestOrderReverse(t *testing.T) {
	assert.Equal(t, Desc, Asc.Reverse())
	assert.Equal(t, Asc, Desc.Reverse())
	assert.Equal(t, NullsLast, NullsFirst.Reverse())
	assert.Equal(t, NullsFirst, NullsLast.Reverse())
	assert.Equal(t, NullsDefault, NullsDefault.Reverse())
	assert.Equal(t, "ASC", Asc.String())
	assert.Equal(t, "DESC", Desc.String())
}

func TestValueString(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Text("a"), `"a"`},
		{Int64(42), "42"},
		{Numeric(inf.NewDec(1999, 2)), "19.99"},
		{Boolean(true), "true"},
		{Null(TypeInt32), "NULL::int32"},
		{Geometry(GeometryValue{WKT: "POINT(1 2)", SRID: 4326}), "SRID=4326;POINT(1 2)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.value.String())
	}
}

func TestTypedNullsAreDistinct(t *testing.T) {
	assert.NotEqual(t, Null(TypeText), Null(TypeInt32))
	assert.True(t, NullEnum(EnumName{Name: "role"}).IsNull())
	assert.Equal(t, TypeEnum, NullEnum(EnumName{Name: "role"}).Type)
}

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		in   string
		wkt  string
		srid int32
	}{
		{"POINT(1 2)", "POINT(1 2)", 0},
		{"SRID=4326;POINT(1 2)", "POINT(1 2)", 4326},
		{"srid=3857; LINESTRING(0 0, 1 1)", "LINESTRING(0 0, 1 1)", 3857},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g, err := ParseGeometry(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wkt, g.WKT)
			assert.Equal(t, tt.srid, g.SRID)
		})
	}
}

func TestParseGeometryErrors(t *testing.T) {
	for _, in := range []string{"SRID=x;POINT(1 2)", "POINT(1", "not wkt"} {
		_, err := ParseGeometry(in)
		assert.Error(t, err, in)
	}
}

func TestTypeFamilyString(t *testing.T) {
	srid := int32(4326)
	assert.Equal(t, "Text", TextFamily(nil).String())
	assert.Equal(t, "Text(max)", TextFamily(&TypeDataLength{Maximum: true}).String())
	assert.Equal(t, "Decimal(10, 2)", DecimalFamily(&DecimalParams{Precision: 10, Scale: 2}).String())
	assert.Equal(t, "Geography(4326)", GeographyFamily(&srid).String())
	assert.True(t, GeometryFamily(nil).IsSpatial())
	assert.False(t, SimpleFamily(FamilyInt).IsSpatial())
}
