package domain

import (
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// SortOrder is an ordering direction.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// NullsOrder is an explicit NULL placement.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// OrderBy is one ordering specification. The set of implementations is closed.
type OrderBy interface {
	// Key names the ordered value; cursor anchors are looked up by it.
	Key() string
	orderBy()
}

// OrderByScalar orders by a scalar field reached through zero or more
// to-one relation hops.
type OrderByScalar struct {
	Path  []*schema.RelationField
	Field *schema.ScalarField
	Order SortOrder
	Nulls NullsOrder
}

// OrderByToManyAggregation orders by the number of related rows. The last
// hop of Path is the counted to-many relation; earlier hops are to-one.
type OrderByToManyAggregation struct {
	Path  []*schema.RelationField
	Order SortOrder
}

// OrderByAggregate orders grouped rows by an aggregate of a field.
type OrderByAggregate struct {
	Func  AggregateFunc
	Field *schema.ScalarField
	Order SortOrder
}

func (OrderByScalar) orderBy()            {}
func (OrderByToManyAggregation) orderBy() {}
func (OrderByAggregate) orderBy()         {}

func (o OrderByScalar) Key() string {
	return pathKey(o.Path, o.Field.Name)
}

func (o OrderByToManyAggregation) Key() string {
	return "_count." + pathKey(o.Path, "")
}

func (o OrderByAggregate) Key() string {
	return "_" + string(o.Func) + "." + o.Field.Name
}

func pathKey(path []*schema.RelationField, leaf string) string {
	parts := make([]string, 0, len(path)+1)
	for _, rf := range path {
		parts = append(parts, rf.Name)
	}
	if leaf != "" {
		parts = append(parts, leaf)
	}
	return strings.Join(parts, ".")
}

// Asc orders by a field ascending.
func Asc(field *schema.ScalarField) OrderByScalar {
	return OrderByScalar{Field: field, Order: Ascending}
}

// Desc orders by a field descending.
func Desc(field *schema.ScalarField) OrderByScalar {
	return OrderByScalar{Field: field, Order: Descending}
}

// Through returns a copy of the ordering reached through the given to-one hops.
func (o OrderByScalar) Through(path ...*schema.RelationField) OrderByScalar {
	o.Path = path
	return o
}

// WithNulls returns a copy of the ordering with an explicit NULL placement.
func (o OrderByScalar) WithNulls(n NullsOrder) OrderByScalar {
	o.Nulls = n
	return o
}

// CursorValue is the anchor value of one ordered key.
type CursorValue struct {
	Key   string
	Value PrismaValue
}

// Cursor is the anchor row of seek pagination, keyed like the ordering
// (OrderBy.Key) or by primary key field names, which locate the anchor row.
type Cursor []CursorValue

// Get returns the anchor value for a key.
func (c Cursor) Get(key string) (PrismaValue, bool) {
	for _, cv := range c {
		if cv.Key == key {
			return cv.Value, true
		}
	}
	return nil, false
}
