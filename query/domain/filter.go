package domain

import "github.com/satishbabariya/prisma-query-engine/query/schema"

// Filter is a node of a filter tree. The set of implementations is closed.
type Filter interface {
	filter()
}

// AndFilter holds when all children hold. Empty is always true.
type AndFilter struct {
	Filters []Filter
}

// OrFilter holds when any child holds. Empty is always false.
type OrFilter struct {
	Filters []Filter
}

// NotFilter holds when the conjunction of its children does not.
type NotFilter struct {
	Filters []Filter
}

// ScalarOperator is a comparison applied to a scalar field.
type ScalarOperator string

const (
	Equals         ScalarOperator = "equals"
	NotEquals      ScalarOperator = "not"
	In             ScalarOperator = "in"
	NotIn          ScalarOperator = "notIn"
	LessThan       ScalarOperator = "lt"
	LessOrEqual    ScalarOperator = "lte"
	GreaterThan    ScalarOperator = "gt"
	GreaterOrEqual ScalarOperator = "gte"
	Contains       ScalarOperator = "contains"
	NotContains    ScalarOperator = "notContains"
	StartsWith     ScalarOperator = "startsWith"
	NotStartsWith  ScalarOperator = "notStartsWith"
	EndsWith       ScalarOperator = "endsWith"
	NotEndsWith    ScalarOperator = "notEndsWith"

	// Scalar list operators.
	Has      ScalarOperator = "has"
	HasSome  ScalarOperator = "hasSome"
	HasEvery ScalarOperator = "hasEvery"
	IsEmpty  ScalarOperator = "isEmpty"

	// GeoWithin takes a GeometryDistanceValue.
	GeoWithin ScalarOperator = "geoWithin"
)

// QueryMode selects case sensitivity for string comparisons.
type QueryMode int

const (
	ModeDefault QueryMode = iota
	ModeInsensitive
)

// ScalarFilter compares a field, reached through zero or more to-one
// relation hops, against a value.
type ScalarFilter struct {
	Path     []*schema.RelationField
	Field    *schema.ScalarField
	Operator ScalarOperator
	Value    PrismaValue
	Mode     QueryMode
}

// RelationCondition quantifies over the rows of a relation.
type RelationCondition int

const (
	// Every holds when no related row fails the nested filter.
	Every RelationCondition = iota
	// Some holds when at least one related row matches.
	Some
	// None holds when no related row matches.
	None
	// Is is Some for to-one relations.
	Is
	// IsNot is None for to-one relations.
	IsNot
)

// RelationFilter applies a nested filter to the rows of a relation.
type RelationFilter struct {
	Field     *schema.RelationField
	Condition RelationCondition
	Nested    Filter
}

// OneRelationIsNull holds when a to-one relation has no related row.
type OneRelationIsNull struct {
	Field *schema.RelationField
}

// AggregationFilter compares an aggregate of a field. It is only valid in
// a group-by HAVING clause.
type AggregationFilter struct {
	Func   AggregateFunc
	Filter ScalarFilter
}

func (AndFilter) filter()         {}
func (OrFilter) filter()          {}
func (NotFilter) filter()         {}
func (ScalarFilter) filter()      {}
func (RelationFilter) filter()    {}
func (OneRelationIsNull) filter() {}
func (AggregationFilter) filter() {}

// And builds a conjunction.
func And(filters ...Filter) AndFilter {
	return AndFilter{Filters: filters}
}

// Or builds a disjunction.
func Or(filters ...Filter) OrFilter {
	return OrFilter{Filters: filters}
}

// Not builds a negated conjunction.
func Not(filters ...Filter) NotFilter {
	return NotFilter{Filters: filters}
}

// Scalar builds a comparison on a field of the queried model.
func Scalar(field *schema.ScalarField, op ScalarOperator, value PrismaValue) ScalarFilter {
	return ScalarFilter{Field: field, Operator: op, Value: value}
}

// Insensitive returns a copy of the filter comparing case-insensitively.
func (f ScalarFilter) Insensitive() ScalarFilter {
	f.Mode = ModeInsensitive
	return f
}

// Through returns a copy of the filter reached through the given to-one hops.
func (f ScalarFilter) Through(path ...*schema.RelationField) ScalarFilter {
	f.Path = path
	return f
}
