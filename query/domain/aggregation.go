package domain

import "github.com/satishbabariya/prisma-query-engine/query/schema"

// AggregateFunc is an SQL aggregate.
type AggregateFunc string

const (
	AggCount AggregateFunc = "count"
	AggAvg   AggregateFunc = "avg"
	AggSum   AggregateFunc = "sum"
	AggMin   AggregateFunc = "min"
	AggMax   AggregateFunc = "max"
)

// AggregationSelection is one requested aggregate. The set of
// implementations is closed.
type AggregationSelection interface {
	aggregationSelection()
}

// FieldSelection projects plain fields; only meaningful for group-by.
type FieldSelection struct {
	Fields []*schema.ScalarField
}

// CountSelection counts rows (All) and non-null values of Fields.
type CountSelection struct {
	All    bool
	Fields []*schema.ScalarField
}

type AverageSelection struct {
	Fields []*schema.ScalarField
}

type SumSelection struct {
	Fields []*schema.ScalarField
}

type MinSelection struct {
	Fields []*schema.ScalarField
}

type MaxSelection struct {
	Fields []*schema.ScalarField
}

func (FieldSelection) aggregationSelection()   {}
func (CountSelection) aggregationSelection()   {}
func (AverageSelection) aggregationSelection() {}
func (SumSelection) aggregationSelection()     {}
func (MinSelection) aggregationSelection()     {}
func (MaxSelection) aggregationSelection()     {}

// RelationCount requests the number of rows of a to-many relation per
// record, optionally filtered.
type RelationCount struct {
	Field  *schema.RelationField
	Filter Filter
}

// FindManyQuery reads records. Empty Selection means every scalar field.
type FindManyQuery struct {
	Args      QueryArguments
	Selection []*schema.ScalarField
	Counts    []RelationCount
}

// AggregateQuery computes aggregates over the whole filtered set.
type AggregateQuery struct {
	Args       QueryArguments
	Selections []AggregationSelection
}

// GroupByQuery computes aggregates per group.
type GroupByQuery struct {
	Args       QueryArguments
	Selections []AggregationSelection
	By         []*schema.ScalarField
	Having     Filter
}
