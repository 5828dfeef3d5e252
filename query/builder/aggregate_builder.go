package builder

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// AggregateBuilder builds aggregate and group-by queries
type AggregateBuilder struct {
	*QueryBuilder
	selections []domain.AggregationSelection
	by         []*schema.ScalarField
	having     domain.Filter
}

// NewAggregateBuilder creates a new aggregation builder
func NewAggregateBuilder(catalog *schema.Catalog, model string) *AggregateBuilder {
	return &AggregateBuilder{QueryBuilder: NewQueryBuilder(catalog, model)}
}

func (a *AggregateBuilder) fields(names []string) []*schema.ScalarField {
	out := make([]*schema.ScalarField, 0, len(names))
	for _, name := range names {
		if f := a.field(name); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// CountAll adds COUNT(*)
func (a *AggregateBuilder) CountAll() *AggregateBuilder {
	a.selections = append(a.selections, domain.CountSelection{All: true})
	return a
}

// Count counts the non-null values of each field
func (a *AggregateBuilder) Count(fields ...string) *AggregateBuilder {
	a.selections = append(a.selections, domain.CountSelection{Fields: a.fields(fields)})
	return a
}

// Sum adds SUM(field) for each field
func (a *AggregateBuilder) Sum(fields ...string) *AggregateBuilder {
	a.selections = append(a.selections, domain.SumSelection{Fields: a.fields(fields)})
	return a
}

// Avg adds AVG(field) for each field
func (a *AggregateBuilder) Avg(fields ...string) *AggregateBuilder {
	a.selections = append(a.selections, domain.AverageSelection{Fields: a.fields(fields)})
	return a
}

// Min adds MIN(field) for each field
func (a *AggregateBuilder) Min(fields ...string) *AggregateBuilder {
	a.selections = append(a.selections, domain.MinSelection{Fields: a.fields(fields)})
	return a
}

// Max adds MAX(field) for each field
func (a *AggregateBuilder) Max(fields ...string) *AggregateBuilder {
	a.selections = append(a.selections, domain.MaxSelection{Fields: a.fields(fields)})
	return a
}

// GroupBy sets the grouping fields; they are projected ahead of the aggregates
func (a *AggregateBuilder) GroupBy(fields ...string) *AggregateBuilder {
	a.by = append(a.by, a.fields(fields)...)
	return a
}

// Having sets the group filter
func (a *AggregateBuilder) Having(w *WhereBuilder) *AggregateBuilder {
	f, err := w.Build()
	if err != nil {
		a.fail(err)
		return a
	}
	a.having = f
	return a
}

// BuildAggregate returns an aggregate over the whole filtered set
func (a *AggregateBuilder) BuildAggregate() (domain.AggregateQuery, error) {
	args, err := a.Args()
	if err != nil {
		return domain.AggregateQuery{}, err
	}
	if len(a.by) > 0 || a.having != nil {
		return domain.AggregateQuery{}, fmt.Errorf("%w: grouping needs BuildGroupBy", ErrInvalidValue)
	}
	return domain.AggregateQuery{Args: a.withTiebreak(args), Selections: a.selections}, nil
}

// BuildGroupBy returns a grouped aggregate
func (a *AggregateBuilder) BuildGroupBy() (domain.GroupByQuery, error) {
	args, err := a.Args()
	if err != nil {
		return domain.GroupByQuery{}, err
	}
	selections := make([]domain.AggregationSelection, 0, len(a.selections)+1)
	if len(a.by) > 0 {
		selections = append(selections, domain.FieldSelection{Fields: a.by})
	}
	selections = append(selections, a.selections...)
	return domain.GroupByQuery{Args: args, Selections: selections, By: a.by, Having: a.having}, nil
}
