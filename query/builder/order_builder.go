package builder

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// OrderByBuilder builds ORDER BY specifications
type OrderByBuilder struct {
	catalog *schema.Catalog
	model   *schema.Model
	orderBy []domain.OrderBy
	err     error
}

// NewOrderByBuilder creates a new ORDER BY builder
func NewOrderByBuilder(catalog *schema.Catalog, model *schema.Model) *OrderByBuilder {
	return &OrderByBuilder{catalog: catalog, model: model}
}

func (o *OrderByBuilder) fail(err error) *OrderByBuilder {
	if o.err == nil {
		o.err = err
	}
	return o
}

// Order orders by the field at path. Every hop must be a to-one relation.
func (o *OrderByBuilder) Order(path string, order domain.SortOrder) *OrderByBuilder {
	hops, f, err := resolveField(o.catalog, o.model, path)
	if err != nil {
		return o.fail(err)
	}
	for _, rf := range hops {
		if rf.IsList {
			return o.fail(fmt.Errorf("%w: cannot order through to-many relation %s", ErrInvalidValue, rf.Name))
		}
	}
	o.orderBy = append(o.orderBy, domain.OrderByScalar{Path: hops, Field: f, Order: order})
	return o
}

// Asc adds an ascending ORDER BY term
func (o *OrderByBuilder) Asc(path string) *OrderByBuilder {
	return o.Order(path, domain.Ascending)
}

// Desc adds a descending ORDER BY term
func (o *OrderByBuilder) Desc(path string) *OrderByBuilder {
	return o.Order(path, domain.Descending)
}

// Nulls sets the NULL placement of the last scalar term
func (o *OrderByBuilder) Nulls(n domain.NullsOrder) *OrderByBuilder {
	if len(o.orderBy) == 0 {
		return o
	}
	last := len(o.orderBy) - 1
	s, ok := o.orderBy[last].(domain.OrderByScalar)
	if !ok {
		return o.fail(fmt.Errorf("%w: nulls placement applies to scalar orderings", ErrInvalidValue))
	}
	o.orderBy[last] = s.WithNulls(n)
	return o
}

// Count orders by the number of rows of the to-many relation ending path.
func (o *OrderByBuilder) Count(path string, order domain.SortOrder) *OrderByBuilder {
	hops, _, err := resolveRelation(o.catalog, o.model, path)
	if err != nil {
		return o.fail(err)
	}
	for i, rf := range hops {
		last := i == len(hops)-1
		if rf.IsList != last {
			return o.fail(fmt.Errorf("%w: relation count ordering needs to-one hops ending in a to-many relation, got %s", ErrInvalidValue, path))
		}
	}
	o.orderBy = append(o.orderBy, domain.OrderByToManyAggregation{Path: hops, Order: order})
	return o
}

// Aggregate orders grouped rows by an aggregate of a field.
func (o *OrderByBuilder) Aggregate(fn domain.AggregateFunc, field string, order domain.SortOrder) *OrderByBuilder {
	f := o.model.ScalarField(field)
	if f == nil {
		return o.fail(fmt.Errorf("%w: %s.%s", ErrUnknownField, o.model.Name, field))
	}
	o.orderBy = append(o.orderBy, domain.OrderByAggregate{Func: fn, Field: f, Order: order})
	return o
}

// Build returns the ORDER BY specifications
func (o *OrderByBuilder) Build() ([]domain.OrderBy, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.orderBy, nil
}
