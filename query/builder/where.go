package builder

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// WhereBuilder builds the filter of one model
type WhereBuilder struct {
	catalog  *schema.Catalog
	model    *schema.Model
	filters  []domain.Filter
	operator string
	err      error
}

// NewWhereBuilder creates a new WHERE builder
func NewWhereBuilder(catalog *schema.Catalog, model *schema.Model) *WhereBuilder {
	return &WhereBuilder{
		catalog:  catalog,
		model:    model,
		operator: "AND",
	}
}

// Model returns the model the builder filters
func (w *WhereBuilder) Model() *schema.Model {
	return w.model
}

func (w *WhereBuilder) fail(err error) *WhereBuilder {
	if w.err == nil {
		w.err = err
	}
	return w
}

// Op adds a comparison of the field at path.
func (w *WhereBuilder) Op(path string, op domain.ScalarOperator, value interface{}) *WhereBuilder {
	hops, f, err := resolveField(w.catalog, w.model, path)
	if err != nil {
		return w.fail(err)
	}

	var v domain.PrismaValue
	switch op {
	case domain.In, domain.NotIn, domain.HasSome, domain.HasEvery:
		v, err = List(f, value)
	case domain.Has:
		v, err = scalarValue(f, value)
	case domain.IsEmpty:
		b, ok := value.(bool)
		if !ok {
			err = fmt.Errorf("%w: isEmpty on %s expects a boolean", ErrInvalidValue, f.Name)
		}
		v = domain.BooleanValue(b)
	case domain.GeoWithin:
		v, err = distanceValue(f, value)
	default:
		v, err = Value(f, value)
	}
	if err != nil {
		return w.fail(err)
	}

	w.filters = append(w.filters, domain.Scalar(f, op, v).Through(hops...))
	return w
}

// Equals adds an equality condition
func (w *WhereBuilder) Equals(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.Equals, value)
}

// NotEquals adds a not-equals condition
func (w *WhereBuilder) NotEquals(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.NotEquals, value)
}

// GreaterThan adds a greater-than condition
func (w *WhereBuilder) GreaterThan(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.GreaterThan, value)
}

// LessThan adds a less-than condition
func (w *WhereBuilder) LessThan(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.LessThan, value)
}

// GreaterOrEqual adds a greater-or-equal condition
func (w *WhereBuilder) GreaterOrEqual(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.GreaterOrEqual, value)
}

// LessOrEqual adds a less-or-equal condition
func (w *WhereBuilder) LessOrEqual(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.LessOrEqual, value)
}

// In adds an IN condition
func (w *WhereBuilder) In(path string, values ...interface{}) *WhereBuilder {
	return w.Op(path, domain.In, values)
}

// NotIn adds a NOT IN condition
func (w *WhereBuilder) NotIn(path string, values ...interface{}) *WhereBuilder {
	return w.Op(path, domain.NotIn, values)
}

// Contains adds a substring match
func (w *WhereBuilder) Contains(path string, s string) *WhereBuilder {
	return w.Op(path, domain.Contains, s)
}

// StartsWith adds a prefix match
func (w *WhereBuilder) StartsWith(path string, s string) *WhereBuilder {
	return w.Op(path, domain.StartsWith, s)
}

// EndsWith adds a suffix match
func (w *WhereBuilder) EndsWith(path string, s string) *WhereBuilder {
	return w.Op(path, domain.EndsWith, s)
}

// IsNull adds an IS NULL condition
func (w *WhereBuilder) IsNull(path string) *WhereBuilder {
	return w.Op(path, domain.Equals, nil)
}

// IsNotNull adds an IS NOT NULL condition
func (w *WhereBuilder) IsNotNull(path string) *WhereBuilder {
	return w.Op(path, domain.NotEquals, nil)
}

// Has requires a scalar list to contain the value
func (w *WhereBuilder) Has(path string, value interface{}) *WhereBuilder {
	return w.Op(path, domain.Has, value)
}

// HasSome requires a scalar list to share at least one value
func (w *WhereBuilder) HasSome(path string, values ...interface{}) *WhereBuilder {
	return w.Op(path, domain.HasSome, values)
}

// HasEvery requires a scalar list to contain every value
func (w *WhereBuilder) HasEvery(path string, values ...interface{}) *WhereBuilder {
	return w.Op(path, domain.HasEvery, values)
}

// IsEmpty tests whether a scalar list is empty
func (w *WhereBuilder) IsEmpty(path string, empty bool) *WhereBuilder {
	return w.Op(path, domain.IsEmpty, empty)
}

// Within keeps rows whose geometry lies within distance of a WKT point
func (w *WhereBuilder) Within(path string, point string, distance float64) *WhereBuilder {
	return w.Op(path, domain.GeoWithin, domain.GeometryDistanceValue{
		Point:    domain.GeometryValue(point),
		Distance: domain.Float(distance).Dec,
	})
}

// Insensitive makes the last added comparison case-insensitive
func (w *WhereBuilder) Insensitive() *WhereBuilder {
	if len(w.filters) == 0 {
		return w
	}
	last := len(w.filters) - 1
	sf, ok := w.filters[last].(domain.ScalarFilter)
	if !ok {
		return w.fail(fmt.Errorf("%w: insensitive mode applies to scalar comparisons", ErrInvalidValue))
	}
	w.filters[last] = sf.Insensitive()
	return w
}

// Aggregate adds a HAVING comparison on an aggregate of a field.
func (w *WhereBuilder) Aggregate(fn domain.AggregateFunc, path string, op domain.ScalarOperator, value interface{}) *WhereBuilder {
	n := len(w.filters)
	w.Op(path, op, value)
	if len(w.filters) == n {
		return w
	}
	sf := w.filters[n].(domain.ScalarFilter)
	w.filters[n] = domain.AggregationFilter{Func: fn, Filter: sf}
	return w
}

// Related returns a builder for the model at the end of a relation path.
// Its filters are attached with Some, Every, None, Is or IsNot.
func (w *WhereBuilder) Related(relation string) *WhereBuilder {
	_, m, err := resolveRelation(w.catalog, w.model, relation)
	if err != nil {
		sub := NewWhereBuilder(w.catalog, w.model)
		sub.err = err
		return sub
	}
	return NewWhereBuilder(w.catalog, m)
}

func (w *WhereBuilder) relation(name string, cond domain.RelationCondition, nested *WhereBuilder) *WhereBuilder {
	rf := w.model.RelationField(name)
	if rf == nil {
		return w.fail(fmt.Errorf("%w: %s.%s is not a relation", ErrUnknownField, w.model.Name, name))
	}

	var filter domain.Filter
	if nested != nil {
		var err error
		if filter, err = nested.Build(); err != nil {
			return w.fail(err)
		}
	}
	w.filters = append(w.filters, domain.RelationFilter{Field: rf, Condition: cond, Nested: filter})
	return w
}

// Some requires at least one related row to match
func (w *WhereBuilder) Some(relation string, nested *WhereBuilder) *WhereBuilder {
	return w.relation(relation, domain.Some, nested)
}

// Every requires every related row to match
func (w *WhereBuilder) Every(relation string, nested *WhereBuilder) *WhereBuilder {
	return w.relation(relation, domain.Every, nested)
}

// None requires no related row to match
func (w *WhereBuilder) None(relation string, nested *WhereBuilder) *WhereBuilder {
	return w.relation(relation, domain.None, nested)
}

// Is requires the to-one related row to match
func (w *WhereBuilder) Is(relation string, nested *WhereBuilder) *WhereBuilder {
	return w.relation(relation, domain.Is, nested)
}

// IsNot requires the to-one related row not to match
func (w *WhereBuilder) IsNot(relation string, nested *WhereBuilder) *WhereBuilder {
	return w.relation(relation, domain.IsNot, nested)
}

// RelationIsNull requires a to-one relation to have no related row
func (w *WhereBuilder) RelationIsNull(relation string) *WhereBuilder {
	rf := w.model.RelationField(relation)
	if rf == nil {
		return w.fail(fmt.Errorf("%w: %s.%s is not a relation", ErrUnknownField, w.model.Name, relation))
	}
	if rf.IsList {
		return w.fail(fmt.Errorf("%w: %s.%s is a to-many relation", ErrInvalidValue, w.model.Name, relation))
	}
	w.filters = append(w.filters, domain.OneRelationIsNull{Field: rf})
	return w
}

// SetOperator sets the logical operator (AND or OR) joining the conditions
func (w *WhereBuilder) SetOperator(op string) *WhereBuilder {
	w.operator = op
	return w
}

// Build returns the filter, or nil when no condition was added.
func (w *WhereBuilder) Build() (domain.Filter, error) {
	if w.err != nil {
		return nil, w.err
	}
	switch {
	case len(w.filters) == 0:
		return nil, nil
	case len(w.filters) == 1:
		return w.filters[0], nil
	case w.operator == "OR":
		return domain.Or(w.filters...), nil
	default:
		return domain.And(w.filters...), nil
	}
}

func distanceValue(f *schema.ScalarField, value interface{}) (domain.PrismaValue, error) {
	switch v := value.(type) {
	case domain.GeometryDistanceValue:
		return v, nil
	case map[string]interface{}:
		point, ok := v["point"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: geoWithin on %s needs a WKT point", ErrInvalidValue, f.Name)
		}
		d, ok := toDec(v["distance"])
		if !ok {
			return nil, fmt.Errorf("%w: geoWithin on %s needs a numeric distance", ErrInvalidValue, f.Name)
		}
		return domain.GeometryDistanceValue{Point: domain.GeometryValue(point), Distance: d}, nil
	}
	return nil, fmt.Errorf("%w: geoWithin on %s cannot take %T", ErrInvalidValue, f.Name, value)
}
