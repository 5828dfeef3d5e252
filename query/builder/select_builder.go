package builder

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// QueryBuilder builds the arguments shared by every read: filter,
// ordering, cursor, pagination and distinct.
type QueryBuilder struct {
	catalog   *schema.Catalog
	model     *schema.Model
	args      domain.QueryArguments
	selection []*schema.ScalarField
	counts    []domain.RelationCount
	err       error
}

// NewQueryBuilder creates a builder reading the named model
func NewQueryBuilder(catalog *schema.Catalog, model string) *QueryBuilder {
	q := &QueryBuilder{catalog: catalog}
	m, err := lookupModel(catalog, model)
	if err != nil {
		q.err = err
		return q
	}
	q.model = m
	q.args = domain.NewQueryArguments(m)
	return q
}

func (q *QueryBuilder) fail(err error) *QueryBuilder {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Model returns the model read, nil when it is unknown
func (q *QueryBuilder) Model() *schema.Model {
	return q.model
}

// Catalog returns the catalog fields are resolved against
func (q *QueryBuilder) Catalog() *schema.Catalog {
	return q.catalog
}

// NewWhere returns a filter builder over the model
func (q *QueryBuilder) NewWhere() *WhereBuilder {
	if q.model == nil {
		return &WhereBuilder{catalog: q.catalog, err: q.err}
	}
	return NewWhereBuilder(q.catalog, q.model)
}

// NewOrderBy returns an ordering builder over the model
func (q *QueryBuilder) NewOrderBy() *OrderByBuilder {
	if q.model == nil {
		return &OrderByBuilder{catalog: q.catalog, err: q.err}
	}
	return NewOrderByBuilder(q.catalog, q.model)
}

// Where sets the filter
func (q *QueryBuilder) Where(w *WhereBuilder) *QueryBuilder {
	f, err := w.Build()
	if err != nil {
		return q.fail(err)
	}
	q.args.Filter = f
	return q
}

// OrderBy sets the ordering
func (q *QueryBuilder) OrderBy(o *OrderByBuilder) *QueryBuilder {
	specs, err := o.Build()
	if err != nil {
		return q.fail(err)
	}
	q.args.OrderBy = specs
	return q
}

// Cursor adds an anchor value. Keys name an ordering ("name",
// "author.name", "_count.posts") or a primary key field.
func (q *QueryBuilder) Cursor(key string, value interface{}) *QueryBuilder {
	if q.model == nil {
		return q
	}
	v, err := q.cursorValue(key, value)
	if err != nil {
		return q.fail(err)
	}
	q.args.Cursor = append(q.args.Cursor, domain.CursorValue{Key: key, Value: v})
	return q
}

func (q *QueryBuilder) cursorValue(key string, value interface{}) (domain.PrismaValue, error) {
	if value == nil {
		return domain.Null, nil
	}
	if strings.HasPrefix(key, "_") {
		fn, rest, ok := strings.Cut(key[1:], ".")
		if !ok {
			return nil, fmt.Errorf("%w: cursor key %s", ErrUnknownField, key)
		}
		if domain.AggregateFunc(fn) == domain.AggCount {
			i, ok := toInt64(value)
			if !ok {
				return nil, fmt.Errorf("%w: cursor %s expects an integer", ErrInvalidValue, key)
			}
			return domain.IntValue(i), nil
		}
		f := q.model.ScalarField(rest)
		if f == nil {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, q.model.Name, rest)
		}
		return Value(f, value)
	}

	_, f, err := resolveField(q.catalog, q.model, key)
	if err != nil {
		return nil, err
	}
	return Value(f, value)
}

// Skip sets the number of rows to skip
func (q *QueryBuilder) Skip(n int) *QueryBuilder {
	if n < 0 {
		return q.fail(fmt.Errorf("%w: skip must not be negative", ErrInvalidValue))
	}
	q.args.Skip = n
	return q
}

// Take sets the number of rows to read. A negative count takes from the
// end of the ordering.
func (q *QueryBuilder) Take(n int) *QueryBuilder {
	q.args.Direction = domain.Forward
	if n < 0 {
		n = -n
		q.args.Direction = domain.Backward
	}
	q.args.Take = &n
	return q
}

// Distinct deduplicates rows on the named fields
func (q *QueryBuilder) Distinct(fields ...string) *QueryBuilder {
	for _, name := range fields {
		if f := q.field(name); f != nil {
			q.args.Distinct = append(q.args.Distinct, f)
		}
	}
	return q
}

// Select restricts the projected fields; every field is read by default
func (q *QueryBuilder) Select(fields ...string) *QueryBuilder {
	for _, name := range fields {
		if f := q.field(name); f != nil {
			q.selection = append(q.selection, f)
		}
	}
	return q
}

// CountRelation adds the number of related rows of a to-many relation to
// each record, counting only rows matching where when it is given.
func (q *QueryBuilder) CountRelation(relation string, where *WhereBuilder) *QueryBuilder {
	if q.model == nil {
		return q
	}
	rf := q.model.RelationField(relation)
	if rf == nil {
		return q.fail(fmt.Errorf("%w: %s.%s is not a relation", ErrUnknownField, q.model.Name, relation))
	}
	rc := domain.RelationCount{Field: rf}
	if where != nil {
		f, err := where.Build()
		if err != nil {
			return q.fail(err)
		}
		rc.Filter = f
	}
	q.counts = append(q.counts, rc)
	return q
}

func (q *QueryBuilder) field(name string) *schema.ScalarField {
	if q.model == nil {
		return nil
	}
	f := q.model.ScalarField(name)
	if f == nil {
		q.fail(fmt.Errorf("%w: %s.%s", ErrUnknownField, q.model.Name, name))
	}
	return f
}

// Args returns the query arguments. A cursor needs a value for every
// ordering unless it carries the primary key.
func (q *QueryBuilder) Args() (domain.QueryArguments, error) {
	if q.err != nil {
		return domain.QueryArguments{}, q.err
	}
	if err := q.checkCursor(); err != nil {
		return domain.QueryArguments{}, err
	}
	return q.args, nil
}

func (q *QueryBuilder) checkCursor() error {
	if !q.args.HasCursor() || q.cursorHasPrimaryKey() {
		return nil
	}
	keys := make([]string, 0, len(q.args.OrderBy))
	for _, o := range q.args.OrderBy {
		keys = append(keys, o.Key())
	}
	if len(keys) == 0 {
		for _, f := range q.model.PrimaryIdentifier() {
			keys = append(keys, f.Name)
		}
	}
	for _, k := range keys {
		if _, ok := q.args.Cursor.Get(k); !ok {
			return fmt.Errorf("%w: cursor has no value for ordering %q nor the primary key", ErrInvalidValue, k)
		}
	}
	return nil
}

// cursorHasPrimaryKey reports whether the cursor locates the anchor row.
func (q *QueryBuilder) cursorHasPrimaryKey() bool {
	for _, f := range q.model.PrimaryIdentifier() {
		v, ok := q.args.Cursor.Get(f.Name)
		if !ok || domain.IsNull(v) {
			return false
		}
	}
	return true
}

// withTiebreak appends the primary key fields the ordering lacks to paged
// reads so pages never overlap.
func (q *QueryBuilder) withTiebreak(args domain.QueryArguments) domain.QueryArguments {
	if !args.HasCursor() && args.Take == nil && args.Skip == 0 {
		return args
	}
	if args.HasCursor() && !q.cursorHasPrimaryKey() {
		return args
	}

	ordered := make(map[*schema.ScalarField]bool, len(args.OrderBy))
	for _, o := range args.OrderBy {
		if s, ok := o.(domain.OrderByScalar); ok && len(s.Path) == 0 {
			ordered[s.Field] = true
		}
	}
	orderBy := append([]domain.OrderBy(nil), args.OrderBy...)
	for _, f := range args.Model.PrimaryIdentifier() {
		if !ordered[f] {
			orderBy = append(orderBy, domain.Asc(f))
		}
	}
	args.OrderBy = orderBy
	return args
}

// Build returns the findMany query. Paged reads are ordered by the
// primary key after the given ordering.
func (q *QueryBuilder) Build() (domain.FindManyQuery, error) {
	args, err := q.Args()
	if err != nil {
		return domain.FindManyQuery{}, err
	}
	return domain.FindManyQuery{Args: q.withTiebreak(args), Selection: q.selection, Counts: q.counts}, nil
}
