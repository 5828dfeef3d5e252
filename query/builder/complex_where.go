package builder

import (
	"github.com/satishbabariya/prisma-query-engine/query/domain"
)

// AND adds a group that holds when every sub-builder's conditions hold
func (w *WhereBuilder) AND(builders ...*WhereBuilder) *WhereBuilder {
	children, ok := w.collect(builders)
	if !ok {
		return w
	}
	w.filters = append(w.filters, domain.And(children...))
	return w
}

// OR adds a group that holds when any sub-builder's conditions hold
func (w *WhereBuilder) OR(builders ...*WhereBuilder) *WhereBuilder {
	children, ok := w.collect(builders)
	if !ok {
		return w
	}
	w.filters = append(w.filters, domain.Or(children...))
	return w
}

// NOT adds a group that holds when none of the sub-builders' conditions hold
func (w *WhereBuilder) NOT(builders ...*WhereBuilder) *WhereBuilder {
	children, ok := w.collect(builders)
	if !ok {
		return w
	}
	w.filters = append(w.filters, domain.Not(children...))
	return w
}

// Sub creates an independent builder over the same model for use in AND/OR/NOT
func (w *WhereBuilder) Sub() *WhereBuilder {
	return NewWhereBuilder(w.catalog, w.model)
}

func (w *WhereBuilder) collect(builders []*WhereBuilder) ([]domain.Filter, bool) {
	children := make([]domain.Filter, 0, len(builders))
	for _, b := range builders {
		if b == nil {
			continue
		}
		f, err := b.Build()
		if err != nil {
			w.fail(err)
			return nil, false
		}
		if f != nil {
			children = append(children, f)
		}
	}
	return children, true
}
