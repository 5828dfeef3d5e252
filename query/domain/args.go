package domain

import "github.com/satishbabariya/prisma-query-engine/query/schema"

// TakeDirection selects which end of the ordered set a take counts from.
type TakeDirection int

const (
	// Forward takes the first rows of the ordering.
	Forward TakeDirection = iota
	// Backward takes the last rows: the ordering is reversed for the query
	// and rows are restored to the requested order after fetching.
	Backward
)

func (d TakeDirection) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// QueryArguments describes one read over a model.
type QueryArguments struct {
	Model     *schema.Model
	Filter    Filter
	Cursor    Cursor
	OrderBy   []OrderBy
	Skip      int
	Take      *int
	Direction TakeDirection
	Distinct  []*schema.ScalarField

	IgnoreSkip bool
	IgnoreTake bool
}

// NewQueryArguments returns empty arguments for a model.
func NewQueryArguments(model *schema.Model) QueryArguments {
	return QueryArguments{Model: model}
}

// NeedsReversedOrder reports whether the ordering must be flipped for the query.
func (a QueryArguments) NeedsReversedOrder() bool {
	return a.Direction == Backward
}

// HasCursor reports whether seek pagination is requested.
func (a QueryArguments) HasCursor() bool {
	return len(a.Cursor) > 0
}

// EffectiveSkip is the offset to render.
func (a QueryArguments) EffectiveSkip() int {
	if a.IgnoreSkip {
		return 0
	}
	return a.Skip
}

// EffectiveTake is the limit to render, if any.
func (a QueryArguments) EffectiveTake() (int, bool) {
	if a.IgnoreTake || a.Take == nil {
		return 0, false
	}
	return *a.Take, true
}
