package ast

// Operator is a comparison operator.
type Operator string

const (
	OpEquals          Operator = "="
	OpNotEquals       Operator = "<>"
	OpLess            Operator = "<"
	OpLessOrEqual     Operator = "<="
	OpGreater         Operator = ">"
	OpGreaterOrEqual  Operator = ">="
	OpIn              Operator = "IN"
	OpNotIn           Operator = "NOT IN"
	OpLike            Operator = "LIKE"
	OpNotLike         Operator = "NOT LIKE"
	OpILike           Operator = "ILIKE"
	OpNotILike        Operator = "NOT ILIKE"
	OpIsNull          Operator = "IS NULL"
	OpIsNotNull       Operator = "IS NOT NULL"
	OpExists          Operator = "EXISTS"
	OpNotExists       Operator = "NOT EXISTS"
	OpArrayContains   Operator = "@>"
	OpArrayOverlaps   Operator = "&&"
	OpArrayEmpty      Operator = "ARRAY EMPTY"
	OpGeoWithinRadius Operator = "GEO WITHIN"
)

// Unary reports whether the operator takes no right-hand side.
func (o Operator) Unary() bool {
	switch o {
	case OpIsNull, OpIsNotNull, OpExists, OpNotExists, OpArrayEmpty:
		return true
	}
	return false
}

// Compare is a single predicate. Exists and NotExists only use Right,
// which must be a SubSelect.
type Compare struct {
	Op    Operator
	Left  Expression
	Right Expression
}

// ConditionKind tags a ConditionTree node.
type ConditionKind int

const (
	// NoCondition is always true and is the identity of And.
	NoCondition ConditionKind = iota
	// NegativeCondition is always false.
	NegativeCondition
	Single
	AndKind
	OrKind
	NotKind
)

// ConditionTree is a boolean predicate over comparisons.
type ConditionTree struct {
	Kind     ConditionKind
	Compare  *Compare
	Children []ConditionTree
}

// True returns the always-true condition.
func True() ConditionTree {
	return ConditionTree{Kind: NoCondition}
}

// False returns the always-false condition.
func False() ConditionTree {
	return ConditionTree{Kind: NegativeCondition}
}

// Cmp wraps one comparison.
func Cmp(op Operator, left, right Expression) ConditionTree {
	return ConditionTree{Kind: Single, Compare: &Compare{Op: op, Left: left, Right: right}}
}

// Equals builds left = right.
func Equals(left, right Expression) ConditionTree {
	return Cmp(OpEquals, left, right)
}

// IsNull builds expr IS NULL.
func IsNull(e Expression) ConditionTree {
	return Cmp(OpIsNull, e, nil)
}

// IsNotNull builds expr IS NOT NULL.
func IsNotNull(e Expression) ConditionTree {
	return Cmp(OpIsNotNull, e, nil)
}

// Exists builds EXISTS (sel).
func Exists(sel Select) ConditionTree {
	return Cmp(OpExists, nil, SubSelect{Select: sel})
}

// NotExists builds NOT EXISTS (sel).
func NotExists(sel Select) ConditionTree {
	return Cmp(OpNotExists, nil, SubSelect{Select: sel})
}

// And groups children in a conjunction. No simplification is applied.
func And(children ...ConditionTree) ConditionTree {
	return ConditionTree{Kind: AndKind, Children: children}
}

// Or groups children in a disjunction. No simplification is applied.
func Or(children ...ConditionTree) ConditionTree {
	return ConditionTree{Kind: OrKind, Children: children}
}

// Not negates a condition.
func Not(child ConditionTree) ConditionTree {
	return ConditionTree{Kind: NotKind, Children: []ConditionTree{child}}
}

// IsTrivial reports whether the condition is the always-true identity.
func (c ConditionTree) IsTrivial() bool {
	return c.Kind == NoCondition
}

// IsCompound reports whether the node combines other conditions.
func (c ConditionTree) IsCompound() bool {
	return c.Kind == AndKind || c.Kind == OrKind || c.Kind == NotKind
}

// AndThen conjoins two conditions, treating NoCondition as the identity.
func (c ConditionTree) AndThen(other ConditionTree) ConditionTree {
	switch {
	case c.IsTrivial():
		return other
	case other.IsTrivial():
		return c
	default:
		return And(c, other)
	}
}

// Invert negates the condition, folding the constant cases.
func (c ConditionTree) Invert() ConditionTree {
	switch c.Kind {
	case NoCondition:
		return False()
	case NegativeCondition:
		return True()
	default:
		return Not(c)
	}
}
