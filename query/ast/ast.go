// Package ast defines the dialect-independent Select statement tree the
// compiler produces and the sqlgen renderers consume.
package ast

// Expression is any node that can be projected, compared or ordered by.
type Expression interface {
	expression()
}

// Column references a table column, optionally qualified by a table name or alias.
type Column struct {
	Name   string
	Table  string
	Alias  string
	Family *TypeFamily
}

// Asterisk is `*` or `table.*`.
type Asterisk struct {
	Table string
}

// FuncName names the SQL functions the compiler emits.
type FuncName string

const (
	FuncCount    FuncName = "COUNT"
	FuncSum      FuncName = "SUM"
	FuncAvg      FuncName = "AVG"
	FuncMin      FuncName = "MIN"
	FuncMax      FuncName = "MAX"
	FuncLower    FuncName = "LOWER"
	FuncCoalesce FuncName = "COALESCE"
	FuncAsText   FuncName = "AS_TEXT"
)

// Function is a function call. Renderers map AS_TEXT onto the dialect's
// geometry-to-WKT function.
type Function struct {
	Name FuncName
	Args []Expression
}

// SubSelect embeds a whole statement as a scalar expression.
type SubSelect struct {
	Select Select
}

// List is a parenthesized list of expressions, the right-hand side of IN.
type List struct {
	Items []Expression
}

// Aliased gives a projected expression an output name.
type Aliased struct {
	Expr  Expression
	Alias string
}

func (Column) expression()    {}
func (Asterisk) expression()  {}
func (Function) expression()  {}
func (SubSelect) expression() {}
func (List) expression()      {}
func (Aliased) expression()   {}
func (Value) expression()     {}

// Col builds a column qualified by the given table reference.
func Col(table, name string) Column {
	return Column{Name: name, Table: table}
}

// Count builds COUNT(expr).
func Count(e Expression) Function {
	return Function{Name: FuncCount, Args: []Expression{e}}
}

// CountAll builds COUNT(*).
func CountAll() Function {
	return Function{Name: FuncCount, Args: []Expression{Asterisk{}}}
}

// Call builds a function call with the given arguments.
func Call(name FuncName, args ...Expression) Function {
	return Function{Name: name, Args: args}
}

// As aliases an expression.
func As(e Expression, alias string) Aliased {
	return Aliased{Expr: e, Alias: alias}
}

// JoinKind selects the join flavour.
type JoinKind int

const (
	LeftJoin JoinKind = iota
	InnerJoin
)

// Table is a FROM source: a named table or an aliased sub-select, with
// the joins attached to it.
type Table struct {
	Name   string
	Schema string
	Alias  string
	Sub    *Select
	Joins  []Join
}

// Join attaches a table to another on a condition.
type Join struct {
	Kind  JoinKind
	Table Table
	On    ConditionTree
}

// TableRef builds a named table, optionally schema-qualified.
func TableRef(schema, name string) Table {
	return Table{Name: name, Schema: schema}
}

// FromSelect uses a statement as a derived table.
func FromSelect(sel Select, alias string) Table {
	return Table{Sub: &sel, Alias: alias}
}

// Ref returns the name columns use to qualify themselves against this table.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// As returns a copy of the table under an alias.
func (t Table) As(alias string) Table {
	t.Alias = alias
	return t
}

// LeftJoin returns a copy of the table with one more LEFT JOIN.
func (t Table) LeftJoin(other Table, on ConditionTree) Table {
	t.Joins = append(clip(t.Joins), Join{Kind: LeftJoin, Table: other, On: on})
	return t
}

// WithJoins returns a copy of the table with the given joins appended.
func (t Table) WithJoins(joins ...Join) Table {
	t.Joins = append(clip(t.Joins), joins...)
	return t
}

// Order is an ordering direction.
type Order int

const (
	Asc Order = iota
	Desc
)

// Reverse flips the direction.
func (o Order) Reverse() Order {
	if o == Asc {
		return Desc
	}
	return Asc
}

func (o Order) String() string {
	if o == Desc {
		return "DESC"
	}
	return "ASC"
}

// NullsOrder is an explicit NULL placement.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

// Reverse flips an explicit placement and keeps the default.
func (n NullsOrder) Reverse() NullsOrder {
	switch n {
	case NullsFirst:
		return NullsLast
	case NullsLast:
		return NullsFirst
	default:
		return NullsDefault
	}
}

// OrderDefinition is one ORDER BY term.
type OrderDefinition struct {
	Expr      Expression
	Direction Order
	Nulls     NullsOrder
}

// Select is a complete SELECT statement.
type Select struct {
	Table      Table
	Columns    []Expression
	DistinctOn []Expression
	Conditions ConditionTree
	GroupBy    []Expression
	Having     ConditionTree
	Ordering   []OrderDefinition
	Limit      *int
	Offset     int
	Comment    string
}

// From starts a statement reading from the given table.
func From(t Table) Select {
	return Select{Table: t}
}

// Column returns a copy of the statement projecting one more expression.
func (s Select) Column(e Expression) Select {
	s.Columns = append(clip(s.Columns), e)
	return s
}

// Where returns a copy of the statement with its condition replaced.
func (s Select) Where(c ConditionTree) Select {
	s.Conditions = c
	return s
}

// OrderBy returns a copy of the statement with more ORDER BY terms.
func (s Select) OrderBy(defs ...OrderDefinition) Select {
	s.Ordering = append(clip(s.Ordering), defs...)
	return s
}

// Group returns a copy of the statement with more GROUP BY expressions.
func (s Select) Group(exprs ...Expression) Select {
	s.GroupBy = append(clip(s.GroupBy), exprs...)
	return s
}

// WithLimit returns a copy of the statement limited to n rows.
func (s Select) WithLimit(n int) Select {
	s.Limit = &n
	return s
}

// WithOffset returns a copy of the statement skipping n rows.
func (s Select) WithOffset(n int) Select {
	s.Offset = n
	return s
}

func clip[T any](s []T) []T {
	return s[:len(s):len(s)]
}
