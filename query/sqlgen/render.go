package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

// renderer walks one statement, collecting bind arguments in order.
type renderer struct {
	d    *dialect
	args []interface{}
	err  error
}

func render(d *dialect, sel ast.Select) (*Query, error) {
	r := &renderer{d: d}
	sql := r.selectStatement(sel, true)
	if r.err != nil {
		return nil, r.err
	}
	return &Query{SQL: sql, Args: r.args}, nil
}

// fail records the first error; rendering continues so callers need not
// check after every step.
func (r *renderer) fail(format string, args ...interface{}) string {
	if r.err == nil {
		r.err = fmt.Errorf("%w: "+format, append([]interface{}{ErrUnsupported}, args...)...)
	}
	return ""
}

func (r *renderer) arg(v interface{}) string {
	r.args = append(r.args, v)
	return r.d.placeholder(len(r.args))
}

func (r *renderer) selectStatement(sel ast.Select, top bool) string {
	var parts []string

	head := "SELECT"
	if len(sel.DistinctOn) > 0 {
		if !r.d.caps.DistinctOn {
			return r.fail("DISTINCT ON on %s", r.d.provider)
		}
		head += fmt.Sprintf(" DISTINCT ON (%s)", r.expressionList(sel.DistinctOn))
	}
	if len(sel.Columns) == 0 {
		parts = append(parts, head+" *")
	} else {
		cols := make([]string, len(sel.Columns))
		for i, c := range sel.Columns {
			cols[i] = r.projection(c)
		}
		parts = append(parts, head+" "+strings.Join(cols, ", "))
	}

	parts = append(parts, "FROM "+r.table(sel.Table))
	for _, j := range sel.Table.Joins {
		kind := "LEFT JOIN"
		if j.Kind == ast.InnerJoin {
			kind = "INNER JOIN"
		}
		parts = append(parts, fmt.Sprintf("%s %s ON %s", kind, r.table(j.Table), r.condition(j.On)))
	}

	if !sel.Conditions.IsTrivial() {
		parts = append(parts, "WHERE "+r.condition(sel.Conditions))
	}
	if len(sel.GroupBy) > 0 {
		parts = append(parts, "GROUP BY "+r.expressionList(sel.GroupBy))
	}
	if !sel.Having.IsTrivial() {
		parts = append(parts, "HAVING "+r.condition(sel.Having))
	}

	paginated := sel.Limit != nil || sel.Offset > 0
	// T-SQL rejects ORDER BY in derived tables unless paginated.
	skipOrdering := !top && !paginated && r.d.provider == connector.SQLServer
	if len(sel.Ordering) > 0 && !skipOrdering {
		parts = append(parts, "ORDER BY "+r.ordering(sel.Ordering))
	}

	parts = r.pagination(sel, parts)

	if top && sel.Comment != "" {
		parts = append(parts, "/* "+strings.ReplaceAll(sel.Comment, "*/", "* /")+" */")
	}

	return strings.Join(parts, " ")
}

func (r *renderer) pagination(sel ast.Select, parts []string) []string {
	switch r.d.provider {
	case connector.SQLServer:
		return r.sqlServerPagination(sel, parts)
	case connector.MySQL:
		if sel.Limit != nil {
			parts = append(parts, "LIMIT "+r.arg(int64(*sel.Limit)))
		} else if sel.Offset > 0 {
			// MySQL has no OFFSET without LIMIT
			parts = append(parts, "LIMIT 18446744073709551615")
		}
	case connector.SQLite:
		if sel.Limit != nil {
			parts = append(parts, "LIMIT "+r.arg(int64(*sel.Limit)))
		} else if sel.Offset > 0 {
			parts = append(parts, "LIMIT -1")
		}
	default:
		if sel.Limit != nil {
			parts = append(parts, "LIMIT "+r.arg(int64(*sel.Limit)))
		}
	}
	if sel.Offset > 0 {
		parts = append(parts, "OFFSET "+r.arg(int64(sel.Offset)))
	}
	return parts
}

func (r *renderer) table(t ast.Table) string {
	var s string
	if t.Sub != nil {
		s = "(" + r.selectStatement(*t.Sub, false) + ")"
	} else {
		s = r.d.quote(t.Name)
		if t.Schema != "" && r.d.provider != connector.SQLite {
			s = r.d.quote(t.Schema) + "." + s
		}
	}
	if t.Alias != "" {
		s += " AS " + r.d.quote(t.Alias)
	}
	return s
}

func (r *renderer) ordering(defs []ast.OrderDefinition) string {
	terms := make([]string, 0, len(defs))
	for _, def := range defs {
		expr := r.expression(def.Expr)
		term := expr + " " + def.Direction.String()

		switch {
		case def.Nulls == ast.NullsDefault:
		case r.d.caps.NullsOrdering && def.Nulls == ast.NullsFirst:
			term += " NULLS FIRST"
		case r.d.caps.NullsOrdering:
			term += " NULLS LAST"
		default:
			// Emulated with a leading sort key: 0 sorts first.
			first, rest := 1, 0
			if def.Nulls == ast.NullsFirst {
				first, rest = 0, 1
			}
			terms = append(terms, fmt.Sprintf("CASE WHEN %s IS NULL THEN %d ELSE %d END ASC", r.expression(def.Expr), first, rest))
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, ", ")
}

func (r *renderer) expressionList(exprs []ast.Expression) string {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		out[i] = r.expression(e)
	}
	return strings.Join(out, ", ")
}

// projection renders a SELECT list item, honouring aliases.
func (r *renderer) projection(e ast.Expression) string {
	switch e := e.(type) {
	case ast.Aliased:
		return r.expression(e.Expr) + " AS " + r.d.quote(e.Alias)
	case ast.Column:
		if e.Alias != "" {
			return r.column(e) + " AS " + r.d.quote(e.Alias)
		}
		return r.column(e)
	default:
		return r.expression(e)
	}
}

func (r *renderer) column(c ast.Column) string {
	if c.Table == "" {
		return r.d.quote(c.Name)
	}
	return r.d.quote(c.Table) + "." + r.d.quote(c.Name)
}

func (r *renderer) expression(e ast.Expression) string {
	switch e := e.(type) {
	case ast.Column:
		return r.column(e)
	case ast.Asterisk:
		if e.Table == "" {
			return "*"
		}
		return r.d.quote(e.Table) + ".*"
	case ast.Function:
		return r.function(e)
	case ast.SubSelect:
		return "(" + r.selectStatement(e.Select, false) + ")"
	case ast.List:
		return "(" + r.expressionList(e.Items) + ")"
	case ast.Aliased:
		return r.expression(e.Expr)
	case ast.Value:
		return r.value(e)
	case nil:
		return r.fail("missing expression")
	default:
		return r.fail("expression %T", e)
	}
}

func (r *renderer) function(f ast.Function) string {
	if f.Name == ast.FuncAsText {
		if len(f.Args) != 1 {
			return r.fail("AS_TEXT takes one argument")
		}
		inner := r.expression(f.Args[0])
		switch r.d.provider {
		case connector.SQLServer:
			return inner + ".STAsText()"
		case connector.SQLite:
			return "AsText(" + inner + ")"
		default:
			return "ST_AsText(" + inner + ")"
		}
	}
	return string(f.Name) + "(" + r.expressionList(f.Args) + ")"
}

func (r *renderer) condition(c ast.ConditionTree) string {
	switch c.Kind {
	case ast.NoCondition:
		return "1=1"
	case ast.NegativeCondition:
		return "1=0"
	case ast.Single:
		return r.compare(*c.Compare)
	case ast.AndKind:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			if child.IsCompound() {
				parts[i] = "(" + r.condition(child) + ")"
			} else {
				parts[i] = r.condition(child)
			}
		}
		return strings.Join(parts, " AND ")
	case ast.OrKind:
		parts := make([]string, len(c.Children))
		for i, child := range c.Children {
			parts[i] = "(" + r.condition(child) + ")"
		}
		return strings.Join(parts, " OR ")
	case ast.NotKind:
		return "NOT (" + r.condition(c.Children[0]) + ")"
	default:
		return r.fail("condition kind %d", c.Kind)
	}
}

func (r *renderer) compare(c ast.Compare) string {
	switch c.Op {
	case ast.OpIsNull, ast.OpIsNotNull:
		return r.expression(c.Left) + " " + string(c.Op)
	case ast.OpExists, ast.OpNotExists:
		return string(c.Op) + " " + r.expression(c.Right)
	case ast.OpILike, ast.OpNotILike:
		if !r.d.caps.InsensitiveFilters {
			return r.fail("%s on %s", c.Op, r.d.provider)
		}
	case ast.OpArrayContains, ast.OpArrayOverlaps:
		if !r.d.isPostgres() {
			return r.fail("array operator %s on %s", c.Op, r.d.provider)
		}
	case ast.OpArrayEmpty:
		if !r.d.isPostgres() {
			return r.fail("array emptiness on %s", r.d.provider)
		}
		return "cardinality(" + r.expression(c.Left) + ") = 0"
	case ast.OpGeoWithinRadius:
		return r.geoWithin(c)
	}
	return r.expression(c.Left) + " " + string(c.Op) + " " + r.expression(c.Right)
}

func (r *renderer) geoWithin(c ast.Compare) string {
	v, ok := c.Right.(ast.Value)
	if !ok || v.Type != ast.TypeGeometryDistance || v.IsNull() {
		return r.fail("radius search needs a distance value")
	}
	dv := v.Raw.(ast.GeometryDistanceValue)
	left := r.expression(c.Left)
	point := r.spatial(ast.Geometry(dv.Point))
	distance := r.arg(dv.Distance.String())

	switch r.d.provider {
	case connector.MySQL:
		return fmt.Sprintf("ST_Distance_Sphere(%s, %s) <= %s", left, point, distance)
	case connector.SQLite:
		return fmt.Sprintf("PtDistWithin(%s, %s, %s)", left, point, distance)
	case connector.SQLServer:
		return fmt.Sprintf("%s.STDistance(%s) <= %s", left, point, distance)
	default:
		return fmt.Sprintf("ST_DWithin(%s, %s, %s)", left, point, distance)
	}
}
