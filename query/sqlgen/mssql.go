package sqlgen

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

// SQLServerGenerator generates SQL Server (T-SQL) queries
type SQLServerGenerator struct {
	dialect dialect
}

func (g *SQLServerGenerator) Render(sel ast.Select) (*Query, error) {
	return render(&g.dialect, sel)
}

func (g *SQLServerGenerator) Provider() connector.Provider { return g.dialect.provider }

func sqlServerDialect(conn *connector.Connector) dialect {
	return dialect{
		provider:    conn.Provider,
		caps:        conn.Capabilities,
		quote:       quoteIdentifierSQLServer,
		placeholder: func(i int) string { return fmt.Sprintf("@p%d", i) },
	}
}

// quoteIdentifierSQLServer quotes an identifier for SQL Server
func quoteIdentifierSQLServer(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// sqlServerPagination renders OFFSET ... FETCH. T-SQL requires an ORDER BY
// for both, so a neutral one is emitted when the statement has none.
func (r *renderer) sqlServerPagination(sel ast.Select, parts []string) []string {
	if sel.Limit == nil && sel.Offset == 0 {
		return parts
	}
	if len(sel.Ordering) == 0 {
		parts = append(parts, "ORDER BY (SELECT NULL)")
	}
	parts = append(parts, fmt.Sprintf("OFFSET %s ROWS", r.arg(int64(sel.Offset))))
	if sel.Limit != nil {
		parts = append(parts, fmt.Sprintf("FETCH NEXT %s ROWS ONLY", r.arg(int64(*sel.Limit))))
	}
	return parts
}

// sqlServerSpatial renders a WKT literal as a geometry or geography instance.
func (r *renderer) sqlServerSpatial(v ast.Value) string {
	g := v.Raw.(ast.GeometryValue)
	kind := "geometry"
	if v.Type == ast.TypeGeography {
		kind = "geography"
	}
	return fmt.Sprintf("%s::STGeomFromText(%s, %d)", kind, r.arg(g.WKT), g.SRID)
}
