package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// fieldColumn references a scalar field through a table reference.
func fieldColumn(f *schema.ScalarField, tableRef string) ast.Column {
	col := ast.Col(tableRef, f.DBName)
	if f.Type != schema.TypeUnsupported {
		family := TypeFamily(f)
		col.Family = &family
	}
	return col
}

// joinCondition correlates rows of the relation's related model, seen as
// remoteRef, with rows of its parent model, seen as localRef.
func joinCondition(ctx *Context, rf *schema.RelationField, localRef, remoteRef string) ast.ConditionTree {
	local, remote := ctx.Catalog.JoinFields(rf)
	conds := make([]ast.ConditionTree, 0, len(local))
	for i := range local {
		conds = append(conds, ast.Equals(fieldColumn(remote[i], remoteRef), fieldColumn(local[i], localRef)))
	}
	return conjoin(conds...)
}

// pathAlias derives a join alias from a relation path, so any two
// references to the same path share one join.
func pathAlias(prefix string, path []*schema.RelationField) string {
	names := make([]string, 0, len(path)+1)
	names = append(names, prefix)
	for _, rf := range path {
		names = append(names, rf.Name)
	}
	return strings.Join(names, "_")
}

// joinPath builds LEFT JOINs walking the to-one hops of path starting at
// baseRef. It returns the joins and the alias of the last hop.
func joinPath(ctx *Context, prefix, baseRef string, path []*schema.RelationField) ([]ast.Join, string) {
	joins := make([]ast.Join, 0, len(path))
	prev := baseRef
	for i, rf := range path {
		if rf.IsList {
			panic(fmt.Sprintf("compiler: relation %s.%s is to-many and cannot be joined", rf.Model, rf.Name))
		}
		alias := pathAlias(prefix, path[:i+1])
		related := ctx.modelTable(ctx.Catalog.RelatedModel(rf)).As(alias)
		joins = append(joins, ast.Join{
			Kind:  ast.LeftJoin,
			Table: related,
			On:    joinCondition(ctx, rf, prev, alias),
		})
		prev = alias
	}
	return joins, prev
}

// joinSet folds joins while dropping repeats of an alias.
type joinSet struct {
	joins []ast.Join
	seen  map[string]bool
}

func (s *joinSet) add(joins ...ast.Join) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, j := range joins {
		ref := j.Table.Ref()
		if s.seen[ref] {
			continue
		}
		s.seen[ref] = true
		s.joins = append(s.joins, j)
	}
}

// aliasGen hands out subquery aliases unique within one compilation.
type aliasGen struct {
	next int
}

func (g *aliasGen) alias(prefix string) string {
	a := fmt.Sprintf("%s%d", prefix, g.next)
	g.next++
	return a
}

// conjoin ANDs conditions, folding constants. One condition is returned as is.
func conjoin(conds ...ast.ConditionTree) ast.ConditionTree {
	kept := make([]ast.ConditionTree, 0, len(conds))
	for _, c := range conds {
		switch c.Kind {
		case ast.NoCondition:
			continue
		case ast.NegativeCondition:
			return ast.False()
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return ast.True()
	case 1:
		return kept[0]
	default:
		return ast.And(kept...)
	}
}

// disjoin ORs conditions, folding constants. One condition is returned as is.
func disjoin(conds ...ast.ConditionTree) ast.ConditionTree {
	kept := make([]ast.ConditionTree, 0, len(conds))
	for _, c := range conds {
		switch c.Kind {
		case ast.NegativeCondition:
			continue
		case ast.NoCondition:
			return ast.True()
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return ast.False()
	case 1:
		return kept[0]
	default:
		return ast.Or(kept...)
	}
}
