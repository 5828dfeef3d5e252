package document

import (
	"fmt"

	"github.com/satishbabariya/prisma-query-engine/query/builder"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

type parser struct {
	catalog *schema.Catalog
}

// readArgs applies the arguments shared by every read.
func (p *parser) readArgs(qb *builder.QueryBuilder, args map[string]interface{}) error {
	if err := check(qb, "model"); err != nil {
		return err
	}

	if v, ok := args["where"]; ok && v != nil {
		obj, err := object("args.where", v)
		if err != nil {
			return err
		}
		w := qb.NewWhere()
		if err := p.where(w, "args.where", obj, false); err != nil {
			return err
		}
		qb.Where(w)
		if err := check(qb, "args.where"); err != nil {
			return err
		}
	}

	if v, ok := args["orderBy"]; ok && v != nil {
		o := qb.NewOrderBy()
		if err := p.orderBy(o, qb.Model(), "args.orderBy", v); err != nil {
			return err
		}
		qb.OrderBy(o)
		if err := check(qb, "args.orderBy"); err != nil {
			return err
		}
	}

	if v, ok := args["cursor"]; ok && v != nil {
		obj, err := object("args.cursor", v)
		if err != nil {
			return err
		}
		for _, key := range sortedKeys(obj) {
			qb.Cursor(key, obj[key])
		}
		if err := check(qb, "args.cursor"); err != nil {
			return err
		}
	}

	if v, ok := args["skip"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return &ParseError{Path: "args.skip", Err: err}
		}
		qb.Skip(n)
		if err := check(qb, "args.skip"); err != nil {
			return err
		}
	}

	if v, ok := args["take"]; ok && v != nil {
		n, err := toInt(v)
		if err != nil {
			return &ParseError{Path: "args.take", Err: err}
		}
		qb.Take(n)
	}

	if v, ok := args["distinct"]; ok && v != nil {
		names, err := stringList("args.distinct", v)
		if err != nil {
			return err
		}
		qb.Distinct(names...)
		if err := check(qb, "args.distinct"); err != nil {
			return err
		}
	}
	return nil
}

var relationConditions = map[string]func(*builder.WhereBuilder, string, *builder.WhereBuilder) *builder.WhereBuilder{
	"some":  (*builder.WhereBuilder).Some,
	"every": (*builder.WhereBuilder).Every,
	"none":  (*builder.WhereBuilder).None,
	"is":    (*builder.WhereBuilder).Is,
	"isNot": (*builder.WhereBuilder).IsNot,
}

var scalarOperators = map[string]domain.ScalarOperator{}

func init() {
	for _, op := range []domain.ScalarOperator{
		domain.Equals, domain.NotEquals, domain.In, domain.NotIn,
		domain.LessThan, domain.LessOrEqual, domain.GreaterThan, domain.GreaterOrEqual,
		domain.Contains, domain.NotContains, domain.StartsWith, domain.NotStartsWith,
		domain.EndsWith, domain.NotEndsWith,
		domain.Has, domain.HasSome, domain.HasEvery, domain.IsEmpty,
		domain.GeoWithin,
	} {
		scalarOperators[string(op)] = op
	}
}

var aggregateKeys = map[string]domain.AggregateFunc{
	"_count": domain.AggCount,
	"_avg":   domain.AggAvg,
	"_sum":   domain.AggSum,
	"_min":   domain.AggMin,
	"_max":   domain.AggMax,
}

// where adds the conditions of obj to w. Aggregate comparisons
// ({"age":{"_avg":{"gt":30}}}) are only accepted in having.
func (p *parser) where(w *builder.WhereBuilder, path string, obj map[string]interface{}, having bool) error {
	model := w.Model()
	for _, key := range sortedKeys(obj) {
		v := obj[key]
		at := path + "." + key

		switch key {
		case "AND", "OR", "NOT":
			subs, err := p.group(w, at, v, having)
			if err != nil {
				return err
			}
			switch key {
			case "AND":
				w.AND(subs...)
			case "OR":
				w.OR(subs...)
			default:
				w.NOT(subs...)
			}
			continue
		}

		if rf := model.RelationField(key); rf != nil {
			if err := p.relation(w, at, rf, v); err != nil {
				return err
			}
			continue
		}

		f := model.ScalarField(key)
		if f == nil {
			return errorf(at, "%s has no field %s", model.Name, key)
		}
		ops, isOps := operatorObject(v)
		if !isOps {
			w.Equals(key, v)
			continue
		}
		if err := p.comparisons(w, at, key, ops, having); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) group(w *builder.WhereBuilder, path string, v interface{}, having bool) ([]*builder.WhereBuilder, error) {
	var items []interface{}
	switch t := v.(type) {
	case map[string]interface{}:
		items = []interface{}{t}
	case []interface{}:
		items = t
	default:
		return nil, errorf(path, "expected an object or a list, got %T", v)
	}

	subs := make([]*builder.WhereBuilder, 0, len(items))
	for i, item := range items {
		at := fmt.Sprintf("%s[%d]", path, i)
		obj, err := object(at, item)
		if err != nil {
			return nil, err
		}
		sub := w.Sub()
		if err := p.where(sub, at, obj, having); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (p *parser) relation(w *builder.WhereBuilder, path string, rf *schema.RelationField, v interface{}) error {
	if v == nil {
		w.RelationIsNull(rf.Name)
		return nil
	}
	obj, err := object(path, v)
	if err != nil {
		return err
	}

	conditional := false
	for key := range obj {
		if _, ok := relationConditions[key]; ok {
			conditional = true
		}
	}
	// {"author":{"email":"a"}} is shorthand for is.
	if !conditional {
		if rf.IsList {
			return errorf(path, "to-many relation %s needs some, every or none", rf.Name)
		}
		obj = map[string]interface{}{"is": obj}
	}

	for _, key := range sortedKeys(obj) {
		apply, ok := relationConditions[key]
		if !ok {
			return errorf(path+"."+key, "unknown relation condition")
		}
		nestedPath := path + "." + key
		nv := obj[key]

		if nv == nil {
			switch key {
			case "is":
				w.RelationIsNull(rf.Name)
			case "isNot":
				w.NOT(w.Sub().RelationIsNull(rf.Name))
			default:
				return errorf(nestedPath, "expected an object")
			}
			continue
		}

		nestedObj, err := object(nestedPath, nv)
		if err != nil {
			return err
		}
		nested := w.Related(rf.Name)
		if err := p.where(nested, nestedPath, nestedObj, false); err != nil {
			return err
		}
		apply(w, rf.Name, nested)
	}
	return nil
}

// operatorObject reports whether v is an operator object such as
// {"gt":1,"lt":5} rather than a plain value.
func operatorObject(v interface{}) (map[string]interface{}, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok || len(obj) == 0 {
		return nil, false
	}
	for key := range obj {
		if _, ok := scalarOperators[key]; ok {
			continue
		}
		if _, ok := aggregateKeys[key]; ok {
			continue
		}
		if key != "mode" {
			return nil, false
		}
	}
	return obj, true
}

func (p *parser) comparisons(w *builder.WhereBuilder, path, field string, ops map[string]interface{}, having bool) error {
	insensitive := false
	if mode, ok := ops["mode"]; ok {
		switch mode {
		case "insensitive":
			insensitive = true
		case "default":
		default:
			return errorf(path+".mode", "unknown mode %v", mode)
		}
	}

	for _, key := range sortedKeys(ops) {
		if key == "mode" {
			continue
		}
		at := path + "." + key
		v := ops[key]

		if fn, ok := aggregateKeys[key]; ok {
			if !having {
				return errorf(at, "aggregate comparisons are only allowed in having")
			}
			inner, err := object(at, v)
			if err != nil {
				return err
			}
			for _, opKey := range sortedKeys(inner) {
				op, ok := scalarOperators[opKey]
				if !ok {
					return errorf(at+"."+opKey, "unknown operator")
				}
				w.Aggregate(fn, field, op, inner[opKey])
			}
			continue
		}

		op := scalarOperators[key]
		// {"not":{"contains":"x"}} negates a nested comparison.
		if nested, isOps := operatorObject(v); op == domain.NotEquals && isOps {
			sub := w.Sub()
			if err := p.comparisons(sub, at, field, nested, false); err != nil {
				return err
			}
			w.NOT(sub)
			continue
		}

		w.Op(field, op, v)
		if insensitive && isTextOperator(op) {
			w.Insensitive()
		}
	}
	return nil
}

func isTextOperator(op domain.ScalarOperator) bool {
	switch op {
	case domain.Equals, domain.NotEquals, domain.In, domain.NotIn,
		domain.LessThan, domain.LessOrEqual, domain.GreaterThan, domain.GreaterOrEqual,
		domain.Contains, domain.NotContains, domain.StartsWith, domain.NotStartsWith,
		domain.EndsWith, domain.NotEndsWith:
		return true
	}
	return false
}

func parseSortOrder(path string, v interface{}) (domain.SortOrder, error) {
	switch v {
	case "asc":
		return domain.Ascending, nil
	case "desc":
		return domain.Descending, nil
	}
	return 0, errorf(path, "expected asc or desc, got %v", v)
}

// orderBy accepts one ordering object or a list of them. Objects with
// several keys are applied in key order; use a list when order matters.
func (p *parser) orderBy(o *builder.OrderByBuilder, model *schema.Model, path string, v interface{}) error {
	var items []interface{}
	switch t := v.(type) {
	case map[string]interface{}:
		items = []interface{}{t}
	case []interface{}:
		items = t
	default:
		return errorf(path, "expected an object or a list, got %T", v)
	}

	for i, item := range items {
		at := path
		if _, isList := v.([]interface{}); isList {
			at = fmt.Sprintf("%s[%d]", path, i)
		}
		obj, err := object(at, item)
		if err != nil {
			return err
		}
		if err := p.orderTerms(o, model, "", at, obj); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) orderTerms(o *builder.OrderByBuilder, model *schema.Model, prefix, path string, obj map[string]interface{}) error {
	for _, key := range sortedKeys(obj) {
		v := obj[key]
		at := path + "." + key

		if fn, ok := aggregateKeys[key]; ok && prefix == "" {
			fields, err := object(at, v)
			if err != nil {
				return err
			}
			for _, name := range sortedKeys(fields) {
				order, err := parseSortOrder(at+"."+name, fields[name])
				if err != nil {
					return err
				}
				o.Aggregate(fn, name, order)
			}
			continue
		}

		if rf := model.RelationField(key); rf != nil {
			nested, err := object(at, v)
			if err != nil {
				return err
			}
			if count, ok := nested["_count"]; ok {
				order, err := parseSortOrder(at+"._count", count)
				if err != nil {
					return err
				}
				o.Count(prefix+key, order)
				continue
			}
			if err := p.orderTerms(o, p.catalog.RelatedModel(rf), prefix+key+".", at, nested); err != nil {
				return err
			}
			continue
		}

		if model.ScalarField(key) == nil {
			return errorf(at, "%s has no field %s", model.Name, key)
		}
		if err := orderScalar(o, prefix+key, at, v); err != nil {
			return err
		}
	}
	return nil
}

func orderScalar(o *builder.OrderByBuilder, field, path string, v interface{}) error {
	if s, ok := v.(string); ok {
		order, err := parseSortOrder(path, s)
		if err != nil {
			return err
		}
		o.Order(field, order)
		return nil
	}

	obj, err := object(path, v)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(path+".sort", obj["sort"])
	if err != nil {
		return err
	}
	o.Order(field, order)

	switch obj["nulls"] {
	case nil:
	case "first":
		o.Nulls(domain.NullsFirst)
	case "last":
		o.Nulls(domain.NullsLast)
	default:
		return errorf(path+".nulls", "expected first or last, got %v", obj["nulls"])
	}
	return nil
}

// selection handles {"id":true,"_count":{"select":{"posts":true}}}.
func (p *parser) selection(qb *builder.QueryBuilder, v interface{}) error {
	obj, err := object("args.select", v)
	if err != nil {
		return err
	}
	for _, key := range sortedKeys(obj) {
		at := "args.select." + key
		if key == "_count" {
			if err := p.relationCounts(qb, at, obj[key]); err != nil {
				return err
			}
			continue
		}
		if on, ok := obj[key].(bool); !ok {
			return errorf(at, "expected a boolean")
		} else if on {
			qb.Select(key)
		}
	}
	return check(qb, "args.select")
}

func (p *parser) relationCounts(qb *builder.QueryBuilder, path string, v interface{}) error {
	obj, err := object(path, v)
	if err != nil {
		return err
	}
	if inner, ok := obj["select"]; ok {
		if obj, err = object(path+".select", inner); err != nil {
			return err
		}
		path += ".select"
	}

	for _, rel := range sortedKeys(obj) {
		at := path + "." + rel
		switch t := obj[rel].(type) {
		case bool:
			if t {
				qb.CountRelation(rel, nil)
			}
		case map[string]interface{}:
			rf := qb.Model().RelationField(rel)
			if rf == nil {
				return errorf(at, "%s has no relation %s", qb.Model().Name, rel)
			}
			w := qb.NewWhere().Related(rel)
			if where, ok := t["where"]; ok {
				whereObj, err := object(at+".where", where)
				if err != nil {
					return err
				}
				if err := p.where(w, at+".where", whereObj, false); err != nil {
					return err
				}
			}
			qb.CountRelation(rel, w)
		default:
			return errorf(at, "expected a boolean or an object")
		}
	}
	return nil
}

// aggregates reads _count, _sum, _avg, _min and _max selections.
func (p *parser) aggregates(ab *builder.AggregateBuilder, args map[string]interface{}) error {
	for _, key := range []string{"_count", "_sum", "_avg", "_min", "_max"} {
		v, ok := args[key]
		if !ok || v == nil {
			continue
		}
		at := "args." + key

		if key == "_count" {
			if all, ok := v.(bool); ok {
				if all {
					ab.CountAll()
				}
				continue
			}
		}

		obj, err := object(at, v)
		if err != nil {
			return err
		}
		var fields []string
		for _, name := range sortedKeys(obj) {
			on, ok := obj[name].(bool)
			if !ok {
				return errorf(at+"."+name, "expected a boolean")
			}
			if !on {
				continue
			}
			if key == "_count" && name == "_all" {
				ab.CountAll()
				continue
			}
			fields = append(fields, name)
		}
		if len(fields) == 0 {
			continue
		}

		switch key {
		case "_count":
			ab.Count(fields...)
		case "_sum":
			ab.Sum(fields...)
		case "_avg":
			ab.Avg(fields...)
		case "_min":
			ab.Min(fields...)
		case "_max":
			ab.Max(fields...)
		}
		if err := check(ab.QueryBuilder, at); err != nil {
			return err
		}
	}
	return nil
}
