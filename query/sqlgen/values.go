package sqlgen

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/segmentio/encoding/json"
	"gopkg.in/inf.v0"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/connector"
)

// postgresNullCasts pins the wire type of typed NULLs on PostgreSQL.
var postgresNullCasts = map[ast.ValueType]string{
	ast.TypeText:      "text",
	ast.TypeInt32:     "int4",
	ast.TypeInt64:     "int8",
	ast.TypeNumeric:   "numeric",
	ast.TypeDouble:    "float8",
	ast.TypeBoolean:   "boolean",
	ast.TypeDateTime:  "timestamp",
	ast.TypeUUID:      "uuid",
	ast.TypeJSON:      "jsonb",
	ast.TypeBytes:     "bytea",
	ast.TypeGeometry:  "geometry",
	ast.TypeGeography: "geography",
}

// value binds a literal and returns the SQL text standing for it.
func (r *renderer) value(v ast.Value) string {
	if v.IsNull() {
		return r.null(v)
	}

	switch v.Type {
	case ast.TypeText, ast.TypeUUID:
		return r.arg(v.Raw.(string))
	case ast.TypeInt32:
		return r.arg(v.Raw.(int32))
	case ast.TypeInt64:
		return r.arg(v.Raw.(int64))
	case ast.TypeNumeric:
		return r.arg(v.Raw.(*inf.Dec).String())
	case ast.TypeDouble:
		return r.arg(v.Raw.(float64))
	case ast.TypeBoolean:
		return r.arg(v.Raw.(bool))
	case ast.TypeDateTime:
		return r.arg(v.Raw.(time.Time))
	case ast.TypeBytes:
		return r.arg(v.Raw.([]byte))
	case ast.TypeJSON:
		text, err := json.Marshal(v.Raw)
		if err != nil {
			return r.fail("JSON literal: %v", err)
		}
		if r.d.isPostgres() {
			return r.arg(string(text)) + "::jsonb"
		}
		return r.arg(string(text))
	case ast.TypeEnum:
		p := r.arg(v.Raw.(string))
		if r.d.isPostgres() && r.d.caps.NativeEnums && v.Enum != nil {
			return p + "::" + r.enumType(*v.Enum)
		}
		return p
	case ast.TypeEnumArray:
		variants := v.Raw.([]string)
		if r.d.isPostgres() {
			p := r.arg(pq.Array(variants))
			if r.d.caps.NativeEnums && v.Enum != nil {
				return p + "::" + r.enumType(*v.Enum) + "[]"
			}
			return p
		}
		return r.jsonArray(variants)
	case ast.TypeArray:
		return r.array(v.Raw.([]ast.Value))
	case ast.TypeGeometry, ast.TypeGeography:
		return r.spatial(v)
	case ast.TypeGeometryDistance:
		return r.fail("distance values outside a radius search")
	default:
		return r.fail("value type %s", v.Type)
	}
}

// null binds a typed NULL so drivers never guess its wire type.
func (r *renderer) null(v ast.Value) string {
	var p string
	switch v.Type {
	case ast.TypeText, ast.TypeUUID, ast.TypeJSON, ast.TypeEnum, ast.TypeGeometry, ast.TypeGeography:
		p = r.arg(sql.NullString{})
	case ast.TypeInt32:
		p = r.arg(sql.NullInt32{})
	case ast.TypeInt64:
		p = r.arg(sql.NullInt64{})
	case ast.TypeNumeric, ast.TypeDouble:
		p = r.arg(sql.NullFloat64{})
	case ast.TypeBoolean:
		p = r.arg(sql.NullBool{})
	case ast.TypeDateTime:
		p = r.arg(sql.NullTime{})
	case ast.TypeBytes:
		p = r.arg([]byte(nil))
	default:
		return r.fail("NULL of type %s", v.Type)
	}

	if !r.d.isPostgres() {
		return p
	}
	if v.Type == ast.TypeEnum && v.Enum != nil && r.d.caps.NativeEnums {
		return p + "::" + r.enumType(*v.Enum)
	}
	if cast, ok := postgresNullCasts[v.Type]; ok {
		return p + "::" + cast
	}
	return p
}

func (r *renderer) enumType(e ast.EnumName) string {
	if e.Schema == "" {
		return r.d.quote(e.Name)
	}
	return r.d.quote(e.Schema) + "." + r.d.quote(e.Name)
}

// array binds a list literal: a native array on PostgreSQL, JSON text elsewhere.
func (r *renderer) array(items []ast.Value) string {
	if !r.d.isPostgres() {
		raw := make([]interface{}, len(items))
		for i, item := range items {
			raw[i] = jsonScalar(item)
		}
		return r.jsonArray(raw)
	}

	if len(items) == 0 {
		return r.arg(pq.Array([]string{}))
	}

	switch items[0].Type {
	case ast.TypeText, ast.TypeUUID, ast.TypeEnum:
		out := make([]string, len(items))
		for i, item := range items {
			s, ok := item.Raw.(string)
			if !ok {
				return r.fail("mixed or NULL array elements")
			}
			out[i] = s
		}
		return r.arg(pq.Array(out))
	case ast.TypeInt32, ast.TypeInt64:
		out := make([]int64, len(items))
		for i, item := range items {
			switch n := item.Raw.(type) {
			case int32:
				out[i] = int64(n)
			case int64:
				out[i] = n
			default:
				return r.fail("mixed or NULL array elements")
			}
		}
		return r.arg(pq.Array(out))
	case ast.TypeNumeric:
		out := make([]string, len(items))
		for i, item := range items {
			d, ok := item.Raw.(*inf.Dec)
			if !ok {
				return r.fail("mixed or NULL array elements")
			}
			out[i] = d.String()
		}
		return r.arg(pq.Array(out)) + "::numeric[]"
	case ast.TypeDouble:
		out := make([]float64, len(items))
		for i, item := range items {
			f, ok := item.Raw.(float64)
			if !ok {
				return r.fail("mixed or NULL array elements")
			}
			out[i] = f
		}
		return r.arg(pq.Array(out))
	case ast.TypeBoolean:
		out := make([]bool, len(items))
		for i, item := range items {
			b, ok := item.Raw.(bool)
			if !ok {
				return r.fail("mixed or NULL array elements")
			}
			out[i] = b
		}
		return r.arg(pq.Array(out))
	default:
		return r.fail("array of %s", items[0].Type)
	}
}

func (r *renderer) jsonArray(v interface{}) string {
	text, err := json.Marshal(v)
	if err != nil {
		return r.fail("array literal: %v", err)
	}
	return r.arg(string(text))
}

func jsonScalar(v ast.Value) interface{} {
	switch raw := v.Raw.(type) {
	case *inf.Dec:
		return raw.String()
	case time.Time:
		return raw.Format(time.RFC3339Nano)
	default:
		return raw
	}
}

// spatial renders a WKT literal converted to the dialect's spatial type.
func (r *renderer) spatial(v ast.Value) string {
	if r.d.provider == connector.SQLServer {
		return r.sqlServerSpatial(v)
	}

	g := v.Raw.(ast.GeometryValue)
	switch {
	case r.d.isPostgres() && v.Type == ast.TypeGeography:
		return fmt.Sprintf("ST_GeogFromText(%s)", r.arg(fmt.Sprintf("SRID=%d;%s", g.SRID, g.WKT)))
	case r.d.provider == connector.SQLite:
		return fmt.Sprintf("GeomFromText(%s, %d)", r.arg(g.WKT), g.SRID)
	default:
		return fmt.Sprintf("ST_GeomFromText(%s, %d)", r.arg(g.WKT), g.SRID)
	}
}
