// Package builder provides a fluent API for describing reads against a
// catalog: filters, orderings, pagination and aggregations. Fields are
// named as strings and reached through relations with dotted paths
// ("author.email").
package builder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"gopkg.in/inf.v0"

	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

var (
	ErrUnknownModel = errors.New("unknown model")
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

// number matches decoded JSON numbers kept as text (json.Number).
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// Value converts a Go value into the domain value for a field. List fields
// accept slices; nil becomes the null value.
func Value(field *schema.ScalarField, v interface{}) (domain.PrismaValue, error) {
	if v == nil {
		return domain.Null, nil
	}
	if pv, ok := v.(domain.PrismaValue); ok {
		return pv, nil
	}
	if field.IsList {
		return List(field, v)
	}
	return scalarValue(field, v)
}

// List converts a slice into a list of values for a field.
func List(field *schema.ScalarField, v interface{}) (domain.ListValue, error) {
	if lv, ok := v.(domain.ListValue); ok {
		return lv, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || (field.Type == schema.TypeBytes && rv.Type().Elem().Kind() == reflect.Uint8) {
		return nil, fmt.Errorf("%w: field %s expects a list, got %T", ErrInvalidValue, field.Name, v)
	}
	out := make(domain.ListValue, rv.Len())
	for i := range out {
		item := rv.Index(i).Interface()
		if item == nil {
			out[i] = domain.Null
			continue
		}
		pv, err := scalarValue(field, item)
		if err != nil {
			return nil, err
		}
		out[i] = pv
	}
	return out, nil
}

func scalarValue(field *schema.ScalarField, v interface{}) (domain.PrismaValue, error) {
	if v == nil {
		return domain.Null, nil
	}
	if pv, ok := v.(domain.PrismaValue); ok {
		return pv, nil
	}

	invalid := func() (domain.PrismaValue, error) {
		return nil, fmt.Errorf("%w: field %s of type %s cannot take %T", ErrInvalidValue, field.Name, field.Type, v)
	}

	switch field.Type {
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return domain.StringValue(s), nil
		}
	case schema.TypeEnum:
		if s, ok := v.(string); ok {
			return domain.EnumValue(s), nil
		}
	case schema.TypeInt, schema.TypeBigInt:
		i, ok := toInt64(v)
		if !ok {
			return invalid()
		}
		if field.Type == schema.TypeBigInt {
			return domain.BigIntValue(i), nil
		}
		return domain.IntValue(i), nil
	case schema.TypeFloat, schema.TypeDecimal:
		if d, ok := toDec(v); ok {
			return domain.FloatValue{Dec: d}, nil
		}
	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			return domain.BooleanValue(b), nil
		}
	case schema.TypeUUID:
		switch u := v.(type) {
		case uuid.UUID:
			return domain.UUIDValue(u), nil
		case string:
			parsed, err := uuid.Parse(u)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidValue, field.Name, err)
			}
			return domain.UUIDValue(parsed), nil
		}
	case schema.TypeDateTime:
		switch t := v.(type) {
		case time.Time:
			return domain.DateTimeValue(t), nil
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, t)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidValue, field.Name, err)
			}
			return domain.DateTimeValue(parsed), nil
		}
	case schema.TypeBytes:
		switch b := v.(type) {
		case []byte:
			return domain.BytesValue(b), nil
		case string:
			decoded, err := base64.StdEncoding.DecodeString(b)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidValue, field.Name, err)
			}
			return domain.BytesValue(decoded), nil
		}
	case schema.TypeJSON:
		if s, ok := v.(string); ok {
			return domain.JSONValue(s), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidValue, field.Name, err)
		}
		return domain.JSONValue(b), nil
	case schema.TypeGeometry:
		switch g := v.(type) {
		case string:
			if strings.HasPrefix(strings.TrimSpace(g), "{") {
				return domain.GeoJSONValue(g), nil
			}
			return domain.GeometryValue(g), nil
		case map[string]interface{}:
			b, err := json.Marshal(g)
			if err != nil {
				return nil, fmt.Errorf("%w: field %s: %v", ErrInvalidValue, field.Name, err)
			}
			return domain.GeoJSONValue(b), nil
		}
	}
	return invalid()
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toDec(v interface{}) (*inf.Dec, bool) {
	switch n := v.(type) {
	case *inf.Dec:
		return n, true
	case int:
		return inf.NewDec(int64(n), 0), true
	case int64:
		return inf.NewDec(n, 0), true
	case float64:
		return domain.Float(n).Dec, true
	case string:
		return new(inf.Dec).SetString(n)
	case number:
		return new(inf.Dec).SetString(n.String())
	}
	return nil, false
}

// resolveField walks a dotted path to a scalar field, returning the
// relation hops taken on the way.
func resolveField(catalog *schema.Catalog, model *schema.Model, path string) ([]*schema.RelationField, *schema.ScalarField, error) {
	parts := strings.Split(path, ".")
	hops, m, err := resolveRelations(catalog, model, parts[:len(parts)-1])
	if err != nil {
		return nil, nil, err
	}
	leaf := parts[len(parts)-1]
	f := m.ScalarField(leaf)
	if f == nil {
		return nil, nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, m.Name, leaf)
	}
	return hops, f, nil
}

func resolveRelations(catalog *schema.Catalog, model *schema.Model, names []string) ([]*schema.RelationField, *schema.Model, error) {
	var hops []*schema.RelationField
	m := model
	for _, name := range names {
		rf := m.RelationField(name)
		if rf == nil {
			return nil, nil, fmt.Errorf("%w: %s.%s is not a relation", ErrUnknownField, m.Name, name)
		}
		hops = append(hops, rf)
		m = catalog.RelatedModel(rf)
	}
	return hops, m, nil
}

func resolveRelation(catalog *schema.Catalog, model *schema.Model, path string) ([]*schema.RelationField, *schema.Model, error) {
	return resolveRelations(catalog, model, strings.Split(path, "."))
}

func lookupModel(catalog *schema.Catalog, name string) (*schema.Model, error) {
	m, err := catalog.Model(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	return m, nil
}
