package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/satishbabariya/prisma-query-engine/query/ast"
	"github.com/satishbabariya/prisma-query-engine/query/domain"
	"github.com/satishbabariya/prisma-query-engine/query/schema"
)

// geoJSONSRID is the only spatial reference GeoJSON input is read in.
const geoJSONSRID = 4326

// Encode converts a domain value into a typed literal for the given field.
// Object values and Unsupported fields never reach this point; both panic.
func Encode(field *schema.ScalarField, value domain.PrismaValue, ctx *Context) (ast.Value, error) {
	v, err := encodeValue(field, value, ctx)
	if err != nil {
		return ast.Value{}, err
	}
	if field.NativeType != nil {
		v = v.WithNativeType(field.NativeType.Name)
	}
	return v, nil
}

func encodeValue(field *schema.ScalarField, value domain.PrismaValue, ctx *Context) (ast.Value, error) {
	switch v := value.(type) {
	case domain.StringValue:
		return ast.Text(string(v)), nil
	case domain.IntValue:
		return ast.Int64(int64(v)), nil
	case domain.BigIntValue:
		return ast.Int64(int64(v)), nil
	case domain.FloatValue:
		return ast.Numeric(v.Dec), nil
	case domain.BooleanValue:
		return ast.Boolean(bool(v)), nil
	case domain.DateTimeValue:
		return ast.DateTime(time.Time(v)), nil
	case domain.UUIDValue:
		return ast.UUID(uuid.UUID(v).String()), nil
	case domain.EnumValue:
		if e := ctx.Catalog.EnumOf(field); e != nil {
			return ast.Enum(string(v), ctx.enumName(e)), nil
		}
		return ast.Text(string(v)), nil
	case domain.BytesValue:
		return ast.Bytes([]byte(v)), nil
	case domain.ListValue:
		return encodeList(field, v, ctx)
	case domain.JSONValue:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return ast.Value{}, &DecodeError{Field: field.Name, Kind: "JSON", Err: err}
		}
		return ast.JSON(decoded), nil
	case domain.GeoJSONValue:
		g, err := geometryFromGeoJSON(string(v))
		if err != nil {
			return ast.Value{}, &DecodeError{Field: field.Name, Kind: "GeoJSON", Err: err}
		}
		return spatial(field, g), nil
	case domain.GeometryValue:
		g, err := ast.ParseGeometry(string(v))
		if err != nil {
			return ast.Value{}, &DecodeError{Field: field.Name, Kind: "geometry", Err: err}
		}
		return spatial(field, g), nil
	case domain.GeometryDistanceValue:
		g, err := ast.ParseGeometry(string(v.Point))
		if err != nil {
			return ast.Value{}, &DecodeError{Field: field.Name, Kind: "geometry", Err: err}
		}
		return ast.Distance(ast.GeometryDistanceValue{Point: g, Distance: v.Distance}), nil
	case domain.NullValue:
		return typedNull(field, ctx), nil
	case domain.ObjectValue:
		panic(fmt.Sprintf("codec: composite value for field %s cannot be bound as a SQL literal", field.Name))
	default:
		panic(fmt.Sprintf("codec: unhandled value %T for field %s", value, field.Name))
	}
}

func encodeList(field *schema.ScalarField, list domain.ListValue, ctx *Context) (ast.Value, error) {
	if e := ctx.Catalog.EnumOf(field); e != nil {
		variants := make([]string, 0, len(list))
		for _, item := range list {
			switch iv := item.(type) {
			case domain.EnumValue:
				variants = append(variants, string(iv))
			case domain.StringValue:
				variants = append(variants, string(iv))
			default:
				panic(fmt.Sprintf("codec: enum list for field %s holds %T", field.Name, item))
			}
		}
		return ast.EnumArray(variants, ctx.enumName(e)), nil
	}

	items := make([]ast.Value, 0, len(list))
	for _, item := range list {
		v, err := encodeValue(field, item, ctx)
		if err != nil {
			return ast.Value{}, err
		}
		items = append(items, v)
	}
	return ast.Array(items), nil
}

// typedNull returns the NULL literal matching the field's declared type.
func typedNull(field *schema.ScalarField, ctx *Context) ast.Value {
	switch field.Type {
	case schema.TypeString:
		return ast.Null(ast.TypeText)
	case schema.TypeFloat, schema.TypeDecimal:
		return ast.Null(ast.TypeNumeric)
	case schema.TypeBoolean:
		return ast.Null(ast.TypeBoolean)
	case schema.TypeEnum:
		return ast.NullEnum(ctx.enumName(ctx.Catalog.EnumOf(field)))
	case schema.TypeJSON:
		return ast.Null(ast.TypeJSON)
	case schema.TypeDateTime:
		return ast.Null(ast.TypeDateTime)
	case schema.TypeUUID:
		return ast.Null(ast.TypeUUID)
	case schema.TypeInt:
		return ast.Null(ast.TypeInt32)
	case schema.TypeBigInt:
		return ast.Null(ast.TypeInt64)
	case schema.TypeBytes:
		return ast.Null(ast.TypeBytes)
	case schema.TypeGeometry:
		if TypeFamily(field).Kind == ast.FamilyGeography {
			return ast.Null(ast.TypeGeography)
		}
		return ast.Null(ast.TypeGeometry)
	default:
		panic(fmt.Sprintf("codec: no typed null for %s field %s", field.Type, field.Name))
	}
}

func spatial(field *schema.ScalarField, g ast.GeometryValue) ast.Value {
	if TypeFamily(field).Kind == ast.FamilyGeography {
		return ast.Geography(g)
	}
	return ast.Geometry(g)
}

func geometryFromGeoJSON(s string) (ast.GeometryValue, error) {
	var g geom.T
	if err := geojson.Unmarshal([]byte(s), &g); err != nil {
		return ast.GeometryValue{}, err
	}
	text, err := wkt.Marshal(g)
	if err != nil {
		return ast.GeometryValue{}, err
	}
	return ast.GeometryValue{WKT: text, SRID: geoJSONSRID}, nil
}

// TypeFamily classifies a field from its declared type and native type.
func TypeFamily(field *schema.ScalarField) ast.TypeFamily {
	var args []string
	if field.NativeType != nil {
		args = field.NativeType.Args
	}

	switch field.Type {
	case schema.TypeString, schema.TypeBytes:
		return ast.TextFamily(parseLength(args))
	case schema.TypeInt, schema.TypeBigInt:
		return ast.SimpleFamily(ast.FamilyInt)
	case schema.TypeFloat:
		return ast.SimpleFamily(ast.FamilyDouble)
	case schema.TypeDecimal:
		return ast.DecimalFamily(parseDecimalParams(args))
	case schema.TypeBoolean:
		return ast.SimpleFamily(ast.FamilyBoolean)
	case schema.TypeEnum:
		return ast.TextFamily(&ast.TypeDataLength{Constant: 8000})
	case schema.TypeUUID:
		return ast.SimpleFamily(ast.FamilyUUID)
	case schema.TypeJSON:
		return ast.TextFamily(&ast.TypeDataLength{Maximum: true})
	case schema.TypeDateTime:
		return ast.SimpleFamily(ast.FamilyDateTime)
	case schema.TypeGeometry:
		srid := parseSRID(args)
		if field.NativeType != nil && strings.EqualFold(field.NativeType.Name, "Geography") {
			return ast.GeographyFamily(srid)
		}
		return ast.GeometryFamily(srid)
	default:
		panic(fmt.Sprintf("codec: field %s of type %s has no type family", field.Name, field.Type))
	}
}

func parseLength(args []string) *ast.TypeDataLength {
	if len(args) == 0 {
		return nil
	}
	if strings.EqualFold(args[0], "max") {
		return &ast.TypeDataLength{Maximum: true}
	}
	n, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return nil
	}
	return &ast.TypeDataLength{Constant: uint16(n)}
}

func parseDecimalParams(args []string) *ast.DecimalParams {
	if len(args) != 2 {
		return nil
	}
	p, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return nil
	}
	s, err := strconv.ParseUint(args[1], 10, 8)
	if err != nil {
		return nil
	}
	return &ast.DecimalParams{Precision: uint8(p), Scale: uint8(s)}
}

// parseSRID reads Geometry(4326) or Geometry(Point, 4326).
func parseSRID(args []string) *int32 {
	var raw string
	switch len(args) {
	case 1:
		raw = args[0]
	case 2:
		raw = args[1]
	default:
		return nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil
	}
	srid := int32(n)
	return &srid
}
