package ast

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom/encoding/wkt"
	"gopkg.in/inf.v0"
)

// ValueType tags the SQL type a literal is bound as.
type ValueType int

const (
	TypeText ValueType = iota
	TypeInt32
	TypeInt64
	TypeNumeric
	TypeDouble
	TypeBoolean
	TypeDateTime
	TypeUUID
	TypeEnum
	TypeEnumArray
	TypeArray
	TypeJSON
	TypeBytes
	TypeGeometry
	TypeGeography
	TypeGeometryDistance
)

var valueTypeNames = map[ValueType]string{
	TypeText:             "text",
	TypeInt32:            "int32",
	TypeInt64:            "int64",
	TypeNumeric:          "numeric",
	TypeDouble:           "double",
	TypeBoolean:          "boolean",
	TypeDateTime:         "datetime",
	TypeUUID:             "uuid",
	TypeEnum:             "enum",
	TypeEnumArray:        "enum[]",
	TypeArray:            "array",
	TypeJSON:             "json",
	TypeBytes:            "bytes",
	TypeGeometry:         "geometry",
	TypeGeography:        "geography",
	TypeGeometryDistance: "geometry_distance",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "ValueType(" + strconv.Itoa(int(t)) + ")"
}

// EnumName is an enum's database name qualified by its schema.
type EnumName struct {
	Name   string
	Schema string
}

func (e EnumName) String() string {
	if e.Schema == "" {
		return e.Name
	}
	return e.Schema + "." + e.Name
}

// GeometryValue is a WKT shape with its spatial reference id.
type GeometryValue struct {
	WKT  string
	SRID int32
}

// GeometryDistanceValue is a point and a search radius.
type GeometryDistanceValue struct {
	Point    GeometryValue
	Distance *inf.Dec
}

// Value is a typed SQL literal. A nil Raw is a NULL that keeps its type so
// drivers bind it with the right wire type.
//
// Raw holds, per Type: string (Text, UUID, Enum), int32, int64, *inf.Dec,
// float64, bool, time.Time, []string (EnumArray), []Value (Array), any
// decoded JSON (JSON), []byte, GeometryValue (Geometry, Geography) or
// GeometryDistanceValue.
type Value struct {
	Type       ValueType
	Raw        any
	Enum       *EnumName
	NativeType string
}

// IsNull reports whether the literal is a typed NULL.
func (v Value) IsNull() bool {
	return v.Raw == nil
}

// WithNativeType returns a copy tagged with the column's native type.
func (v Value) WithNativeType(nt string) Value {
	v.NativeType = nt
	return v
}

func (v Value) String() string {
	if v.IsNull() {
		return "NULL::" + v.Type.String()
	}
	switch raw := v.Raw.(type) {
	case string:
		return strconv.Quote(raw)
	case *inf.Dec:
		return raw.String()
	case time.Time:
		return raw.Format(time.RFC3339Nano)
	case GeometryValue:
		return fmt.Sprintf("SRID=%d;%s", raw.SRID, raw.WKT)
	default:
		return fmt.Sprint(raw)
	}
}

func Text(s string) Value                 { return Value{Type: TypeText, Raw: s} }
func Int32(i int32) Value                 { return Value{Type: TypeInt32, Raw: i} }
func Int64(i int64) Value                 { return Value{Type: TypeInt64, Raw: i} }
func Numeric(d *inf.Dec) Value            { return Value{Type: TypeNumeric, Raw: d} }
func Double(f float64) Value              { return Value{Type: TypeDouble, Raw: f} }
func Boolean(b bool) Value                { return Value{Type: TypeBoolean, Raw: b} }
func DateTime(t time.Time) Value          { return Value{Type: TypeDateTime, Raw: t} }
func UUID(s string) Value                 { return Value{Type: TypeUUID, Raw: s} }
func JSON(v any) Value                    { return Value{Type: TypeJSON, Raw: v} }
func Bytes(b []byte) Value                { return Value{Type: TypeBytes, Raw: b} }
func Array(items []Value) Value           { return Value{Type: TypeArray, Raw: items} }
func Geometry(g GeometryValue) Value      { return Value{Type: TypeGeometry, Raw: g} }
func Geography(g GeometryValue) Value     { return Value{Type: TypeGeography, Raw: g} }
func Distance(d GeometryDistanceValue) Value {
	return Value{Type: TypeGeometryDistance, Raw: d}
}

// Enum builds an enum variant literal.
func Enum(variant string, name EnumName) Value {
	return Value{Type: TypeEnum, Raw: variant, Enum: &name}
}

// EnumArray builds an enum list literal.
func EnumArray(variants []string, name EnumName) Value {
	return Value{Type: TypeEnumArray, Raw: variants, Enum: &name}
}

// Null builds a NULL of the given type.
func Null(t ValueType) Value {
	return Value{Type: t}
}

// NullEnum builds a NULL typed as the given enum.
func NullEnum(name EnumName) Value {
	return Value{Type: TypeEnum, Enum: &name}
}

// ParseGeometry reads WKT or EWKT ("SRID=4326;POINT(1 2)"). Plain WKT gets
// SRID 0.
func ParseGeometry(s string) (GeometryValue, error) {
	text := strings.TrimSpace(s)
	var srid int32

	if head, rest, ok := strings.Cut(text, ";"); ok && strings.HasPrefix(strings.ToUpper(head), "SRID=") {
		n, err := strconv.ParseInt(head[len("SRID="):], 10, 32)
		if err != nil {
			return GeometryValue{}, fmt.Errorf("invalid SRID in %q: %w", s, err)
		}
		srid = int32(n)
		text = strings.TrimSpace(rest)
	}

	if _, err := wkt.Unmarshal(text); err != nil {
		return GeometryValue{}, fmt.Errorf("invalid WKT %q: %w", text, err)
	}

	return GeometryValue{WKT: text, SRID: srid}, nil
}
