// Package domain holds the connector-independent description of a read:
// values, filters, orderings, pagination arguments and aggregations.
package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

// PrismaValue is a value as it arrives from a validated query.
type PrismaValue interface {
	prismaValue()
}

type (
	StringValue   string
	IntValue      int64
	BigIntValue   int64
	BooleanValue  bool
	DateTimeValue time.Time
	UUIDValue     uuid.UUID
	EnumValue     string
	BytesValue    []byte
	// JSONValue is raw JSON text; it is parsed when encoded.
	JSONValue string
	// GeoJSONValue is a GeoJSON geometry document.
	GeoJSONValue string
	// GeometryValue is WKT or EWKT text.
	GeometryValue string
	ListValue     []PrismaValue
	// ObjectValue is a composite value; SQL connectors cannot bind it.
	ObjectValue map[string]PrismaValue
	NullValue   struct{}
)

// FloatValue is an arbitrary-precision decimal.
type FloatValue struct {
	Dec *inf.Dec
}

// GeometryDistanceValue is the argument of a radius search.
type GeometryDistanceValue struct {
	Point    GeometryValue
	Distance *inf.Dec
}

func (StringValue) prismaValue()           {}
func (IntValue) prismaValue()              {}
func (BigIntValue) prismaValue()           {}
func (FloatValue) prismaValue()            {}
func (BooleanValue) prismaValue()          {}
func (DateTimeValue) prismaValue()         {}
func (UUIDValue) prismaValue()             {}
func (EnumValue) prismaValue()             {}
func (BytesValue) prismaValue()            {}
func (JSONValue) prismaValue()             {}
func (GeoJSONValue) prismaValue()          {}
func (GeometryValue) prismaValue()         {}
func (GeometryDistanceValue) prismaValue() {}
func (ListValue) prismaValue()             {}
func (ObjectValue) prismaValue()           {}
func (NullValue) prismaValue()             {}

// Null is the null value.
var Null = NullValue{}

// Float builds a FloatValue from a float64, keeping the shortest exact
// decimal representation.
func Float(f float64) FloatValue {
	d, ok := new(inf.Dec).SetString(strconv.FormatFloat(f, 'f', -1, 64))
	if !ok {
		d = inf.NewDec(0, 0)
	}
	return FloatValue{Dec: d}
}

// Decimal builds a FloatValue from unscaled digits and a scale.
func Decimal(unscaled int64, scale int32) FloatValue {
	return FloatValue{Dec: inf.NewDec(unscaled, inf.Scale(scale))}
}

// IsNull reports whether v is the null value.
func IsNull(v PrismaValue) bool {
	_, ok := v.(NullValue)
	return ok
}
