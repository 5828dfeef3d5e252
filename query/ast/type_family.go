package ast

import "fmt"

// FamilyKind is the structural encoding class of a column.
type FamilyKind int

const (
	FamilyText FamilyKind = iota
	FamilyInt
	FamilyDouble
	FamilyDecimal
	FamilyBoolean
	FamilyUUID
	FamilyDateTime
	FamilyGeometry
	FamilyGeography
)

// TypeDataLength is the length facet of a text column.
type TypeDataLength struct {
	Maximum  bool
	Constant uint16
}

func (l TypeDataLength) String() string {
	if l.Maximum {
		return "max"
	}
	return fmt.Sprint(l.Constant)
}

// DecimalParams are the precision and scale of a decimal column.
type DecimalParams struct {
	Precision uint8
	Scale     uint8
}

// TypeFamily classifies a column for encoding. Facets are nil when the
// native type does not pin them.
type TypeFamily struct {
	Kind    FamilyKind
	Length  *TypeDataLength
	Decimal *DecimalParams
	SRID    *int32
}

// TextFamily builds Text with an optional length.
func TextFamily(length *TypeDataLength) TypeFamily {
	return TypeFamily{Kind: FamilyText, Length: length}
}

// DecimalFamily builds Decimal with optional precision and scale.
func DecimalFamily(params *DecimalParams) TypeFamily {
	return TypeFamily{Kind: FamilyDecimal, Decimal: params}
}

// GeometryFamily builds Geometry with an optional SRID.
func GeometryFamily(srid *int32) TypeFamily {
	return TypeFamily{Kind: FamilyGeometry, SRID: srid}
}

// GeographyFamily builds Geography with an optional SRID.
func GeographyFamily(srid *int32) TypeFamily {
	return TypeFamily{Kind: FamilyGeography, SRID: srid}
}

// SimpleFamily builds a family without facets.
func SimpleFamily(kind FamilyKind) TypeFamily {
	return TypeFamily{Kind: kind}
}

// IsSpatial reports whether the family is Geometry or Geography.
func (f TypeFamily) IsSpatial() bool {
	return f.Kind == FamilyGeometry || f.Kind == FamilyGeography
}

func (f TypeFamily) String() string {
	switch f.Kind {
	case FamilyText:
		if f.Length != nil {
			return "Text(" + f.Length.String() + ")"
		}
		return "Text"
	case FamilyInt:
		return "Int"
	case FamilyDouble:
		return "Double"
	case FamilyDecimal:
		if f.Decimal != nil {
			return fmt.Sprintf("Decimal(%d, %d)", f.Decimal.Precision, f.Decimal.Scale)
		}
		return "Decimal"
	case FamilyBoolean:
		return "Boolean"
	case FamilyUUID:
		return "Uuid"
	case FamilyDateTime:
		return "DateTime"
	case FamilyGeometry, FamilyGeography:
		name := "Geometry"
		if f.Kind == FamilyGeography {
			name = "Geography"
		}
		if f.SRID != nil {
			return fmt.Sprintf("%s(%d)", name, *f.SRID)
		}
		return name
	default:
		return fmt.Sprintf("TypeFamily(%d)", int(f.Kind))
	}
}
