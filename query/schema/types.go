// Package schema holds the immutable, already-validated schema catalog the
// query compiler reads model, field and relation metadata from.
package schema

import (
	"fmt"
	"strings"
)

// TypeIdentifier is the declared scalar type of a field.
type TypeIdentifier string

const (
	TypeString      TypeIdentifier = "String"
	TypeInt         TypeIdentifier = "Int"
	TypeBigInt      TypeIdentifier = "BigInt"
	TypeFloat       TypeIdentifier = "Float"
	TypeDecimal     TypeIdentifier = "Decimal"
	TypeBoolean     TypeIdentifier = "Boolean"
	TypeEnum        TypeIdentifier = "Enum"
	TypeUUID        TypeIdentifier = "Uuid"
	TypeJSON        TypeIdentifier = "Json"
	TypeDateTime    TypeIdentifier = "DateTime"
	TypeBytes       TypeIdentifier = "Bytes"
	TypeGeometry    TypeIdentifier = "Geometry"
	TypeUnsupported TypeIdentifier = "Unsupported"
)

// builtinTypes lists the identifiers that can be written directly in a catalog file.
var builtinTypes = map[string]TypeIdentifier{
	"String":      TypeString,
	"Int":         TypeInt,
	"BigInt":      TypeBigInt,
	"Float":       TypeFloat,
	"Decimal":     TypeDecimal,
	"Boolean":     TypeBoolean,
	"Uuid":        TypeUUID,
	"Json":        TypeJSON,
	"DateTime":    TypeDateTime,
	"Bytes":       TypeBytes,
	"Geometry":    TypeGeometry,
	"Unsupported": TypeUnsupported,
}

// NativeType is a connector-specific column type annotation such as
// VarChar(255) or Decimal(10, 2).
type NativeType struct {
	Name string
	Args []string
}

// String renders the annotation the way it is written in a schema.
func (n *NativeType) String() string {
	if n == nil {
		return ""
	}
	if len(n.Args) == 0 {
		return n.Name
	}
	return fmt.Sprintf("%s(%s)", n.Name, strings.Join(n.Args, ", "))
}

// Model is a table-backed model.
type Model struct {
	Name       string
	DBName     string
	Schema     string
	Fields     []*ScalarField
	Relations  []*RelationField
	PrimaryKey []string
}

// ScalarField returns the scalar field with the given name, or nil.
func (m *Model) ScalarField(name string) *ScalarField {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// RelationField returns the relation field with the given name, or nil.
func (m *Model) RelationField(name string) *RelationField {
	for _, r := range m.Relations {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// PrimaryIdentifier returns the scalar fields making up the primary key,
// in key order.
func (m *Model) PrimaryIdentifier() []*ScalarField {
	fields := make([]*ScalarField, 0, len(m.PrimaryKey))
	for _, name := range m.PrimaryKey {
		fields = append(fields, m.ScalarField(name))
	}
	return fields
}

// ScalarField is a column-backed field of a model.
type ScalarField struct {
	Name       string
	DBName     string
	Model      string
	Type       TypeIdentifier
	EnumName   string
	NativeType *NativeType
	IsList     bool
	IsRequired bool
}

// IsEnum reports whether the field is typed by an enum.
func (f *ScalarField) IsEnum() bool {
	return f.Type == TypeEnum
}

// RelationField links a model to another model. The side carrying Fields
// holds the foreign key columns; References name the referenced fields on
// the related model.
type RelationField struct {
	Name         string
	Model        string
	RelatedModel string
	RelationName string
	IsList       bool
	IsRequired   bool
	Fields       []string
	References   []string
}

// IsInlined reports whether this side of the relation stores the foreign key.
func (r *RelationField) IsInlined() bool {
	return len(r.Fields) > 0
}

// Enum is a named set of string variants.
type Enum struct {
	Name   string
	DBName string
	Schema string
	Values []string
}
