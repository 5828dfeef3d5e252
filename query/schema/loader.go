package schema

import (
	"fmt"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Enums  []enumFile  `yaml:"enums"`
	Models []modelFile `yaml:"models"`
}

type enumFile struct {
	Name   string   `yaml:"name"`
	DBName string   `yaml:"db_name"`
	Schema string   `yaml:"schema"`
	Values []string `yaml:"values"`
}

type modelFile struct {
	Name       string         `yaml:"name"`
	DBName     string         `yaml:"db_name"`
	Schema     string         `yaml:"schema"`
	PrimaryKey []string       `yaml:"primary_key"`
	Fields     []fieldFile    `yaml:"fields"`
	Relations  []relationFile `yaml:"relations"`
}

type fieldFile struct {
	Name       string `yaml:"name"`
	DBName     string `yaml:"db_name"`
	Type       string `yaml:"type"`
	NativeType string `yaml:"native_type"`
	List       bool   `yaml:"list"`
	Optional   bool   `yaml:"optional"`
}

type relationFile struct {
	Name         string   `yaml:"name"`
	Model        string   `yaml:"model"`
	RelationName string   `yaml:"relation_name"`
	List         bool     `yaml:"list"`
	Optional     bool     `yaml:"optional"`
	Fields       []string `yaml:"fields"`
	References   []string `yaml:"references"`
}

// LoadCatalog reads a YAML catalog description from the given file system.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from its YAML description.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	enums := make([]*Enum, 0, len(file.Enums))
	enumNames := make(map[string]bool, len(file.Enums))
	for _, e := range file.Enums {
		enums = append(enums, &Enum{
			Name:   e.Name,
			DBName: e.DBName,
			Schema: e.Schema,
			Values: e.Values,
		})
		enumNames[e.Name] = true
	}

	models := make([]*Model, 0, len(file.Models))
	for _, m := range file.Models {
		model := &Model{
			Name:       m.Name,
			DBName:     m.DBName,
			Schema:     m.Schema,
			PrimaryKey: m.PrimaryKey,
		}

		for _, f := range m.Fields {
			field, err := convertField(m.Name, f, enumNames)
			if err != nil {
				return nil, err
			}
			model.Fields = append(model.Fields, field)
		}

		for _, r := range m.Relations {
			model.Relations = append(model.Relations, &RelationField{
				Name:         r.Name,
				RelatedModel: r.Model,
				RelationName: r.RelationName,
				IsList:       r.List,
				IsRequired:   !r.Optional && !r.List,
				Fields:       r.Fields,
				References:   r.References,
			})
		}

		models = append(models, model)
	}

	return NewCatalog(models, enums)
}

func convertField(model string, f fieldFile, enumNames map[string]bool) (*ScalarField, error) {
	field := &ScalarField{
		Name:       f.Name,
		DBName:     f.DBName,
		IsList:     f.List,
		IsRequired: !f.Optional,
	}

	if ident, ok := builtinTypes[f.Type]; ok {
		field.Type = ident
	} else if enumNames[f.Type] {
		field.Type = TypeEnum
		field.EnumName = f.Type
	} else {
		return nil, fmt.Errorf("field %s.%s has unknown type %q", model, f.Name, f.Type)
	}

	if f.NativeType != "" {
		nt, err := ParseNativeType(f.NativeType)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", model, f.Name, err)
		}
		field.NativeType = nt
	}

	return field, nil
}
