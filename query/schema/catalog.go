package schema

import (
	"fmt"
)

// Catalog is the validated set of models and enums for one process
// generation. It is built once and never mutated afterwards, so it is safe to
// share between concurrent compilations without locking.
type Catalog struct {
	models   map[string]*Model
	order    []*Model
	enums    map[string]*Enum
	opposite map[*RelationField]*RelationField
}

// NewCatalog indexes and validates the given models and enums.
func NewCatalog(models []*Model, enums []*Enum) (*Catalog, error) {
	c := &Catalog{
		models:   make(map[string]*Model, len(models)),
		order:    make([]*Model, 0, len(models)),
		enums:    make(map[string]*Enum, len(enums)),
		opposite: make(map[*RelationField]*RelationField),
	}

	for _, e := range enums {
		if _, exists := c.enums[e.Name]; exists {
			return nil, fmt.Errorf("enum %s declared twice", e.Name)
		}
		if e.DBName == "" {
			e.DBName = e.Name
		}
		c.enums[e.Name] = e
	}

	for _, m := range models {
		if _, exists := c.models[m.Name]; exists {
			return nil, fmt.Errorf("model %s declared twice", m.Name)
		}
		if m.DBName == "" {
			m.DBName = m.Name
		}
		c.models[m.Name] = m
		c.order = append(c.order, m)
	}

	for _, m := range c.order {
		if err := c.indexModel(m); err != nil {
			return nil, err
		}
	}

	for _, m := range c.order {
		for _, rf := range m.Relations {
			if err := c.pairRelation(rf); err != nil {
				return nil, err
			}
		}
	}

	return c, nil
}

func (c *Catalog) indexModel(m *Model) error {
	for _, f := range m.Fields {
		f.Model = m.Name
		if f.DBName == "" {
			f.DBName = f.Name
		}
		if f.Type == "" {
			return fmt.Errorf("field %s.%s has no type", m.Name, f.Name)
		}
		if f.Type == TypeEnum {
			if _, ok := c.enums[f.EnumName]; !ok {
				return fmt.Errorf("field %s.%s references unknown enum %s", m.Name, f.Name, f.EnumName)
			}
		}
	}

	if len(m.PrimaryKey) == 0 {
		return fmt.Errorf("model %s has no primary key", m.Name)
	}
	for _, name := range m.PrimaryKey {
		if m.ScalarField(name) == nil {
			return fmt.Errorf("primary key of %s references unknown field %s", m.Name, name)
		}
	}

	for _, rf := range m.Relations {
		rf.Model = m.Name
		related, ok := c.models[rf.RelatedModel]
		if !ok {
			return fmt.Errorf("relation %s.%s points to unknown model %s", m.Name, rf.Name, rf.RelatedModel)
		}
		if len(rf.Fields) != len(rf.References) {
			return fmt.Errorf("relation %s.%s: fields and references differ in length", m.Name, rf.Name)
		}
		if rf.IsList && rf.IsInlined() {
			return fmt.Errorf("relation %s.%s: a list relation cannot hold the foreign key", m.Name, rf.Name)
		}
		for i, name := range rf.Fields {
			if m.ScalarField(name) == nil {
				return fmt.Errorf("relation %s.%s references unknown local field %s", m.Name, rf.Name, name)
			}
			if related.ScalarField(rf.References[i]) == nil {
				return fmt.Errorf("relation %s.%s references unknown field %s.%s", m.Name, rf.Name, related.Name, rf.References[i])
			}
		}
	}

	return nil
}

func (c *Catalog) pairRelation(rf *RelationField) error {
	related := c.models[rf.RelatedModel]

	for _, candidate := range related.Relations {
		if candidate == rf || candidate.RelatedModel != rf.Model {
			continue
		}
		if candidate.RelationName != rf.RelationName {
			continue
		}
		if candidate.IsInlined() == rf.IsInlined() {
			return fmt.Errorf("relation %s.%s and %s.%s must have exactly one side holding the foreign key",
				rf.Model, rf.Name, candidate.Model, candidate.Name)
		}
		c.opposite[rf] = candidate
		return nil
	}

	if !rf.IsInlined() {
		return fmt.Errorf("relation %s.%s has no opposite side holding the foreign key", rf.Model, rf.Name)
	}
	return nil
}

// Model looks up a model by name.
func (c *Catalog) Model(name string) (*Model, error) {
	m, ok := c.models[name]
	if !ok {
		return nil, fmt.Errorf("model %s not found", name)
	}
	return m, nil
}

// Models returns all models in declaration order.
func (c *Catalog) Models() []*Model {
	out := make([]*Model, len(c.order))
	copy(out, c.order)
	return out
}

// Enum looks up an enum by name.
func (c *Catalog) Enum(name string) (*Enum, error) {
	e, ok := c.enums[name]
	if !ok {
		return nil, fmt.Errorf("enum %s not found", name)
	}
	return e, nil
}

// ModelOf returns the model containing the given scalar field.
func (c *Catalog) ModelOf(f *ScalarField) *Model {
	m, ok := c.models[f.Model]
	if !ok {
		panic(fmt.Sprintf("schema: field %s belongs to unknown model %s", f.Name, f.Model))
	}
	return m
}

// ParentModel returns the model declaring the relation field.
func (c *Catalog) ParentModel(rf *RelationField) *Model {
	m, ok := c.models[rf.Model]
	if !ok {
		panic(fmt.Sprintf("schema: relation %s belongs to unknown model %s", rf.Name, rf.Model))
	}
	return m
}

// RelatedModel returns the model the relation field points to.
func (c *Catalog) RelatedModel(rf *RelationField) *Model {
	m, ok := c.models[rf.RelatedModel]
	if !ok {
		panic(fmt.Sprintf("schema: relation %s.%s points to unknown model %s", rf.Model, rf.Name, rf.RelatedModel))
	}
	return m
}

// OppositeRelation returns the back-relation field, or nil for one-sided relations.
func (c *Catalog) OppositeRelation(rf *RelationField) *RelationField {
	return c.opposite[rf]
}

// JoinFields returns the scalar fields linking the two sides of a relation:
// local fields live on the relation's parent model, remote fields on the
// related model, pairwise equal when rows are related.
func (c *Catalog) JoinFields(rf *RelationField) (local, remote []*ScalarField) {
	parent := c.ParentModel(rf)
	related := c.RelatedModel(rf)

	if rf.IsInlined() {
		for i, name := range rf.Fields {
			local = append(local, parent.ScalarField(name))
			remote = append(remote, related.ScalarField(rf.References[i]))
		}
		return local, remote
	}

	opp := c.OppositeRelation(rf)
	for i, name := range opp.Fields {
		local = append(local, parent.ScalarField(opp.References[i]))
		remote = append(remote, related.ScalarField(name))
	}
	return local, remote
}

// EnumOf returns the enum typing a field, or nil when the field is not an enum.
func (c *Catalog) EnumOf(f *ScalarField) *Enum {
	if !f.IsEnum() {
		return nil
	}
	return c.enums[f.EnumName]
}
