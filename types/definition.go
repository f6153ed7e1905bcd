package types

import (
	"github.com/guileen/litequery/engine/errors"
)

// FieldDefinition is the serializable form of a Field, used by configuration
// files and the batch store.
type FieldDefinition struct {
	Name      string     `json:"name" yaml:"name"`
	Qualifier string     `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
	Type      ColumnType `json:"type" yaml:"type"`
	Nullable  bool       `json:"nullable" yaml:"nullable"`
}

// Field converts the definition, qualifying it with defaultQualifier when the
// definition carries no qualifier of its own.
func (d FieldDefinition) Field(defaultQualifier string) (Field, error) {
	dt := d.Type.ArrowType()
	if dt == nil {
		return Field{}, errors.NewSchemaErrorf("FieldDefinition.Field", "column %q has unsupported type %q", d.Name, d.Type)
	}
	if d.Name == "" {
		return Field{}, errors.NewSchemaErrorf("FieldDefinition.Field", "column without a name")
	}
	q := d.Qualifier
	if q == "" {
		q = defaultQualifier
	}
	return NewField(q, d.Name, dt, d.Nullable), nil
}

// SchemaFromDefinitions builds a schema from definitions.
func SchemaFromDefinitions(defaultQualifier string, defs []FieldDefinition) (*Schema, error) {
	fields := make([]Field, len(defs))
	for i, d := range defs {
		f, err := d.Field(defaultQualifier)
		if err != nil {
			return nil, err
		}
		fields[i] = f
	}
	return NewSchema(fields...)
}

// Definitions converts every field of the schema to its serializable form.
func (s *Schema) Definitions() ([]FieldDefinition, error) {
	defs := make([]FieldDefinition, len(s.fields))
	for i, f := range s.fields {
		ct, ok := ColumnTypeOf(f.Type)
		if !ok {
			return nil, errors.NewSchemaErrorf("Schema.Definitions", "column %q has no column type for %s", f.QualifiedName(), f.Type)
		}
		defs[i] = FieldDefinition{Name: f.Name, Qualifier: f.Qualifier, Type: ct, Nullable: f.Nullable}
	}
	return defs, nil
}
