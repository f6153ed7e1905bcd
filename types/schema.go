package types

import (
	"fmt"
	"strings"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/guileen/litequery/engine/errors"
)

// Metadata keys carrying the split qualified name through arrow schemas.
const (
	metaQualifier = "litequery.qualifier"
	metaName      = "litequery.name"
)

// Field is a named, typed column, optionally qualified by the table it came from.
type Field struct {
	Name      string
	Qualifier string
	Type      arrow.DataType
	Nullable  bool
}

// NewField creates a field. An empty qualifier leaves the field unqualified.
func NewField(qualifier, name string, typ arrow.DataType, nullable bool) Field {
	return Field{Name: name, Qualifier: qualifier, Type: typ, Nullable: nullable}
}

// QualifiedName returns "qualifier.name", or just the name when unqualified.
func (f Field) QualifiedName() string {
	if f.Qualifier == "" {
		return f.Name
	}
	return f.Qualifier + "." + f.Name
}

// Equal compares names, nullability and data types.
func (f Field) Equal(o Field) bool {
	return f.Name == o.Name &&
		f.Qualifier == o.Qualifier &&
		f.Nullable == o.Nullable &&
		arrow.TypeEqual(f.Type, o.Type)
}

func (f Field) String() string {
	s := fmt.Sprintf("%s:%s", f.QualifiedName(), f.Type)
	if f.Nullable {
		s += "?"
	}
	return s
}

// Arrow converts the field to an arrow field named by its qualified name.
func (f Field) Arrow() arrow.Field {
	return arrow.Field{
		Name:     f.QualifiedName(),
		Type:     f.Type,
		Nullable: f.Nullable,
		Metadata: arrow.NewMetadata(
			[]string{metaQualifier, metaName},
			[]string{f.Qualifier, f.Name},
		),
	}
}

// FieldFromArrow is the inverse of Field.Arrow. Fields without litequery
// metadata are taken as unqualified, using the arrow name verbatim.
func FieldFromArrow(af arrow.Field) Field {
	f := Field{Name: af.Name, Type: af.Type, Nullable: af.Nullable}
	if i := af.Metadata.FindKey(metaName); i >= 0 {
		f.Name = af.Metadata.Values()[i]
	}
	if i := af.Metadata.FindKey(metaQualifier); i >= 0 {
		f.Qualifier = af.Metadata.Values()[i]
	}
	return f
}

// Schema is an ordered list of fields. Field order defines column position in
// every batch that conforms to it.
type Schema struct {
	fields []Field
}

// NewSchema creates a schema, rejecting duplicate qualified names.
func NewSchema(fields ...Field) (*Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Type == nil {
			return nil, errors.NewSchemaErrorf("NewSchema", "field %q has no data type", f.QualifiedName())
		}
		qn := f.QualifiedName()
		if _, dup := seen[qn]; dup {
			return nil, errors.NewSchemaErrorf("NewSchema", "duplicate field %q", qn)
		}
		seen[qn] = struct{}{}
	}
	return &Schema{fields: append([]Field(nil), fields...)}, nil
}

// MustSchema is like NewSchema but panics on error.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaFromArrow rebuilds a schema from its arrow form.
func SchemaFromArrow(as *arrow.Schema) (*Schema, error) {
	fields := make([]Field, len(as.Fields()))
	for i, af := range as.Fields() {
		fields[i] = FieldFromArrow(af)
	}
	return NewSchema(fields...)
}

// Len returns the number of fields
func (s *Schema) Len() int {
	return len(s.fields)
}

// Fields returns a copy of the fields in order
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field returns the field at ordinal i
func (s *Schema) Field(i int) (Field, error) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, errors.NewIndexError("Schema.Field", i, len(s.fields))
	}
	return s.fields[i], nil
}

// IndexOfName resolves a column position. With a qualifier, both parts must
// match; without one, any field with that unqualified name matches. Several
// matches are ambiguous unless they all name the same qualified field, which
// happens when a projection repeats a column; the first position wins then.
func (s *Schema) IndexOfName(qualifier, name string) (int, error) {
	var matches []int
	for i, f := range s.fields {
		if f.Name != name {
			continue
		}
		if qualifier != "" && f.Qualifier != qualifier {
			continue
		}
		matches = append(matches, i)
	}

	ref := name
	if qualifier != "" {
		ref = qualifier + "." + name
	}

	switch len(matches) {
	case 0:
		return -1, errors.NewNotFoundErrorf("Schema.IndexOfName", "no column named %q in %s", ref, s)
	case 1:
		return matches[0], nil
	}

	first := s.fields[matches[0]].QualifiedName()
	candidates := []string{first}
	for _, i := range matches[1:] {
		if qn := s.fields[i].QualifiedName(); qn != first {
			candidates = append(candidates, qn)
		}
	}
	if len(candidates) > 1 {
		return -1, errors.NewAmbiguousNameError("Schema.IndexOfName", ref, candidates)
	}
	return matches[0], nil
}

// Project returns a schema holding the fields at indices, in that order.
// Indices may repeat or reorder.
func (s *Schema) Project(indices []int) (*Schema, error) {
	fields := make([]Field, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(s.fields) {
			return nil, errors.NewIndexError("Schema.Project", idx, len(s.fields))
		}
		fields[i] = s.fields[idx]
	}
	return &Schema{fields: fields}, nil
}

// Equal reports whether both schemas hold equal fields in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if !s.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// Arrow converts the schema to an arrow schema named by qualified names.
func (s *Schema) Arrow() *arrow.Schema {
	fields := make([]arrow.Field, len(s.fields))
	for i, f := range s.fields {
		fields[i] = f.Arrow()
	}
	return arrow.NewSchema(fields, nil)
}

func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
