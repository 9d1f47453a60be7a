// Package schema defines the contract field schema: the ordered set of
// field descriptors a template expects. A schema is loaded once per run
// and is read-only afterwards, so it is safe to share across workers.
package schema

import (
	"fmt"
	"regexp"
	"slices"

	"contractfill/constants"
)

// Field describes one expected contract field.
type Field struct {
	Name          string
	Type          constants.FieldType
	Required      bool
	FormatPattern *regexp.Regexp // nil when the schema file omits it
	AllowedValues []string       // empty when unrestricted
}

// AllowsValue reports whether v is permitted by the allowed_values set.
// An empty set permits everything.
func (f Field) AllowsValue(v string) bool {
	if len(f.AllowedValues) == 0 {
		return true
	}
	return slices.Contains(f.AllowedValues, v)
}

// Schema is an ordered, immutable sequence of field descriptors.
type Schema struct {
	fields []Field
	byName map[string]int
}

// New builds a Schema from descriptors, enforcing unique names.
func New(fields []Field) (*Schema, error) {
	s := &Schema{
		fields: slices.Clone(fields),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field %d: empty name", i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name: %q", f.Name)
		}
		s.byName[f.Name] = i
	}
	return s, nil
}

// Fields returns the descriptors in declaration order.
func (s *Schema) Fields() []Field {
	return slices.Clone(s.fields)
}

// Lookup returns the descriptor for name.
func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Names returns all field names in declaration order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}
