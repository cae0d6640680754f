package domain

import (
	"fmt"
	"strings"
	"time"
)

// FieldType is the closed set of semantic types a field may carry.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeEnum      FieldType = "enum"
	FieldTypeReference FieldType = "reference"
	FieldTypeList      FieldType = "list"
)

// KnownFieldType reports whether t is part of the closed type set.
func KnownFieldType(t FieldType) bool {
	switch t {
	case FieldTypeString, FieldTypeInteger, FieldTypeFloat, FieldTypeBoolean,
		FieldTypeEnum, FieldTypeReference, FieldTypeList:
		return true
	}
	return false
}

// Constraints carries the optional validation rules attached to a field.
type Constraints struct {
	Minimum  *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum  *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Values   []string `json:"values,omitempty" yaml:"values,omitempty"`
	MinItems *int     `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems *int     `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
}

// Empty reports whether no constraint is set.
func (c *Constraints) Empty() bool {
	return c == nil ||
		(c.Minimum == nil && c.Maximum == nil && len(c.Values) == 0 &&
			c.MinItems == nil && c.MaxItems == nil)
}

// FieldDefinition is a single named, typed attribute of an entity.
//
// Element names the list element type when Type is "list". Target names the
// referenced entity when the field (or its list element) is a reference.
type FieldDefinition struct {
	Name        string       `json:"name" yaml:"name"`
	Type        FieldType    `json:"type" yaml:"type"`
	Required    bool         `json:"required,omitempty" yaml:"required,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Element     FieldType    `json:"element,omitempty" yaml:"element,omitempty"`
	Target      string       `json:"target,omitempty" yaml:"target,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty" yaml:"constraints,omitempty"`
}

// Signature renders the structural portion of the field (everything except its
// name and documentation). Two fields with equal signatures are
// interchangeable, which is how rename candidates are paired during diffing.
func (f FieldDefinition) Signature() string {
	var b strings.Builder
	fmt.Fprintf(&b, "type=%s", f.Type)
	if f.Element != "" {
		fmt.Fprintf(&b, " element=%s", f.Element)
	}
	if f.Target != "" {
		fmt.Fprintf(&b, " target=%s", f.Target)
	}
	fmt.Fprintf(&b, " required=%t", f.Required)
	if !f.Constraints.Empty() {
		c := f.Constraints
		if c.Minimum != nil {
			fmt.Fprintf(&b, " min=%g", *c.Minimum)
		}
		if c.Maximum != nil {
			fmt.Fprintf(&b, " max=%g", *c.Maximum)
		}
		if len(c.Values) > 0 {
			fmt.Fprintf(&b, " values=%s", strings.Join(c.Values, "|"))
		}
		if c.MinItems != nil {
			fmt.Fprintf(&b, " minItems=%d", *c.MinItems)
		}
		if c.MaxItems != nil {
			fmt.Fprintf(&b, " maxItems=%d", *c.MaxItems)
		}
	}
	return b.String()
}

// EntityDefinition is a named record type with an ordered set of fields.
type EntityDefinition struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// Field returns the field with the given name (case-insensitive) if present.
func (e EntityDefinition) Field(name string) (FieldDefinition, bool) {
	for _, f := range e.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// WithField returns a copy of the entity with the field added, or replaced
// when a field of the same name already exists.
func (e EntityDefinition) WithField(field FieldDefinition) EntityDefinition {
	fields := copyFields(e.Fields)

	found := false
	for i, existing := range fields {
		if strings.EqualFold(existing.Name, field.Name) {
			fields[i] = field
			found = true
			break
		}
	}
	if !found {
		fields = append(fields, field)
	}

	return EntityDefinition{Name: e.Name, Description: e.Description, Fields: fields}
}

// WithoutField returns a copy of the entity with the named field removed.
func (e EntityDefinition) WithoutField(name string) EntityDefinition {
	fields := make([]FieldDefinition, 0, len(e.Fields))
	for _, f := range e.Fields {
		if !strings.EqualFold(f.Name, name) {
			fields = append(fields, f)
		}
	}
	return EntityDefinition{Name: e.Name, Description: e.Description, Fields: fields}
}

// SchemaDocument is the full set of entity definitions for the standard. The
// working draft is a mutable document; published versions wrap an immutable
// copy of one.
type SchemaDocument struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Entities    []EntityDefinition `json:"entities" yaml:"entities"`
}

// Entity returns the entity with the given name (case-insensitive) if present.
func (d SchemaDocument) Entity(name string) (EntityDefinition, bool) {
	for _, e := range d.Entities {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return EntityDefinition{}, false
}

// WithEntity returns a copy of the document with the entity added, or replaced
// when one of the same name already exists.
func (d SchemaDocument) WithEntity(entity EntityDefinition) SchemaDocument {
	entities := copyEntities(d.Entities)

	found := false
	for i, existing := range entities {
		if strings.EqualFold(existing.Name, entity.Name) {
			entities[i] = entity
			found = true
			break
		}
	}
	if !found {
		entities = append(entities, entity)
	}

	return SchemaDocument{Name: d.Name, Description: d.Description, Entities: entities}
}

// WithoutEntity returns a copy of the document with the named entity removed.
func (d SchemaDocument) WithoutEntity(name string) SchemaDocument {
	entities := make([]EntityDefinition, 0, len(d.Entities))
	for _, e := range d.Entities {
		if !strings.EqualFold(e.Name, name) {
			entities = append(entities, e)
		}
	}
	return SchemaDocument{Name: d.Name, Description: d.Description, Entities: entities}
}

// Clone returns a deep copy of the document.
func (d SchemaDocument) Clone() SchemaDocument {
	return SchemaDocument{Name: d.Name, Description: d.Description, Entities: copyEntities(d.Entities)}
}

// SchemaVersion is an immutable published snapshot of a schema document,
// tagged with a semantic version and its changelog entry.
type SchemaVersion struct {
	Version     string         `json:"version"`
	Document    SchemaDocument `json:"document"`
	Changelog   string         `json:"changelog"`
	PublishedAt time.Time      `json:"published_at"`
}

func copyFields(fields []FieldDefinition) []FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make([]FieldDefinition, len(fields))
	copy(out, fields)
	return out
}

func copyEntities(entities []EntityDefinition) []EntityDefinition {
	if entities == nil {
		return nil
	}
	out := make([]EntityDefinition, len(entities))
	for i, e := range entities {
		out[i] = EntityDefinition{Name: e.Name, Description: e.Description, Fields: copyFields(e.Fields)}
	}
	return out
}
