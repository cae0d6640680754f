package domain

import (
	"fmt"
	"sort"
	"strings"
)

// FieldChange identifies one field-level change between two schema versions.
type FieldChange struct {
	Entity string `json:"entity"`
	Field  string `json:"field"`
	Detail string `json:"detail,omitempty"`
}

// FieldRename pairs a removed field with the added field that replaced it.
type FieldRename struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}

// SchemaDiff enumerates every change between two schema documents, in the
// shape the governance process requires change proposals to list them.
type SchemaDiff struct {
	EntitiesAdded   []string      `json:"entities_added,omitempty"`
	EntitiesRemoved []string      `json:"entities_removed,omitempty"`
	FieldsAdded     []FieldChange `json:"fields_added,omitempty"`
	FieldsRemoved   []FieldChange `json:"fields_removed,omitempty"`
	FieldsRenamed   []FieldRename `json:"fields_renamed,omitempty"`
	FieldsRetyped   []FieldChange `json:"fields_retyped,omitempty"`
	Tightened       []FieldChange `json:"tightened,omitempty"`
	Loosened        []FieldChange `json:"loosened,omitempty"`
	Editorial       []FieldChange `json:"editorial,omitempty"`
}

// Empty reports whether the two documents are identical.
func (d SchemaDiff) Empty() bool {
	return len(d.EntitiesAdded) == 0 && len(d.EntitiesRemoved) == 0 &&
		len(d.FieldsAdded) == 0 && len(d.FieldsRemoved) == 0 &&
		len(d.FieldsRenamed) == 0 && len(d.FieldsRetyped) == 0 &&
		len(d.Tightened) == 0 && len(d.Loosened) == 0 && len(d.Editorial) == 0
}

// Classify maps the diff onto the version-bump policy: removals, renames,
// retypes and loosened guarantees are breaking; additions and tightened
// guarantees are additive; anything else is editorial.
func (d SchemaDiff) Classify() ChangeClass {
	if len(d.EntitiesRemoved) > 0 || len(d.FieldsRemoved) > 0 ||
		len(d.FieldsRenamed) > 0 || len(d.FieldsRetyped) > 0 || len(d.Loosened) > 0 {
		return ChangeClassMajor
	}
	if len(d.EntitiesAdded) > 0 || len(d.FieldsAdded) > 0 || len(d.Tightened) > 0 {
		return ChangeClassMinor
	}
	return ChangeClassPatch
}

// Summary renders the diff as one line per change, ordered by change kind.
func (d SchemaDiff) Summary() []string {
	var lines []string
	for _, name := range d.EntitiesRemoved {
		lines = append(lines, fmt.Sprintf("entity %s removed", name))
	}
	for _, name := range d.EntitiesAdded {
		lines = append(lines, fmt.Sprintf("entity %s added", name))
	}
	for _, r := range d.FieldsRenamed {
		lines = append(lines, fmt.Sprintf("field %s.%s renamed to %s", r.Entity, r.From, r.To))
	}
	for _, c := range d.FieldsRemoved {
		lines = append(lines, fmt.Sprintf("field %s.%s removed", c.Entity, c.Field))
	}
	for _, c := range d.FieldsAdded {
		lines = append(lines, fmt.Sprintf("field %s.%s added", c.Entity, c.Field))
	}
	for _, c := range d.FieldsRetyped {
		lines = append(lines, fmt.Sprintf("field %s.%s retyped: %s", c.Entity, c.Field, c.Detail))
	}
	for _, c := range d.Loosened {
		lines = append(lines, fmt.Sprintf("field %s.%s loosened: %s", c.Entity, c.Field, c.Detail))
	}
	for _, c := range d.Tightened {
		lines = append(lines, fmt.Sprintf("field %s.%s tightened: %s", c.Entity, c.Field, c.Detail))
	}
	for _, c := range d.Editorial {
		if c.Field == "" {
			lines = append(lines, fmt.Sprintf("entity %s: %s", c.Entity, c.Detail))
		} else {
			lines = append(lines, fmt.Sprintf("field %s.%s: %s", c.Entity, c.Field, c.Detail))
		}
	}
	return lines
}

// DiffSchemas computes the field-level diff between two schema documents.
func DiffSchemas(old, updated SchemaDocument) SchemaDiff {
	var diff SchemaDiff

	oldEntities := entityMap(old)
	newEntities := entityMap(updated)

	for _, name := range sortedKeys(oldEntities) {
		if _, ok := newEntities[strings.ToLower(name)]; !ok {
			diff.EntitiesRemoved = append(diff.EntitiesRemoved, oldEntities[strings.ToLower(name)].Name)
		}
	}
	for _, name := range sortedKeys(newEntities) {
		if _, ok := oldEntities[strings.ToLower(name)]; !ok {
			diff.EntitiesAdded = append(diff.EntitiesAdded, newEntities[strings.ToLower(name)].Name)
		}
	}

	for _, key := range sortedKeys(oldEntities) {
		oldEntity := oldEntities[key]
		newEntity, ok := newEntities[key]
		if !ok {
			continue
		}
		diffEntity(&diff, oldEntity, newEntity)
	}

	return diff
}

func diffEntity(diff *SchemaDiff, oldEntity, newEntity EntityDefinition) {
	entity := newEntity.Name

	if oldEntity.Description != newEntity.Description {
		diff.Editorial = append(diff.Editorial, FieldChange{Entity: entity, Detail: "description changed"})
	}

	oldFields := fieldMap(oldEntity)
	newFields := fieldMap(newEntity)

	var removed, added []FieldDefinition
	for _, key := range sortedKeys(oldFields) {
		if _, ok := newFields[key]; !ok {
			removed = append(removed, oldFields[key])
		}
	}
	for _, key := range sortedKeys(newFields) {
		if _, ok := oldFields[key]; !ok {
			added = append(added, newFields[key])
		}
	}

	// Pair removed/added fields with identical signatures as renames so that
	// proposals can enumerate them. A rename is still a breaking change.
	usedAdded := make([]bool, len(added))
	for _, oldField := range removed {
		paired := false
		for i, newField := range added {
			if usedAdded[i] {
				continue
			}
			if oldField.Signature() == newField.Signature() {
				diff.FieldsRenamed = append(diff.FieldsRenamed, FieldRename{Entity: entity, From: oldField.Name, To: newField.Name})
				usedAdded[i] = true
				paired = true
				break
			}
		}
		if !paired {
			diff.FieldsRemoved = append(diff.FieldsRemoved, FieldChange{Entity: entity, Field: oldField.Name})
		}
	}
	for i, newField := range added {
		if !usedAdded[i] {
			diff.FieldsAdded = append(diff.FieldsAdded, FieldChange{Entity: entity, Field: newField.Name})
		}
	}

	for _, key := range sortedKeys(oldFields) {
		oldField := oldFields[key]
		newField, ok := newFields[key]
		if !ok {
			continue
		}
		diffField(diff, entity, oldField, newField)
	}
}

func diffField(diff *SchemaDiff, entity string, oldField, newField FieldDefinition) {
	if oldField.Type != newField.Type || oldField.Element != newField.Element ||
		!strings.EqualFold(oldField.Target, newField.Target) {
		diff.FieldsRetyped = append(diff.FieldsRetyped, FieldChange{
			Entity: entity,
			Field:  newField.Name,
			Detail: fmt.Sprintf("%s -> %s", describeType(oldField), describeType(newField)),
		})
		return
	}

	if !oldField.Required && newField.Required {
		diff.Tightened = append(diff.Tightened, FieldChange{Entity: entity, Field: newField.Name, Detail: "optional -> required"})
	}
	if oldField.Required && !newField.Required {
		diff.Loosened = append(diff.Loosened, FieldChange{Entity: entity, Field: newField.Name, Detail: "required -> optional"})
	}

	tightened, loosened := compareConstraints(oldField.Constraints, newField.Constraints)
	for _, detail := range loosened {
		diff.Loosened = append(diff.Loosened, FieldChange{Entity: entity, Field: newField.Name, Detail: detail})
	}
	for _, detail := range tightened {
		diff.Tightened = append(diff.Tightened, FieldChange{Entity: entity, Field: newField.Name, Detail: detail})
	}

	if oldField.Description != newField.Description {
		diff.Editorial = append(diff.Editorial, FieldChange{Entity: entity, Field: newField.Name, Detail: "description changed"})
	}
}

func compareConstraints(old, updated *Constraints) (tightened, loosened []string) {
	var o, n Constraints
	if old != nil {
		o = *old
	}
	if updated != nil {
		n = *updated
	}

	describeBound := func(name string, oldV, newV *float64, raisedTightens bool) {
		switch {
		case oldV == nil && newV != nil:
			tightened = append(tightened, fmt.Sprintf("%s constraint added", name))
		case oldV != nil && newV == nil:
			loosened = append(loosened, fmt.Sprintf("%s constraint removed", name))
		case oldV != nil && newV != nil && *oldV != *newV:
			raised := *newV > *oldV
			if raised == raisedTightens {
				tightened = append(tightened, fmt.Sprintf("%s %g -> %g", name, *oldV, *newV))
			} else {
				loosened = append(loosened, fmt.Sprintf("%s %g -> %g", name, *oldV, *newV))
			}
		}
	}

	describeBound("minimum", o.Minimum, n.Minimum, true)
	describeBound("maximum", o.Maximum, n.Maximum, false)
	describeBound("minItems", toFloat(o.MinItems), toFloat(n.MinItems), true)
	describeBound("maxItems", toFloat(o.MaxItems), toFloat(n.MaxItems), false)

	oldValues := make(map[string]struct{}, len(o.Values))
	for _, v := range o.Values {
		oldValues[v] = struct{}{}
	}
	newValues := make(map[string]struct{}, len(n.Values))
	for _, v := range n.Values {
		newValues[v] = struct{}{}
	}
	if len(o.Values) > 0 || len(n.Values) > 0 {
		var addedValues, removedValues []string
		for _, v := range n.Values {
			if _, ok := oldValues[v]; !ok {
				addedValues = append(addedValues, v)
			}
		}
		for _, v := range o.Values {
			if _, ok := newValues[v]; !ok {
				removedValues = append(removedValues, v)
			}
		}
		if len(addedValues) > 0 {
			loosened = append(loosened, fmt.Sprintf("enum values added: %s", strings.Join(addedValues, ", ")))
		}
		if len(removedValues) > 0 {
			tightened = append(tightened, fmt.Sprintf("enum values removed: %s", strings.Join(removedValues, ", ")))
		}
	}

	return tightened, loosened
}

func describeType(f FieldDefinition) string {
	switch {
	case f.Type == FieldTypeList && f.Element == FieldTypeReference:
		return fmt.Sprintf("list of %s", f.Target)
	case f.Type == FieldTypeList:
		return fmt.Sprintf("list of %s", f.Element)
	case f.Type == FieldTypeReference:
		return fmt.Sprintf("reference to %s", f.Target)
	default:
		return string(f.Type)
	}
}

func toFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func entityMap(doc SchemaDocument) map[string]EntityDefinition {
	out := make(map[string]EntityDefinition, len(doc.Entities))
	for _, e := range doc.Entities {
		out[strings.ToLower(e.Name)] = e
	}
	return out
}

func fieldMap(entity EntityDefinition) map[string]FieldDefinition {
	out := make(map[string]FieldDefinition, len(entity.Fields))
	for _, f := range entity.Fields {
		out[strings.ToLower(f.Name)] = f
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
