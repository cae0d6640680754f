// Package validator checks schema documents against the structural rules of
// the schema-definition language before generation or publishing is attempted.
package validator

import (
	"fmt"
	"strings"

	"github.com/cets-data/cets-schema/internal/domain"
)

// ValidateDocument checks the whole document: entity name uniqueness, field
// name uniqueness within each entity, resolvable reference targets, and
// constraint well-formedness. The first offending construct aborts validation.
func ValidateDocument(doc domain.SchemaDocument) error {
	if strings.TrimSpace(doc.Name) == "" {
		return fmt.Errorf("schema document has no name")
	}
	if len(doc.Entities) == 0 {
		return fmt.Errorf("schema document %s defines no entities", doc.Name)
	}

	seen := make(map[string]struct{}, len(doc.Entities))
	for _, entity := range doc.Entities {
		key := strings.ToLower(entity.Name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate entity name %s", entity.Name)
		}
		seen[key] = struct{}{}
	}

	for _, entity := range doc.Entities {
		if err := validateEntity(doc, entity); err != nil {
			return err
		}
	}

	return nil
}

func validateEntity(doc domain.SchemaDocument, entity domain.EntityDefinition) error {
	if strings.TrimSpace(entity.Name) == "" {
		return fmt.Errorf("entity with empty name")
	}

	seen := make(map[string]struct{}, len(entity.Fields))
	for _, field := range entity.Fields {
		key := strings.ToLower(field.Name)
		if _, ok := seen[key]; ok {
			return fmt.Errorf("entity %s: duplicate field name %s", entity.Name, field.Name)
		}
		seen[key] = struct{}{}

		if err := validateField(doc, entity.Name, field); err != nil {
			return err
		}
	}

	return nil
}

func validateField(doc domain.SchemaDocument, entity string, field domain.FieldDefinition) error {
	if strings.TrimSpace(field.Name) == "" {
		return fmt.Errorf("entity %s: field with empty name", entity)
	}
	if !domain.KnownFieldType(field.Type) {
		return fmt.Errorf("entity %s: field %s has unknown type %q", entity, field.Name, field.Type)
	}

	switch field.Type {
	case domain.FieldTypeReference:
		if err := validateTarget(doc, entity, field.Name, field.Target); err != nil {
			return err
		}
	case domain.FieldTypeList:
		if field.Element == "" {
			return fmt.Errorf("entity %s: list field %s declares no element type", entity, field.Name)
		}
		if !domain.KnownFieldType(field.Element) || field.Element == domain.FieldTypeList || field.Element == domain.FieldTypeEnum {
			return fmt.Errorf("entity %s: list field %s has unsupported element type %q", entity, field.Name, field.Element)
		}
		if field.Element == domain.FieldTypeReference {
			if err := validateTarget(doc, entity, field.Name, field.Target); err != nil {
				return err
			}
		} else if field.Target != "" {
			return fmt.Errorf("entity %s: field %s declares a target but its element type %s is not a reference", entity, field.Name, field.Element)
		}
	default:
		if field.Target != "" {
			return fmt.Errorf("entity %s: field %s declares a target but type %s is not a reference", entity, field.Name, field.Type)
		}
		if field.Element != "" {
			return fmt.Errorf("entity %s: field %s declares an element type but is not a list", entity, field.Name)
		}
	}

	return validateConstraints(entity, field)
}

func validateTarget(doc domain.SchemaDocument, entity, field, target string) error {
	if strings.TrimSpace(target) == "" {
		return fmt.Errorf("entity %s: reference field %s declares no target entity", entity, field)
	}
	if _, ok := doc.Entity(target); !ok {
		return fmt.Errorf("entity %s: field %s references unknown entity %s", entity, field, target)
	}
	return nil
}

func validateConstraints(entity string, field domain.FieldDefinition) error {
	c := field.Constraints
	if c.Empty() {
		if field.Type == domain.FieldTypeEnum {
			return fmt.Errorf("entity %s: enum field %s declares no values", entity, field.Name)
		}
		return nil
	}

	numeric := field.Type == domain.FieldTypeInteger || field.Type == domain.FieldTypeFloat
	if (c.Minimum != nil || c.Maximum != nil) && !numeric {
		return fmt.Errorf("entity %s: field %s carries a numeric range but has type %s", entity, field.Name, field.Type)
	}
	if c.Minimum != nil && c.Maximum != nil && *c.Minimum > *c.Maximum {
		return fmt.Errorf("entity %s: field %s has inverted range [%g, %g]", entity, field.Name, *c.Minimum, *c.Maximum)
	}

	if len(c.Values) > 0 {
		if field.Type != domain.FieldTypeEnum {
			return fmt.Errorf("entity %s: field %s enumerates values but has type %s", entity, field.Name, field.Type)
		}
		seen := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("entity %s: enum field %s contains an empty value", entity, field.Name)
			}
			if _, ok := seen[v]; ok {
				return fmt.Errorf("entity %s: enum field %s repeats value %s", entity, field.Name, v)
			}
			seen[v] = struct{}{}
		}
	} else if field.Type == domain.FieldTypeEnum {
		return fmt.Errorf("entity %s: enum field %s declares no values", entity, field.Name)
	}

	if c.MinItems != nil || c.MaxItems != nil {
		if field.Type != domain.FieldTypeList {
			return fmt.Errorf("entity %s: field %s carries cardinality constraints but is not a list", entity, field.Name)
		}
		if c.MinItems != nil && *c.MinItems < 0 {
			return fmt.Errorf("entity %s: list field %s has negative minItems", entity, field.Name)
		}
		if c.MinItems != nil && c.MaxItems != nil && *c.MinItems > *c.MaxItems {
			return fmt.Errorf("entity %s: list field %s has inverted cardinality [%d, %d]", entity, field.Name, *c.MinItems, *c.MaxItems)
		}
	}

	return nil
}
