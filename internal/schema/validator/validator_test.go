package validator

import (
	"strings"
	"testing"

	"github.com/cets-data/cets-schema/internal/domain"
)

func validDoc() domain.SchemaDocument {
	return domain.SchemaDocument{
		Name: "cets",
		Entities: []domain.EntityDefinition{
			{
				Name: "CTFMetadata",
				Fields: []domain.FieldDefinition{
					{Name: "defocus_u", Type: domain.FieldTypeFloat},
				},
			},
			{
				Name: "Tomogram",
				Fields: []domain.FieldDefinition{
					{Name: "id", Type: domain.FieldTypeString, Required: true},
					{Name: "pixel_size", Type: domain.FieldTypeFloat},
					{Name: "ctf_metadata", Type: domain.FieldTypeReference, Target: "CTFMetadata"},
				},
			},
		},
	}
}

func intPtr(v int) *int { return &v }

func fPtr(v float64) *float64 { return &v }

func TestValidateDocument_AcceptsValidDocument(t *testing.T) {
	if err := ValidateDocument(validDoc()); err != nil {
		t.Fatalf("expected valid document, got %v", err)
	}
}

func TestValidateDocument_DuplicateFieldName(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")
	tomogram.Fields = append(tomogram.Fields, domain.FieldDefinition{Name: "id", Type: domain.FieldTypeString})
	doc = doc.WithEntity(tomogram)

	err := ValidateDocument(doc)
	if err == nil {
		t.Fatalf("expected duplicate field name to fail validation")
	}
	if !strings.Contains(err.Error(), "duplicate field name id") {
		t.Fatalf("error should identify the offending field, got %v", err)
	}
}

func TestValidateDocument_DuplicateEntityName(t *testing.T) {
	doc := validDoc()
	doc.Entities = append(doc.Entities, domain.EntityDefinition{Name: "tomogram"})

	if err := ValidateDocument(doc); err == nil {
		t.Fatalf("expected duplicate entity name to fail validation")
	}
}

func TestValidateDocument_UnresolvedReference(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")
	doc = doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "alignment", Type: domain.FieldTypeReference, Target: "Alignment",
	}))

	err := ValidateDocument(doc)
	if err == nil || !strings.Contains(err.Error(), "references unknown entity Alignment") {
		t.Fatalf("expected unresolved reference error, got %v", err)
	}
}

func TestValidateDocument_UnknownFieldType(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")
	doc = doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "shape", Type: domain.FieldType("geometry"),
	}))

	if err := ValidateDocument(doc); err == nil {
		t.Fatalf("expected unknown field type to fail validation")
	}
}

func TestValidateDocument_ListRules(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")

	missingElement := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "tags", Type: domain.FieldTypeList,
	}))
	if err := ValidateDocument(missingElement); err == nil {
		t.Fatalf("expected list without element type to fail")
	}

	nestedList := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "matrix", Type: domain.FieldTypeList, Element: domain.FieldTypeList,
	}))
	if err := ValidateDocument(nestedList); err == nil {
		t.Fatalf("expected nested list to fail")
	}

	refList := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "ctfs", Type: domain.FieldTypeList, Element: domain.FieldTypeReference, Target: "CTFMetadata",
		Constraints: &domain.Constraints{MinItems: intPtr(1)},
	}))
	if err := ValidateDocument(refList); err != nil {
		t.Fatalf("expected reference list to validate, got %v", err)
	}
}

func TestValidateDocument_EnumRules(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")

	noValues := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "axis_type", Type: domain.FieldTypeEnum,
	}))
	if err := ValidateDocument(noValues); err == nil {
		t.Fatalf("expected enum without values to fail")
	}

	repeated := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "axis_type", Type: domain.FieldTypeEnum,
		Constraints: &domain.Constraints{Values: []string{"space", "space"}},
	}))
	if err := ValidateDocument(repeated); err == nil {
		t.Fatalf("expected repeated enum value to fail")
	}

	valuesOnString := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "kind", Type: domain.FieldTypeString,
		Constraints: &domain.Constraints{Values: []string{"a"}},
	}))
	if err := ValidateDocument(valuesOnString); err == nil {
		t.Fatalf("expected enumerated values on a string field to fail")
	}
}

func TestValidateDocument_RangeRules(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")

	inverted := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "voxel_size", Type: domain.FieldTypeFloat,
		Constraints: &domain.Constraints{Minimum: fPtr(10), Maximum: fPtr(1)},
	}))
	if err := ValidateDocument(inverted); err == nil {
		t.Fatalf("expected inverted range to fail")
	}

	rangeOnString := doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "label", Type: domain.FieldTypeString,
		Constraints: &domain.Constraints{Minimum: fPtr(0)},
	}))
	if err := ValidateDocument(rangeOnString); err == nil {
		t.Fatalf("expected numeric range on string field to fail")
	}
}

func TestValidateDocument_TargetOnNonReference(t *testing.T) {
	doc := validDoc()
	tomogram, _ := doc.Entity("Tomogram")
	doc = doc.WithEntity(tomogram.WithField(domain.FieldDefinition{
		Name: "path", Type: domain.FieldTypeString, Target: "CTFMetadata",
	}))

	if err := ValidateDocument(doc); err == nil {
		t.Fatalf("expected target on a non-reference field to fail")
	}
}
