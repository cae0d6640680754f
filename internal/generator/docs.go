package generator

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/cets-data/cets-schema/internal/domain"
)

// GenerateDocs renders markdown documentation for a validated document, one
// section per entity with a field table.
func GenerateDocs(doc domain.SchemaDocument) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n", doc.Name)
	if doc.Description != "" {
		fmt.Fprintf(&buf, "\n%s\n", doc.Description)
	}

	for _, entity := range sortedEntities(doc) {
		fmt.Fprintf(&buf, "\n## %s\n", entity.Name)
		if entity.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", entity.Description)
		}

		if len(entity.Fields) == 0 {
			continue
		}

		fmt.Fprintf(&buf, "\n| Field | Type | Required | Constraints | Description |\n")
		fmt.Fprintf(&buf, "| --- | --- | --- | --- | --- |\n")
		for _, field := range entity.Fields {
			fmt.Fprintf(&buf, "| `%s` | %s | %s | %s | %s |\n",
				field.Name,
				docType(field),
				yesNo(field.Required),
				docConstraints(field.Constraints),
				tableText(field.Description),
			)
		}
	}

	return buf.Bytes(), nil
}

func docType(field domain.FieldDefinition) string {
	switch field.Type {
	case domain.FieldTypeList:
		if field.Element == domain.FieldTypeReference {
			return fmt.Sprintf("list of [%s](#%s)", field.Target, strings.ToLower(field.Target))
		}
		return fmt.Sprintf("list of %s", field.Element)
	case domain.FieldTypeReference:
		return fmt.Sprintf("[%s](#%s)", field.Target, strings.ToLower(field.Target))
	default:
		return string(field.Type)
	}
}

func docConstraints(c *domain.Constraints) string {
	if c.Empty() {
		return "—"
	}

	var parts []string
	if c.Minimum != nil {
		parts = append(parts, fmt.Sprintf("min %g", *c.Minimum))
	}
	if c.Maximum != nil {
		parts = append(parts, fmt.Sprintf("max %g", *c.Maximum))
	}
	if len(c.Values) > 0 {
		parts = append(parts, fmt.Sprintf("one of: %s", strings.Join(c.Values, ", ")))
	}
	if c.MinItems != nil {
		parts = append(parts, fmt.Sprintf("at least %d items", *c.MinItems))
	}
	if c.MaxItems != nil {
		parts = append(parts, fmt.Sprintf("at most %d items", *c.MaxItems))
	}
	return strings.Join(parts, "; ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func tableText(s string) string {
	if s == "" {
		return ""
	}
	return strings.ReplaceAll(strings.Join(strings.Fields(s), " "), "|", "\\|")
}
