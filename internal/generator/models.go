package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"github.com/cets-data/cets-schema/internal/domain"
)

// GenerateModels renders the Go model source for a validated document.
// Entities are emitted in name order, fields in declaration order. Required
// fields map to value types and optional fields to pointers; lists map to
// slices and references to the named entity types.
func GenerateModels(doc domain.SchemaDocument, pkg string) ([]byte, error) {
	g := &sourceGenerator{}

	g.appendLine("// Code generated from the %s schema definition. DO NOT EDIT.", doc.Name)
	g.appendLine("")
	g.appendLine("package %s", pkg)

	for _, entity := range sortedEntities(doc) {
		g.emitEnums(entity)
		g.emitEntity(entity)
	}

	formatted, err := format.Source(g.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated model code does not format: %w", err)
	}
	return formatted, nil
}

type sourceGenerator struct {
	buf bytes.Buffer
}

func (g *sourceGenerator) appendLine(line string, args ...any) {
	fmt.Fprintf(&g.buf, line+"\n", args...)
}

func (g *sourceGenerator) emitEnums(entity domain.EntityDefinition) {
	for _, field := range entity.Fields {
		if field.Type != domain.FieldTypeEnum {
			continue
		}

		typeName := enumTypeName(entity, field)
		g.appendLine("")
		g.appendLine("// %s enumerates the allowed values of %s.%s.", typeName, entity.Name, field.Name)
		g.appendLine("type %s string", typeName)
		g.appendLine("")
		g.appendLine("const (")
		for _, value := range field.Constraints.Values {
			g.appendLine("\t%s%s %s = %q", typeName, goName(value), typeName, value)
		}
		g.appendLine(")")
	}
}

func (g *sourceGenerator) emitEntity(entity domain.EntityDefinition) {
	g.appendLine("")
	if entity.Description != "" {
		g.appendLine("// %s", docComment(entity.Name, entity.Description))
	}
	g.appendLine("type %s struct {", goName(entity.Name))

	for _, field := range entity.Fields {
		if field.Description != "" {
			g.appendLine("\t// %s", strings.Join(strings.Fields(field.Description), " "))
		}
		g.appendLine("\t%s %s `json:%q`", goName(field.Name), goFieldType(entity, field), jsonTag(field))
	}

	g.appendLine("}")
}

func goFieldType(entity domain.EntityDefinition, field domain.FieldDefinition) string {
	switch field.Type {
	case domain.FieldTypeList:
		return "[]" + scalarType(entity, domain.FieldDefinition{
			Name: field.Name, Type: field.Element, Target: field.Target, Constraints: field.Constraints,
		})
	default:
		base := scalarType(entity, field)
		if field.Required {
			return base
		}
		return "*" + base
	}
}

func scalarType(entity domain.EntityDefinition, field domain.FieldDefinition) string {
	switch field.Type {
	case domain.FieldTypeString:
		return "string"
	case domain.FieldTypeInteger:
		return "int64"
	case domain.FieldTypeFloat:
		return "float64"
	case domain.FieldTypeBoolean:
		return "bool"
	case domain.FieldTypeEnum:
		return enumTypeName(entity, field)
	case domain.FieldTypeReference:
		return goName(field.Target)
	default:
		return "any"
	}
}

func enumTypeName(entity domain.EntityDefinition, field domain.FieldDefinition) string {
	return goName(entity.Name) + goName(field.Name)
}

func jsonTag(field domain.FieldDefinition) string {
	if field.Required {
		return field.Name
	}
	return field.Name + ",omitempty"
}

// initialisms that keep their conventional Go casing in generated names.
var initialisms = map[string]string{
	"id":   "ID",
	"uuid": "UUID",
	"url":  "URL",
	"uri":  "URI",
	"ctf":  "CTF",
}

// goName converts a schema name (snake_case or already CamelCase) to an
// exported Go identifier.
func goName(name string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	}) {
		if replacement, ok := initialisms[strings.ToLower(part)]; ok {
			b.WriteString(replacement)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func docComment(name, description string) string {
	text := strings.Join(strings.Fields(description), " ")
	if strings.HasPrefix(text, name) {
		return text
	}
	return fmt.Sprintf("%s is %s", goName(name), lowerFirst(text))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
