// Package export renders review artifacts for stakeholder groups: a field
// inventory of a schema document and the enumerated change report for a
// proposal, as spreadsheets or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cets-data/cets-schema/internal/domain"
)

var fieldInventoryHeader = []any{"Entity", "Field", "Type", "Required", "Constraints", "Description"}

// WriteFieldInventoryXLSX writes one spreadsheet row per field across all
// entities, in document order.
func WriteFieldInventoryXLSX(doc domain.SchemaDocument, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Fields"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &fieldInventoryHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, entity := range doc.Entities {
		for _, field := range entity.Fields {
			cells := fieldRow(entity, field)
			if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
				return fmt.Errorf("failed to write row for %s.%s: %w", entity.Name, field.Name, err)
			}
			row++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFieldInventoryCSV writes the same inventory as CSV.
func WriteFieldInventoryCSV(doc domain.SchemaDocument, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, len(fieldInventoryHeader))
	for i, h := range fieldInventoryHeader {
		header[i] = h.(string)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, entity := range doc.Entities {
		for _, field := range entity.Fields {
			cells := fieldRow(entity, field)
			record := make([]string, len(cells))
			for i, c := range cells {
				record[i] = fmt.Sprintf("%v", c)
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write row for %s.%s: %w", entity.Name, field.Name, err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteChangeReportXLSX writes the enumerated diff between two versions, one
// row per change, for circulation during the review window.
func WriteChangeReportXLSX(fromLabel, toLabel string, diff domain.SchemaDiff, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Changes"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Kind", "Entity", "Field", "Detail", "Classification"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	title := []any{"summary", "", "", fmt.Sprintf("changes from %s to %s", fromLabel, toLabel), string(diff.Classify())}
	if err := f.SetSheetRow(sheet, "A2", &title); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}

	row := 3
	writeRow := func(cells []any) error {
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &cells); err != nil {
			return fmt.Errorf("failed to write change row: %w", err)
		}
		row++
		return nil
	}

	for _, rec := range changeRows(diff) {
		if err := writeRow(rec); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteChangeReportCSV writes the same change report as CSV.
func WriteChangeReportCSV(fromLabel, toLabel string, diff domain.SchemaDiff, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Kind", "Entity", "Field", "Detail", "Classification"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	title := []string{"summary", "", "", fmt.Sprintf("changes from %s to %s", fromLabel, toLabel), string(diff.Classify())}
	if err := cw.Write(title); err != nil {
		return fmt.Errorf("failed to write title: %w", err)
	}

	for _, rec := range changeRows(diff) {
		record := make([]string, len(rec))
		for i, c := range rec {
			record[i] = fmt.Sprintf("%v", c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write change row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// changeRows flattens a diff into report rows, breaking changes first.
func changeRows(diff domain.SchemaDiff) [][]any {
	major := string(domain.ChangeClassMajor)
	minor := string(domain.ChangeClassMinor)
	patch := string(domain.ChangeClassPatch)

	var rows [][]any
	for _, name := range diff.EntitiesRemoved {
		rows = append(rows, []any{"entity removed", name, "", "", major})
	}
	for _, r := range diff.FieldsRenamed {
		rows = append(rows, []any{"field renamed", r.Entity, r.From, "renamed to " + r.To, major})
	}
	for _, c := range diff.FieldsRemoved {
		rows = append(rows, []any{"field removed", c.Entity, c.Field, c.Detail, major})
	}
	for _, c := range diff.FieldsRetyped {
		rows = append(rows, []any{"field retyped", c.Entity, c.Field, c.Detail, major})
	}
	for _, c := range diff.Loosened {
		rows = append(rows, []any{"guarantee loosened", c.Entity, c.Field, c.Detail, major})
	}
	for _, name := range diff.EntitiesAdded {
		rows = append(rows, []any{"entity added", name, "", "", minor})
	}
	for _, c := range diff.FieldsAdded {
		rows = append(rows, []any{"field added", c.Entity, c.Field, c.Detail, minor})
	}
	for _, c := range diff.Tightened {
		rows = append(rows, []any{"guarantee tightened", c.Entity, c.Field, c.Detail, minor})
	}
	for _, c := range diff.Editorial {
		rows = append(rows, []any{"editorial", c.Entity, c.Field, c.Detail, patch})
	}
	return rows
}

func fieldRow(entity domain.EntityDefinition, field domain.FieldDefinition) []any {
	return []any{
		entity.Name,
		field.Name,
		typeText(field),
		field.Required,
		constraintText(field.Constraints),
		strings.Join(strings.Fields(field.Description), " "),
	}
}

func typeText(field domain.FieldDefinition) string {
	switch {
	case field.Type == domain.FieldTypeList && field.Element == domain.FieldTypeReference:
		return fmt.Sprintf("list of %s", field.Target)
	case field.Type == domain.FieldTypeList:
		return fmt.Sprintf("list of %s", field.Element)
	case field.Type == domain.FieldTypeReference:
		return fmt.Sprintf("reference to %s", field.Target)
	default:
		return string(field.Type)
	}
}

func constraintText(c *domain.Constraints) string {
	if c.Empty() {
		return ""
	}

	var parts []string
	if c.Minimum != nil {
		parts = append(parts, fmt.Sprintf("min %g", *c.Minimum))
	}
	if c.Maximum != nil {
		parts = append(parts, fmt.Sprintf("max %g", *c.Maximum))
	}
	if len(c.Values) > 0 {
		parts = append(parts, fmt.Sprintf("one of %s", strings.Join(c.Values, "|")))
	}
	if c.MinItems != nil {
		parts = append(parts, fmt.Sprintf("minItems %d", *c.MinItems))
	}
	if c.MaxItems != nil {
		parts = append(parts, fmt.Sprintf("maxItems %d", *c.MaxItems))
	}
	return strings.Join(parts, "; ")
}
