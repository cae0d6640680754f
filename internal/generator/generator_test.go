package generator

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/cets-data/cets-schema/internal/domain"
)

func fixtureDoc() domain.SchemaDocument {
	min := 0.0
	return domain.SchemaDocument{
		Name:        "cets",
		Description: "Cryo-electron tomography metadata standard.",
		Entities: []domain.EntityDefinition{
			{
				Name:        "Tomogram",
				Description: "A 3D tomogram.",
				Fields: []domain.FieldDefinition{
					{Name: "id", Type: domain.FieldTypeString, Required: true, Description: "Stable identifier."},
					{Name: "pixel_size", Type: domain.FieldTypeFloat, Description: "Sampling rate in angstroms / voxel.", Constraints: &domain.Constraints{Minimum: &min}},
					{Name: "ctf_corrected", Type: domain.FieldTypeBoolean},
					{Name: "axes", Type: domain.FieldTypeList, Element: domain.FieldTypeReference, Target: "Axis"},
				},
			},
			{
				Name: "Axis",
				Fields: []domain.FieldDefinition{
					{Name: "name", Type: domain.FieldTypeString, Required: true},
					{Name: "axis_type", Type: domain.FieldTypeEnum, Constraints: &domain.Constraints{Values: []string{"space", "array"}}},
				},
			},
		},
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	doc := fixtureDoc()

	first, err := Generate(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("first generation failed: %v", err)
	}
	second, err := Generate(doc, DefaultOptions())
	if err != nil {
		t.Fatalf("second generation failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("artifact sets differ: %d vs %d", len(first), len(second))
	}
	for name, data := range first {
		if !bytes.Equal(data, second[name]) {
			t.Fatalf("artifact %s is not reproducible", name)
		}
	}
}

func TestGenerate_TomogramModel(t *testing.T) {
	artifacts, err := Generate(fixtureDoc(), DefaultOptions())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	models := string(artifacts["models.go"])
	if !strings.Contains(models, "type Tomogram struct {") {
		t.Fatalf("Tomogram model missing:\n%s", models)
	}
	for name, pattern := range map[string]string{
		"required id as value string":    `ID\s+string\s+` + "`" + `json:"id"` + "`",
		"optional pixel_size as pointer": `PixelSize\s+\*float64\s+` + "`" + `json:"pixel_size,omitempty"` + "`",
		"reference list as slice":        `Axes\s+\[\]Axis`,
		"enum named type":                `type AxisAxisType string`,
		"enum constant":                  `AxisAxisTypeSpace\s+AxisAxisType\s+=\s+"space"`,
	} {
		if !regexp.MustCompile(pattern).MatchString(models) {
			t.Errorf("%s missing:\n%s", name, models)
		}
	}
}

func TestGenerate_DocsContainFieldTable(t *testing.T) {
	artifacts, err := Generate(fixtureDoc(), DefaultOptions())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}

	docs := string(artifacts["cets.md"])
	if !strings.Contains(docs, "## Tomogram") {
		t.Fatalf("entity section missing:\n%s", docs)
	}
	if !strings.Contains(docs, "| `pixel_size` | float | no | min 0 |") {
		t.Fatalf("field row missing or malformed:\n%s", docs)
	}
	if !strings.Contains(docs, "one of: space, array") {
		t.Fatalf("enum constraint missing:\n%s", docs)
	}
	// Entities are emitted in name order.
	if strings.Index(docs, "## Axis") > strings.Index(docs, "## Tomogram") {
		t.Fatalf("entities not sorted by name:\n%s", docs)
	}
}

func TestGenerate_DuplicateFieldFailsWithNoArtifacts(t *testing.T) {
	doc := fixtureDoc()
	tomogram, _ := doc.Entity("Tomogram")
	tomogram.Fields = append(tomogram.Fields, domain.FieldDefinition{Name: "id", Type: domain.FieldTypeString})
	doc = doc.WithEntity(tomogram)

	artifacts, err := Generate(doc, DefaultOptions())
	if err == nil {
		t.Fatalf("expected duplicate field name to abort generation")
	}
	if !strings.Contains(err.Error(), "duplicate field name id") {
		t.Fatalf("error should identify the offending construct, got %v", err)
	}
	if artifacts != nil {
		t.Fatalf("no artifacts may be produced on failure, got %v", artifacts)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gen")

	artifacts, err := Generate(fixtureDoc(), DefaultOptions())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if err := WriteArtifacts(dir, artifacts); err != nil {
		t.Fatalf("writing artifacts failed: %v", err)
	}

	for name, want := range artifacts {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("artifact %s not written: %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("artifact %s differs on disk", name)
		}
	}
}
