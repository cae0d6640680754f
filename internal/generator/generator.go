// Package generator projects a validated schema document into Go model code
// and markdown documentation. Output is deterministic: given the same
// document, both artifacts are byte-for-byte reproducible.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/schema/validator"
)

// Options configures a generation run.
type Options struct {
	// Package is the package name of the generated model code.
	Package string
}

// DefaultOptions returns the options used when none are provided.
func DefaultOptions() Options {
	return Options{Package: "models"}
}

// Generate validates the document and renders every artifact in memory. On
// any error no artifact is returned, so callers never write partial output.
// Keys are artifact file names relative to the output directory.
func Generate(doc domain.SchemaDocument, opts Options) (map[string][]byte, error) {
	if opts.Package == "" {
		opts.Package = DefaultOptions().Package
	}

	if err := validator.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("schema is not valid, generation aborted: %w", err)
	}

	models, err := GenerateModels(doc, opts.Package)
	if err != nil {
		return nil, err
	}

	docs, err := GenerateDocs(doc)
	if err != nil {
		return nil, err
	}

	docsName := doc.Name + ".md"
	return map[string][]byte{
		"models.go": models,
		docsName:    docs,
	}, nil
}

// WriteArtifacts writes generated artifacts under dir, creating it if needed.
// Artifacts are staged in a temporary directory first so a failed run leaves
// the destination untouched.
func WriteArtifacts(dir string, artifacts map[string][]byte) error {
	staging, err := os.MkdirTemp(filepath.Dir(dir), ".gen-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := os.WriteFile(filepath.Join(staging, name), artifacts[name], 0o644); err != nil {
			return fmt.Errorf("failed to write artifact %s: %w", name, err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, name := range names {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("failed to place artifact %s: %w", name, err)
		}
	}

	return nil
}

// sortedEntities returns the document's entities ordered by name.
func sortedEntities(doc domain.SchemaDocument) []domain.EntityDefinition {
	entities := make([]domain.EntityDefinition, len(doc.Entities))
	copy(entities, doc.Entities)
	sort.Slice(entities, func(i, j int) bool {
		return strings.ToLower(entities[i].Name) < strings.ToLower(entities[j].Name)
	})
	return entities
}
