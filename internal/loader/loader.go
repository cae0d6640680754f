// Package loader reads the declarative schema source consumed by the
// generator and the archive.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cets-data/cets-schema/internal/domain"
)

// Parse decodes a schema-source document. Decoding is strict: unknown keys
// fail fast so a typo never silently drops a definition.
func Parse(data []byte) (domain.SchemaDocument, error) {
	var doc domain.SchemaDocument

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.SchemaDocument{}, fmt.Errorf("schema source is empty")
		}
		return domain.SchemaDocument{}, fmt.Errorf("failed to parse schema source: %w", err)
	}

	// A second document in the same file is almost certainly a mistake.
	var extra yaml.Node
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
	case err == nil:
		return domain.SchemaDocument{}, fmt.Errorf("schema source contains more than one document")
	default:
		return domain.SchemaDocument{}, fmt.Errorf("failed to parse schema source: %w", err)
	}

	return doc, nil
}

// Load reads and parses the schema source at path.
func Load(path string) (domain.SchemaDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.SchemaDocument{}, fmt.Errorf("failed to read schema source: %w", err)
	}
	return Parse(data)
}

// Marshal renders a document back to its canonical YAML form, used when
// archiving a published snapshot.
func Marshal(doc domain.SchemaDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode schema document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode schema document: %w", err)
	}
	return buf.Bytes(), nil
}
