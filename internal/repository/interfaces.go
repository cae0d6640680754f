package repository

import (
	"context"
	"errors"

	"github.com/cets-data/cets-schema/internal/domain"
)

var (
	// ErrEmptyArchive is returned when the archive holds no published version.
	ErrEmptyArchive = errors.New("archive holds no published versions")

	// ErrVersionNotFound is returned when the requested version is absent.
	ErrVersionNotFound = errors.New("schema version not found")

	// ErrVersionExists is returned when publishing would overwrite an
	// existing version. Published versions are immutable.
	ErrVersionExists = errors.New("schema version already published")
)

// SchemaVersionRepository defines the interface for the versioned schema
// archive: every published version is preserved under its semantic version
// and never mutated.
type SchemaVersionRepository interface {
	// List returns all published versions in ascending semantic-version order.
	List(ctx context.Context) ([]string, error)
	// Get retrieves one published version with its changelog.
	Get(ctx context.Context, version string) (domain.SchemaVersion, error)
	// Latest retrieves the highest published version.
	Latest(ctx context.Context) (domain.SchemaVersion, error)
	// Create persists a new immutable version. It fails with
	// ErrVersionExists rather than overwrite.
	Create(ctx context.Context, version domain.SchemaVersion) error
}
