package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/loader"
)

const (
	schemaFileName    = "schema.yaml"
	changelogFileName = "CHANGELOG.md"
)

// fsSchemaVersionRepository stores each published version under
// <dir>/<MAJOR.MINOR.PATCH>/ with the schema snapshot and its changelog entry.
type fsSchemaVersionRepository struct {
	dir string
}

// NewFSSchemaVersionRepository creates a filesystem-backed archive rooted at
// dir. The directory is created on first publish.
func NewFSSchemaVersionRepository(dir string) SchemaVersionRepository {
	return &fsSchemaVersionRepository{dir: filepath.Clean(dir)}
}

func (r *fsSchemaVersionRepository) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	versions := make([]*semver.Version, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		v, err := semver.NewVersion(entry.Name())
		if err != nil {
			// Non-version directories are not part of the archive.
			continue
		}
		versions = append(versions, v)
	}

	sort.Sort(semver.Collection(versions))

	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.Original()
	}
	return out, nil
}

func (r *fsSchemaVersionRepository) Get(_ context.Context, version string) (domain.SchemaVersion, error) {
	dir := filepath.Join(r.dir, version)

	info, err := os.Stat(filepath.Join(dir, schemaFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SchemaVersion{}, fmt.Errorf("version %s: %w", version, ErrVersionNotFound)
		}
		return domain.SchemaVersion{}, fmt.Errorf("failed to stat version %s: %w", version, err)
	}

	doc, err := loader.Load(filepath.Join(dir, schemaFileName))
	if err != nil {
		return domain.SchemaVersion{}, fmt.Errorf("failed to load version %s: %w", version, err)
	}

	changelog, err := os.ReadFile(filepath.Join(dir, changelogFileName))
	if err != nil && !os.IsNotExist(err) {
		return domain.SchemaVersion{}, fmt.Errorf("failed to read changelog for %s: %w", version, err)
	}

	return domain.SchemaVersion{
		Version:     version,
		Document:    doc,
		Changelog:   strings.TrimSpace(string(changelog)),
		PublishedAt: info.ModTime(),
	}, nil
}

func (r *fsSchemaVersionRepository) Latest(ctx context.Context) (domain.SchemaVersion, error) {
	versions, err := r.List(ctx)
	if err != nil {
		return domain.SchemaVersion{}, err
	}
	if len(versions) == 0 {
		return domain.SchemaVersion{}, ErrEmptyArchive
	}
	return r.Get(ctx, versions[len(versions)-1])
}

func (r *fsSchemaVersionRepository) Create(_ context.Context, version domain.SchemaVersion) error {
	if _, err := domain.ParseVersion(version.Version); err != nil {
		return err
	}

	dir := filepath.Join(r.dir, version.Version)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("version %s: %w", version.Version, ErrVersionExists)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat version directory: %w", err)
	}

	data, err := loader.Marshal(version.Document)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Stage the snapshot next to its final location and rename it into place
	// so a failed publish never leaves a half-written version behind.
	staging, err := os.MkdirTemp(r.dir, ".publish-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := os.WriteFile(filepath.Join(staging, schemaFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema snapshot: %w", err)
	}
	changelog := strings.TrimSpace(version.Changelog) + "\n"
	if err := os.WriteFile(filepath.Join(staging, changelogFileName), []byte(changelog), 0o644); err != nil {
		return fmt.Errorf("failed to write changelog: %w", err)
	}

	if err := os.Rename(staging, dir); err != nil {
		return fmt.Errorf("failed to place version %s: %w", version.Version, err)
	}
	return nil
}
