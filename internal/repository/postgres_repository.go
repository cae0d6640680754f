package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cets-data/cets-schema/internal/db"
	"github.com/cets-data/cets-schema/internal/domain"
)

// postgresSchemaVersionRepository backs the archive with Postgres for
// registry deployments. The filesystem layout remains the canonical archive;
// this store mirrors it for remote access.
type postgresSchemaVersionRepository struct {
	conn *db.Connection
}

// NewPostgresSchemaVersionRepository creates a Postgres-backed archive.
func NewPostgresSchemaVersionRepository(conn *db.Connection) SchemaVersionRepository {
	return &postgresSchemaVersionRepository{conn: conn}
}

func (r *postgresSchemaVersionRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Pool.Query(ctx, `SELECT version FROM schema_versions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*semver.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("archive contains malformed version %q: %w", raw, err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}

	sort.Sort(semver.Collection(versions))

	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.Original()
	}
	return out, nil
}

func (r *postgresSchemaVersionRepository) Get(ctx context.Context, version string) (domain.SchemaVersion, error) {
	row := r.conn.Pool.QueryRow(ctx,
		`SELECT version, document, changelog, published_at FROM schema_versions WHERE version = $1`,
		version,
	)
	return scanSchemaVersion(row, version)
}

func (r *postgresSchemaVersionRepository) Latest(ctx context.Context) (domain.SchemaVersion, error) {
	versions, err := r.List(ctx)
	if err != nil {
		return domain.SchemaVersion{}, err
	}
	if len(versions) == 0 {
		return domain.SchemaVersion{}, ErrEmptyArchive
	}
	return r.Get(ctx, versions[len(versions)-1])
}

func (r *postgresSchemaVersionRepository) Create(ctx context.Context, version domain.SchemaVersion) error {
	if _, err := domain.ParseVersion(version.Version); err != nil {
		return err
	}

	document, err := json.Marshal(version.Document)
	if err != nil {
		return fmt.Errorf("failed to encode schema document: %w", err)
	}

	publishedAt := version.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	// Existence check and insert run in one transaction so two publishers
	// racing on the same version cannot both succeed.
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_versions WHERE version = $1)`,
			version.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check schema version: %w", err)
		}
		if exists {
			return fmt.Errorf("version %s: %w", version.Version, ErrVersionExists)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_versions (id, version, document, changelog, published_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), version.Version, document, version.Changelog, publishedAt,
		); err != nil {
			return fmt.Errorf("failed to insert schema version: %w", err)
		}
		return nil
	})
}

func scanSchemaVersion(row pgx.Row, version string) (domain.SchemaVersion, error) {
	var (
		out      domain.SchemaVersion
		document []byte
	)
	if err := row.Scan(&out.Version, &document, &out.Changelog, &out.PublishedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.SchemaVersion{}, fmt.Errorf("version %s: %w", version, ErrVersionNotFound)
		}
		return domain.SchemaVersion{}, fmt.Errorf("failed to get schema version: %w", err)
	}

	if err := json.Unmarshal(document, &out.Document); err != nil {
		return domain.SchemaVersion{}, fmt.Errorf("failed to decode schema document for %s: %w", version, err)
	}
	return out, nil
}
