// Package archive implements the publishing policy over the versioned schema
// store: immutable snapshots, mandatory changelogs, and semantic-version
// bumps that match the classification of the underlying change.
package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cets-data/cets-schema/internal/domain"
	"github.com/cets-data/cets-schema/internal/repository"
	"github.com/cets-data/cets-schema/internal/schema/validator"
)

var (
	// ErrEmptyChangelog is returned when a publish carries no changelog entry.
	ErrEmptyChangelog = errors.New("changelog entry must not be empty")

	// ErrNoChanges is returned when the draft is identical to the latest
	// published version.
	ErrNoChanges = errors.New("draft is identical to the latest published version")

	// ErrBumpMismatch is returned when the declared version bump does not
	// match the classification implied by the diff.
	ErrBumpMismatch = errors.New("declared version bump does not match the change classification")
)

// Service coordinates validation, diffing and version arithmetic on top of a
// schema version repository.
type Service struct {
	repo repository.SchemaVersionRepository
	now  func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the publish timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates an archive service over the given repository.
func NewService(repo repository.SchemaVersionRepository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all published versions in ascending order.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

// Get retrieves one published version.
func (s *Service) Get(ctx context.Context, version string) (domain.SchemaVersion, error) {
	return s.repo.Get(ctx, version)
}

// Latest retrieves the highest published version.
func (s *Service) Latest(ctx context.Context) (domain.SchemaVersion, error) {
	return s.repo.Latest(ctx)
}

// Diff computes the enumerated diff and the unified text diff between two
// published versions.
func (s *Service) Diff(ctx context.Context, from, to string) (domain.SchemaDiff, string, error) {
	base, err := s.repo.Get(ctx, from)
	if err != nil {
		return domain.SchemaDiff{}, "", err
	}
	target, err := s.repo.Get(ctx, to)
	if err != nil {
		return domain.SchemaDiff{}, "", err
	}

	diff := domain.DiffSchemas(base.Document, target.Document)
	text := domain.UnifiedDiff(from, base.Document, to, target.Document)
	return diff, text, nil
}

// DiffDraft computes the diff between the latest published version and a
// draft document. With an empty archive the whole draft counts as added.
func (s *Service) DiffDraft(ctx context.Context, draft domain.SchemaDocument) (domain.SchemaDiff, string, error) {
	latest, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyArchive) {
			empty := domain.SchemaDocument{Name: draft.Name}
			return domain.DiffSchemas(empty, draft), domain.UnifiedDiff("(none)", empty, "draft", draft), nil
		}
		return domain.SchemaDiff{}, "", err
	}

	diff := domain.DiffSchemas(latest.Document, draft)
	text := domain.UnifiedDiff(latest.Version, latest.Document, "draft", draft)
	return diff, text, nil
}

// Publish validates the draft and persists it as the next immutable version.
//
// The first publish into an empty archive becomes version 1.0.0 regardless of
// the declared class. Every later publish must carry a declared class that
// matches the classification implied by the diff against the latest version.
func (s *Service) Publish(ctx context.Context, draft domain.SchemaDocument, declared domain.ChangeClass, changelog string) (domain.SchemaVersion, error) {
	if err := validator.ValidateDocument(draft); err != nil {
		return domain.SchemaVersion{}, fmt.Errorf("draft is not valid: %w", err)
	}
	if strings.TrimSpace(changelog) == "" {
		return domain.SchemaVersion{}, ErrEmptyChangelog
	}
	if !domain.KnownChangeClass(declared) {
		return domain.SchemaVersion{}, fmt.Errorf("unknown change class %q", declared)
	}

	latest, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrEmptyArchive) {
			return s.create(ctx, draft, domain.InitialVersion, changelog)
		}
		return domain.SchemaVersion{}, err
	}

	diff := domain.DiffSchemas(latest.Document, draft)
	if diff.Empty() {
		return domain.SchemaVersion{}, ErrNoChanges
	}

	implied := diff.Classify()
	if implied != declared {
		return domain.SchemaVersion{}, fmt.Errorf("%w: declared %s but the diff classifies as %s (%s)",
			ErrBumpMismatch, declared, implied, strings.Join(diff.Summary(), "; "))
	}

	next, err := domain.NextVersion(latest.Version, declared)
	if err != nil {
		return domain.SchemaVersion{}, err
	}

	return s.create(ctx, draft, next, changelog)
}

func (s *Service) create(ctx context.Context, draft domain.SchemaDocument, version, changelog string) (domain.SchemaVersion, error) {
	snapshot := domain.SchemaVersion{
		Version:     version,
		Document:    draft.Clone(),
		Changelog:   strings.TrimSpace(changelog),
		PublishedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, snapshot); err != nil {
		return domain.SchemaVersion{}, err
	}
	return snapshot, nil
}

// Violation describes one audit finding for a published version.
type Violation struct {
	Version string `json:"version"`
	Message string `json:"message"`
}

// Verify audits the full archive: every version must carry a non-empty
// changelog, parse as a valid document, and differ from its predecessor by
// exactly the bump its version number declares.
func (s *Service) Verify(ctx context.Context) ([]Violation, error) {
	versions, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var violations []Violation
	var prev *domain.SchemaVersion

	for _, v := range versions {
		current, err := s.repo.Get(ctx, v)
		if err != nil {
			violations = append(violations, Violation{Version: v, Message: err.Error()})
			continue
		}

		if strings.TrimSpace(current.Changelog) == "" {
			violations = append(violations, Violation{Version: v, Message: "changelog entry is empty"})
		}
		if err := validator.ValidateDocument(current.Document); err != nil {
			violations = append(violations, Violation{Version: v, Message: err.Error()})
		}

		if prev != nil {
			declared, err := domain.BumpBetween(prev.Version, current.Version)
			if err != nil {
				violations = append(violations, Violation{Version: v, Message: err.Error()})
			} else {
				diff := domain.DiffSchemas(prev.Document, current.Document)
				if implied := diff.Classify(); implied != declared {
					violations = append(violations, Violation{
						Version: v,
						Message: fmt.Sprintf("version bump is %s but the diff from %s classifies as %s", declared, prev.Version, implied),
					})
				}
			}
		}

		snapshot := current
		prev = &snapshot
	}

	return violations, nil
}
