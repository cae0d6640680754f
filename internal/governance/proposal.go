// Package governance models the review protocol that gates merges into the
// schema source: every change proposal enumerates its field-level changes and
// collects sign-off from each stakeholder group inside a time-boxed window.
package governance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cets-data/cets-schema/internal/domain"
)

// DefaultReviewWindow is how long stakeholder groups have to object before
// silence counts as approval.
const DefaultReviewWindow = 14 * 24 * time.Hour

// StakeholderGroup names one reviewing party.
type StakeholderGroup string

// ReviewDecision is the state of one group's review.
type ReviewDecision string

const (
	ReviewPending  ReviewDecision = "PENDING"
	ReviewApproved ReviewDecision = "APPROVED"
	ReviewRejected ReviewDecision = "REJECTED"
)

var (
	// ErrProposalRejected is returned when any group rejected the proposal.
	ErrProposalRejected = errors.New("proposal was rejected")

	// ErrReviewPending is returned when reviews are outstanding and the
	// review window has not yet elapsed.
	ErrReviewPending = errors.New("reviews are still pending")
)

// ChangeProposal is a reviewed request to merge a change into the schema
// source and publish it under the declared version bump.
type ChangeProposal struct {
	ID            uuid.UUID                           `json:"id"`
	Title         string                              `json:"title"`
	Summary       string                              `json:"summary,omitempty"`
	Diff          domain.SchemaDiff                   `json:"diff"`
	DeclaredClass domain.ChangeClass                  `json:"declared_class"`
	Changelog     string                              `json:"changelog"`
	OpenedAt      time.Time                           `json:"opened_at"`
	Deadline      time.Time                           `json:"deadline"`
	Reviews       map[StakeholderGroup]ReviewDecision `json:"reviews"`
}

// ProposalOption configures a new proposal.
type ProposalOption func(*ChangeProposal)

// WithReviewWindow overrides the default review window.
func WithReviewWindow(window time.Duration) ProposalOption {
	return func(p *ChangeProposal) {
		if window > 0 {
			p.Deadline = p.OpenedAt.Add(window)
		}
	}
}

// WithOpenedAt pins the proposal's opening time.
func WithOpenedAt(openedAt time.Time) ProposalOption {
	return func(p *ChangeProposal) {
		window := p.Deadline.Sub(p.OpenedAt)
		p.OpenedAt = openedAt
		p.Deadline = openedAt.Add(window)
	}
}

// NewChangeProposal opens a proposal for the given enumerated diff. The
// declared class must match the classification implied by the diff, the
// changelog must not be empty, and at least one stakeholder group must review.
func NewChangeProposal(title string, diff domain.SchemaDiff, declared domain.ChangeClass, changelog string, groups []StakeholderGroup, opts ...ProposalOption) (*ChangeProposal, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("proposal title must not be empty")
	}
	if strings.TrimSpace(changelog) == "" {
		return nil, fmt.Errorf("proposal changelog must not be empty")
	}
	if diff.Empty() {
		return nil, fmt.Errorf("proposal enumerates no changes")
	}
	if implied := diff.Classify(); implied != declared {
		return nil, fmt.Errorf("declared class %s does not match the enumerated changes (%s)", declared, implied)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("proposal needs at least one stakeholder group")
	}

	now := time.Now()
	p := &ChangeProposal{
		ID:            uuid.New(),
		Title:         title,
		Diff:          diff,
		DeclaredClass: declared,
		Changelog:     changelog,
		OpenedAt:      now,
		Deadline:      now.Add(DefaultReviewWindow),
		Reviews:       make(map[StakeholderGroup]ReviewDecision, len(groups)),
	}
	for _, group := range groups {
		if _, ok := p.Reviews[group]; ok {
			return nil, fmt.Errorf("stakeholder group %s listed twice", group)
		}
		p.Reviews[group] = ReviewPending
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Approve records a group's approval.
func (p *ChangeProposal) Approve(group StakeholderGroup) error {
	return p.decide(group, ReviewApproved)
}

// Reject records a group's rejection. A rejection is terminal: the proposal
// can never merge, regardless of the review window.
func (p *ChangeProposal) Reject(group StakeholderGroup) error {
	return p.decide(group, ReviewRejected)
}

func (p *ChangeProposal) decide(group StakeholderGroup, decision ReviewDecision) error {
	if _, ok := p.Reviews[group]; !ok {
		return fmt.Errorf("unknown stakeholder group %s", group)
	}
	p.Reviews[group] = decision
	return nil
}

// CanMerge reports whether the proposal may be merged at the given time:
// either every group approved, or the review window elapsed without any
// rejection.
func (p *ChangeProposal) CanMerge(now time.Time) error {
	pending := 0
	for group, decision := range p.Reviews {
		switch decision {
		case ReviewRejected:
			return fmt.Errorf("%w by %s", ErrProposalRejected, group)
		case ReviewPending:
			pending++
		}
	}

	if pending == 0 {
		return nil
	}
	if now.Before(p.Deadline) {
		return fmt.Errorf("%w: %d group(s) have not reviewed and the window runs until %s",
			ErrReviewPending, pending, p.Deadline.Format(time.RFC3339))
	}
	return nil
}
