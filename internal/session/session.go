// Package session persists import sessions: the uploaded rows, validation
// outcome, import progress and results of one upload. Every backend stores
// the whole session as one JSON document and enforces the status machine
// on update.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/metrics"
)

var (
	// ErrNotFound is returned when the session does not exist or expired.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Create for a session id already in use.
	ErrExists = errors.New("session already exists")
	// ErrInvalidTransition is returned when a patch moves the status along
	// an edge the status machine does not allow.
	ErrInvalidTransition = errors.New("invalid session status transition")
	// ErrTooLarge is returned when a session document exceeds what the
	// backend can hold in one item.
	ErrTooLarge = errors.New("session too large for store")
)

// Default lifetimes of session documents.
const (
	DefaultTTL         = 24 * time.Hour
	DefaultTerminalTTL = time.Hour
)

// Store is the Session State Store.
type Store interface {
	Create(ctx context.Context, s *domain.ImportSession) error
	Get(ctx context.Context, id string) (*domain.ImportSession, error)
	// Update applies patch to the stored session and returns the result.
	Update(ctx context.Context, id string, patch Patch) (*domain.ImportSession, error)
}

// Patch lists the fields to change. Nil fields are left alone.
type Patch struct {
	Status            *domain.SessionStatus
	ValidationIssues  *[]domain.ValidationIssue
	ValidationSummary *domain.ValidationSummary
	ImportProgress    *domain.ImportProgress
	ImportErrors      *[]domain.ImportError
	ImportResults     *domain.ImportResults
	Error             *string
}

// WithStatus returns a copy of p that also sets the status.
func (p Patch) WithStatus(status domain.SessionStatus) Patch {
	p.Status = &status
	return p
}

// Progress returns a patch that only records progress.
func Progress(p domain.ImportProgress) Patch {
	return Patch{ImportProgress: &p}
}

// Failed returns a patch moving a session to error with the given cause.
func Failed(err error) Patch {
	msg := err.Error()
	return Patch{Error: &msg}.WithStatus(domain.SessionError)
}

// Apply mutates s according to p. A status change must be allowed by the
// status machine; progress percentages never go backwards within a status.
func (p Patch) Apply(s *domain.ImportSession, now time.Time) error {
	if p.Status != nil && !s.Status.CanTransition(*p.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, *p.Status)
	}

	if p.ValidationIssues != nil {
		s.ValidationIssues = *p.ValidationIssues
	}
	if p.ValidationSummary != nil {
		s.ValidationSummary = *p.ValidationSummary
	}
	if p.ImportProgress != nil {
		next := *p.ImportProgress
		if next.Percentage < s.ImportProgress.Percentage && p.Status == nil && s.Status == domain.SessionImporting {
			next.Percentage = s.ImportProgress.Percentage
		}
		s.ImportProgress = next
	}
	if p.ImportErrors != nil {
		s.ImportErrors = *p.ImportErrors
	}
	if p.ImportResults != nil {
		r := *p.ImportResults
		s.ImportResults = &r
	}
	if p.Error != nil {
		s.Error = *p.Error
	}
	if p.Status != nil {
		s.Status = *p.Status
	}
	s.UpdatedAt = now
	return nil
}

// prepare fills the defaults of a session about to be created.
func prepare(s *domain.ImportSession, now time.Time) {
	if s.Status == "" {
		s.Status = domain.SessionUploaded
	}
	if s.ValidationIssues == nil {
		s.ValidationIssues = []domain.ValidationIssue{}
	}
	if s.ImportErrors == nil {
		s.ImportErrors = []domain.ImportError{}
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

// recordTransition counts a committed status change. Backends call it only
// after the write landed, so retried updates count once.
var recordTransition = metrics.RecordTransition

// committed records the status reached by a successful Update.
func (p Patch) committed() {
	if p.Status != nil {
		recordTransition(string(*p.Status))
	}
}

// ttlFor returns how long a session in status should be kept.
func ttlFor(status domain.SessionStatus, ttl, terminalTTL time.Duration) time.Duration {
	if status.IsTerminal() {
		return terminalTTL
	}
	return ttl
}
