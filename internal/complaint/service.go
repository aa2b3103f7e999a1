// Package complaint holds the complaint lifecycle and the operations the HTTP
// layer calls: submission, role-scoped listing and guarded status updates.
package complaint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/obs"
	"civicdesk/backend/internal/storage"

	"go.uber.org/zap"
)

var (
	// ErrInvalidInput wraps every validation failure on submission.
	ErrInvalidInput = errors.New("complaint: invalid input")
	// ErrStatusConflict means the complaint left the expected status before
	// the update was applied.
	ErrStatusConflict = errors.New("complaint: status changed concurrently")
	// ErrRateLimited means the reporter submitted too often.
	ErrRateLimited = errors.New("complaint: too many submissions")
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   models.Role
}

// Notifier tells a reporter about a status change.
type Notifier interface {
	Notify(ctx context.Context, ev models.ComplaintEvent) error
}

// Service handles the business logic for complaints.
type Service struct {
	Storage  storage.Storage
	Scorer   analysis.Scorer
	Notifier Notifier
	Limiter  *Limiter
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewService creates a new complaint service. Notifier and Limiter may be set
// on the returned value.
func NewService(s storage.Storage, scorer analysis.Scorer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Storage: s,
		Scorer:  scorer,
		Logger:  logger,
		Now:     time.Now,
	}
}

// Submit validates, scores and stores a new pending complaint. A failed
// scoring call never fails the submission; the fallback score is stored.
func (s *Service) Submit(ctx context.Context, reporterID, description, category string) (*models.Complaint, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidInput)
	}
	cat, err := models.ParseCategory(category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.Limiter != nil && !s.Limiter.AllowAt(reporterID, s.Now()) {
		return nil, ErrRateLimited
	}

	a := s.Scorer.Score(ctx, description)
	c := &models.Complaint{
		UserID:        reporterID,
		Description:   description,
		Category:      cat,
		Status:        models.StatusPending,
		UrgencyScore:  a.Score,
		UrgencyOrigin: a.Origin,
		CreatedAt:     s.Now().UTC(),
	}
	c.UpdatedAt = c.CreatedAt
	if err := s.Storage.CreateComplaint(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Info("complaint submitted",
		zap.String("complaint_id", c.ID),
		zap.String("category", string(c.Category)),
		zap.Float64("urgency_score", c.UrgencyScore),
		zap.String("urgency_origin", string(c.UrgencyOrigin)))
	s.publish(ctx, models.ComplaintEvent{
		Type:        models.EventComplaintCreated,
		ComplaintID: c.ID,
		ReporterID:  c.UserID,
		ActorID:     reporterID,
		Status:      c.Status,
		Category:    c.Category,
		Urgency:     c.UrgencyScore,
		At:          c.CreatedAt,
	})
	return c, nil
}

// ListOwn returns the reporter's complaints, newest first.
func (s *Service) ListOwn(ctx context.Context, reporterID string) ([]models.Complaint, error) {
	return s.Storage.ListComplaintsByReporter(ctx, reporterID)
}

// ListAll returns every complaint, newest first, optionally in one status.
func (s *Service) ListAll(ctx context.Context, status *models.Status) ([]models.Complaint, error) {
	return s.Storage.ListComplaints(ctx, status)
}

// ListByStatus returns one status ranked by urgency, most urgent first.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error) {
	return s.Storage.ListComplaintsByStatus(ctx, status)
}

// Stats counts complaints per status.
func (s *Service) Stats(ctx context.Context) (map[models.Status]int64, error) {
	return s.Storage.CountComplaintsByStatus(ctx)
}

// UpdateStatus moves complaint id from one status to the next one. Repeating
// a move that already happened is a no-op. It reports whether the row changed.
func (s *Service) UpdateStatus(ctx context.Context, id string, from, to models.Status) (*models.Complaint, bool, error) {
	if from == to {
		return s.settled(ctx, id, to)
	}
	if err := Transition(from, to); err != nil {
		return nil, false, err
	}

	ok, err := s.Storage.CompareAndSetStatus(ctx, id, from, to, s.Now().UTC())
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return s.settled(ctx, id, to)
	}

	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, true, err
	}
	obs.StatusTransitions.WithLabelValues(string(to)).Inc()
	return c, true, nil
}

// settled succeeds when the complaint is already in status want.
func (s *Service) settled(ctx context.Context, id string, want models.Status) (*models.Complaint, bool, error) {
	c, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c.Status != want {
		return nil, false, fmt.Errorf("%w: complaint is %s", ErrStatusConflict, c.Status)
	}
	return c, false, nil
}

// Advance is the role-checked status change used by officers and workers.
// expected, when set, must match the stored status. The event and the
// reporter notification follow the update and are best effort.
func (s *Service) Advance(ctx context.Context, actor Actor, id string, to models.Status, expected *models.Status) (*models.Complaint, error) {
	if !roleMayEnter(actor.Role, to) {
		return nil, ErrForbidden
	}
	current, err := s.Storage.GetComplaint(ctx, id)
	if err != nil {
		return nil, err
	}
	from := current.Status
	if from == to {
		return current, nil
	}
	if expected != nil && *expected != from {
		return nil, fmt.Errorf("%w: complaint is %s", ErrStatusConflict, from)
	}
	if !CanAdvance(actor.Role, from, to) {
		return nil, Transition(from, to)
	}

	c, changed, err := s.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		return c, nil
	}

	s.Logger.Info("complaint status changed",
		zap.String("complaint_id", c.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.UserID))

	ev := models.ComplaintEvent{
		Type:        models.EventStatusChanged,
		ComplaintID: c.ID,
		ReporterID:  c.UserID,
		ActorID:     actor.UserID,
		From:        from,
		Status:      c.Status,
		Category:    c.Category,
		Urgency:     c.UrgencyScore,
		At:          c.UpdatedAt,
	}
	s.publish(ctx, ev)
	if s.Notifier != nil {
		if err := s.Notifier.Notify(ctx, ev); err != nil {
			s.Logger.Warn("reporter notification failed", zap.String("complaint_id", c.ID), zap.Error(err))
		}
	}
	return c, nil
}

func (s *Service) publish(ctx context.Context, ev models.ComplaintEvent) {
	if err := s.Storage.PublishEvent(ctx, ev); err != nil {
		s.Logger.Warn("publish complaint event failed", zap.String("complaint_id", ev.ComplaintID), zap.Error(err))
	}
}
