package complaint

import (
	"errors"
	"fmt"

	"civicdesk/backend/internal/models"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("complaint: invalid status transition")
	// ErrForbidden means the actor's role may not make the requested change.
	ErrForbidden = errors.New("complaint: role may not make this change")
)

// TransitionError reports a rejected from -> to move.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("complaint: cannot move from %q to %q", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// Transition accepts only the single forward step of the lifecycle.
func Transition(from, to models.Status) error {
	next, ok := from.Next()
	if !ok || next != to {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// mayEnter lists the statuses each role can move a complaint into.
var mayEnter = map[models.Role][]models.Status{
	models.RoleOfficer: {models.StatusEndorsed, models.StatusOngoing},
	models.RoleWorker:  {models.StatusClosed},
}

func roleMayEnter(role models.Role, to models.Status) bool {
	for _, s := range mayEnter[role] {
		if s == to {
			return true
		}
	}
	return false
}

// CanAdvance reports whether role may move a complaint from one status to the next.
func CanAdvance(role models.Role, from, to models.Status) bool {
	return Transition(from, to) == nil && roleMayEnter(role, to)
}

// Actions returns the transitions role may take on a complaint in status s.
func Actions(role models.Role, s models.Status) []models.Status {
	next, ok := s.Next()
	if !ok || !roleMayEnter(role, next) {
		return nil
	}
	return []models.Status{next}
}
