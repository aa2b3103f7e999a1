// Package views builds the role-scoped dashboards: a citizen's own complaints,
// the officer overview with the presence roster, and the worker task list.
package views

import (
	"context"
	"errors"
	"fmt"

	"civicdesk/backend/internal/analysis"
	"civicdesk/backend/internal/complaint"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/presence"
	"civicdesk/backend/internal/storage"
)

// ErrUnsupportedFilter is returned for a worker status filter other than
// ongoing or closed.
var ErrUnsupportedFilter = errors.New("views: unsupported status filter")

// Item is a complaint as shown on a dashboard.
type Item struct {
	models.Complaint
	UrgencyBand  string          `json:"urgency_band"`
	ReporterName string          `json:"reporter_name,omitempty"`
	Actions      []models.Status `json:"actions"`
}

// Stats counts complaints per status across the whole store.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Endorsed int64 `json:"endorsed"`
	Ongoing  int64 `json:"ongoing"`
	Closed   int64 `json:"closed"`
}

type CitizenView struct {
	Complaints []Item            `json:"complaints"`
	CanSubmit  bool              `json:"can_submit"`
	Categories []models.Category `json:"categories"`
}

type OfficerView struct {
	Complaints []Item           `json:"complaints"`
	Filter     *models.Status   `json:"filter,omitempty"`
	Stats      Stats            `json:"stats"`
	Online     []presence.Entry `json:"online"`
	// PollIntervalSeconds tells clients how often to refresh the roster.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

type WorkerView struct {
	Status models.Status `json:"status"`
	Tasks  []Item        `json:"tasks"`
	Stats  Stats         `json:"stats"`
}

// RosterView is the officer presence panel on its own.
type RosterView struct {
	Online              []presence.Entry `json:"online"`
	PollIntervalSeconds int              `json:"poll_interval_seconds"`
}

type Service struct {
	Complaints *complaint.Service
	Roster     *presence.Roster
	Storage    storage.Storage
}

func NewService(c *complaint.Service, r *presence.Roster, s storage.Storage) *Service {
	return &Service{Complaints: c, Roster: r, Storage: s}
}

// Citizen lists the actor's own complaints, newest first.
func (s *Service) Citizen(ctx context.Context, actor complaint.Actor) (*CitizenView, error) {
	if actor.Role != models.RoleCitizen {
		return nil, complaint.ErrForbidden
	}
	list, err := s.Complaints.ListOwn(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &CitizenView{
		Complaints: items(list, actor.Role, nil),
		CanSubmit:  actor.UserID != "",
		Categories: models.Categories,
	}, nil
}

// Officer lists every complaint, optionally in one status, with stats and the
// presence roster.
func (s *Service) Officer(ctx context.Context, actor complaint.Actor, filter *models.Status) (*OfficerView, error) {
	if actor.Role != models.RoleOfficer {
		return nil, complaint.ErrForbidden
	}
	list, err := s.Complaints.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	names, err := s.reporterNames(ctx, list)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx)
	if err != nil {
		return nil, err
	}
	roster, err := s.Presence(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &OfficerView{
		Complaints:          items(list, actor.Role, names),
		Filter:              filter,
		Stats:               stats,
		Online:              roster.Online,
		PollIntervalSeconds: roster.PollIntervalSeconds,
	}, nil
}

// Presence returns the presence roster for officers.
func (s *Service) Presence(ctx context.Context, actor complaint.Actor) (*RosterView, error) {
	if actor.Role != models.RoleOfficer {
		return nil, complaint.ErrForbidden
	}
	online, err := s.Roster.Online(ctx)
	if err != nil {
		return nil, err
	}
	return &RosterView{
		Online:              online,
		PollIntervalSeconds: int(s.Roster.PollInterval.Seconds()),
	}, nil
}

// Worker lists ongoing or closed complaints, most urgent first.
func (s *Service) Worker(ctx context.Context, actor complaint.Actor, status models.Status) (*WorkerView, error) {
	if actor.Role != models.RoleWorker {
		return nil, complaint.ErrForbidden
	}
	if status != models.StatusOngoing && status != models.StatusClosed {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFilter, status)
	}
	list, err := s.Complaints.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx)
	if err != nil {
		return nil, err
	}
	return &WorkerView{
		Status: status,
		Tasks:  items(list, actor.Role, nil),
		Stats:  stats,
	}, nil
}

func (s *Service) stats(ctx context.Context) (Stats, error) {
	counts, err := s.Complaints.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		Pending:  counts[models.StatusPending],
		Endorsed: counts[models.StatusEndorsed],
		Ongoing:  counts[models.StatusOngoing],
		Closed:   counts[models.StatusClosed],
	}
	st.Total = st.Pending + st.Endorsed + st.Ongoing + st.Closed
	return st, nil
}

func (s *Service) reporterNames(ctx context.Context, list []models.Complaint) (map[string]string, error) {
	seen := make(map[string]bool, len(list))
	var ids []string
	for _, c := range list {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			ids = append(ids, c.UserID)
		}
	}
	profiles, err := s.Storage.ListProfilesByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.UserID] = p.FullName
	}
	return names, nil
}

// NewItem decorates one complaint for a viewer with the given role.
func NewItem(c models.Complaint, role models.Role) Item {
	actions := complaint.Actions(role, c.Status)
	if actions == nil {
		actions = []models.Status{}
	}
	return Item{
		Complaint:   c,
		UrgencyBand: analysis.Band(c.UrgencyScore),
		Actions:     actions,
	}
}

func items(list []models.Complaint, role models.Role, names map[string]string) []Item {
	out := make([]Item, 0, len(list))
	for _, c := range list {
		it := NewItem(c, role)
		it.ReporterName = names[c.UserID]
		out = append(out, it)
	}
	return out
}
