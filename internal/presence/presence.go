// Package presence decides which staff members count as online from their
// last heartbeat.
package presence

import (
	"context"
	"time"

	"civicdesk/backend/internal/config"
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"
)

// Online reports whether a heartbeat at lastSeen is recent enough at now.
func Online(lastSeen, now time.Time, window time.Duration) bool {
	if lastSeen.IsZero() {
		return false
	}
	return now.Sub(lastSeen) <= window
}

// Entry is one line of the roster.
type Entry struct {
	UserID     string      `json:"user_id"`
	FullName   string      `json:"full_name"`
	Role       models.Role `json:"role"`
	Department *string     `json:"department,omitempty"`
	LastSeen   time.Time   `json:"last_seen"`
}

// Filter keeps the profiles that are online at now.
func Filter(profiles []models.Profile, now time.Time, window time.Duration) []Entry {
	out := make([]Entry, 0, len(profiles))
	for _, p := range profiles {
		if !Online(p.LastSeen, now, window) {
			continue
		}
		out = append(out, Entry{
			UserID:     p.UserID,
			FullName:   p.FullName,
			Role:       p.Role,
			Department: p.Department,
			LastSeen:   p.LastSeen,
		})
	}
	return out
}

// Roster records heartbeats and lists who is online.
type Roster struct {
	Storage      storage.Storage
	Window       time.Duration
	PollInterval time.Duration
	Now          func() time.Time
}

func NewRoster(s storage.Storage, cfg config.PresenceConfig) *Roster {
	r := &Roster{
		Storage:      s,
		Window:       cfg.Window,
		PollInterval: cfg.PollInterval,
		Now:          time.Now,
	}
	if r.Window <= 0 {
		r.Window = config.PresenceWindow
	}
	if r.PollInterval <= 0 {
		r.PollInterval = config.PresencePollInterval
	}
	return r
}

// Heartbeat refreshes the caller's last_seen.
func (r *Roster) Heartbeat(ctx context.Context, userID string) (time.Time, error) {
	now := r.Now().UTC()
	if err := r.Storage.TouchLastSeen(ctx, userID, now); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// Online lists profiles seen within the window, most recent first.
func (r *Roster) Online(ctx context.Context) ([]Entry, error) {
	now := r.Now().UTC()
	profiles, err := r.Storage.ListProfilesSeenSince(ctx, now.Add(-r.Window))
	if err != nil {
		return nil, err
	}
	return Filter(profiles, now, r.Window), nil
}
