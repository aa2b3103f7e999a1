package models

import (
	"fmt"
	"strings"
	"time"

	"civicdesk/backend/internal/ids"

	"gorm.io/gorm"
)

// Category is the closed set of complaint categories.
type Category string

const (
	CategoryWater       Category = "water"
	CategoryElectricity Category = "electricity"
	CategoryRoads       Category = "roads"
	CategorySanitation  Category = "sanitation"
	CategoryOther       Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryWater,
	CategoryElectricity,
	CategoryRoads,
	CategorySanitation,
	CategoryOther,
}

// ParseCategory validates a raw category value.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", raw)
}

// Status is the lifecycle stage of a complaint.
type Status string

const (
	StatusPending  Status = "pending"
	StatusEndorsed Status = "endorsed"
	StatusOngoing  Status = "ongoing"
	StatusClosed   Status = "closed"
)

// Statuses lists the lifecycle in its only legal order.
var Statuses = []Status{StatusPending, StatusEndorsed, StatusOngoing, StatusClosed}

// ParseStatus validates a raw status value.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if s.Rank() < 0 {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// Rank is the position of s in the lifecycle, or -1 for unknown values.
func (s Status) Rank() int {
	for i, known := range Statuses {
		if s == known {
			return i
		}
	}
	return -1
}

// Next returns the single successor of s. It reports false for closed and
// for unknown values.
func (s Status) Next() (Status, bool) {
	r := s.Rank()
	if r < 0 || r == len(Statuses)-1 {
		return "", false
	}
	return Statuses[r+1], true
}

// UrgencyOrigin says whether an urgency score came from the scoring service
// or from the neutral fallback.
type UrgencyOrigin string

const (
	OriginAssessed UrgencyOrigin = "assessed"
	OriginFallback UrgencyOrigin = "fallback"
)

// Complaint is a citizen-submitted civic issue.
type Complaint struct {
	// ID is assigned at creation and never changes.
	ID string `gorm:"primaryKey;type:text" json:"id"`
	// UserID references the reporting profile.
	UserID      string   `gorm:"type:text;not null;index:idx_complaint_reporter" json:"user_id"`
	Description string   `gorm:"type:text;not null" json:"description"`
	Category    Category `gorm:"type:text;not null" json:"category"`
	Status      Status   `gorm:"type:text;not null;index:idx_complaint_status" json:"status"`
	// UrgencyScore is computed once at submission.
	UrgencyScore  float64       `gorm:"not null" json:"urgency_score"`
	UrgencyOrigin UrgencyOrigin `gorm:"type:text;not null" json:"urgency_origin"`
	CreatedAt     time.Time     `gorm:"not null;index:idx_complaint_reporter" json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none is set.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		if c.CreatedAt.IsZero() {
			c.ID = ids.New()
		} else {
			c.ID = ids.NewAt(c.CreatedAt)
		}
	}
	return
}
