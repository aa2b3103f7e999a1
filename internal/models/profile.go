package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role decides which view a profile sees and which transitions it may make.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleWorker  Role = "worker"
)

// Roles lists the roles selectable at registration.
var Roles = []Role{RoleCitizen, RoleOfficer, RoleWorker}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Staff reports whether the role belongs to a department.
func (r Role) Staff() bool { return r == RoleOfficer || r == RoleWorker }

// Profile is the application-side record of an authenticated identity.
// Role never changes after registration.
type Profile struct {
	ID     string `gorm:"primaryKey;type:text" json:"id"`
	UserID string `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	// Email is the sign-in identity.
	Email        string `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"type:text;not null" json:"-"`
	FullName     string `gorm:"type:text" json:"full_name"`
	Role         Role   `gorm:"type:text;not null" json:"role"`
	// Department is only meaningful for officers and workers.
	Department *string `gorm:"type:text" json:"department,omitempty"`
	// LastSeen is refreshed on sign-in and on heartbeat.
	LastSeen time.Time `gorm:"index" json:"last_seen"`
	// TelegramChatID links the profile to a chat for status notifications.
	TelegramChatID *int64 `gorm:"index" json:"telegram_chat_id,omitempty"`
	// Language selects the notification translations.
	Language  string    `gorm:"type:text" json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate fills the profile and user identifiers when they are empty.
func (p *Profile) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.UserID == "" {
		p.UserID = uuid.New().String()
	}
	return
}
