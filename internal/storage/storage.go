// Package storage persists complaints and profiles in PostgreSQL through gorm
// and uses Redis, when configured, for event fan-out and token revocation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"civicdesk/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrNotFound means the target record does not exist.
	ErrNotFound = errors.New("storage: record not found")
	// ErrConflict means a unique constraint rejected the write.
	ErrConflict = errors.New("storage: conflicting record")
)

// PersistenceError wraps every failed read or write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		err = ErrConflict
	}
	return &PersistenceError{Op: op, Err: err}
}

// Storage is the data-access surface used by the services.
type Storage interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	ListComplaintsByReporter(ctx context.Context, userID string) ([]models.Complaint, error)
	ListComplaints(ctx context.Context, status *models.Status) ([]models.Complaint, error)
	ListComplaintsByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error)
	CompareAndSetStatus(ctx context.Context, id string, from, to models.Status, at time.Time) (bool, error)
	CountComplaintsByStatus(ctx context.Context) (map[models.Status]int64, error)

	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	ListProfilesByUserIDs(ctx context.Context, userIDs []string) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) error
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
	ListProfilesSeenSince(ctx context.Context, since time.Time) ([]models.Profile, error)

	PublishEvent(ctx context.Context, ev models.ComplaintEvent) error
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)

	SaveTelegramLinkCode(ctx context.Context, code string, chatID int64, ttl time.Duration) error
	ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error)
}

// ProfileUpdate lists the editable profile fields. Nil fields are left alone.
type ProfileUpdate struct {
	FullName       *string
	Language       *string
	TelegramChatID *int64
	// UnlinkTelegram clears the chat link and wins over TelegramChatID.
	UnlinkTelegram bool
}

func (u ProfileUpdate) columns() map[string]interface{} {
	changes := make(map[string]interface{})
	if u.FullName != nil {
		changes["full_name"] = *u.FullName
	}
	if u.Language != nil {
		changes["language"] = *u.Language
	}
	switch {
	case u.UnlinkTelegram:
		changes["telegram_chat_id"] = nil
	case u.TelegramChatID != nil:
		changes["telegram_chat_id"] = *u.TelegramChatID
	}
	return changes
}

// Service implements Storage.
type Service struct {
	DB *gorm.DB
	// Redis may be nil. Events then go to LocalEvents and revocations are
	// kept in memory.
	Redis *redis.Client
	// LocalEvents receives published events when Redis is not configured.
	LocalEvents func(models.ComplaintEvent)

	mu      sync.Mutex
	revoked map[string]time.Time
	links   map[string]linkCode
}

type linkCode struct {
	chatID  int64
	expires time.Time
}

var _ Storage = (*Service)(nil)

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:      db,
		Redis:   rdb,
		revoked: make(map[string]time.Time),
		links:   make(map[string]linkCode),
	}
}

// Migrate creates or updates the tables.
func (s *Service) Migrate() error {
	return wrap("migrate", s.DB.AutoMigrate(&models.Profile{}, &models.Complaint{}))
}
