package storage

import (
	"context"
	"strings"
	"time"

	"civicdesk/backend/internal/models"
)

// CreateProfile inserts a profile. A taken email yields ErrConflict.
func (s *Service) CreateProfile(ctx context.Context, p *models.Profile) error {
	p.Email = normalizeEmail(p.Email)
	return wrap("create profile", s.DB.WithContext(ctx).Create(p).Error)
}

func (s *Service) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&p).Error; err != nil {
		return nil, wrap("get profile by email", err)
	}
	return &p, nil
}

func (s *Service) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, wrap("get profile", err)
	}
	return &p, nil
}

// ListProfilesByUserIDs loads several profiles in one query. Unknown ids are skipped.
func (s *Service) ListProfilesByUserIDs(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []models.Profile
	if err := s.DB.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, wrap("list profiles", err)
	}
	return out, nil
}

// UpdateProfile applies every requested edit in a single statement. Role and
// department are never touched.
func (s *Service) UpdateProfile(ctx context.Context, userID string, u ProfileUpdate) error {
	changes := u.columns()
	if len(changes) == 0 {
		return nil
	}
	res := s.DB.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Updates(changes)
	if res.Error != nil {
		return wrap("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return &PersistenceError{Op: "update profile", Err: ErrNotFound}
	}
	return nil
}

// TouchLastSeen records a heartbeat.
func (s *Service) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	return s.updateProfileColumn(ctx, "touch last seen", userID, "last_seen", at)
}

func (s *Service) updateProfileColumn(ctx context.Context, op, userID, column string, value interface{}) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update(column, value)
	if res.Error != nil {
		return wrap(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return &PersistenceError{Op: op, Err: ErrNotFound}
	}
	return nil
}

// ListProfilesSeenSince returns profiles whose last heartbeat is at or after
// since, most recent first.
func (s *Service) ListProfilesSeenSince(ctx context.Context, since time.Time) ([]models.Profile, error) {
	var out []models.Profile
	err := s.DB.WithContext(ctx).
		Where("last_seen >= ?", since).
		Order("last_seen desc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list seen profiles", err)
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
