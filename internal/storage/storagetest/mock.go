// Package storagetest provides a testify mock of storage.Storage.
package storagetest

import (
	"context"
	"time"

	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockStorage) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockStorage) ListComplaintsByReporter(ctx context.Context, userID string) ([]models.Complaint, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *MockStorage) ListComplaints(ctx context.Context, status *models.Status) ([]models.Complaint, error) {
	args := m.Called(ctx, status)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *MockStorage) ListComplaintsByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error) {
	args := m.Called(ctx, status)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *MockStorage) CompareAndSetStatus(ctx context.Context, id string, from, to models.Status, at time.Time) (bool, error) {
	args := m.Called(ctx, id, from, to, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) CountComplaintsByStatus(ctx context.Context) (map[models.Status]int64, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[models.Status]int64)
	return counts, args.Error(1)
}

func (m *MockStorage) CreateProfile(ctx context.Context, p *models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockStorage) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *MockStorage) ListProfilesByUserIDs(ctx context.Context, userIDs []string) ([]models.Profile, error) {
	args := m.Called(ctx, userIDs)
	list, _ := args.Get(0).([]models.Profile)
	return list, args.Error(1)
}

func (m *MockStorage) UpdateProfile(ctx context.Context, userID string, u storage.ProfileUpdate) error {
	args := m.Called(ctx, userID, u)
	return args.Error(0)
}

func (m *MockStorage) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockStorage) ListProfilesSeenSince(ctx context.Context, since time.Time) ([]models.Profile, error) {
	args := m.Called(ctx, since)
	list, _ := args.Get(0).([]models.Profile)
	return list, args.Error(1)
}

func (m *MockStorage) PublishEvent(ctx context.Context, ev models.ComplaintEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockStorage) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *MockStorage) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) SaveTelegramLinkCode(ctx context.Context, code string, chatID int64, ttl time.Duration) error {
	args := m.Called(ctx, code, chatID, ttl)
	return args.Error(0)
}

func (m *MockStorage) ConsumeTelegramLinkCode(ctx context.Context, code string) (int64, error) {
	args := m.Called(ctx, code)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}
