package storage

import (
	"context"
	"time"

	"civicdesk/backend/internal/models"
)

// CreateComplaint inserts a new complaint. The id is filled by the model hook.
func (s *Service) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	return wrap("create complaint", s.DB.WithContext(ctx).Create(c).Error)
}

func (s *Service) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrap("get complaint", err)
	}
	return &c, nil
}

// ListComplaintsByReporter returns the reporter's complaints, newest first.
func (s *Service) ListComplaintsByReporter(ctx context.Context, userID string) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list reporter complaints", err)
	}
	return out, nil
}

// ListComplaints returns every complaint, optionally in one status, newest first.
func (s *Service) ListComplaints(ctx context.Context, status *models.Status) ([]models.Complaint, error) {
	var out []models.Complaint
	q := s.DB.WithContext(ctx)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at desc").Find(&out).Error; err != nil {
		return nil, wrap("list complaints", err)
	}
	return out, nil
}

// ListComplaintsByStatus returns complaints in one status, most urgent first.
// Equal scores keep submission order.
func (s *Service) ListComplaintsByStatus(ctx context.Context, status models.Status) ([]models.Complaint, error) {
	var out []models.Complaint
	err := s.DB.WithContext(ctx).
		Where("status = ?", status).
		Order("urgency_score desc").
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, wrap("list complaints by status", err)
	}
	return out, nil
}

// CompareAndSetStatus moves a complaint from one status to another only while
// it is still in from. It reports whether a row changed.
func (s *Service) CompareAndSetStatus(ctx context.Context, id string, from, to models.Status, at time.Time) (bool, error) {
	res := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, wrap("update status", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CountComplaintsByStatus returns the number of complaints per status.
// Statuses with no complaints are present with a zero count.
func (s *Service) CountComplaintsByStatus(ctx context.Context) (map[models.Status]int64, error) {
	var rows []struct {
		Status models.Status
		Count  int64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("count complaints", err)
	}

	counts := make(map[models.Status]int64, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
