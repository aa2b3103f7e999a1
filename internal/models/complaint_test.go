package models_test

import (
	"reflect"
	"testing"
	"time"

	"civicdesk/backend/internal/ids"
	"civicdesk/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestComplaintBeforeCreate_GeneratesID verifies that the hook assigns a sortable id.
func TestComplaintBeforeCreate_GeneratesID(t *testing.T) {
	c := &models.Complaint{
		UserID:      "user-1",
		Description: "water leaking on Main St",
		Category:    models.CategoryWater,
		Status:      models.StatusPending,
	}

	assert.Empty(t, c.ID)
	err := c.BeforeCreate(nil) // nil *gorm.DB is fine for this hook

	assert.NoError(t, err)
	assert.True(t, ids.Valid(c.ID), "complaint id must be a valid ULID, got %q", c.ID)
}

// TestComplaintBeforeCreate_PreservesExistingID verifies the hook does not overwrite ids.
func TestComplaintBeforeCreate_PreservesExistingID(t *testing.T) {
	c := &models.Complaint{ID: "fixed-id"}
	assert.NoError(t, c.BeforeCreate(nil))
	assert.Equal(t, "fixed-id", c.ID)
}

// TestComplaintBeforeCreate_UsesCreationTime keeps id order aligned with created_at.
func TestComplaintBeforeCreate_UsesCreationTime(t *testing.T) {
	base := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	older := &models.Complaint{CreatedAt: base}
	newer := &models.Complaint{CreatedAt: base.Add(time.Minute)}

	require.NoError(t, older.BeforeCreate(nil))
	require.NoError(t, newer.BeforeCreate(nil))

	assert.Less(t, older.ID, newer.ID)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Category
		wantErr bool
	}{
		{raw: "water", want: models.CategoryWater},
		{raw: " Electricity ", want: models.CategoryElectricity},
		{raw: "ROADS", want: models.CategoryRoads},
		{raw: "sanitation", want: models.CategorySanitation},
		{raw: "other", want: models.CategoryOther},
		{raw: "parks", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := models.ParseCategory(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusNext_FollowsFixedOrder(t *testing.T) {
	next, ok := models.StatusPending.Next()
	assert.True(t, ok)
	assert.Equal(t, models.StatusEndorsed, next)

	next, ok = models.StatusEndorsed.Next()
	assert.True(t, ok)
	assert.Equal(t, models.StatusOngoing, next)

	next, ok = models.StatusOngoing.Next()
	assert.True(t, ok)
	assert.Equal(t, models.StatusClosed, next)

	_, ok = models.StatusClosed.Next()
	assert.False(t, ok, "closed is terminal")

	_, ok = models.Status("archived").Next()
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	s, err := models.ParseStatus("Ongoing")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusOngoing, s)

	_, err = models.ParseStatus("resolved")
	assert.Error(t, err)
}

// TestComplaintStructTags guards the column layout the store queries rely on.
func TestComplaintStructTags(t *testing.T) {
	ct := reflect.TypeOf(models.Complaint{})

	idField, found := ct.FieldByName("ID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")

	for field, column := range map[string]string{
		"UserID":        "user_id",
		"UrgencyScore":  "urgency_score",
		"UrgencyOrigin": "urgency_origin",
		"CreatedAt":     "created_at",
	} {
		f, found := ct.FieldByName(field)
		assert.True(t, found, "%s should exist", field)
		assert.Equal(t, column, f.Tag.Get("json"))
	}
}
