package storage

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"civicdesk/backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var complaintColumns = []string{
	"id", "user_id", "description", "category", "status",
	"urgency_score", "urgency_origin", "created_at", "updated_at",
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return NewStorageService(gdb, nil), mock
}

func TestCreateComplaint_AssignsID(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "complaints"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c := &models.Complaint{
		UserID:        "u-1",
		Description:   "Water leaking",
		Category:      models.CategoryWater,
		Status:        models.StatusPending,
		UrgencyScore:  0.8,
		UrgencyOrigin: models.OriginAssessed,
	}
	require.NoError(t, svc.CreateComplaint(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateComplaint_WrapsFailure(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "complaints"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := svc.CreateComplaint(context.Background(), &models.Complaint{UserID: "u-1"})
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "create complaint", perr.Op)
	assert.Contains(t, perr.Error(), "connection reset")
}

func TestGetComplaint(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "complaints" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(complaintColumns).
			AddRow("c-1", "u-1", "Pothole", "roads", "endorsed", 0.6, "assessed", now, now))

	c, err := svc.GetComplaint(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, models.StatusEndorsed, c.Status)
	assert.Equal(t, models.CategoryRoads, c.Category)
}

func TestGetComplaint_NotFound(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "complaints" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(complaintColumns))

	_, err := svc.GetComplaint(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListComplaintsByReporter_NewestFirst(t *testing.T) {
	svc, mock := newMockService(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints" WHERE user_id = $1 ORDER BY created_at desc`)).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(complaintColumns).
			AddRow("c-2", "u-1", "Streetlight out", "electricity", "pending", 0.4, "assessed", now, now).
			AddRow("c-1", "u-1", "Pothole", "roads", "closed", 0.6, "assessed", now.Add(-time.Hour), now))

	list, err := svc.ListComplaintsByReporter(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c-2", list[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComplaints_StatusFilter(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints" ORDER BY created_at desc`)).
		WillReturnRows(sqlmock.NewRows(complaintColumns))
	_, err := svc.ListComplaints(context.Background(), nil)
	require.NoError(t, err)

	st := models.StatusPending
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints" WHERE status = $1 ORDER BY created_at desc`)).
		WithArgs(st).
		WillReturnRows(sqlmock.NewRows(complaintColumns))
	_, err = svc.ListComplaints(context.Background(), &st)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComplaintsByStatus_RanksByUrgency(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "complaints" WHERE status = $1 ORDER BY urgency_score desc,created_at asc`)).
		WithArgs(models.StatusOngoing).
		WillReturnRows(sqlmock.NewRows(complaintColumns))

	_, err := svc.ListComplaintsByStatus(context.Background(), models.StatusOngoing)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSetStatus(t *testing.T) {
	cases := []struct {
		name     string
		affected int64
		want     bool
	}{
		{"status matched", 1, true},
		{"status already moved", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock := newMockService(t)
			at := time.Now()

			mock.ExpectBegin()
			mock.ExpectExec(`UPDATE "complaints" SET .*WHERE id = \$\d+ AND status = \$\d+`).
				WillReturnResult(sqlmock.NewResult(0, tc.affected))
			mock.ExpectCommit()

			ok, err := svc.CompareAndSetStatus(context.Background(), "c-1", models.StatusPending, models.StatusEndorsed, at)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCountComplaintsByStatus_FillsZeroes(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT status, count\(\*\) as count FROM "complaints" GROUP BY`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 3).
			AddRow("ongoing", 1))

	counts, err := svc.CountComplaintsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), counts[models.StatusPending])
	assert.Equal(t, int64(0), counts[models.StatusEndorsed])
	assert.Equal(t, int64(1), counts[models.StatusOngoing])
	assert.Equal(t, int64(0), counts[models.StatusClosed])
	assert.Len(t, counts, len(models.Statuses))
}

func TestGetProfileByEmail_Normalizes(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`SELECT \* FROM "profiles" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "email", "password_hash", "full_name", "role"}).
			AddRow("p-1", "u-1", "ada@example.org", "hash", "Ada", "officer"))

	p, err := svc.GetProfileByEmail(context.Background(), "  Ada@Example.org ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleOfficer, p.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfilesByUserIDs(t *testing.T) {
	svc, mock := newMockService(t)

	list, err := svc.ListProfilesByUserIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE user_id IN ($1,$2)`)).
		WithArgs("u-1", "u-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "full_name"}).
			AddRow("p-1", "u-1", "Ada"))

	list, err = svc.ListProfilesByUserIDs(context.Background(), []string{"u-1", "u-2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Ada", list[0].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_SingleStatement(t *testing.T) {
	svc, mock := newMockService(t)
	name, lang := "New Name", "uk"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET "full_name"=$1,"language"=$2,"telegram_chat_id"=$3 WHERE user_id = $4`)).
		WithArgs("New Name", "uk", int64(4242), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	chatID := int64(4242)
	err := svc.UpdateProfile(context.Background(), "u-1", ProfileUpdate{FullName: &name, Language: &lang, TelegramChatID: &chatID})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_UnlinkTelegram(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "profiles" SET "telegram_chat_id"=$1 WHERE user_id = $2`)).
		WithArgs(nil, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	chatID := int64(4242)
	require.NoError(t, svc.UpdateProfile(context.Background(), "u-1", ProfileUpdate{TelegramChatID: &chatID, UnlinkTelegram: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfile_MissingProfile(t *testing.T) {
	svc, mock := newMockService(t)
	name := "New Name"

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "profiles" SET "full_name"=\$1 WHERE user_id = \$2`).
		WithArgs("New Name", "nobody").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := svc.UpdateProfile(context.Background(), "nobody", ProfileUpdate{FullName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile_NothingToChange(t *testing.T) {
	svc, mock := newMockService(t)
	require.NoError(t, svc.UpdateProfile(context.Background(), "u-1", ProfileUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLastSeen(t *testing.T) {
	svc, mock := newMockService(t)
	at := time.Now()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "profiles" SET "last_seen"=\$1 WHERE user_id = \$2`).
		WithArgs(sqlmock.AnyArg(), "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, svc.TouchLastSeen(context.Background(), "u-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListProfilesSeenSince_IncludesWindowEdge(t *testing.T) {
	svc, mock := newMockService(t)
	since := time.Date(2026, 2, 10, 13, 55, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "user_id", "email", "full_name", "role", "last_seen"}).
		AddRow("p-1", "u-1", "ada@example.com", "Ada", "officer", since.Add(time.Minute)).
		AddRow("p-2", "u-2", "bo@example.com", "Bo", "worker", since)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "profiles" WHERE last_seen >= $1 ORDER BY last_seen desc`)).
		WithArgs(since).
		WillReturnRows(rows)

	got, err := svc.ListProfilesSeenSince(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-2", got[1].UserID)
	assert.True(t, got[1].LastSeen.Equal(since))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWrap_TranslatesGormErrors(t *testing.T) {
	assert.Nil(t, wrap("noop", nil))
	assert.ErrorIs(t, wrap("get", gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, wrap("create", gorm.ErrDuplicatedKey), ErrConflict)
}

func TestTokenRevocation_WithoutRedis(t *testing.T) {
	svc := NewStorageService(nil, nil)
	ctx := context.Background()

	revoked, err := svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, svc.RevokeToken(ctx, "jti-1", time.Hour))
	revoked, err = svc.IsTokenRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// An already expired token needs no entry.
	require.NoError(t, svc.RevokeToken(ctx, "jti-2", 0))
	revoked, _ = svc.IsTokenRevoked(ctx, "jti-2")
	assert.False(t, revoked)
}

func TestTelegramLinkCodes_WithoutRedis(t *testing.T) {
	svc := NewStorageService(nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SaveTelegramLinkCode(ctx, "AB12CD34", 4242, time.Minute))
	chatID, err := svc.ConsumeTelegramLinkCode(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, int64(4242), chatID)

	// Codes are single use.
	_, err = svc.ConsumeTelegramLinkCode(ctx, "AB12CD34")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.SaveTelegramLinkCode(ctx, "EXPIRED1", 1, -time.Second))
	_, err = svc.ConsumeTelegramLinkCode(ctx, "EXPIRED1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPublishEvent_WithoutRedis(t *testing.T) {
	svc := NewStorageService(nil, nil)
	assert.NoError(t, svc.PublishEvent(context.Background(), models.ComplaintEvent{Type: models.EventStatusChanged}))

	var got []models.ComplaintEvent
	svc.LocalEvents = func(ev models.ComplaintEvent) { got = append(got, ev) }
	require.NoError(t, svc.PublishEvent(context.Background(), models.ComplaintEvent{ComplaintID: "c-1"}))
	require.Len(t, got, 1)
	assert.Equal(t, "c-1", got[0].ComplaintID)

	_, err := svc.SubscribeEvents(context.Background())
	assert.Error(t, err)
}
