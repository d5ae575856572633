package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/database/testutil"
	"github.com/mgallego/posada/internal/models"
)

func newTestStore(t *testing.T, db *gorm.DB, now time.Time) *NotificationStore {
	t.Helper()
	store, err := NewNotificationStore(db, 0)
	require.NoError(t, err)
	return store.WithNow(func() time.Time { return now })
}

func notificationFor(users ...int64) *models.Notification {
	n := &models.Notification{
		Type:  "stay-cancelled",
		Title: "Stay cancelled",
		Body:  "Stay S-1 was cancelled",
	}
	for _, id := range users {
		n.Recipients = append(n.Recipients, models.NotificationRecipient{UserID: id})
	}
	return n
}

func TestStoreCreateDefaults(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, db, now)

	n := notificationFor(10, 20)
	require.NoError(t, store.Create(context.Background(), n))

	require.NotEmpty(t, n.ID)
	require.Equal(t, now, n.CreatedAt)
	require.NotNil(t, n.ExpiresAt)
	require.Equal(t, now.Add(90*24*time.Hour), *n.ExpiresAt)
	require.Equal(t, models.StatusNew, n.Status)
	require.Equal(t, models.OriginManual, n.Origin)

	var recipients []models.NotificationRecipient
	require.NoError(t, db.Where("notification_id = ?", n.ID).Find(&recipients).Error)
	require.Len(t, recipients, 2)
}

func TestStoreCreateRejectsEmptyRecipients(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := newTestStore(t, db, time.Now())

	err := store.Create(context.Background(), notificationFor())
	require.ErrorIs(t, err, ErrNoRecipients)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestStoreCreateDeduplicatesRecipients(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := newTestStore(t, db, time.Now())

	n := notificationFor(10, 10, 20)
	require.NoError(t, store.Create(context.Background(), n))
	require.Len(t, n.Recipients, 2)
}

func TestStoreCreateRejectsExpiryBeforeCreation(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, db, now)

	n := notificationFor(10)
	past := now.Add(-time.Hour)
	n.ExpiresAt = &past
	require.Error(t, store.Create(context.Background(), n))
}

func TestStoreListActiveForUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, db, now)
	ctx := context.Background()

	older := notificationFor(10)
	older.CreatedAt = now.Add(-2 * time.Hour)
	require.NoError(t, store.Create(ctx, older))

	newer := notificationFor(10, 20)
	newer.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, store.Create(ctx, newer))

	expired := notificationFor(10)
	expired.CreatedAt = now.Add(-48 * time.Hour)
	cutoff := now.Add(-time.Minute)
	expired.ExpiresAt = &cutoff
	require.NoError(t, store.Create(ctx, expired))

	foreign := notificationFor(99)
	require.NoError(t, store.Create(ctx, foreign))

	rows, err := store.ListActiveForUser(ctx, 10, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, newer.ID, rows[0].ID)
	require.Equal(t, older.ID, rows[1].ID)
	require.True(t, rows[0].CreatedAt.After(rows[1].CreatedAt))
}

func TestStoreCountActiveByStatus(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, db, now)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, notificationFor(10)))
	require.NoError(t, store.Create(ctx, notificationFor(10)))

	archived := notificationFor(10)
	archived.Status = models.StatusArchived
	require.NoError(t, store.Create(ctx, archived))

	count, err := store.CountActiveByStatus(ctx, 10, now, models.StatusNew)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestStoreDeleteExpiredCascades(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, db, now)
	tracker, err := NewReadTracker(db)
	require.NoError(t, err)
	ctx := context.Background()

	expired := notificationFor(10, 20)
	expired.CreatedAt = now.Add(-48 * time.Hour)
	cutoff := now.Add(-time.Hour)
	expired.ExpiresAt = &cutoff
	require.NoError(t, store.Create(ctx, expired))
	require.NoError(t, tracker.MarkRead(ctx, expired.ID, 10, now.Add(-2*time.Hour)))

	active := notificationFor(10)
	require.NoError(t, store.Create(ctx, active))
	require.NoError(t, tracker.MarkRead(ctx, active.ID, 10, now))

	removed, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&notifications).Error)
	require.Equal(t, int64(1), notifications)

	var reads []models.NotificationRead
	require.NoError(t, db.Find(&reads).Error)
	require.Len(t, reads, 1)
	require.Equal(t, active.ID, reads[0].NotificationID)

	var recipients int64
	require.NoError(t, db.Model(&models.NotificationRecipient{}).
		Where("notification_id = ?", expired.ID).Count(&recipients).Error)
	require.Zero(t, recipients)

	// Second run with the same clock has nothing left to delete.
	removed, err = store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Zero(t, removed)
}
