package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mgallego/posada/internal/models"
	"github.com/mgallego/posada/pkg/metrics"
)

// ReadTracker is the persistence boundary for per-(notification, user) read
// markers. Marking is idempotent; the unique key on the pair resolves
// concurrent duplicate inserts without application-level locking.
type ReadTracker struct {
	db *gorm.DB
}

// NewReadTracker constructs a ReadTracker.
func NewReadTracker(db *gorm.DB) (*ReadTracker, error) {
	if db == nil {
		return nil, errors.New("read tracker: db is required")
	}
	return &ReadTracker{db: db}, nil
}

// MarkRead records that the user has seen the notification. A mark that
// already exists wins any race: the insert is a no-op and no error surfaces.
func (t *ReadTracker) MarkRead(ctx context.Context, notificationID string, userID int64, now time.Time) error {
	ctx = ensureContext(ctx)

	mark := models.NotificationRead{
		NotificationID: notificationID,
		UserID:         userID,
		ReadAt:         now.UTC(),
	}

	result := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&mark)
	if result.Error != nil {
		return fmt.Errorf("read tracker: mark read: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		metrics.ReadMarks.Inc()
	}
	return nil
}

// ReadIDsFor returns the subset of the given notification ids the user has
// already read.
func (t *ReadTracker) ReadIDsFor(ctx context.Context, userID int64, notificationIDs []string) ([]string, error) {
	ctx = ensureContext(ctx)
	if len(notificationIDs) == 0 {
		return nil, nil
	}

	var ids []string
	err := t.db.WithContext(ctx).
		Model(&models.NotificationRead{}).
		Where("user_id = ?", userID).
		Where("notification_id IN ?", notificationIDs).
		Pluck("notification_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("read tracker: read ids: %w", err)
	}
	return ids, nil
}

// ActiveReadsFor returns the user's read markers whose parent notification
// has not yet expired.
func (t *ReadTracker) ActiveReadsFor(ctx context.Context, userID int64, now time.Time) ([]models.NotificationRead, error) {
	ctx = ensureContext(ctx)

	var reads []models.NotificationRead
	err := t.db.WithContext(ctx).
		Joins("JOIN notifications ON notifications.id = notification_reads.notification_id").
		Where("notification_reads.user_id = ?", userID).
		Where("notifications.expires_at IS NULL OR notifications.expires_at > ?", now).
		Find(&reads).Error
	if err != nil {
		return nil, fmt.Errorf("read tracker: active reads: %w", err)
	}
	return reads, nil
}
