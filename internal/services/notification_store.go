package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/models"
	apperrors "github.com/mgallego/posada/pkg/errors"
	"github.com/mgallego/posada/pkg/metrics"
)

// ErrNoRecipients rejects a notification whose recipient set resolved empty.
// This is the one hard precondition enforced before persistence.
var ErrNoRecipients = apperrors.NewBadRequest("notification requires at least one recipient")

// NotificationStore is the persistence boundary for notifications and their
// recipient sets.
type NotificationStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewNotificationStore constructs a NotificationStore. A non-positive ttl
// falls back to the 90-day default.
func NewNotificationStore(db *gorm.DB, ttl time.Duration) (*NotificationStore, error) {
	if db == nil {
		return nil, errors.New("notification store: db is required")
	}
	if ttl <= 0 {
		ttl = models.DefaultTTL
	}
	return &NotificationStore{db: db, ttl: ttl, now: time.Now}, nil
}

// WithNow overrides the store clock, primarily for tests.
func (s *NotificationStore) WithNow(now func() time.Time) *NotificationStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Create persists the notification together with its recipient set,
// defaulting the creation time, expiry and status. The record and its
// recipients are written in a single transaction.
func (s *NotificationStore) Create(ctx context.Context, n *models.Notification) error {
	ctx = ensureContext(ctx)
	if n == nil {
		return errors.New("notification store: nil notification")
	}

	recipients := make([]int64, 0, len(n.Recipients))
	for _, r := range n.Recipients {
		recipients = append(recipients, r.UserID)
	}
	recipients = uniqueIDs(recipients)
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	if n.ExpiresAt == nil {
		expires := n.CreatedAt.Add(s.ttl)
		n.ExpiresAt = &expires
	}
	if !n.ExpiresAt.After(n.CreatedAt) {
		return apperrors.NewBadRequest("notification expiry must be after creation time")
	}
	if n.Status == "" {
		n.Status = models.StatusNew
	}
	if n.Origin == "" {
		n.Origin = models.OriginManual
	}

	n.Recipients = make([]models.NotificationRecipient, 0, len(recipients))
	for _, id := range recipients {
		n.Recipients = append(n.Recipients, models.NotificationRecipient{UserID: id})
	}

	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("notification store: create: %w", err)
	}

	metrics.NotificationsCreated.WithLabelValues(n.Origin).Inc()
	return nil
}

// ListActiveForUser returns non-expired notifications addressed to the user,
// most recent first.
func (s *NotificationStore) ListActiveForUser(ctx context.Context, userID int64, now time.Time) ([]models.Notification, error) {
	ctx = ensureContext(ctx)

	var rows []models.Notification
	err := s.db.WithContext(ctx).
		Joins("JOIN notification_recipients ON notification_recipients.notification_id = notifications.id").
		Where("notification_recipients.user_id = ?", userID).
		Where("notifications.expires_at IS NULL OR notifications.expires_at > ?", now).
		Order("notifications.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("notification store: list active: %w", err)
	}
	return rows, nil
}

// CountActiveByStatus counts the user's non-expired notifications carrying
// the given status. Backs the unread badge counter.
func (s *NotificationStore) CountActiveByStatus(ctx context.Context, userID int64, now time.Time, status string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Joins("JOIN notification_recipients ON notification_recipients.notification_id = notifications.id").
		Where("notification_recipients.user_id = ?", userID).
		Where("notifications.expires_at IS NULL OR notifications.expires_at > ?", now).
		Where("notifications.status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notification store: count by status: %w", err)
	}
	return count, nil
}

// DeleteExpired removes every notification whose expiry lies before now,
// cascading to recipient rows and read markers so no orphans remain. It
// returns the number of notifications removed and is safe to run repeatedly
// or concurrently with normal traffic: the predicate is time-based, not a
// snapshot of ids.
func (s *NotificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expiredIDs := func() *gorm.DB {
			return tx.Model(&models.Notification{}).Select("id").Where("expires_at < ?", now)
		}

		if err := tx.Where("notification_id IN (?)", expiredIDs()).
			Delete(&models.NotificationRead{}).Error; err != nil {
			return fmt.Errorf("purge read markers: %w", err)
		}

		if err := tx.Where("notification_id IN (?)", expiredIDs()).
			Delete(&models.NotificationRecipient{}).Error; err != nil {
			return fmt.Errorf("purge recipients: %w", err)
		}

		result := tx.Where("expires_at < ?", now).Delete(&models.Notification{})
		if result.Error != nil {
			return fmt.Errorf("delete notifications: %w", result.Error)
		}
		removed = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("notification store: delete expired: %w", err)
	}

	metrics.NotificationsSwept.Add(float64(removed))
	return removed, nil
}
