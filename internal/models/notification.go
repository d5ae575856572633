package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification origins.
const (
	OriginManual    = "manual"    // triggered by a user action
	OriginAutomatic = "automatic" // triggered by a background process
)

// Notification statuses. Status is a coarse classification and is unrelated
// to per-user read state, which lives in NotificationRead.
const (
	StatusNew      = "new"
	StatusArchived = "archived"
)

// DefaultTTL is applied when a notification is created without an expiry.
const DefaultTTL = 90 * 24 * time.Hour

// Notification is the shared record fanned out to a fixed recipient set.
// Body holds the raw, unformatted content; display text is rendered at read
// time. The author fields are a snapshot captured at creation and are never
// re-resolved from the live user.
type Notification struct {
	BaseModel

	Type   string `gorm:"type:varchar(64);index" json:"type"`
	Title  string `gorm:"type:varchar(255)" json:"title"`
	Body   string `gorm:"type:text" json:"body"`
	Link   string `gorm:"type:text" json:"link"`
	Action string `gorm:"type:varchar(64)" json:"action"`
	ItemID string `gorm:"type:varchar(64)" json:"item_id"`

	Date     *time.Time     `json:"date"`
	Origin   string         `gorm:"type:varchar(16);not null;default:'manual'" json:"origin"`
	Status   string         `gorm:"type:varchar(16);not null;default:'new';index" json:"status"`
	Metadata datatypes.JSON `json:"metadata"`

	ExpiresAt *time.Time `gorm:"index" json:"expires_at"`

	AuthorID   *int64 `json:"author_id"`
	AuthorName string `gorm:"type:varchar(255)" json:"author_name"`
	AuthorRole string `gorm:"type:varchar(32)" json:"author_role"`

	Recipients []NotificationRecipient `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"recipients,omitempty"`
}

// NotificationRecipient is one member of a notification's recipient set.
type NotificationRecipient struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	NotificationID string `gorm:"type:uuid;not null;uniqueIndex:idx_notification_recipient" json:"notification_id"`
	UserID         int64  `gorm:"not null;index;uniqueIndex:idx_notification_recipient" json:"user_id"`
}

// NotificationRead marks that a user has seen a notification. The composite
// unique index is the concurrency primitive that makes duplicate marks safe.
type NotificationRead struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"-"`
	NotificationID string    `gorm:"type:uuid;not null;uniqueIndex:idx_notification_read" json:"notification_id"`
	UserID         int64     `gorm:"not null;index;uniqueIndex:idx_notification_read" json:"user_id"`
	ReadAt         time.Time `gorm:"not null" json:"read_at"`
}

// Expired reports whether the notification is past its TTL boundary at now.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && n.ExpiresAt.Before(now)
}
