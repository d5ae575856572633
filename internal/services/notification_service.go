package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mgallego/posada/internal/models"
	"github.com/mgallego/posada/internal/notify"
	"github.com/mgallego/posada/pkg/logger"
)

// AuthorSnapshot captures the acting user's identity at send time. It is
// stored verbatim on the notification and never re-resolved, so audit text
// stays stable even if the user is later renamed or removed.
type AuthorSnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// SendNotificationInput defines attributes required to persist a notification.
// Recipients must already be resolved; the resolver runs at the call site.
type SendNotificationInput struct {
	Type       string
	Title      string
	Body       string
	Link       string
	Action     string
	ItemID     string
	Date       *time.Time
	Origin     string
	ExpiresAt  *time.Time
	Metadata   map[string]any
	Recipients []int64
	Author     *AuthorSnapshot
}

// NotificationView is the read-time projection of a notification for one
// user: display text rendered through the formatter registry plus the user's
// read flag.
type NotificationView struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Link      string     `json:"link,omitempty"`
	Action    string     `json:"action,omitempty"`
	ItemID    string     `json:"item_id,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Read      bool       `json:"read"`
}

// NotificationService orchestrates the store, read tracker and formatter
// registry behind a single facade.
type NotificationService struct {
	store    *NotificationStore
	reads    *ReadTracker
	registry *notify.Registry
	audit    *AuditService
	log      *zap.Logger
	now      func() time.Time
}

// NewNotificationService constructs a NotificationService. The audit service
// is optional; when present every send is recorded.
func NewNotificationService(store *NotificationStore, reads *ReadTracker, registry *notify.Registry, audit *AuditService) (*NotificationService, error) {
	if store == nil {
		return nil, errors.New("notification service: store is required")
	}
	if reads == nil {
		return nil, errors.New("notification service: read tracker is required")
	}
	if registry == nil {
		registry = notify.NewRegistry()
	}
	return &NotificationService{
		store:    store,
		reads:    reads,
		registry: registry,
		audit:    audit,
		log:      logger.WithModule("notifications"),
		now:      time.Now,
	}, nil
}

// WithNow overrides the service clock, primarily for tests.
func (s *NotificationService) WithNow(now func() time.Time) *NotificationService {
	if now != nil {
		s.now = now
	}
	return s
}

// Send persists a notification fanned out to the supplied recipient set and
// returns its id. The body is stored raw; formatting happens at read time.
func (s *NotificationService) Send(ctx context.Context, input SendNotificationInput) (string, error) {
	ctx = ensureContext(ctx)

	notification := models.Notification{
		Type:      strings.TrimSpace(input.Type),
		Title:     strings.TrimSpace(input.Title),
		Body:      input.Body,
		Link:      strings.TrimSpace(input.Link),
		Action:    strings.TrimSpace(input.Action),
		ItemID:    strings.TrimSpace(input.ItemID),
		Date:      input.Date,
		Origin:    strings.TrimSpace(input.Origin),
		ExpiresAt: input.ExpiresAt,
	}

	if input.Metadata != nil {
		data, err := json.Marshal(input.Metadata)
		if err != nil {
			return "", fmt.Errorf("notification service: marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(data)
	}

	if input.Author != nil && input.Author.ID > 0 {
		id := input.Author.ID
		notification.AuthorID = &id
		notification.AuthorName = input.Author.Name
		notification.AuthorRole = input.Author.Role
	}

	for _, userID := range input.Recipients {
		notification.Recipients = append(notification.Recipients, models.NotificationRecipient{UserID: userID})
	}

	if err := s.store.Create(ctx, &notification); err != nil {
		return "", err
	}

	s.log.Debug("notification sent",
		zap.String("id", notification.ID),
		zap.String("type", notification.Type),
		zap.Int("recipients", len(notification.Recipients)),
	)
	s.auditSend(ctx, &notification)

	return notification.ID, nil
}

// ListForUser returns the user's active notifications, most recent first,
// each annotated with the read flag and rendered display text.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]NotificationView, error) {
	ctx = ensureContext(ctx)
	now := s.now().UTC()

	rows, err := s.store.ListActiveForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	readIDs, err := s.reads.ReadIDsFor(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	read := make(map[string]struct{}, len(readIDs))
	for _, id := range readIDs {
		read[id] = struct{}{}
	}

	views := make([]NotificationView, 0, len(rows))
	for i := range rows {
		row := rows[i]
		_, isRead := read[row.ID]
		views = append(views, NotificationView{
			ID:        row.ID,
			Type:      row.Type,
			Title:     row.Title,
			Body:      s.registry.Format(&row),
			Link:      row.Link,
			Action:    row.Action,
			ItemID:    row.ItemID,
			Date:      row.Date,
			CreatedAt: row.CreatedAt,
			Read:      isRead,
		})
	}
	return views, nil
}

// MarkRead records that the user has seen the notification. Idempotent.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID string, userID int64) error {
	return s.reads.MarkRead(ensureContext(ctx), notificationID, userID, s.now())
}

// UnreadCount returns the badge counter: active notifications for the user
// still carrying the new status.
func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.store.CountActiveByStatus(ensureContext(ctx), userID, s.now().UTC(), models.StatusNew)
}

func (s *NotificationService) auditSend(ctx context.Context, n *models.Notification) {
	if s.audit == nil {
		return
	}

	entry := AuditEntry{
		Action:   "notification.send",
		Resource: n.ID,
		Result:   "success",
		Metadata: map[string]any{
			"type":       n.Type,
			"origin":     n.Origin,
			"recipients": len(n.Recipients),
		},
	}
	if n.AuthorID != nil {
		entry.UserID = n.AuthorID
		entry.Username = n.AuthorName
	}

	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.Warn("audit notification send failed", zap.Error(err))
	}
}
