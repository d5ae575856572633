package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mgallego/posada/internal/models"
	"github.com/mgallego/posada/internal/notify"
	"github.com/mgallego/posada/pkg/logger"
)

// RoleDirectory exposes current role memberships. Implementations must treat
// absent roles as empty slices; the notifier never assumes non-nil results.
type RoleDirectory interface {
	AdminIDs(ctx context.Context) ([]int64, error)
	DevIDs(ctx context.Context) ([]int64, error)
	ManagerIDs(ctx context.Context) ([]int64, error)
}

// TextRenderer produces the human-readable raw body for business events. The
// engine treats the returned text as opaque and stores it unchanged.
type TextRenderer interface {
	LedgerEntry(amount float64, concept string) string
	StayCancelled(stayRef string, date time.Time) string
	GoalSummary(stays int, from, to time.Time) string
}

// PlainTexts is the default TextRenderer.
type PlainTexts struct{}

func (PlainTexts) LedgerEntry(amount float64, concept string) string {
	return fmt.Sprintf("Ledger entry of %.2f recorded for %s", amount, concept)
}

func (PlainTexts) StayCancelled(stayRef string, date time.Time) string {
	return fmt.Sprintf("Stay %s scheduled for %s was cancelled", stayRef, date.Format("2006-01-02"))
}

func (PlainTexts) GoalSummary(stays int, from, to time.Time) string {
	return fmt.Sprintf("%d stays recorded between %s and %s",
		stays, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// Announcement is a manual notification authored by a user, fanned out to a
// policy-resolved recipient set.
type Announcement struct {
	Type   string
	Title  string
	Body   string
	Link   string
	Action string
	ItemID string
	Date   *time.Time
	Policy notify.Policy
}

// Notifier is the entry point business operations use to emit notifications.
// It resolves the recipient set at the call site and hands the resolved set
// to the facade.
type Notifier struct {
	service   *NotificationService
	directory RoleDirectory
	resolver  *notify.Resolver
	texts     TextRenderer
	log       *zap.Logger
}

// NewNotifier constructs a Notifier. A nil renderer falls back to PlainTexts.
func NewNotifier(service *NotificationService, directory RoleDirectory, resolver *notify.Resolver, texts TextRenderer) (*Notifier, error) {
	if service == nil {
		return nil, errors.New("notifier: service is required")
	}
	if directory == nil {
		return nil, errors.New("notifier: role directory is required")
	}
	if resolver == nil {
		return nil, errors.New("notifier: resolver is required")
	}
	if texts == nil {
		texts = PlainTexts{}
	}
	return &Notifier{
		service:   service,
		directory: directory,
		resolver:  resolver,
		texts:     texts,
		log:       logger.WithModule("notifier"),
	}, nil
}

// Announce sends a manual notification on behalf of the author.
func (n *Notifier) Announce(ctx context.Context, author AuthorSnapshot, input Announcement) (string, error) {
	ctx = ensureContext(ctx)

	policy := input.Policy
	if policy == "" {
		policy = notify.PolicyOperationalWithAuthor
	}

	recipients := n.resolve(ctx, author.ID, policy)
	return n.service.Send(ctx, SendNotificationInput{
		Type:       input.Type,
		Title:      input.Title,
		Body:       input.Body,
		Link:       input.Link,
		Action:     input.Action,
		ItemID:     input.ItemID,
		Date:       input.Date,
		Origin:     models.OriginManual,
		Recipients: recipients,
		Author:     &author,
	})
}

// LedgerEntryRecorded notifies operational staff about a new ledger movement.
func (n *Notifier) LedgerEntryRecorded(ctx context.Context, author AuthorSnapshot, amount float64, concept, entryID string) (string, error) {
	ctx = ensureContext(ctx)

	recipients := n.resolve(ctx, author.ID, notify.PolicyOperationalWithAuthor)
	return n.service.Send(ctx, SendNotificationInput{
		Type:       notify.TypeLedgerEntryCreated,
		Title:      "Ledger entry recorded",
		Body:       n.texts.LedgerEntry(amount, concept),
		ItemID:     entryID,
		Origin:     models.OriginManual,
		Metadata:   map[string]any{"amount": amount, "concept": concept},
		Recipients: recipients,
		Author:     &author,
	})
}

// StayCancelled notifies operational staff that a stay was cancelled.
func (n *Notifier) StayCancelled(ctx context.Context, author AuthorSnapshot, stayRef string, date time.Time) (string, error) {
	ctx = ensureContext(ctx)

	recipients := n.resolve(ctx, author.ID, notify.PolicyOperationalWithAuthor)
	return n.service.Send(ctx, SendNotificationInput{
		Type:       notify.TypeStayCancelled,
		Title:      "Stay cancelled",
		Body:       n.texts.StayCancelled(stayRef, date),
		ItemID:     stayRef,
		Date:       &date,
		Origin:     models.OriginManual,
		Recipients: recipients,
		Author:     &author,
	})
}

// GoalSummaryReady publishes a periodic goal summary produced by the report
// job. There is no acting user; the notification is system-originated.
func (n *Notifier) GoalSummaryReady(ctx context.Context, stays int, from, to time.Time) (string, error) {
	ctx = ensureContext(ctx)

	recipients := n.resolve(ctx, 0, notify.PolicyOperational)
	return n.service.Send(ctx, SendNotificationInput{
		Type:   notify.TypeGoalSummary,
		Title:  "Goal summary",
		Body:   n.texts.GoalSummary(stays, from, to),
		Origin: models.OriginAutomatic,
		Metadata: map[string]any{
			"stays": stays,
			"from":  from.Format("2006-01-02"),
			"to":    to.Format("2006-01-02"),
		},
		Recipients: recipients,
	})
}

func (n *Notifier) resolve(ctx context.Context, authorID int64, policy notify.Policy) []int64 {
	sets := notify.RoleSets{
		Admins:   n.roleIDs(ctx, "admin", n.directory.AdminIDs),
		Devs:     n.roleIDs(ctx, "dev", n.directory.DevIDs),
		Managers: n.roleIDs(ctx, "manager", n.directory.ManagerIDs),
	}

	recipients := n.resolver.Resolve(sets, authorID, policy)
	if len(recipients) == 0 {
		n.log.Warn("recipient resolution produced an empty set",
			zap.String("policy", string(policy)),
			zap.Int64("author_id", authorID),
		)
	}
	return recipients
}

func (n *Notifier) roleIDs(ctx context.Context, role string, fetch func(context.Context) ([]int64, error)) []int64 {
	ids, err := fetch(ctx)
	if err != nil {
		n.log.Warn("role lookup failed, treating as empty", zap.String("role", role), zap.Error(err))
		return nil
	}
	return ids
}
