package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mgallego/posada/internal/middleware"
	"github.com/mgallego/posada/internal/notify"
	"github.com/mgallego/posada/internal/services"
	apperrors "github.com/mgallego/posada/pkg/errors"
	"github.com/mgallego/posada/pkg/response"
	"github.com/mgallego/posada/pkg/validator"
)

// NotificationHandler exposes HTTP endpoints for the notification engine.
type NotificationHandler struct {
	service  *services.NotificationService
	notifier *services.Notifier
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService, notifier *services.Notifier) (*NotificationHandler, error) {
	if service == nil {
		return nil, errors.New("notification handler: service is required")
	}
	if notifier == nil {
		return nil, errors.New("notification handler: notifier is required")
	}
	return &NotificationHandler{service: service, notifier: notifier}, nil
}

// List returns the current user's active notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// UnreadCount returns the badge counter for the current user.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// MarkRead records that the current user has seen a notification.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, apperrors.ErrBadRequest)
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), id, userID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// CreateNotificationRequest is the payload for manual announcements.
type CreateNotificationRequest struct {
	Type   string     `json:"type" validate:"required,max=64"`
	Title  string     `json:"title" validate:"required,max=255"`
	Body   string     `json:"body" validate:"required"`
	Link   string     `json:"link,omitempty"`
	Action string     `json:"action,omitempty" validate:"omitempty,max=64"`
	ItemID string     `json:"item_id,omitempty" validate:"omitempty,max=64"`
	Date   *time.Time `json:"date,omitempty"`
	Policy string     `json:"policy,omitempty" validate:"omitempty,oneof=operational operational_with_author user_scoped user_scoped_with_author"`
}

// Create publishes a manual notification authored by the current user.
func (h *NotificationHandler) Create(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return
	}
	if err := validator.ValidateStruct(req); err != nil {
		response.Error(c, apperrors.NewBadRequest(err.Error()))
		return
	}

	author := services.AuthorSnapshot{
		ID:   userID,
		Name: c.GetString(middleware.CtxUserNameKey),
		Role: c.GetString(middleware.CtxUserRoleKey),
	}

	id, err := h.notifier.Announce(c.Request.Context(), author, services.Announcement{
		Type:   req.Type,
		Title:  req.Title,
		Body:   req.Body,
		Link:   req.Link,
		Action: req.Action,
		ItemID: req.ItemID,
		Date:   req.Date,
		Policy: notify.Policy(req.Policy),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"id": id})
}
