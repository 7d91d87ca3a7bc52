package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/response"
)

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type createNotificationRequest struct {
	Recipient      string     `json:"recipient" validate:"required,uuid"`
	Type           string     `json:"type" validate:"omitempty,oneof=meeting-reminder meeting-update meeting-cancelled action-item minutes-available general"`
	Title          string     `json:"title" validate:"required,max=100"`
	Message        string     `json:"message" validate:"required,max=300"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	RelatedMeeting string     `json:"related_meeting" validate:"omitempty,uuid"`
	ScheduledFor   *time.Time `json:"scheduled_for"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// List returns notifications for the current user.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	unread := strings.EqualFold(strings.TrimSpace(c.Query("unread")), "true")
	result, err := h.service.ListForUser(requestContext(c), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: unread,
		Page:       pageQuery(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeList(c, result)
}

// UnreadCount reports how many live notifications the caller has not read.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.service.UnreadCount(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": count})
}

// Create lets an administrator send a notification to a single user.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.CreateNotificationInput{
		RecipientID:  req.Recipient,
		Type:         req.Type,
		Title:        req.Title,
		Message:      req.Message,
		Priority:     req.Priority,
		ScheduledFor: req.ScheduledFor,
		ExpiresAt:    req.ExpiresAt,
	}
	if req.RelatedMeeting != "" {
		input.RelatedMeetingID = &req.RelatedMeeting
	}

	notification, err := h.service.Create(requestContext(c), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Notification created successfully", notification)
}

// MarkRead flags a notification owned by the caller as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notification, err := h.service.MarkRead(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Notification marked as read", notification)
}

// MarkAllRead marks all notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": updated})
}

// Delete removes a notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Notification deleted successfully", nil)
}
