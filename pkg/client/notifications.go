package client

import (
	"context"
	"net/url"
	"time"

	"github.com/charlesng35/notula/internal/models"
)

// NotificationService reads and manages the caller's notifications.
type NotificationService struct {
	client *Client
}

// CreateNotificationRequest sends a notification to one user. Admin only.
type CreateNotificationRequest struct {
	Recipient      string     `json:"recipient"`
	Type           string     `json:"type,omitempty"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	Priority       string     `json:"priority,omitempty"`
	RelatedMeeting string     `json:"related_meeting,omitempty"`
	ScheduledFor   *time.Time `json:"scheduled_for,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// List returns one page of the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, page Page) (*List[models.Notification], error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread", "true")
	}
	page.apply(query)

	var notifications []models.Notification
	pagination, err := s.client.get(ctx, "/api/notifications", query, &notifications)
	if err != nil {
		return nil, err
	}
	return listOf(notifications, pagination), nil
}

// UnreadCount returns how many of the caller's notifications are unread.
func (s *NotificationService) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	if _, err := s.client.get(ctx, "/api/notifications/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// Create sends a notification.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	var notification models.Notification
	if err := s.client.post(ctx, "/api/notifications", req, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkRead marks one notification read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.client.put(ctx, "/api/notifications/"+url.PathEscape(id)+"/read", nil, &notification); err != nil {
		return nil, err
	}
	return &notification, nil
}

// MarkAllRead marks every unread notification read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	if err := s.client.put(ctx, "/api/notifications/read-all", nil, &out); err != nil {
		return 0, err
	}
	return out.Updated, nil
}

// Delete removes one notification.
func (s *NotificationService) Delete(ctx context.Context, id string) error {
	return s.client.delete(ctx, "/api/notifications/"+url.PathEscape(id))
}
