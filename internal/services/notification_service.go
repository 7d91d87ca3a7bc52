package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/realtime"
	apperrors "github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/metrics"
)

const (
	eventNotificationCreated = "notification.created"
	eventNotificationRead    = "notification.read"
	eventNotificationReadAll = "notification.read_all"
	eventNotificationDeleted = "notification.deleted"
)

// NotificationTemplate is the shared content of a fan-out. Every recipient
// receives an identical copy.
type NotificationTemplate struct {
	Type                string
	Title               string
	Message             string
	Priority            string
	RelatedMeetingID    *string
	RelatedActionItemID *string
	ScheduledFor        *time.Time
	ExpiresAt           *time.Time
}

// CreateNotificationInput defines attributes required to persist a single notification.
type CreateNotificationInput struct {
	RecipientID      string
	Type             string
	Title            string
	Message          string
	Priority         string
	RelatedMeetingID *string
	ScheduledFor     *time.Time
	ExpiresAt        *time.Time
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Page       Page
}

// NotificationEventPayload represents data sent to realtime consumers.
type NotificationEventPayload struct {
	Notification   *models.Notification `json:"notification,omitempty"`
	NotificationID string               `json:"notification_id,omitempty"`
	Count          int64                `json:"count,omitempty"`
}

// NotificationServiceOption configures a NotificationService.
type NotificationServiceOption func(*NotificationService)

// WithNotificationRetention sets the default lifetime given to notifications
// that do not carry their own expiry. Zero keeps them forever.
func WithNotificationRetention(retention time.Duration) NotificationServiceOption {
	return func(s *NotificationService) {
		if retention > 0 {
			s.retention = retention
		}
	}
}

// WithNotificationClock overrides the time source.
func WithNotificationClock(now func() time.Time) NotificationServiceOption {
	return func(s *NotificationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NotificationService manages in-app notifications and the fan-out that
// derives them from meeting and minutes mutations.
type NotificationService struct {
	db        *gorm.DB
	hub       *realtime.Hub
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, hub *realtime.Hub, opts ...NotificationServiceOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	svc := &NotificationService{
		db:  db,
		hub: hub,
		now: time.Now,
		log: logger.WithModule("notifications"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// FanOut persists one notification per linked account among attendees, so
// two attendee rows linked to the same user yield a single notification.
// Email-only attendees are skipped. It runs on tx so the notifications commit
// or roll back together with the mutation that triggered them; call Announce
// with the result once the transaction has committed.
func (s *NotificationService) FanOut(tx *gorm.DB, attendees []models.MeetingAttendee, tmpl NotificationTemplate) ([]models.Notification, error) {
	userIDs := make([]string, 0, len(attendees))
	for _, attendee := range attendees {
		if attendee.UserID != nil {
			userIDs = append(userIDs, *attendee.UserID)
		}
	}
	return s.Deliver(tx, userIDs, tmpl)
}

// Deliver persists one notification per distinct registered user in userIDs.
// Ids that do not resolve to a user are dropped.
func (s *NotificationService) Deliver(tx *gorm.DB, userIDs []string, tmpl NotificationTemplate) ([]models.Notification, error) {
	if tx == nil {
		tx = s.db
	}

	candidates := normaliseIDs(userIDs)
	if len(candidates) == 0 {
		return nil, nil
	}

	known, err := existingUserIDs(tx, candidates)
	if err != nil {
		return nil, fmt.Errorf("notification service: resolve recipients: %w", err)
	}

	expiresAt := tmpl.ExpiresAt
	if expiresAt == nil && s.retention > 0 {
		ts := s.now().UTC().Add(s.retention)
		expiresAt = &ts
	}

	rows := make([]models.Notification, 0, len(known))
	for _, id := range candidates {
		if _, ok := known[id]; !ok {
			continue
		}
		rows = append(rows, models.Notification{
			RecipientID:         id,
			Type:                defaultIfEmpty(tmpl.Type, models.NotificationGeneral),
			Title:               truncate(tmpl.Title, 100),
			Message:             truncate(tmpl.Message, 300),
			Priority:            defaultIfEmpty(tmpl.Priority, models.PriorityMedium),
			RelatedMeetingID:    tmpl.RelatedMeetingID,
			RelatedActionItemID: tmpl.RelatedActionItemID,
			ScheduledFor:        tmpl.ScheduledFor,
			ExpiresAt:           expiresAt,
		})
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := tx.Create(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notifications: %w", err)
	}
	return rows, nil
}

// Announce records metrics and pushes freshly committed notifications to
// their recipients' open streams.
func (s *NotificationService) Announce(rows []models.Notification) {
	for i := range rows {
		row := rows[i]
		metrics.NotificationsCreated.WithLabelValues(row.Type).Inc()
		s.broadcast(row.RecipientID, eventNotificationCreated, &NotificationEventPayload{
			Notification: &row,
		})
	}
}

// Create persists a single notification, typically an administrator broadcast.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	recipientID := strings.TrimSpace(input.RecipientID)
	if recipientID == "" {
		return nil, apperrors.NewBadRequest("recipient is required")
	}
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewBadRequest("title and message are required")
	}

	var rows []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rows, err = s.Deliver(tx, []string{recipientID}, NotificationTemplate{
			Type:             input.Type,
			Title:            strings.TrimSpace(input.Title),
			Message:          strings.TrimSpace(input.Message),
			Priority:         input.Priority,
			RelatedMeetingID: input.RelatedMeetingID,
			ScheduledFor:     input.ScheduledFor,
			ExpiresAt:        input.ExpiresAt,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrUserNotFound
	}

	s.Announce(rows)
	notification := rows[0]
	return &notification, nil
}

// ListForUser returns one page of the user's live notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) (ListResult[models.Notification], error) {
	ctx = ensureContext(ctx)
	page := input.Page.normalize()
	result := ListResult[models.Notification]{Page: page.Page, Limit: page.Limit}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return result, errors.New("notification service: user id is required")
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", s.now().UTC())
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&rows).Error; err != nil {
		return result, fmt.Errorf("notification service: list notifications: %w", err)
	}

	if err := attachRelatedMeetings(s.db.WithContext(ctx), rows); err != nil {
		return result, fmt.Errorf("notification service: load related meetings: %w", err)
	}

	result.Items = rows
	return result, nil
}

// UnreadCount returns the number of unread live notifications for a user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Where("expires_at IS NULL OR expires_at > ?", s.now().UTC()).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// MarkRead sets the read flag on a notification owned by userID.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	notification, err := s.loadOwned(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(notification).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}
	notification.IsRead = true
	notification.ReadAt = &now

	s.broadcast(userID, eventNotificationRead, &NotificationEventPayload{
		Notification:   notification,
		NotificationID: notification.ID,
	})
	return notification, nil
}

// MarkAllRead flags every unread notification for the user and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	now := s.now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", res.Error)
	}

	s.broadcast(userID, eventNotificationReadAll, &NotificationEventPayload{Count: res.RowsAffected})
	return res.RowsAffected, nil
}

// Delete removes a notification owned by userID.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		Delete(&models.Notification{})
	if res.Error != nil {
		return fmt.Errorf("notification service: delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	s.broadcast(userID, eventNotificationDeleted, &NotificationEventPayload{NotificationID: notificationID})
	return nil
}

// DueReminders returns scheduled notifications whose time has come and that
// have not been dispatched yet, oldest first, with their meetings attached.
func (s *NotificationService) DueReminders(ctx context.Context, limit int) ([]models.Notification, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = maxPageSize
	}

	now := s.now().UTC()
	var rows []models.Notification
	if err := s.db.WithContext(ctx).
		Where("scheduled_for IS NOT NULL AND scheduled_for <= ? AND sent_at IS NULL", now).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notification service: load due reminders: %w", err)
	}
	if err := attachRelatedMeetings(s.db.WithContext(ctx), rows); err != nil {
		return nil, fmt.Errorf("notification service: load related meetings: %w", err)
	}
	return rows, nil
}

// MarkSent stamps sent_at on the supplied notifications.
func (s *NotificationService) MarkSent(ctx context.Context, ids []string) error {
	ctx = ensureContext(ctx)
	ids = normaliseIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("sent_at", s.now().UTC()).Error; err != nil {
		return fmt.Errorf("notification service: mark sent: %w", err)
	}
	return nil
}

// RescheduleReminders moves the unsent reminders of a meeting to at.
func (s *NotificationService) RescheduleReminders(tx *gorm.DB, meetingID string, at time.Time) error {
	if err := pendingReminders(tx, meetingID).Update("scheduled_for", at.UTC()).Error; err != nil {
		return fmt.Errorf("notification service: reschedule reminders: %w", err)
	}
	return nil
}

// SuppressReminders stamps the unsent reminders of a meeting as sent so the
// dispatcher never emails them.
func (s *NotificationService) SuppressReminders(tx *gorm.DB, meetingID string) error {
	if err := pendingReminders(tx, meetingID).Update("sent_at", s.now().UTC()).Error; err != nil {
		return fmt.Errorf("notification service: suppress reminders: %w", err)
	}
	return nil
}

func pendingReminders(tx *gorm.DB, meetingID string) *gorm.DB {
	return tx.Model(&models.Notification{}).
		Where("related_meeting_id = ? AND type = ? AND scheduled_for IS NOT NULL AND sent_at IS NULL",
			meetingID, models.NotificationMeetingReminder)
}

// PurgeExpired deletes notifications whose expiry has passed.
func (s *NotificationService) PurgeExpired(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)

	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now().UTC()).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("notification service: purge expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) loadOwned(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}
	return &notification, nil
}

func (s *NotificationService) broadcast(userID, event string, payload *NotificationEventPayload) {
	if s.hub == nil || userID == "" {
		return
	}
	s.hub.BroadcastToUser(realtime.StreamNotifications, userID, realtime.Message{
		Event: event,
		Data:  payload,
	})
}

// attachRelatedMeetings fills RelatedMeeting on each row. Rows pointing at a
// deleted meeting keep a nil reference.
func attachRelatedMeetings(db *gorm.DB, rows []models.Notification) error {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.RelatedMeetingID != nil {
			ids = append(ids, *row.RelatedMeetingID)
		}
	}

	summaries, err := loadMeetingSummaries(db, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		if rows[i].RelatedMeetingID != nil {
			rows[i].RelatedMeeting = summaries[*rows[i].RelatedMeetingID]
		}
	}
	return nil
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
