package models

import "time"

const (
	NotificationMeetingReminder  = "meeting-reminder"
	NotificationMeetingUpdate    = "meeting-update"
	NotificationMeetingCancelled = "meeting-cancelled"
	NotificationActionItem       = "action-item"
	NotificationMinutesAvailable = "minutes-available"
	NotificationGeneral          = "general"
)

// Notification represents an in-app notification for a user.
type Notification struct {
	BaseModel

	RecipientID string `gorm:"size:36;not null;index:idx_notifications_recipient_read,priority:1" json:"recipient_id"`
	Type        string `gorm:"type:varchar(32);not null" json:"type"`
	Title       string `gorm:"type:varchar(100);not null" json:"title"`
	Message     string `gorm:"type:varchar(300);not null" json:"message"`
	Priority    string `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`

	IsRead bool       `gorm:"default:false;index:idx_notifications_recipient_read,priority:2" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	RelatedMeetingID    *string         `gorm:"size:36;index" json:"related_meeting_id,omitempty"`
	RelatedMeeting      *MeetingSummary `gorm:"-" json:"related_meeting,omitempty"`
	RelatedActionItemID *string         `gorm:"size:36" json:"related_action_item_id,omitempty"`

	ScheduledFor *time.Time `gorm:"index" json:"scheduled_for,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ExpiresAt    *time.Time `gorm:"index" json:"expires_at,omitempty"`
}
