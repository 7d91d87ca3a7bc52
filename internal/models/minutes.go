package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionItemPending    = "pending"
	ActionItemInProgress = "in-progress"
	ActionItemCompleted  = "completed"
	ActionItemCancelled  = "cancelled"
)

// MeetingMinutes holds the written record of a meeting. There is at most one
// per meeting.
type MeetingMinutes struct {
	BaseModel

	MeetingID string          `gorm:"size:36;not null;uniqueIndex" json:"meeting_id"`
	Meeting   *MeetingSummary `gorm:"-" json:"meeting"`

	Content         string                      `gorm:"type:text;not null" json:"content"`
	Summary         string                      `gorm:"type:varchar(500)" json:"summary"`
	KeyPoints       datatypes.JSONSlice[string] `json:"key_points"`
	NextMeetingDate *time.Time                  `json:"next_meeting_date,omitempty"`

	ActionItems []ActionItem `gorm:"foreignKey:MinutesID;constraint:OnDelete:CASCADE" json:"action_items"`
	Decisions   []Decision   `gorm:"foreignKey:MinutesID;constraint:OnDelete:CASCADE" json:"decisions"`

	CreatedByID      string  `gorm:"size:36;not null" json:"created_by_id"`
	CreatedBy        *User   `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	LastModifiedByID *string `gorm:"size:36" json:"last_modified_by_id,omitempty"`
	LastModifiedBy   *User   `gorm:"foreignKey:LastModifiedByID" json:"last_modified_by,omitempty"`

	IsApproved   bool       `gorm:"default:false" json:"is_approved"`
	ApprovedByID *string    `gorm:"size:36" json:"approved_by_id,omitempty"`
	ApprovedBy   *User      `gorm:"foreignKey:ApprovedByID" json:"approved_by,omitempty"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
}

// TableName keeps the plural-less name of the resource.
func (MeetingMinutes) TableName() string {
	return "meeting_minutes"
}

// ActionItem is a follow-up task owned by a minutes document and addressed by its own id.
type ActionItem struct {
	BaseModel

	MinutesID   string    `gorm:"size:36;not null;index" json:"minutes_id"`
	Description string    `gorm:"type:varchar(300);not null" json:"description"`
	AssignedTo  Assignee  `gorm:"embedded;embeddedPrefix:assignee_" json:"assigned_to"`
	DueDate     time.Time `gorm:"not null;index" json:"due_date"`
	Status      string    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	Priority    string    `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`
	Position    int       `gorm:"not null;default:0" json:"-"`

	ReminderSentAt *time.Time `json:"-"`
}

// TableName scopes action items under the minutes resource.
func (ActionItem) TableName() string {
	return "minutes_action_items"
}

// IsOpen reports whether the item still needs work.
func (a *ActionItem) IsOpen() bool {
	return a.Status == ActionItemPending || a.Status == ActionItemInProgress
}

// Assignee identifies the person responsible for an action item.
type Assignee struct {
	UserID *string `gorm:"size:36;index" json:"user_id,omitempty"`
	Name   string  `gorm:"type:varchar(100);not null" json:"name"`
	Email  string  `gorm:"type:varchar(255)" json:"email"`
}

// Decision records an outcome agreed in the meeting.
type Decision struct {
	BaseModel

	MinutesID   string `gorm:"size:36;not null;index" json:"minutes_id"`
	Description string `gorm:"type:varchar(300);not null" json:"description"`
	Impact      string `gorm:"type:varchar(16);not null;default:'medium'" json:"impact"`
	Position    int    `gorm:"not null;default:0" json:"-"`
}

// TableName scopes decisions under the minutes resource.
func (Decision) TableName() string {
	return "minutes_decisions"
}
