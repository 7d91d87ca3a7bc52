package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	MeetingStatusScheduled = "scheduled"
	MeetingStatusOngoing   = "ongoing"
	MeetingStatusCompleted = "completed"
	MeetingStatusCancelled = "cancelled"
)

const (
	MeetingTypeInPerson = "in-person"
	MeetingTypeVirtual  = "virtual"
	MeetingTypeHybrid   = "hybrid"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	InvitationInvited   = "invited"
	InvitationAccepted  = "accepted"
	InvitationDeclined  = "declined"
	InvitationTentative = "tentative"
)

// Meeting is owned by its organizer. Read access extends to every listed attendee.
type Meeting struct {
	BaseModel

	Title       string    `gorm:"type:varchar(100);not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	StartTime   string    `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     string    `gorm:"type:varchar(5);not null" json:"end_time"`
	Location    string    `gorm:"type:varchar(255);not null" json:"location"`

	OrganizerID string `gorm:"size:36;not null;index" json:"organizer_id"`
	Organizer   *User  `gorm:"foreignKey:OrganizerID" json:"organizer,omitempty"`

	Status      string `gorm:"type:varchar(16);not null;default:'scheduled';index" json:"status"`
	MeetingType string `gorm:"type:varchar(16);not null;default:'in-person'" json:"meeting_type"`
	Priority    string `gorm:"type:varchar(16);not null;default:'medium'" json:"priority"`

	Tags        datatypes.JSONSlice[string]     `json:"tags"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`

	Attendees []MeetingAttendee `gorm:"foreignKey:MeetingID;constraint:OnDelete:CASCADE" json:"attendees"`
}

// Attachment records an uploaded file associated with a meeting.
type Attachment struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// MeetingAttendee is one invited person. UserID is set only when the
// attendee resolves to a registered account.
type MeetingAttendee struct {
	BaseModel

	MeetingID string  `gorm:"size:36;not null;index" json:"meeting_id"`
	UserID    *string `gorm:"size:36;index" json:"user_id,omitempty"`
	Email     string  `gorm:"type:varchar(255);not null" json:"email"`
	Name      string  `gorm:"type:varchar(100);not null" json:"name"`
	Status    string  `gorm:"type:varchar(16);not null;default:'invited'" json:"status"`
	Position  int     `gorm:"not null;default:0" json:"-"`
}

// IsOrganizer reports whether userID owns the meeting.
func (m *Meeting) IsOrganizer(userID string) bool {
	return m != nil && userID != "" && m.OrganizerID == userID
}

// CanView reports whether userID is the organizer or a linked attendee.
func (m *Meeting) CanView(userID string) bool {
	if m.IsOrganizer(userID) {
		return true
	}
	if m == nil || userID == "" {
		return false
	}
	for _, attendee := range m.Attendees {
		if attendee.UserID != nil && *attendee.UserID == userID {
			return true
		}
	}
	return false
}

// LinkedUserIDs returns the distinct user ids of attendees with an account,
// in attendee order.
func (m *Meeting) LinkedUserIDs() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(m.Attendees))
	ids := make([]string, 0, len(m.Attendees))
	for _, attendee := range m.Attendees {
		if attendee.UserID == nil || strings.TrimSpace(*attendee.UserID) == "" {
			continue
		}
		if _, ok := seen[*attendee.UserID]; ok {
			continue
		}
		seen[*attendee.UserID] = struct{}{}
		ids = append(ids, *attendee.UserID)
	}
	return ids
}

// MeetingSummary is the reference form of a meeting embedded in other resources.
type MeetingSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Location  string    `json:"location"`
}

// Summary returns the reference form of m, or nil when m is nil.
func (m *Meeting) Summary() *MeetingSummary {
	if m == nil {
		return nil
	}
	return &MeetingSummary{
		ID:        m.ID,
		Title:     m.Title,
		Date:      m.Date,
		StartTime: m.StartTime,
		EndTime:   m.EndTime,
		Location:  m.Location,
	}
}
