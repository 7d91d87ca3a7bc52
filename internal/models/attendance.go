package models

import "time"

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// Attendance records one participant's presence at a meeting. The meeting is
// referenced by id only; records outlive the meeting they belong to.
type Attendance struct {
	BaseModel

	MeetingID string          `gorm:"size:36;not null;uniqueIndex:idx_attendance_meeting_participant,priority:1" json:"meeting_id"`
	Meeting   *MeetingSummary `gorm:"-" json:"meeting"`

	Participant Participant `gorm:"embedded;embeddedPrefix:participant_" json:"participant"`

	Status       string     `gorm:"type:varchar(16);not null;index" json:"status"`
	CheckInTime  *time.Time `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Notes        string     `gorm:"type:varchar(200)" json:"notes"`

	RecordedByID string `gorm:"size:36;not null" json:"recorded_by_id"`
	RecordedBy   *User  `gorm:"foreignKey:RecordedByID" json:"recorded_by,omitempty"`
}

// Participant is the identity captured when attendance is recorded.
type Participant struct {
	UserID *string `gorm:"size:36" json:"user_id,omitempty"`
	Name   string  `gorm:"type:varchar(100);not null" json:"name"`
	Email  string  `gorm:"type:varchar(255);not null;uniqueIndex:idx_attendance_meeting_participant,priority:2" json:"email"`
}
