package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	apperrors "github.com/charlesng35/notula/pkg/errors"
)

// ParticipantInput identifies the person whose attendance is recorded.
type ParticipantInput struct {
	UserID string
	Name   string
	Email  string
}

// RecordAttendanceInput carries a new attendance record.
type RecordAttendanceInput struct {
	MeetingID    string
	Participant  ParticipantInput
	Status       string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Notes        string
}

// UpdateAttendanceInput enumerates the mutable attendance attributes. Nil
// fields are left unchanged.
type UpdateAttendanceInput struct {
	Participant  *ParticipantInput
	Status       *string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Notes        *string
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	MeetingID string
	Page      Page
}

// AttendanceStats aggregates attendance records by status.
type AttendanceStats struct {
	Stats        []StatusCount `json:"stats"`
	TotalRecords int64         `json:"total_records"`
}

// AttendanceService records who attended which meeting.
type AttendanceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(db *gorm.DB) (*AttendanceService, error) {
	if db == nil {
		return nil, errors.New("attendance service: db is required")
	}
	return &AttendanceService{db: db, now: time.Now}, nil
}

// Record stores one participant's attendance for an existing meeting. A
// present participant without an explicit check-in is checked in now.
func (s *AttendanceService) Record(ctx context.Context, recorderID string, input RecordAttendanceInput) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	if _, err := loadMeetingRow(s.db.WithContext(ctx), input.MeetingID); err != nil {
		return nil, err
	}

	participant, err := s.participant(ctx, input.Participant)
	if err != nil {
		return nil, err
	}

	record := &models.Attendance{
		MeetingID:    strings.TrimSpace(input.MeetingID),
		Participant:  participant,
		Status:       strings.TrimSpace(input.Status),
		CheckInTime:  utcPtr(input.CheckInTime),
		CheckOutTime: utcPtr(input.CheckOutTime),
		Notes:        strings.TrimSpace(input.Notes),
		RecordedByID: recorderID,
	}
	if record.Status == models.AttendancePresent && record.CheckInTime == nil {
		now := s.now().UTC()
		record.CheckInTime = &now
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAttendanceExists
		}
		return nil, fmt.Errorf("attendance service: create attendance: %w", err)
	}

	return s.Get(ctx, record.ID)
}

// Get loads one attendance record with its meeting and recorder references.
func (s *AttendanceService) Get(ctx context.Context, id string) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	var record models.Attendance
	if err := s.db.WithContext(ctx).Preload("RecordedBy").First(&record, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrAttendanceNotFound
		}
		return nil, fmt.Errorf("attendance service: get attendance: %w", err)
	}

	rows := []models.Attendance{record}
	if err := attachAttendanceMeetings(s.db.WithContext(ctx), rows); err != nil {
		return nil, fmt.Errorf("attendance service: load meeting: %w", err)
	}
	return &rows[0], nil
}

// List returns one page of attendance records, newest first.
func (s *AttendanceService) List(ctx context.Context, filter AttendanceFilter) (ListResult[models.Attendance], error) {
	ctx = ensureContext(ctx)
	page := filter.Page.normalize()
	result := ListResult[models.Attendance]{Page: page.Page, Limit: page.Limit}

	query := s.db.WithContext(ctx).Model(&models.Attendance{})
	if meetingID := strings.TrimSpace(filter.MeetingID); meetingID != "" {
		query = query.Where("meeting_id = ?", meetingID)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("attendance service: count attendance: %w", err)
	}

	var rows []models.Attendance
	if err := query.
		Preload("RecordedBy").
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&rows).Error; err != nil {
		return result, fmt.Errorf("attendance service: list attendance: %w", err)
	}

	if err := attachAttendanceMeetings(s.db.WithContext(ctx), rows); err != nil {
		return result, fmt.Errorf("attendance service: load meetings: %w", err)
	}

	result.Items = rows
	return result, nil
}

// Update applies a partial change to an attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, input UpdateAttendanceInput) (*models.Attendance, error) {
	ctx = ensureContext(ctx)

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Participant != nil {
		participant, err := s.participant(ctx, *input.Participant)
		if err != nil {
			return nil, err
		}
		updates["participant_user_id"] = participant.UserID
		updates["participant_name"] = participant.Name
		updates["participant_email"] = participant.Email
	}
	if input.Status != nil {
		status := strings.TrimSpace(*input.Status)
		updates["status"] = status
		if status == models.AttendancePresent && current.CheckInTime == nil && input.CheckInTime == nil {
			updates["check_in_time"] = s.now().UTC()
		}
	}
	if input.CheckInTime != nil {
		updates["check_in_time"] = input.CheckInTime.UTC()
	}
	if input.CheckOutTime != nil {
		updates["check_out_time"] = input.CheckOutTime.UTC()
	}
	if input.Notes != nil {
		updates["notes"] = strings.TrimSpace(*input.Notes)
	}
	if len(updates) == 0 {
		return current, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Attendance{}).Where("id = ?", current.ID).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrAttendanceExists
		}
		return nil, fmt.Errorf("attendance service: update attendance: %w", err)
	}

	return s.Get(ctx, id)
}

// Stats groups attendance by status, optionally for a single meeting.
func (s *AttendanceService) Stats(ctx context.Context, meetingID string) (*AttendanceStats, error) {
	ctx = ensureContext(ctx)

	scope := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Attendance{})
		if meetingID = strings.TrimSpace(meetingID); meetingID != "" {
			query = query.Where("meeting_id = ?", meetingID)
		}
		return query
	}

	stats := &AttendanceStats{Stats: []StatusCount{}}
	if err := scope().
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&stats.Stats).Error; err != nil {
		return nil, fmt.Errorf("attendance service: group by status: %w", err)
	}
	if err := scope().Count(&stats.TotalRecords).Error; err != nil {
		return nil, fmt.Errorf("attendance service: count attendance: %w", err)
	}
	return stats, nil
}

// ForMeeting returns every record of a meeting ordered by participant name.
func (s *AttendanceService) ForMeeting(ctx context.Context, meetingID string) ([]models.Attendance, error) {
	ctx = ensureContext(ctx)

	var rows []models.Attendance
	if err := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("participant_name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("attendance service: load meeting attendance: %w", err)
	}
	return rows, nil
}

func (s *AttendanceService) participant(ctx context.Context, input ParticipantInput) (models.Participant, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" || email == "" {
		return models.Participant{}, apperrors.NewBadRequest("participant name and email are required")
	}

	db := s.db.WithContext(ctx)
	participant := models.Participant{Name: name, Email: email}

	if userID := strings.TrimSpace(input.UserID); userID != "" {
		known, err := existingUserIDs(db, []string{userID})
		if err != nil {
			return participant, fmt.Errorf("attendance service: resolve participant: %w", err)
		}
		if _, ok := known[userID]; ok {
			participant.UserID = stringPtr(userID)
			return participant, nil
		}
	}

	byEmail, err := resolveUserIDsByEmail(db, []string{email})
	if err != nil {
		return participant, fmt.Errorf("attendance service: resolve participant: %w", err)
	}
	if id, ok := byEmail[email]; ok {
		participant.UserID = stringPtr(id)
	}
	return participant, nil
}

// loadMeetingRow checks that a meeting exists without loading its associations.
func loadMeetingRow(db *gorm.DB, meetingID string) (*models.Meeting, error) {
	meetingID = strings.TrimSpace(meetingID)
	if !models.IsValidID(meetingID) {
		return nil, ErrMeetingNotFound
	}

	var meeting models.Meeting
	if err := db.First(&meeting, "id = ?", meetingID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("load meeting: %w", err)
	}
	return &meeting, nil
}

func attachAttendanceMeetings(db *gorm.DB, rows []models.Attendance) error {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MeetingID)
	}
	summaries, err := loadMeetingSummaries(db, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Meeting = summaries[rows[i].MeetingID]
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
