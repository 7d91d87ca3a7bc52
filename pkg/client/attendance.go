package client

import (
	"context"
	"net/url"
	"time"

	"github.com/charlesng35/notula/internal/models"
)

// AttendanceService records who attended which meeting.
type AttendanceService struct {
	client *Client
}

// Participant identifies the person whose attendance is recorded.
type Participant struct {
	User  string `json:"user,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RecordAttendanceRequest creates an attendance record.
type RecordAttendanceRequest struct {
	Meeting      string      `json:"meeting"`
	Participant  Participant `json:"participant"`
	Status       string      `json:"status"`
	CheckInTime  *time.Time  `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time  `json:"check_out_time,omitempty"`
	Notes        string      `json:"notes,omitempty"`
}

// UpdateAttendanceRequest changes an attendance record. Nil fields are left unchanged.
type UpdateAttendanceRequest struct {
	Participant  *Participant `json:"participant,omitempty"`
	Status       *string      `json:"status,omitempty"`
	CheckInTime  *time.Time   `json:"check_in_time,omitempty"`
	CheckOutTime *time.Time   `json:"check_out_time,omitempty"`
	Notes        *string      `json:"notes,omitempty"`
}

// AttendanceStats tallies the records of a meeting by status.
type AttendanceStats struct {
	Stats        []StatusCount `json:"stats"`
	TotalRecords int64         `json:"total_records"`
}

// Record creates an attendance record.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.Attendance, error) {
	var record models.Attendance
	if err := s.client.post(ctx, "/api/attendance", req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns one page of attendance records, optionally for a single meeting.
func (s *AttendanceService) List(ctx context.Context, meetingID string, page Page) (*List[models.Attendance], error) {
	query := url.Values{}
	if meetingID != "" {
		query.Set("meeting_id", meetingID)
	}
	page.apply(query)

	var records []models.Attendance
	pagination, err := s.client.get(ctx, "/api/attendance", query, &records)
	if err != nil {
		return nil, err
	}
	return listOf(records, pagination), nil
}

// Stats tallies attendance by status, optionally for a single meeting.
func (s *AttendanceService) Stats(ctx context.Context, meetingID string) (*AttendanceStats, error) {
	query := url.Values{}
	if meetingID != "" {
		query.Set("meeting_id", meetingID)
	}

	var stats AttendanceStats
	if _, err := s.client.get(ctx, "/api/attendance/stats", query, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Update changes an attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req UpdateAttendanceRequest) (*models.Attendance, error) {
	var record models.Attendance
	if err := s.client.put(ctx, "/api/attendance/"+url.PathEscape(id), req, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
