package client

import (
	"context"
	"net/url"

	"github.com/charlesng35/notula/internal/models"
)

// MeetingService schedules meetings and exports their records.
type MeetingService struct {
	client *Client
}

// Attendee is one invitee in a meeting request. User links a registered account.
type Attendee struct {
	User   string `json:"user,omitempty"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// MeetingRequest is the payload for creating or updating a meeting. Date is
// "YYYY-MM-DD"; StartTime and EndTime are "HH:MM".
type MeetingRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Date        string              `json:"date"`
	StartTime   string              `json:"start_time"`
	EndTime     string              `json:"end_time"`
	Location    string              `json:"location"`
	Status      string              `json:"status,omitempty"`
	MeetingType string              `json:"meeting_type,omitempty"`
	Priority    string              `json:"priority,omitempty"`
	Tags        []string            `json:"tags,omitempty"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
	Attendees   []Attendee          `json:"attendees,omitempty"`
}

// MeetingFilter narrows List. Date is "YYYY-MM-DD".
type MeetingFilter struct {
	Status string
	Date   string
	Search string
	Page
}

// StatusCount is one bucket of a status tally.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// MeetingStats summarises the caller's meetings.
type MeetingStats struct {
	Stats            []StatusCount `json:"stats"`
	TotalMeetings    int64         `json:"total_meetings"`
	UpcomingMeetings int64         `json:"upcoming_meetings"`
}

// Document is a downloaded export.
type Document struct {
	Filename    string
	ContentType string
	Pages       int
	Content     []byte
}

// Create schedules a meeting organized by the caller.
func (s *MeetingService) Create(ctx context.Context, req MeetingRequest) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.client.post(ctx, "/api/meetings", req, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// List returns one page of meetings the caller organizes or attends.
func (s *MeetingService) List(ctx context.Context, filter MeetingFilter) (*List[models.Meeting], error) {
	query := url.Values{}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Date != "" {
		query.Set("date", filter.Date)
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}
	filter.Page.apply(query)

	var meetings []models.Meeting
	pagination, err := s.client.get(ctx, "/api/meetings", query, &meetings)
	if err != nil {
		return nil, err
	}
	return listOf(meetings, pagination), nil
}

// Stats returns the caller's meeting counts by status.
func (s *MeetingService) Stats(ctx context.Context) (*MeetingStats, error) {
	var stats MeetingStats
	if _, err := s.client.get(ctx, "/api/meetings/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Get returns one meeting.
func (s *MeetingService) Get(ctx context.Context, id string) (*models.Meeting, error) {
	var meeting models.Meeting
	if _, err := s.client.get(ctx, "/api/meetings/"+url.PathEscape(id), nil, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Update rewrites a meeting. Only the organizer may update.
func (s *MeetingService) Update(ctx context.Context, id string, req MeetingRequest) (*models.Meeting, error) {
	var meeting models.Meeting
	if err := s.client.put(ctx, "/api/meetings/"+url.PathEscape(id), req, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// Delete removes a meeting. Only the organizer may delete.
func (s *MeetingService) Delete(ctx context.Context, id string) error {
	return s.client.delete(ctx, "/api/meetings/"+url.PathEscape(id))
}

// ExportMinutes downloads the full meeting record as a PDF.
func (s *MeetingService) ExportMinutes(ctx context.Context, id string) (*Document, error) {
	return s.client.download(ctx, "/api/meetings/"+url.PathEscape(id)+"/export/minutes")
}

// ExportAttendance downloads the attendance roster as a PDF.
func (s *MeetingService) ExportAttendance(ctx context.Context, id string) (*Document, error) {
	return s.client.download(ctx, "/api/meetings/"+url.PathEscape(id)+"/export/attendance")
}
