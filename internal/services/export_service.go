package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charlesng35/notula/internal/export"
	"github.com/charlesng35/notula/pkg/metrics"
)

// ExportedDocument is a rendered PDF ready to be served.
type ExportedDocument struct {
	Filename string
	Pages    int
	Content  []byte
}

// ExportService renders meeting records as PDF documents. Access follows the
// meeting read rule.
type ExportService struct {
	meetings   *MeetingService
	attendance *AttendanceService
	minutes    *MinutesService
	now        func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(meetings *MeetingService, attendance *AttendanceService, minutes *MinutesService) (*ExportService, error) {
	if meetings == nil || attendance == nil || minutes == nil {
		return nil, errors.New("export service: meeting, attendance and minutes services are required")
	}
	return &ExportService{
		meetings:   meetings,
		attendance: attendance,
		minutes:    minutes,
		now:        time.Now,
	}, nil
}

// MeetingMinutes renders the full record of a meeting. Meetings without
// minutes still export their metadata and rosters.
func (s *ExportService) MeetingMinutes(ctx context.Context, userID, meetingID string) (*ExportedDocument, error) {
	ctx = ensureContext(ctx)

	meeting, err := s.meetings.Get(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendance.ForMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}
	minutes, err := s.minutes.ByMeeting(ctx, meeting.ID)
	if err != nil && !errors.Is(err, ErrMinutesNotFound) {
		return nil, err
	}

	var buf bytes.Buffer
	result, err := export.RenderMinutes(&buf, export.MinutesInput{
		Meeting:    meeting,
		Attendance: records,
		Minutes:    minutes,
	}, export.WithClock(s.now))
	if err != nil {
		return nil, fmt.Errorf("export service: render minutes: %w", err)
	}
	return s.document(export.KindMinutes, result, buf.Bytes()), nil
}

// Attendance renders the attendance roster of a meeting.
func (s *ExportService) Attendance(ctx context.Context, userID, meetingID string) (*ExportedDocument, error) {
	ctx = ensureContext(ctx)

	meeting, err := s.meetings.Get(ctx, userID, meetingID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendance.ForMeeting(ctx, meeting.ID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	result, err := export.RenderAttendance(&buf, meeting, records, export.WithClock(s.now))
	if err != nil {
		return nil, fmt.Errorf("export service: render attendance: %w", err)
	}
	return s.document(export.KindAttendance, result, buf.Bytes()), nil
}

func (s *ExportService) document(kind string, result export.Result, content []byte) *ExportedDocument {
	metrics.PDFExports.WithLabelValues(kind).Inc()
	metrics.PDFPages.WithLabelValues(kind).Observe(float64(result.Pages))
	return &ExportedDocument{
		Filename: result.Filename,
		Pages:    result.Pages,
		Content:  content,
	}
}
