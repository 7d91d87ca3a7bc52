package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/realtime"
	apperrors "github.com/charlesng35/notula/pkg/errors"
)

// DefaultReminderLead is how long before a meeting its reminder is scheduled.
const DefaultReminderLead = 24 * time.Hour

const (
	eventMeetingCreated   = "meeting.created"
	eventMeetingUpdated   = "meeting.updated"
	eventMeetingCancelled = "meeting.cancelled"
)

// AttendeeInput describes one invited person. UserID is optional; when empty
// the attendee is linked to the registered user with the same email, if any.
type AttendeeInput struct {
	UserID string
	Email  string
	Name   string
	Status string
}

// MeetingInput carries the writable meeting attributes. On update, empty
// enum fields and nil Tags/Attachments/Attendees keep the stored values.
type MeetingInput struct {
	Title       string
	Description string
	Date        time.Time
	StartTime   string
	EndTime     string
	Location    string
	Status      string
	MeetingType string
	Priority    string
	Tags        []string
	Attachments []models.Attachment
	Attendees   []AttendeeInput
}

// MeetingFilter narrows the caller's meeting list.
type MeetingFilter struct {
	Status string
	// Date restricts results to the calendar day containing Date.
	Date   *time.Time
	Search string
	Page   Page
}

// MeetingStats aggregates the caller's meetings.
type MeetingStats struct {
	Stats            []StatusCount `json:"stats"`
	TotalMeetings    int64         `json:"total_meetings"`
	UpcomingMeetings int64         `json:"upcoming_meetings"`
}

// MeetingServiceOption configures a MeetingService.
type MeetingServiceOption func(*MeetingService)

// WithReminderLead overrides DefaultReminderLead.
func WithReminderLead(lead time.Duration) MeetingServiceOption {
	return func(s *MeetingService) {
		if lead > 0 {
			s.reminderLead = lead
		}
	}
}

// WithMeetingClock overrides the time source.
func WithMeetingClock(now func() time.Time) MeetingServiceOption {
	return func(s *MeetingService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithInvitationEmails enables invitation emails for attendees without an account.
func WithInvitationEmails(email *EmailService) MeetingServiceOption {
	return func(s *MeetingService) {
		s.email = email
	}
}

// MeetingService owns meeting scheduling, access rules and the notifications
// derived from meeting changes.
type MeetingService struct {
	db            *gorm.DB
	notifications *NotificationService
	hub           *realtime.Hub
	email         *EmailService
	reminderLead  time.Duration
	now           func() time.Time
}

// NewMeetingService constructs a MeetingService.
func NewMeetingService(db *gorm.DB, notifications *NotificationService, hub *realtime.Hub, opts ...MeetingServiceOption) (*MeetingService, error) {
	if db == nil {
		return nil, errors.New("meeting service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("meeting service: notification service is required")
	}
	svc := &MeetingService{
		db:            db,
		notifications: notifications,
		hub:           hub,
		reminderLead:  DefaultReminderLead,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create schedules a meeting owned by organizerID and invites its attendees.
func (s *MeetingService) Create(ctx context.Context, organizerID string, input MeetingInput) (*models.Meeting, error) {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(organizerID) == "" {
		return nil, apperrors.ErrUnauthorized
	}
	if len(input.Attendees) == 0 {
		return nil, apperrors.NewBadRequest("at least one attendee is required")
	}

	meeting := &models.Meeting{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Date:        input.Date.UTC(),
		StartTime:   strings.TrimSpace(input.StartTime),
		EndTime:     strings.TrimSpace(input.EndTime),
		Location:    strings.TrimSpace(input.Location),
		OrganizerID: organizerID,
		Status:      defaultIfEmpty(input.Status, models.MeetingStatusScheduled),
		MeetingType: defaultIfEmpty(input.MeetingType, models.MeetingTypeInPerson),
		Priority:    defaultIfEmpty(input.Priority, models.PriorityMedium),
		Tags:        datatypes.JSONSlice[string](cleanTags(input.Tags)),
		Attachments: datatypes.JSONSlice[models.Attachment](input.Attachments),
	}

	var created []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attendees, err := buildAttendees(tx, input.Attendees)
		if err != nil {
			return err
		}
		meeting.Attendees = attendees

		if err := tx.Create(meeting).Error; err != nil {
			return fmt.Errorf("meeting service: create meeting: %w", err)
		}

		scheduledFor := meeting.Date.Add(-s.reminderLead)
		created, err = s.notifications.FanOut(tx, meeting.Attendees, NotificationTemplate{
			Type:             models.NotificationMeetingReminder,
			Title:            "New Meeting Invitation",
			Message:          fmt.Sprintf("You have been invited to %q on %s", meeting.Title, formatDisplayDate(meeting.Date)),
			Priority:         meeting.Priority,
			RelatedMeetingID: stringPtr(meeting.ID),
			ScheduledFor:     &scheduledFor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(created)
	s.email.SendMeetingInvitations(meeting, unlinkedEmails(meeting.Attendees))
	s.publish(eventMeetingCreated, meeting)

	return s.load(ctx, meeting.ID)
}

// List returns one page of meetings the user organizes or attends, soonest first.
func (s *MeetingService) List(ctx context.Context, userID string, filter MeetingFilter) (ListResult[models.Meeting], error) {
	ctx = ensureContext(ctx)
	page := filter.Page.normalize()
	result := ListResult[models.Meeting]{Page: page.Page, Limit: page.Limit}

	query := s.scoped(s.db.WithContext(ctx).Model(&models.Meeting{}), userID)
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if filter.Date != nil {
		day := startOfDay(filter.Date.UTC())
		query = query.Where("date >= ? AND date < ?", day, day.Add(24*time.Hour))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		esc := "ESCAPE '" + likeEscape + "'"
		query = query.Where(
			"LOWER(title) LIKE ? "+esc+" OR LOWER(description) LIKE ? "+esc+" OR LOWER(location) LIKE ? "+esc,
			pattern, pattern, pattern,
		)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("meeting service: count meetings: %w", err)
	}

	var rows []models.Meeting
	if err := withMeetingAssociations(query).
		Order("date ASC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&rows).Error; err != nil {
		return result, fmt.Errorf("meeting service: list meetings: %w", err)
	}

	result.Items = rows
	return result, nil
}

// Get returns a meeting visible to userID: its organizer or a linked attendee.
func (s *MeetingService) Get(ctx context.Context, userID, meetingID string) (*models.Meeting, error) {
	meeting, err := s.load(ensureContext(ctx), meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.CanView(userID) {
		return nil, ErrNoMeetingAccess
	}
	return meeting, nil
}

// Update rewrites a meeting. Only the organizer may update; a supplied
// attendee list replaces the stored one. Pending reminders follow a new date
// and are dropped when the meeting is cancelled.
func (s *MeetingService) Update(ctx context.Context, userID, meetingID string, input MeetingInput) (*models.Meeting, error) {
	ctx = ensureContext(ctx)

	var created []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meeting, err := loadMeeting(tx, meetingID)
		if err != nil {
			return err
		}
		if !meeting.IsOrganizer(userID) {
			return ErrNotOrganizer
		}

		updates := map[string]any{
			"title":       strings.TrimSpace(input.Title),
			"description": strings.TrimSpace(input.Description),
			"date":        input.Date.UTC(),
			"start_time":  strings.TrimSpace(input.StartTime),
			"end_time":    strings.TrimSpace(input.EndTime),
			"location":    strings.TrimSpace(input.Location),
		}
		if v := strings.TrimSpace(input.Status); v != "" {
			updates["status"] = v
		}
		if v := strings.TrimSpace(input.MeetingType); v != "" {
			updates["meeting_type"] = v
		}
		if v := strings.TrimSpace(input.Priority); v != "" {
			updates["priority"] = v
		}
		if input.Tags != nil {
			updates["tags"] = datatypes.JSONSlice[string](cleanTags(input.Tags))
		}
		if input.Attachments != nil {
			updates["attachments"] = datatypes.JSONSlice[models.Attachment](input.Attachments)
		}

		if err := tx.Model(&models.Meeting{}).Where("id = ?", meeting.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("meeting service: update meeting: %w", err)
		}

		switch date := updates["date"].(time.Time); {
		case updates["status"] == models.MeetingStatusCancelled:
			err = s.notifications.SuppressReminders(tx, meeting.ID)
		case !date.Equal(meeting.Date):
			err = s.notifications.RescheduleReminders(tx, meeting.ID, date.Add(-s.reminderLead))
		}
		if err != nil {
			return err
		}

		if input.Attendees != nil {
			if len(input.Attendees) == 0 {
				return apperrors.NewBadRequest("at least one attendee is required")
			}
			attendees, err := buildAttendees(tx, input.Attendees)
			if err != nil {
				return err
			}
			if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&models.MeetingAttendee{}).Error; err != nil {
				return fmt.Errorf("meeting service: clear attendees: %w", err)
			}
			for i := range attendees {
				attendees[i].MeetingID = meeting.ID
			}
			if err := tx.Create(&attendees).Error; err != nil {
				return fmt.Errorf("meeting service: replace attendees: %w", err)
			}
			meeting.Attendees = attendees
		}

		title := updates["title"].(string)
		created, err = s.notifications.FanOut(tx, meeting.Attendees, NotificationTemplate{
			Type:             models.NotificationMeetingUpdate,
			Title:            "Meeting Updated",
			Message:          fmt.Sprintf("Meeting %q has been updated", title),
			RelatedMeetingID: stringPtr(meeting.ID),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(created)

	meeting, err := s.load(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	s.publish(eventMeetingUpdated, meeting)
	return meeting, nil
}

// Delete removes a meeting. Only the organizer may delete. Linked attendees
// receive a cancellation notice derived from the attendee list as it stood
// before removal. Attendance records and minutes are kept.
func (s *MeetingService) Delete(ctx context.Context, userID, meetingID string) error {
	ctx = ensureContext(ctx)

	var (
		created []models.Notification
		removed *models.Meeting
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meeting, err := loadMeeting(tx, meetingID)
		if err != nil {
			return err
		}
		if !meeting.IsOrganizer(userID) {
			return ErrNotOrganizer
		}

		created, err = s.notifications.FanOut(tx, meeting.Attendees, NotificationTemplate{
			Type:             models.NotificationMeetingCancelled,
			Title:            "Meeting Cancelled",
			Message:          fmt.Sprintf("Meeting %q has been cancelled", meeting.Title),
			Priority:         models.PriorityHigh,
			RelatedMeetingID: stringPtr(meeting.ID),
		})
		if err != nil {
			return err
		}

		if err := tx.Where("meeting_id = ?", meeting.ID).Delete(&models.MeetingAttendee{}).Error; err != nil {
			return fmt.Errorf("meeting service: delete attendees: %w", err)
		}
		if err := tx.Delete(meeting).Error; err != nil {
			return fmt.Errorf("meeting service: delete meeting: %w", err)
		}
		removed = meeting
		return nil
	})
	if err != nil {
		return err
	}

	s.notifications.Announce(created)
	s.publish(eventMeetingCancelled, removed)
	return nil
}

// Stats counts the user's meetings by status together with the upcoming total.
func (s *MeetingService) Stats(ctx context.Context, userID string) (*MeetingStats, error) {
	ctx = ensureContext(ctx)
	db := s.db.WithContext(ctx)

	stats := &MeetingStats{Stats: []StatusCount{}}
	if err := s.scoped(db.Model(&models.Meeting{}), userID).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&stats.Stats).Error; err != nil {
		return nil, fmt.Errorf("meeting service: group by status: %w", err)
	}

	if err := s.scoped(db.Model(&models.Meeting{}), userID).
		Count(&stats.TotalMeetings).Error; err != nil {
		return nil, fmt.Errorf("meeting service: count meetings: %w", err)
	}

	if err := s.scoped(db.Model(&models.Meeting{}), userID).
		Where("date >= ? AND status = ?", s.now().UTC(), models.MeetingStatusScheduled).
		Count(&stats.UpcomingMeetings).Error; err != nil {
		return nil, fmt.Errorf("meeting service: count upcoming: %w", err)
	}

	return stats, nil
}

// scoped restricts query to meetings the user organizes or is linked to as an attendee.
func (s *MeetingService) scoped(query *gorm.DB, userID string) *gorm.DB {
	attendeeOf := s.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.MeetingAttendee{}).
		Select("meeting_id").
		Where("user_id = ?", userID)
	return query.Where("organizer_id = ? OR id IN (?)", userID, attendeeOf)
}

func (s *MeetingService) load(ctx context.Context, meetingID string) (*models.Meeting, error) {
	return loadMeeting(s.db.WithContext(ctx), meetingID)
}

func (s *MeetingService) publish(event string, meeting *models.Meeting) {
	if s.hub == nil || meeting == nil {
		return
	}
	recipients := append([]string{meeting.OrganizerID}, meeting.LinkedUserIDs()...)
	s.hub.BroadcastToUsers(realtime.StreamMeetings, recipients, realtime.Message{
		Event: event,
		Data:  meeting.Summary(),
	})
}

func withMeetingAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Organizer").
		Preload("Attendees", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func loadMeeting(db *gorm.DB, meetingID string) (*models.Meeting, error) {
	meetingID = strings.TrimSpace(meetingID)
	if !models.IsValidID(meetingID) {
		return nil, ErrMeetingNotFound
	}

	var meeting models.Meeting
	if err := withMeetingAssociations(db).First(&meeting, "id = ?", meetingID).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrMeetingNotFound
		}
		return nil, fmt.Errorf("meeting service: load meeting: %w", err)
	}
	return &meeting, nil
}

// loadMeetingSummaries returns summaries keyed by id for the meetings that still exist.
func loadMeetingSummaries(db *gorm.DB, ids []string) (map[string]*models.MeetingSummary, error) {
	ids = normaliseIDs(ids)
	out := make(map[string]*models.MeetingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []models.Meeting
	if err := db.Select("id", "title", "date", "start_time", "end_time", "location").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].Summary()
	}
	return out, nil
}

// buildAttendees normalises, de-duplicates by email and links attendees to accounts.
func buildAttendees(tx *gorm.DB, inputs []AttendeeInput) ([]models.MeetingAttendee, error) {
	seen := make(map[string]struct{}, len(inputs))
	var (
		emails   []string
		explicit []string
		cleaned  []AttendeeInput
	)
	for _, input := range inputs {
		email := normalizeEmail(input.Email)
		if email == "" {
			return nil, apperrors.NewBadRequest("attendee email is required")
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}

		input.Email = email
		input.Name = strings.TrimSpace(input.Name)
		input.UserID = strings.TrimSpace(input.UserID)
		if input.Name == "" {
			return nil, apperrors.NewBadRequest("attendee name is required")
		}
		cleaned = append(cleaned, input)
		emails = append(emails, email)
		if input.UserID != "" {
			explicit = append(explicit, input.UserID)
		}
	}

	byEmail, err := resolveUserIDsByEmail(tx, emails)
	if err != nil {
		return nil, fmt.Errorf("meeting service: resolve attendees: %w", err)
	}
	known, err := existingUserIDs(tx, explicit)
	if err != nil {
		return nil, fmt.Errorf("meeting service: resolve attendees: %w", err)
	}

	attendees := make([]models.MeetingAttendee, 0, len(cleaned))
	for i, input := range cleaned {
		attendee := models.MeetingAttendee{
			Email:    input.Email,
			Name:     input.Name,
			Status:   defaultIfEmpty(input.Status, models.InvitationInvited),
			Position: i,
		}
		if _, ok := known[input.UserID]; ok {
			attendee.UserID = stringPtr(input.UserID)
		} else if id, ok := byEmail[input.Email]; ok {
			attendee.UserID = stringPtr(id)
		}
		attendees = append(attendees, attendee)
	}
	return attendees, nil
}

func unlinkedEmails(attendees []models.MeetingAttendee) []string {
	var out []string
	for _, attendee := range attendees {
		if attendee.UserID == nil {
			out = append(out, attendee.Email)
		}
	}
	return out
}

func cleanTags(tags []string) []string {
	if out := normaliseIDs(tags); out != nil {
		return out
	}
	return []string{}
}
