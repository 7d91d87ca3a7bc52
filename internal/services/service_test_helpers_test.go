package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/database/testutil"
	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/mail"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type testServices struct {
	db            *gorm.DB
	users         *UserService
	notifications *NotificationService
	meetings      *MeetingService
	attendance    *AttendanceService
	minutes       *MinutesService
	exports       *ExportService
}

func newTestServices(t *testing.T, opts ...MeetingServiceOption) *testServices {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	users, err := NewUserService(db)
	require.NoError(t, err)
	users.now = fixedClock

	notifications, err := NewNotificationService(db, nil, WithNotificationClock(fixedClock))
	require.NoError(t, err)

	meetings, err := NewMeetingService(db, notifications, nil, append([]MeetingServiceOption{WithMeetingClock(fixedClock)}, opts...)...)
	require.NoError(t, err)

	attendance, err := NewAttendanceService(db)
	require.NoError(t, err)
	attendance.now = fixedClock

	minutes, err := NewMinutesService(db, notifications)
	require.NoError(t, err)
	minutes.now = fixedClock

	exports, err := NewExportService(meetings, attendance, minutes)
	require.NoError(t, err)
	exports.now = fixedClock

	return &testServices{
		db:            db,
		users:         users,
		notifications: notifications,
		meetings:      meetings,
		attendance:    attendance,
		minutes:       minutes,
		exports:       exports,
	}
}

func createUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: "not-a-real-hash",
		Role:     models.RoleUser,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func meetingInput(title string, attendees ...AttendeeInput) MeetingInput {
	return MeetingInput{
		Title:       title,
		Description: "Discuss the quarterly roadmap",
		Date:        time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:00",
		Location:    "Room 4",
		Attendees:   attendees,
	}
}

func notificationsOfType(t *testing.T, db *gorm.DB, kind string) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, db.Where("type = ?", kind).Order("recipient_id").Find(&rows).Error)
	return rows
}

func recipients(rows []models.Notification) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.RecipientID)
	}
	return out
}

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	err      error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.messages...)
}
