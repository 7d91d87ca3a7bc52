package api

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/realtime"
	"github.com/charlesng35/notula/internal/services"
)

// Services bundles the domain services shared by the HTTP layer and the
// background jobs.
type Services struct {
	Users         *services.UserService
	Notifications *services.NotificationService
	Meetings      *services.MeetingService
	Attendance    *services.AttendanceService
	Minutes       *services.MinutesService
	Exports       *services.ExportService
	Email         *services.EmailService
}

// ServiceOptions tunes the services built by NewServices.
type ServiceOptions struct {
	ReminderLead          time.Duration
	NotificationRetention time.Duration
	// Email, when set, sends invitation emails to attendees without an account.
	Email *services.EmailService
}

// NewServices wires every domain service against db. hub may be nil to
// disable realtime push.
func NewServices(db *gorm.DB, hub *realtime.Hub, opts ServiceOptions) (*Services, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}

	users, err := services.NewUserService(db)
	if err != nil {
		return nil, err
	}
	notifications, err := services.NewNotificationService(db, hub, services.WithNotificationRetention(opts.NotificationRetention))
	if err != nil {
		return nil, err
	}

	meetingOpts := []services.MeetingServiceOption{services.WithReminderLead(opts.ReminderLead)}
	if opts.Email != nil {
		meetingOpts = append(meetingOpts, services.WithInvitationEmails(opts.Email))
	}
	meetings, err := services.NewMeetingService(db, notifications, hub, meetingOpts...)
	if err != nil {
		return nil, err
	}
	attendance, err := services.NewAttendanceService(db)
	if err != nil {
		return nil, err
	}
	minutes, err := services.NewMinutesService(db, notifications)
	if err != nil {
		return nil, err
	}
	exports, err := services.NewExportService(meetings, attendance, minutes)
	if err != nil {
		return nil, err
	}

	return &Services{
		Users:         users,
		Notifications: notifications,
		Meetings:      meetings,
		Attendance:    attendance,
		Minutes:       minutes,
		Exports:       exports,
		Email:         opts.Email,
	}, nil
}
