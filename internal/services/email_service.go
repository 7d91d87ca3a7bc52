package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/mail"
	"github.com/charlesng35/notula/pkg/metrics"
)

const (
	emailKindInvitation = "invitation"
	emailKindReminder   = "meeting_reminder"
	emailKindActionItem = "action_item_reminder"

	defaultEmailTimeout = 30 * time.Second
)

var emailTemplates = template.Must(template.New("email").Parse(`
{{define "invitation"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #2563eb;">Meeting Invitation</h2>
<h3>{{.Title}}</h3>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.StartTime}} - {{.EndTime}}</p>
<p><strong>Location:</strong> {{.Location}}</p>
<p><strong>Description:</strong> {{.Description}}</p>
<p>Please confirm your attendance.</p>
</div>{{end}}
{{define "reminder"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #f59e0b;">Meeting Reminder</h2>
<h3>{{.Title}}</h3>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.StartTime}} - {{.EndTime}}</p>
<p><strong>Location:</strong> {{.Location}}</p>
<p>This is a reminder for your upcoming meeting.</p>
</div>{{end}}
{{define "action_item"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
<h2 style="color: #dc2626;">Action Item Reminder</h2>
<p><strong>Description:</strong> {{.Description}}</p>
<p><strong>Due Date:</strong> {{.DueDate}}</p>
<p><strong>Priority:</strong> {{.Priority}}</p>
<p><strong>Status:</strong> {{.Status}}</p>
<p>Please complete this action item by the due date.</p>
</div>{{end}}
`))

type meetingEmailView struct {
	Title       string
	Date        string
	StartTime   string
	EndTime     string
	Location    string
	Description string
}

type actionItemEmailView struct {
	Description string
	DueDate     string
	Priority    string
	Status      string
}

// EmailService composes notification emails and hands them to the mailer.
// Invitations are sent in the background; Wait blocks until they finish.
type EmailService struct {
	mailer  mail.Mailer
	timeout time.Duration
	wg      sync.WaitGroup
	log     *zap.Logger
}

// NewEmailService constructs an EmailService. A nil mailer disables delivery.
func NewEmailService(mailer mail.Mailer) *EmailService {
	return &EmailService{
		mailer:  mailer,
		timeout: defaultEmailTimeout,
		log:     logger.WithModule("email"),
	}
}

// SendMeetingInvitations emails each address an invitation without blocking the caller.
func (s *EmailService) SendMeetingInvitations(meeting *models.Meeting, emails []string) {
	if s == nil || s.mailer == nil || meeting == nil {
		return
	}
	emails = normaliseIDs(emails)
	if len(emails) == 0 {
		return
	}

	view := meetingView(meeting)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, email := range emails {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			err := s.send(ctx, emailKindInvitation, mail.Message{
				To:      []string{email},
				Subject: "Meeting Invitation: " + view.Title,
				Text: fmt.Sprintf("You have been invited to %q.\n\nDate: %s\nTime: %s - %s\nLocation: %s\n\n%s\n\nPlease confirm your attendance.\n",
					view.Title, view.Date, view.StartTime, view.EndTime, view.Location, view.Description),
			}, "invitation", view)
			cancel()
			if err != nil {
				s.log.Warn("send invitation failed", zap.String("meeting_id", meeting.ID), zap.String("email", email), zap.Error(err))
			}
		}
	}()
}

// SendMeetingReminder emails a reminder for an upcoming meeting.
func (s *EmailService) SendMeetingReminder(ctx context.Context, meeting *models.MeetingSummary, email string) error {
	if meeting == nil {
		return errors.New("email service: meeting is required")
	}
	view := meetingEmailView{
		Title:     meeting.Title,
		Date:      formatDisplayDate(meeting.Date),
		StartTime: meeting.StartTime,
		EndTime:   meeting.EndTime,
		Location:  meeting.Location,
	}
	return s.send(ctx, emailKindReminder, mail.Message{
		To:      []string{email},
		Subject: "Meeting Reminder: " + view.Title,
		Text: fmt.Sprintf("This is a reminder for your upcoming meeting %q.\n\nDate: %s\nTime: %s - %s\nLocation: %s\n",
			view.Title, view.Date, view.StartTime, view.EndTime, view.Location),
	}, "reminder", view)
}

// SendActionItemReminder emails the assignee of an open action item.
func (s *EmailService) SendActionItemReminder(ctx context.Context, item *models.ActionItem, email string) error {
	if item == nil {
		return errors.New("email service: action item is required")
	}
	view := actionItemEmailView{
		Description: item.Description,
		DueDate:     formatDisplayDate(item.DueDate),
		Priority:    item.Priority,
		Status:      item.Status,
	}
	return s.send(ctx, emailKindActionItem, mail.Message{
		To:      []string{email},
		Subject: "Action Item Reminder: " + truncate(item.Description, 80),
		Text: fmt.Sprintf("Action item due: %s\n\nDue date: %s\nPriority: %s\nStatus: %s\n\nPlease complete this action item by the due date.\n",
			view.Description, view.DueDate, view.Priority, view.Status),
	}, "action_item", view)
}

// Wait blocks until background sends have finished.
func (s *EmailService) Wait() {
	if s == nil {
		return
	}
	s.wg.Wait()
}

// send renders the HTML alternative and delivers msg. A disabled mailer is
// not an error.
func (s *EmailService) send(ctx context.Context, kind string, msg mail.Message, tmpl string, data any) error {
	if s == nil || s.mailer == nil {
		metrics.EmailsSent.WithLabelValues(kind, "disabled").Inc()
		return nil
	}

	var html bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&html, tmpl, data); err != nil {
		return fmt.Errorf("email service: render %s: %w", tmpl, err)
	}
	msg.HTML = html.String()

	if err := s.mailer.Send(ensureContext(ctx), msg); err != nil {
		if errors.Is(err, mail.ErrSMTPDisabled) {
			metrics.EmailsSent.WithLabelValues(kind, "disabled").Inc()
			return nil
		}
		metrics.EmailsSent.WithLabelValues(kind, "failed").Inc()
		return fmt.Errorf("email service: send %s: %w", kind, err)
	}
	metrics.EmailsSent.WithLabelValues(kind, "sent").Inc()
	return nil
}

func meetingView(meeting *models.Meeting) meetingEmailView {
	return meetingEmailView{
		Title:       meeting.Title,
		Date:        formatDisplayDate(meeting.Date),
		StartTime:   meeting.StartTime,
		EndTime:     meeting.EndTime,
		Location:    meeting.Location,
		Description: meeting.Description,
	}
}
