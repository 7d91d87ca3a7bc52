package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/mail"
)

func TestEmailSendMeetingReminder(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer)

	err := svc.SendMeetingReminder(context.Background(), &models.MeetingSummary{
		Title:     "Board <meeting>",
		Date:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		StartTime: "09:00",
		EndTime:   "10:00",
		Location:  "HQ",
	}, "bob@example.com")
	require.NoError(t, err)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, []string{"bob@example.com"}, sent[0].To)
	require.Equal(t, "Meeting Reminder: Board <meeting>", sent[0].Subject)
	require.Contains(t, sent[0].HTML, "Board &lt;meeting&gt;")
	require.Contains(t, sent[0].HTML, "Sat, 14 Mar 2026")
	require.Contains(t, sent[0].Text, "Location: HQ")
}

func TestEmailSendActionItemReminder(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer)

	err := svc.SendActionItemReminder(context.Background(), &models.ActionItem{
		Description: "Ship the report",
		DueDate:     time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC),
		Priority:    models.PriorityHigh,
		Status:      models.ActionItemPending,
	}, "carol@example.com")
	require.NoError(t, err)

	sent := mailer.sent()
	require.Len(t, sent, 1)
	require.Equal(t, "Action Item Reminder: Ship the report", sent[0].Subject)
	require.Contains(t, sent[0].HTML, "Ship the report")
	require.Contains(t, sent[0].HTML, "high")
}

func TestEmailDisabledMailerIsNotAnError(t *testing.T) {
	require.NoError(t, NewEmailService(nil).SendMeetingReminder(context.Background(), &models.MeetingSummary{Title: "x"}, "a@example.com"))
	require.NoError(t, NewEmailService(&recordingMailer{err: mail.ErrSMTPDisabled}).SendMeetingReminder(context.Background(), &models.MeetingSummary{Title: "x"}, "a@example.com"))

	failing := NewEmailService(&recordingMailer{err: errors.New("connection refused")})
	err := failing.SendMeetingReminder(context.Background(), &models.MeetingSummary{Title: "x"}, "a@example.com")
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection refused")
}

func TestEmailInvitationsRunInBackground(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewEmailService(mailer)

	svc.SendMeetingInvitations(&models.Meeting{Title: "Offsite", Date: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		[]string{"a@example.com", "b@example.com", "a@example.com"})
	svc.Wait()

	sent := mailer.sent()
	require.Len(t, sent, 2)
	require.Equal(t, "Meeting Invitation: Offsite", sent[0].Subject)

	var nilService *EmailService
	nilService.SendMeetingInvitations(&models.Meeting{}, []string{"a@example.com"})
	nilService.Wait()
}
