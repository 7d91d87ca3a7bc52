package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/models"
	apperrors "github.com/charlesng35/notula/pkg/errors"
)

func TestExportMeetingMinutes(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	f.create(t)

	_, err := f.attendance.Record(ctx, f.organizer.ID, RecordAttendanceInput{
		MeetingID:   f.meeting.ID,
		Participant: ParticipantInput{Name: "Bob", Email: f.bob.Email},
		Status:      models.AttendancePresent,
	})
	require.NoError(t, err)

	doc, err := f.exports.MeetingMinutes(ctx, f.bob.ID, f.meeting.ID)
	require.NoError(t, err)
	require.Equal(t, "Minutes_Sprint_review_2026-03-14.pdf", doc.Filename)
	require.GreaterOrEqual(t, doc.Pages, 1)
	require.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
}

func TestExportMinutesWithoutDocument(t *testing.T) {
	f := newMinutesFixture(t)
	doc, err := f.exports.MeetingMinutes(context.Background(), f.organizer.ID, f.meeting.ID)
	require.NoError(t, err)
	require.Equal(t, 1, doc.Pages)
}

func TestExportAttendance(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()

	doc, err := f.exports.Attendance(ctx, f.organizer.ID, f.meeting.ID)
	require.NoError(t, err)
	require.Equal(t, "Attendance_Sprint_review_2026-03-14.pdf", doc.Filename)
	require.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))

	_, err = f.exports.Attendance(ctx, f.stranger.ID, f.meeting.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.exports.MeetingMinutes(ctx, f.organizer.ID, "missing")
	require.ErrorIs(t, err, ErrMeetingNotFound)
}
