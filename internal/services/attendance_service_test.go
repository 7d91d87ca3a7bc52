package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/models"
)

func newAttendanceFixture(t *testing.T) (*testServices, *models.User, *models.Meeting) {
	t.Helper()
	svc := newTestServices(t)
	organizer := createUser(t, svc.db, "Olivia", "olivia@example.com")
	meeting, err := svc.meetings.Create(context.Background(), organizer.ID, meetingInput("All hands",
		AttendeeInput{Email: "guest@example.com", Name: "Guest"},
	))
	require.NoError(t, err)
	return svc, organizer, meeting
}

func TestAttendanceRecord(t *testing.T) {
	svc, organizer, meeting := newAttendanceFixture(t)
	ctx := context.Background()
	bob := createUser(t, svc.db, "Bob", "bob@example.com")

	record, err := svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "Bob", Email: "BOB@example.com"},
		Status:      models.AttendancePresent,
	})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", record.Participant.Email)
	require.NotNil(t, record.Participant.UserID)
	require.Equal(t, bob.ID, *record.Participant.UserID)
	require.NotNil(t, record.CheckInTime)
	require.True(t, record.CheckInTime.Equal(fixedNow))
	require.NotNil(t, record.Meeting)
	require.Equal(t, "All hands", record.Meeting.Title)
	require.NotNil(t, record.RecordedBy)
	require.Equal(t, organizer.ID, record.RecordedBy.ID)

	absent, err := svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "Guest", Email: "guest@example.com"},
		Status:      models.AttendanceAbsent,
	})
	require.NoError(t, err)
	require.Nil(t, absent.CheckInTime)
	require.Nil(t, absent.Participant.UserID)
}

func TestAttendanceRecordRejectsDuplicates(t *testing.T) {
	svc, organizer, meeting := newAttendanceFixture(t)
	ctx := context.Background()

	input := RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "Guest", Email: "guest@example.com"},
		Status:      models.AttendanceLate,
	}
	_, err := svc.attendance.Record(ctx, organizer.ID, input)
	require.NoError(t, err)

	input.Participant.Email = "GUEST@example.com"
	_, err = svc.attendance.Record(ctx, organizer.ID, input)
	require.ErrorIs(t, err, ErrAttendanceExists)
	require.Equal(t, 409, ErrAttendanceExists.StatusCode)
}

func TestAttendanceRecordRequiresMeeting(t *testing.T) {
	svc, organizer, _ := newAttendanceFixture(t)
	_, err := svc.attendance.Record(context.Background(), organizer.ID, RecordAttendanceInput{
		MeetingID:   "missing",
		Participant: ParticipantInput{Name: "Guest", Email: "guest@example.com"},
		Status:      models.AttendancePresent,
	})
	require.ErrorIs(t, err, ErrMeetingNotFound)
}

func TestAttendanceUpdate(t *testing.T) {
	svc, organizer, meeting := newAttendanceFixture(t)
	ctx := context.Background()

	record, err := svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "Guest", Email: "guest@example.com"},
		Status:      models.AttendanceAbsent,
	})
	require.NoError(t, err)

	present := models.AttendancePresent
	notes := "  arrived via video  "
	updated, err := svc.attendance.Update(ctx, record.ID, UpdateAttendanceInput{Status: &present, Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, models.AttendancePresent, updated.Status)
	require.Equal(t, "arrived via video", updated.Notes)
	require.NotNil(t, updated.CheckInTime)
	require.True(t, updated.CheckInTime.Equal(fixedNow))

	checkOut := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	updated, err = svc.attendance.Update(ctx, record.ID, UpdateAttendanceInput{CheckOutTime: &checkOut})
	require.NoError(t, err)
	require.True(t, updated.CheckOutTime.Equal(checkOut))
	require.True(t, updated.CheckInTime.Equal(fixedNow))

	_, err = svc.attendance.Update(ctx, "missing", UpdateAttendanceInput{Status: &present})
	require.ErrorIs(t, err, ErrAttendanceNotFound)
}

func TestAttendanceUpdateRejectsParticipantClash(t *testing.T) {
	svc, organizer, meeting := newAttendanceFixture(t)
	ctx := context.Background()

	first, err := svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "One", Email: "one@example.com"},
		Status:      models.AttendancePresent,
	})
	require.NoError(t, err)
	_, err = svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
		MeetingID:   meeting.ID,
		Participant: ParticipantInput{Name: "Two", Email: "two@example.com"},
		Status:      models.AttendancePresent,
	})
	require.NoError(t, err)

	_, err = svc.attendance.Update(ctx, first.ID, UpdateAttendanceInput{
		Participant: &ParticipantInput{Name: "Two", Email: "two@example.com"},
	})
	require.ErrorIs(t, err, ErrAttendanceExists)
}

func TestAttendanceListAndStats(t *testing.T) {
	svc, organizer, meeting := newAttendanceFixture(t)
	ctx := context.Background()

	statuses := []string{models.AttendancePresent, models.AttendanceAbsent, models.AttendanceLate}
	for i := 0; i < 15; i++ {
		_, err := svc.attendance.Record(ctx, organizer.ID, RecordAttendanceInput{
			MeetingID:   meeting.ID,
			Participant: ParticipantInput{Name: fmt.Sprintf("P%02d", i), Email: fmt.Sprintf("p%02d@example.com", i)},
			Status:      statuses[i%len(statuses)],
		})
		require.NoError(t, err)
	}

	page2, err := svc.attendance.List(ctx, AttendanceFilter{MeetingID: meeting.ID, Page: Page{Page: 2, Limit: 10}})
	require.NoError(t, err)
	require.EqualValues(t, 15, page2.Total)
	require.Len(t, page2.Items, 5)

	other, err := svc.attendance.List(ctx, AttendanceFilter{MeetingID: "other"})
	require.NoError(t, err)
	require.Zero(t, other.Total)

	stats, err := svc.attendance.Stats(ctx, meeting.ID)
	require.NoError(t, err)
	require.EqualValues(t, 15, stats.TotalRecords)
	require.Equal(t, []StatusCount{
		{Status: models.AttendanceAbsent, Count: 5},
		{Status: models.AttendanceLate, Count: 5},
		{Status: models.AttendancePresent, Count: 5},
	}, stats.Stats)

	roster, err := svc.attendance.ForMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	require.Len(t, roster, 15)
	require.Equal(t, "P00", roster[0].Participant.Name)
	require.Equal(t, "P14", roster[14].Participant.Name)
}
