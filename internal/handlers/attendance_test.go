package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/handlers/testutil"
	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/services"
)

func TestAttendanceHandler_RecordRejectsDuplicates(t *testing.T) {
	env := testutil.NewEnv(t)
	organizer := env.CreateUser("Olivia", models.RoleUser)
	meeting := createMeeting(t, env, organizer, "All Hands")
	token := env.Token(organizer)

	payload := map[string]any{
		"meeting":     meeting.ID,
		"participant": map[string]string{"name": "Guest", "email": "guest@example.com"},
		"status":      models.AttendancePresent,
	}

	w := env.Request(http.MethodPost, "/api/attendance", payload, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var record models.Attendance
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &record)
	require.Equal(t, meeting.ID, record.MeetingID)
	require.NotNil(t, record.CheckInTime)
	require.Equal(t, organizer.ID, record.RecordedByID)

	payload["participant"] = map[string]string{"name": "Guest Again", "email": "GUEST@example.com"}
	w = env.Request(http.MethodPost, "/api/attendance", payload, token)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	require.Equal(t, "ATTENDANCE_EXISTS", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAttendanceHandler_RecordValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	organizer := env.CreateUser("Olivia", models.RoleUser)

	w := env.Request(http.MethodPost, "/api/attendance", map[string]any{
		"meeting":     "not-a-uuid",
		"participant": map[string]string{"name": "Guest", "email": "guest@example.com"},
		"status":      "asleep",
	}, env.Token(organizer))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	fields := map[string]string{}
	for _, field := range testutil.DecodeResponse(t, w).Error.Fields {
		fields[field.Field] = field.Tag
	}
	require.Equal(t, "uuid", fields["meeting"])
	require.Equal(t, "oneof", fields["status"])
}

func TestAttendanceHandler_ListStatsAndUpdate(t *testing.T) {
	env := testutil.NewEnv(t)
	organizer := env.CreateUser("Olivia", models.RoleUser)
	meeting := createMeeting(t, env, organizer, "All Hands")
	token := env.Token(organizer)

	statuses := []string{models.AttendancePresent, models.AttendancePresent, models.AttendanceLate}
	var lastID string
	for i, status := range statuses {
		w := env.Request(http.MethodPost, "/api/attendance", map[string]any{
			"meeting":     meeting.ID,
			"participant": map[string]string{"name": "Guest", "email": string(rune('a'+i)) + "@example.com"},
			"status":      status,
		}, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var record models.Attendance
		testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &record)
		lastID = record.ID
	}

	w := env.Request(http.MethodGet, "/api/attendance?meetingId="+meeting.ID+"&limit=2", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	var records []models.Attendance
	testutil.DecodeInto(t, resp.Data, &records)
	require.Len(t, records, 2)
	require.Equal(t, 2, resp.Pagination.Pages)

	w = env.Request(http.MethodPut, "/api/attendance/"+lastID, map[string]string{"status": models.AttendanceExcused}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/attendance/stats?meeting_id="+meeting.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats services.AttendanceStats
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &stats)
	require.EqualValues(t, 3, stats.TotalRecords)

	counts := map[string]int64{}
	for _, entry := range stats.Stats {
		counts[entry.Status] = entry.Count
	}
	require.EqualValues(t, 2, counts[models.AttendancePresent])
	require.EqualValues(t, 1, counts[models.AttendanceExcused])
	require.Zero(t, counts[models.AttendanceLate])
}

func TestAttendanceHandler_UpdateUnknownRecord(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Olivia", models.RoleUser)

	w := env.Request(http.MethodPut, "/api/attendance/00000000-0000-0000-0000-000000000000",
		map[string]string{"status": models.AttendanceAbsent}, env.Token(user))
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
