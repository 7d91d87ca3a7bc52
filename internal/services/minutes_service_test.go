package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/models"
	apperrors "github.com/charlesng35/notula/pkg/errors"
)

type minutesFixture struct {
	*testServices
	organizer *models.User
	bob       *models.User
	carol     *models.User
	stranger  *models.User
	meeting   *models.Meeting
}

func newMinutesFixture(t *testing.T) *minutesFixture {
	t.Helper()
	svc := newTestServices(t)
	f := &minutesFixture{
		testServices: svc,
		organizer:    createUser(t, svc.db, "Olivia", "olivia@example.com"),
		bob:          createUser(t, svc.db, "Bob", "bob@example.com"),
		carol:        createUser(t, svc.db, "Carol", "carol@example.com"),
		stranger:     createUser(t, svc.db, "Sam", "sam@example.com"),
	}
	meeting, err := svc.meetings.Create(context.Background(), f.organizer.ID, meetingInput("Sprint review",
		AttendeeInput{Email: f.bob.Email, Name: f.bob.Name},
		AttendeeInput{Email: f.carol.Email, Name: f.carol.Name},
		AttendeeInput{Email: "guest@example.com", Name: "Guest"},
	))
	require.NoError(t, err)
	f.meeting = meeting
	return f
}

func (f *minutesFixture) actor(user *models.User) Actor {
	return Actor{UserID: user.ID, Role: user.Role}
}

func dueDate(day int) time.Time {
	return time.Date(2026, 3, day, 17, 0, 0, 0, time.UTC)
}

func (f *minutesFixture) create(t *testing.T) *models.MeetingMinutes {
	t.Helper()
	minutes, err := f.minutes.Create(context.Background(), f.actor(f.organizer), CreateMinutesInput{
		MeetingID: f.meeting.ID,
		Content:   `<p>Sprint went well.</p><script>alert("x")</script>`,
		Summary:   "Shipped the release",
		KeyPoints: []string{"velocity up", "velocity up", "bugs down"},
		ActionItems: []ActionItemInput{
			{Description: "Write release notes", AssignedTo: AssigneeInput{Name: "Bob", Email: "bob@example.com"}, DueDate: dueDate(12)},
			{Description: "Book retro room", AssignedTo: AssigneeInput{Name: "Guest", Email: "guest@example.com"}, DueDate: dueDate(20)},
		},
		Decisions: []DecisionInput{
			{Description: "Adopt two-week sprints", Impact: models.PriorityHigh},
		},
	})
	require.NoError(t, err)
	return minutes
}

func TestMinutesCreate(t *testing.T) {
	f := newMinutesFixture(t)
	minutes := f.create(t)

	require.Equal(t, "<p>Sprint went well.</p>", minutes.Content)
	require.Equal(t, []string{"velocity up", "bugs down"}, []string(minutes.KeyPoints))
	require.NotNil(t, minutes.Meeting)
	require.Equal(t, "Sprint review", minutes.Meeting.Title)
	require.NotNil(t, minutes.CreatedBy)
	require.Equal(t, f.organizer.ID, minutes.CreatedBy.ID)
	require.False(t, minutes.IsApproved)

	require.Len(t, minutes.ActionItems, 2)
	require.Equal(t, "Write release notes", minutes.ActionItems[0].Description)
	require.Equal(t, models.ActionItemPending, minutes.ActionItems[0].Status)
	require.NotNil(t, minutes.ActionItems[0].AssignedTo.UserID)
	require.Equal(t, f.bob.ID, *minutes.ActionItems[0].AssignedTo.UserID)
	require.Nil(t, minutes.ActionItems[1].AssignedTo.UserID)
	require.Len(t, minutes.Decisions, 1)

	available := notificationsOfType(t, f.db, models.NotificationMinutesAvailable)
	require.ElementsMatch(t, []string{f.bob.ID, f.carol.ID}, recipients(available))
	require.Equal(t, `Minutes for "Sprint review" are now available`, available[0].Message)

	assigned := notificationsOfType(t, f.db, models.NotificationActionItem)
	require.Equal(t, []string{f.bob.ID}, recipients(assigned))
	require.Equal(t, minutes.ActionItems[0].ID, *assigned[0].RelatedActionItemID)
}

func TestMinutesCreateConflictsAndValidation(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	f.create(t)

	_, err := f.minutes.Create(ctx, f.actor(f.organizer), CreateMinutesInput{
		MeetingID: f.meeting.ID,
		Content:   "Second attempt at minutes",
	})
	require.ErrorIs(t, err, ErrMinutesExist)
	require.Equal(t, 409, ErrMinutesExist.StatusCode)

	_, err = f.minutes.Create(ctx, f.actor(f.organizer), CreateMinutesInput{MeetingID: "missing", Content: "Long enough content"})
	require.ErrorIs(t, err, ErrMeetingNotFound)

	_, err = f.minutes.Create(ctx, f.actor(f.organizer), CreateMinutesInput{MeetingID: f.meeting.ID, Content: "<script>alert(1)</script>tiny"})
	require.ErrorIs(t, err, apperrors.ErrBadRequest)

	var count int64
	require.NoError(t, f.db.Model(&models.MeetingMinutes{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestMinutesGetByMeetingAndList(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)

	byMeeting, err := f.minutes.ByMeeting(ctx, f.meeting.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, byMeeting.ID)

	_, err = f.minutes.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrMinutesNotFound)
	_, err = f.minutes.ByMeeting(ctx, "missing")
	require.ErrorIs(t, err, ErrMinutesNotFound)

	list, err := f.minutes.List(ctx, MinutesFilter{MeetingID: f.meeting.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, list.Total)
	require.Len(t, list.Items[0].ActionItems, 2)
}

func TestMinutesUpdateReconcilesChildren(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)
	kept := created.ActionItems[0]

	summary := "Updated summary"
	updated, err := f.minutes.Update(ctx, f.actor(f.carol), created.ID, UpdateMinutesInput{
		Summary: &summary,
		ActionItems: []ActionItemInput{
			{ID: kept.ID, Description: "Write release notes v2", AssignedTo: AssigneeInput{Name: "Bob", Email: "bob@example.com"}, DueDate: kept.DueDate, Status: models.ActionItemInProgress},
			{Description: "Prepare demo", AssignedTo: AssigneeInput{UserID: f.carol.ID, Name: "Carol"}, DueDate: dueDate(15)},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "Updated summary", updated.Summary)
	require.Equal(t, created.Content, updated.Content)
	require.NotNil(t, updated.LastModifiedByID)
	require.Equal(t, f.carol.ID, *updated.LastModifiedByID)
	require.Len(t, updated.Decisions, 1)

	require.Len(t, updated.ActionItems, 2)
	require.Equal(t, kept.ID, updated.ActionItems[0].ID)
	require.Equal(t, "Write release notes v2", updated.ActionItems[0].Description)
	require.Equal(t, models.ActionItemInProgress, updated.ActionItems[0].Status)
	require.Equal(t, "Prepare demo", updated.ActionItems[1].Description)

	var removed int64
	require.NoError(t, f.db.Model(&models.ActionItem{}).Where("id = ?", created.ActionItems[1].ID).Count(&removed).Error)
	require.Zero(t, removed)

	assigned := notificationsOfType(t, f.db, models.NotificationActionItem)
	require.ElementsMatch(t, []string{f.bob.ID, f.carol.ID}, recipients(assigned))
}

func TestMinutesUpdateAuthorization(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)

	summary := "Hijacked"
	_, err := f.minutes.Update(ctx, f.actor(f.stranger), created.ID, UpdateMinutesInput{Summary: &summary})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	admin := Actor{UserID: f.stranger.ID, Role: models.RoleAdmin}
	_, err = f.minutes.Update(ctx, admin, created.ID, UpdateMinutesInput{Summary: &summary})
	require.NoError(t, err)

	_, err = f.minutes.Update(ctx, f.actor(f.organizer), "missing", UpdateMinutesInput{Summary: &summary})
	require.ErrorIs(t, err, ErrMinutesNotFound)
}

func TestMinutesApprove(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)

	_, err := f.minutes.Approve(ctx, f.actor(f.bob), created.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	approved, err := f.minutes.Approve(ctx, f.actor(f.organizer), created.ID)
	require.NoError(t, err)
	require.True(t, approved.IsApproved)
	require.NotNil(t, approved.ApprovedBy)
	require.Equal(t, f.organizer.ID, approved.ApprovedBy.ID)
	require.True(t, approved.ApprovedAt.Equal(fixedNow))

	admin := Actor{UserID: f.stranger.ID, Role: models.RoleAdmin}
	again, err := f.minutes.Approve(ctx, admin, created.ID)
	require.NoError(t, err)
	require.True(t, again.IsApproved)
	require.Equal(t, f.stranger.ID, *again.ApprovedByID)
}

func TestMinutesUpdateActionItemLeavesSiblingsUntouched(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)
	target := created.ActionItems[0]
	sibling := created.ActionItems[1]

	completed := models.ActionItemCompleted
	item, err := f.minutes.UpdateActionItem(ctx, f.actor(f.bob), created.ID, target.ID, ActionItemUpdate{Status: &completed})
	require.NoError(t, err)
	require.Equal(t, completed, item.Status)
	require.Equal(t, target.Description, item.Description)

	reloaded, err := f.minutes.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, sibling.ID, reloaded.ActionItems[1].ID)
	require.Equal(t, sibling.Description, reloaded.ActionItems[1].Description)
	require.Equal(t, sibling.Status, reloaded.ActionItems[1].Status)
	require.True(t, sibling.DueDate.Equal(reloaded.ActionItems[1].DueDate))
	require.Equal(t, created.Content, reloaded.Content)
	require.Equal(t, f.bob.ID, *reloaded.LastModifiedByID)
}

func TestMinutesUpdateActionItemReassignment(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)
	item := created.ActionItems[1]

	item2, err := f.minutes.UpdateActionItem(ctx, f.actor(f.organizer), created.ID, item.ID, ActionItemUpdate{
		AssignedTo: &AssigneeInput{Name: "Carol", Email: "carol@example.com"},
	})
	require.NoError(t, err)
	require.Equal(t, f.carol.ID, *item2.AssignedTo.UserID)

	var carolNotices int64
	require.NoError(t, f.db.Model(&models.Notification{}).
		Where("type = ? AND recipient_id = ?", models.NotificationActionItem, f.carol.ID).
		Count(&carolNotices).Error)
	require.EqualValues(t, 1, carolNotices)
}

func TestMinutesUpdateActionItemErrors(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)
	status := models.ActionItemCompleted

	_, err := f.minutes.UpdateActionItem(ctx, f.actor(f.organizer), "missing", created.ActionItems[0].ID, ActionItemUpdate{Status: &status})
	require.ErrorIs(t, err, ErrMinutesNotFound)

	_, err = f.minutes.UpdateActionItem(ctx, f.actor(f.organizer), created.ID, "missing", ActionItemUpdate{Status: &status})
	require.ErrorIs(t, err, ErrActionItemNotFound)

	_, err = f.minutes.UpdateActionItem(ctx, f.actor(f.stranger), created.ID, created.ActionItems[0].ID, ActionItemUpdate{Status: &status})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestMinutesDueActionItems(t *testing.T) {
	f := newMinutesFixture(t)
	ctx := context.Background()
	created := f.create(t)

	due, err := f.minutes.DueActionItems(ctx, 72*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, created.ActionItems[0].ID, due[0].ID)

	require.NoError(t, f.minutes.MarkActionItemsReminded(ctx, []string{due[0].ID}))
	due, err = f.minutes.DueActionItems(ctx, 72*time.Hour, 10)
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = f.minutes.DueActionItems(ctx, 30*24*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, created.ActionItems[1].ID, due[0].ID)
}

func TestMinutesListPagination(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	organizer := createUser(t, svc.db, "Olivia", "olivia@example.com")
	actor := Actor{UserID: organizer.ID, Role: organizer.Role}

	for i := 0; i < 15; i++ {
		meeting, err := svc.meetings.Create(ctx, organizer.ID, meetingInput(fmt.Sprintf("M%02d", i), AttendeeInput{Email: "x@example.com", Name: "X"}))
		require.NoError(t, err)
		_, err = svc.minutes.Create(ctx, actor, CreateMinutesInput{MeetingID: meeting.ID, Content: "Notes for this meeting"})
		require.NoError(t, err)
	}

	page2, err := svc.minutes.List(ctx, MinutesFilter{Page: Page{Page: 2, Limit: 10}})
	require.NoError(t, err)
	require.EqualValues(t, 15, page2.Total)
	require.Len(t, page2.Items, 5)
}
