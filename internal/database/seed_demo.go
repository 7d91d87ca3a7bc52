package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/crypto"
)

// DemoPassword is the password shared by every demo account.
const DemoPassword = "Password123"

const demoAdminEmail = "admin@example.com"

func seedDemo(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", demoAdminEmail).Take(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := crypto.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		users := []models.User{
			{Name: "Admin User", Email: demoAdminEmail, Password: hash, Role: models.RoleAdmin},
			{Name: "John Doe", Email: "john@example.com", Password: hash, Role: models.RoleUser},
			{Name: "Jane Smith", Email: "jane@example.com", Password: hash, Role: models.RoleUser},
			{Name: "Bob Johnson", Email: "bob@example.com", Password: hash, Role: models.RoleUser},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("create demo users: %w", err)
		}

		attendee := func(u models.User, status string, position int) models.MeetingAttendee {
			id := u.ID
			return models.MeetingAttendee{UserID: &id, Email: u.Email, Name: u.Name, Status: status, Position: position}
		}

		now := time.Now().UTC().Truncate(time.Minute)
		day := 24 * time.Hour
		meetings := []models.Meeting{
			{
				Title:       "Weekly Team Standup",
				Description: "Weekly team synchronization meeting to discuss progress and blockers",
				Date:        now.Add(day),
				StartTime:   "09:00",
				EndTime:     "10:00",
				Location:    "Conference Room A",
				OrganizerID: users[0].ID,
				Status:      models.MeetingStatusScheduled,
				MeetingType: models.MeetingTypeInPerson,
				Priority:    models.PriorityMedium,
				Attendees: []models.MeetingAttendee{
					attendee(users[1], models.InvitationAccepted, 0),
					attendee(users[2], models.InvitationAccepted, 1),
					attendee(users[3], models.InvitationTentative, 2),
				},
			},
			{
				Title:       "Project Planning Session",
				Description: "Planning session for the new product launch",
				Date:        now.Add(3 * day),
				StartTime:   "14:00",
				EndTime:     "16:00",
				Location:    "Virtual - Zoom",
				OrganizerID: users[1].ID,
				Status:      models.MeetingStatusScheduled,
				MeetingType: models.MeetingTypeVirtual,
				Priority:    models.PriorityHigh,
				Attendees: []models.MeetingAttendee{
					attendee(users[0], models.InvitationAccepted, 0),
					attendee(users[2], models.InvitationInvited, 1),
				},
			},
			{
				Title:       "Monthly Review",
				Description: "Monthly performance and goals review",
				Date:        now.Add(-7 * day),
				StartTime:   "11:00",
				EndTime:     "12:00",
				Location:    "Conference Room B",
				OrganizerID: users[0].ID,
				Status:      models.MeetingStatusCompleted,
				MeetingType: models.MeetingTypeInPerson,
				Priority:    models.PriorityMedium,
				Attendees: []models.MeetingAttendee{
					attendee(users[1], models.InvitationAccepted, 0),
					attendee(users[2], models.InvitationAccepted, 1),
				},
			},
		}
		if err := tx.Create(&meetings).Error; err != nil {
			return fmt.Errorf("create demo meetings: %w", err)
		}

		review := meetings[2]
		checkIn := func(offset time.Duration) *time.Time {
			ts := review.Date.Add(offset)
			return &ts
		}
		participant := func(u models.User) models.Participant {
			id := u.ID
			return models.Participant{UserID: &id, Name: u.Name, Email: u.Email}
		}
		records := []models.Attendance{
			{MeetingID: review.ID, Participant: participant(users[1]), Status: models.AttendancePresent, CheckInTime: checkIn(5 * time.Minute), RecordedByID: users[0].ID},
			{MeetingID: review.ID, Participant: participant(users[2]), Status: models.AttendanceLate, CheckInTime: checkIn(15 * time.Minute), Notes: "Traffic delay", RecordedByID: users[0].ID},
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("create demo attendance: %w", err)
		}

		assignee := func(u models.User) models.Assignee {
			id := u.ID
			return models.Assignee{UserID: &id, Name: u.Name, Email: u.Email}
		}
		approvedBy := users[0].ID
		minutes := models.MeetingMinutes{
			MeetingID: review.ID,
			Content: "Agenda: review of last month's performance, upcoming goals and resource allocation. " +
				"The team exceeded targets by 15%. New project requirements were discussed and budget approval " +
				"is needed for additional resources.",
			Summary:   "Monthly review showed strong performance with 15% target exceeded. Budget proposal needed for new resources.",
			KeyPoints: []string{"Team performance exceeded expectations", "Client satisfaction scores improved", "New project timeline approved"},
			ActionItems: []models.ActionItem{
				{Description: "Prepare detailed budget proposal for additional resources", AssignedTo: assignee(users[1]), DueDate: now.Add(7 * day), Status: models.ActionItemPending, Priority: models.PriorityHigh, Position: 0},
				{Description: "Schedule stakeholder meetings for next week", AssignedTo: assignee(users[2]), DueDate: now.Add(3 * day), Status: models.ActionItemInProgress, Priority: models.PriorityMedium, Position: 1},
			},
			Decisions: []models.Decision{
				{Description: "Approved 15% budget increase for Q4", Impact: models.PriorityHigh, Position: 0},
				{Description: "Decided to hire 2 additional team members", Impact: models.PriorityMedium, Position: 1},
				{Description: "Monthly reviews will now include client feedback section", Impact: models.PriorityLow, Position: 2},
			},
			CreatedByID:  users[0].ID,
			IsApproved:   true,
			ApprovedByID: &approvedBy,
			ApprovedAt:   &now,
		}
		if err := tx.Create(&minutes).Error; err != nil {
			return fmt.Errorf("create demo minutes: %w", err)
		}
		return nil
	})
}
