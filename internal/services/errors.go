package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/notula/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
	// ErrEmailTaken is returned when registering or renaming to an address already in use.
	ErrEmailTaken = apperrors.New("EMAIL_TAKEN", "User already exists with this email", http.StatusConflict)
	// ErrAccountDisabled blocks sign-in for deactivated accounts.
	ErrAccountDisabled = apperrors.New("ACCOUNT_DISABLED", "Account is deactivated", http.StatusUnauthorized)
	// ErrIncorrectPassword is returned when the current password does not match on change.
	ErrIncorrectPassword = apperrors.New("INCORRECT_PASSWORD", "Current password is incorrect", http.StatusBadRequest)

	// ErrMeetingNotFound is returned for unknown or malformed meeting ids.
	ErrMeetingNotFound = apperrors.New("MEETING_NOT_FOUND", "Meeting not found", http.StatusNotFound)
	// ErrAttendanceNotFound is returned for a missing attendance record.
	ErrAttendanceNotFound = apperrors.New("ATTENDANCE_NOT_FOUND", "Attendance record not found", http.StatusNotFound)
	// ErrMinutesNotFound is returned when no minutes match the id or meeting.
	ErrMinutesNotFound = apperrors.New("MINUTES_NOT_FOUND", "Meeting minutes not found", http.StatusNotFound)
	// ErrActionItemNotFound is returned when the item is not part of the addressed minutes.
	ErrActionItemNotFound = apperrors.New("ACTION_ITEM_NOT_FOUND", "Action item not found", http.StatusNotFound)
	// ErrNotificationNotFound hides notifications that are missing or owned by someone else.
	ErrNotificationNotFound = apperrors.New("NOTIFICATION_NOT_FOUND", "Notification not found", http.StatusNotFound)

	// ErrAttendanceExists reports a second record for the same meeting and participant email.
	ErrAttendanceExists = apperrors.New("ATTENDANCE_EXISTS", "Attendance already recorded for this participant", http.StatusConflict)
	// ErrMinutesExist reports a second minutes document for the same meeting.
	ErrMinutesExist = apperrors.New("MINUTES_EXIST", "Minutes already exist for this meeting", http.StatusConflict)

	// ErrNotOrganizer is returned when someone other than the organizer mutates a meeting.
	ErrNotOrganizer = apperrors.ErrForbidden.WithMessage("Only the organizer can modify this meeting")
	// ErrNoMeetingAccess is returned when the caller is neither organizer nor attendee.
	ErrNoMeetingAccess = apperrors.ErrForbidden.WithMessage("You do not have access to this meeting")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate key") ||
		strings.Contains(lower, "duplicate entry")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
