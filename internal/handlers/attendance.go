package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/response"
)

// AttendanceHandler exposes attendance recording endpoints.
type AttendanceHandler struct {
	attendance *services.AttendanceService
}

// NewAttendanceHandler constructs an AttendanceHandler.
func NewAttendanceHandler(attendance *services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

type participantRequest struct {
	User  string `json:"user" validate:"omitempty,uuid"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

func (p participantRequest) toInput() services.ParticipantInput {
	return services.ParticipantInput{UserID: p.User, Name: p.Name, Email: p.Email}
}

type recordAttendanceRequest struct {
	Meeting      string             `json:"meeting" validate:"required,uuid"`
	Participant  participantRequest `json:"participant" validate:"required"`
	Status       string             `json:"status" validate:"required,oneof=present absent late excused"`
	CheckInTime  *time.Time         `json:"check_in_time"`
	CheckOutTime *time.Time         `json:"check_out_time"`
	Notes        string             `json:"notes" validate:"max=200"`
}

type updateAttendanceRequest struct {
	Participant  *participantRequest `json:"participant" validate:"omitempty"`
	Status       *string             `json:"status" validate:"omitempty,oneof=present absent late excused"`
	CheckInTime  *time.Time          `json:"check_in_time"`
	CheckOutTime *time.Time          `json:"check_out_time"`
	Notes        *string             `json:"notes" validate:"omitempty,max=200"`
}

// POST /api/attendance
func (h *AttendanceHandler) Record(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req recordAttendanceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	record, err := h.attendance.Record(requestContext(c), userID, services.RecordAttendanceInput{
		MeetingID:    req.Meeting,
		Participant:  req.Participant.toInput(),
		Status:       req.Status,
		CheckInTime:  req.CheckInTime,
		CheckOutTime: req.CheckOutTime,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Attendance recorded successfully", record)
}

// GET /api/attendance
func (h *AttendanceHandler) List(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	result, err := h.attendance.List(requestContext(c), services.AttendanceFilter{
		MeetingID: queryAlias(c, "meeting_id", "meetingId"),
		Page:      pageQuery(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeList(c, result)
}

// GET /api/attendance/stats
func (h *AttendanceHandler) Stats(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	stats, err := h.attendance.Stats(requestContext(c), queryAlias(c, "meeting_id", "meetingId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// PUT /api/attendance/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	var req updateAttendanceRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.UpdateAttendanceInput{
		Status:       req.Status,
		CheckInTime:  req.CheckInTime,
		CheckOutTime: req.CheckOutTime,
		Notes:        req.Notes,
	}
	if req.Participant != nil {
		participant := req.Participant.toInput()
		input.Participant = &participant
	}

	record, err := h.attendance.Update(requestContext(c), strings.TrimSpace(c.Param("id")), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Attendance updated successfully", record)
}
