package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/response"
)

// MeetingHandler exposes meeting scheduling and export endpoints.
type MeetingHandler struct {
	meetings *services.MeetingService
	exports  *services.ExportService
}

// NewMeetingHandler constructs a MeetingHandler.
func NewMeetingHandler(meetings *services.MeetingService, exports *services.ExportService) *MeetingHandler {
	return &MeetingHandler{meetings: meetings, exports: exports}
}

type attendeeRequest struct {
	User   string `json:"user" validate:"omitempty,uuid"`
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required,max=100"`
	Status string `json:"status" validate:"omitempty,oneof=invited accepted declined tentative"`
}

type attachmentRequest struct {
	Filename     string `json:"filename" validate:"required"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path" validate:"required"`
	Size         int64  `json:"size" validate:"gte=0"`
}

type meetingRequest struct {
	Title       string              `json:"title" validate:"required,min=3,max=100"`
	Description string              `json:"description" validate:"required,min=10,max=500"`
	Date        string              `json:"date" validate:"required,isodate"`
	StartTime   string              `json:"start_time" validate:"required,hhmm"`
	EndTime     string              `json:"end_time" validate:"required,hhmm"`
	Location    string              `json:"location" validate:"required,max=255"`
	Status      string              `json:"status" validate:"omitempty,oneof=scheduled ongoing completed cancelled"`
	MeetingType string              `json:"meeting_type" validate:"omitempty,oneof=in-person virtual hybrid"`
	Priority    string              `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags        []string            `json:"tags" validate:"omitempty,dive,max=50"`
	Attachments []attachmentRequest `json:"attachments" validate:"omitempty,dive"`
	Attendees   []attendeeRequest   `json:"attendees" validate:"omitempty,min=1,dive"`
}

// createMeetingRequest requires the attendee list that updates may omit.
type createMeetingRequest struct {
	meetingRequest
	Attendees []attendeeRequest `json:"attendees" validate:"required,min=1,dive"`
}

func (r createMeetingRequest) toInput() services.MeetingInput {
	r.meetingRequest.Attendees = r.Attendees
	return r.meetingRequest.toInput()
}

func (r meetingRequest) toInput() services.MeetingInput {
	input := services.MeetingInput{
		Title:       r.Title,
		Description: r.Description,
		Date:        mustDate(r.Date),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		Status:      r.Status,
		MeetingType: r.MeetingType,
		Priority:    r.Priority,
		Tags:        r.Tags,
	}
	if r.Attachments != nil {
		input.Attachments = make([]models.Attachment, 0, len(r.Attachments))
		for _, a := range r.Attachments {
			input.Attachments = append(input.Attachments, models.Attachment{
				Filename:     a.Filename,
				OriginalName: a.OriginalName,
				Path:         a.Path,
				Size:         a.Size,
			})
		}
	}
	if r.Attendees != nil {
		input.Attendees = make([]services.AttendeeInput, 0, len(r.Attendees))
		for _, a := range r.Attendees {
			input.Attendees = append(input.Attendees, services.AttendeeInput{
				UserID: a.User,
				Email:  a.Email,
				Name:   a.Name,
				Status: a.Status,
			})
		}
	}
	return input
}

// POST /api/meetings
func (h *MeetingHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createMeetingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	meeting, err := h.meetings.Create(requestContext(c), userID, req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Meeting created successfully", meeting)
}

// GET /api/meetings
func (h *MeetingHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	date, err := parseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.meetings.List(requestContext(c), userID, services.MeetingFilter{
		Status: c.Query("status"),
		Date:   date,
		Search: c.Query("search"),
		Page:   pageQuery(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeList(c, result)
}

// GET /api/meetings/stats
func (h *MeetingHandler) Stats(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stats, err := h.meetings.Stats(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// GET /api/meetings/:id
func (h *MeetingHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	meeting, err := h.meetings.Get(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, meeting)
}

// PUT /api/meetings/:id
func (h *MeetingHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req meetingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	meeting, err := h.meetings.Update(requestContext(c), userID, strings.TrimSpace(c.Param("id")), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Meeting updated successfully", meeting)
}

// DELETE /api/meetings/:id
func (h *MeetingHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.meetings.Delete(requestContext(c), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Meeting deleted successfully", nil)
}

// GET /api/meetings/:id/export/minutes
func (h *MeetingHandler) ExportMinutes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doc, err := h.exports.MeetingMinutes(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	writePDF(c, doc)
}

// GET /api/meetings/:id/export/attendance
func (h *MeetingHandler) ExportAttendance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	doc, err := h.exports.Attendance(requestContext(c), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}
	writePDF(c, doc)
}

func writePDF(c *gin.Context, doc *services.ExportedDocument) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Header("X-Page-Count", fmt.Sprintf("%d", doc.Pages))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
