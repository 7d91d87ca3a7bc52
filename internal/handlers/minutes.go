package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/response"
)

// MinutesHandler exposes meeting minutes, approval and action item endpoints.
type MinutesHandler struct {
	minutes *services.MinutesService
}

// NewMinutesHandler constructs a MinutesHandler.
func NewMinutesHandler(minutes *services.MinutesService) *MinutesHandler {
	return &MinutesHandler{minutes: minutes}
}

type assigneeRequest struct {
	User  string `json:"user" validate:"omitempty,uuid"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (a assigneeRequest) toInput() services.AssigneeInput {
	return services.AssigneeInput{UserID: a.User, Name: a.Name, Email: a.Email}
}

type actionItemRequest struct {
	ID          string          `json:"id" validate:"omitempty,uuid"`
	Description string          `json:"description" validate:"required,max=300"`
	AssignedTo  assigneeRequest `json:"assigned_to" validate:"required"`
	DueDate     string          `json:"due_date" validate:"required,isodate"`
	Status      string          `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Priority    string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

type decisionRequest struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	Description string `json:"description" validate:"required,max=300"`
	Impact      string `json:"impact" validate:"omitempty,oneof=low medium high"`
}

type createMinutesRequest struct {
	Meeting         string              `json:"meeting" validate:"required,uuid"`
	Content         string              `json:"content" validate:"required,min=10"`
	Summary         string              `json:"summary" validate:"max=500"`
	KeyPoints       []string            `json:"key_points" validate:"omitempty,dive,max=200"`
	NextMeetingDate string              `json:"next_meeting_date" validate:"omitempty,isodate"`
	ActionItems     []actionItemRequest `json:"action_items" validate:"omitempty,dive"`
	Decisions       []decisionRequest   `json:"decisions" validate:"omitempty,dive"`
}

type updateMinutesRequest struct {
	Content         *string             `json:"content" validate:"omitempty,min=10"`
	Summary         *string             `json:"summary" validate:"omitempty,max=500"`
	KeyPoints       []string            `json:"key_points" validate:"omitempty,dive,max=200"`
	NextMeetingDate string              `json:"next_meeting_date" validate:"omitempty,isodate"`
	ActionItems     []actionItemRequest `json:"action_items" validate:"omitempty,dive"`
	Decisions       []decisionRequest   `json:"decisions" validate:"omitempty,dive"`
}

type updateActionItemRequest struct {
	Status     *string          `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	AssignedTo *assigneeRequest `json:"assigned_to" validate:"omitempty"`
	DueDate    *string          `json:"due_date" validate:"omitempty,isodate"`
	Priority   *string          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func actionItemInputs(items []actionItemRequest) []services.ActionItemInput {
	if items == nil {
		return nil
	}
	out := make([]services.ActionItemInput, 0, len(items))
	for _, item := range items {
		out = append(out, services.ActionItemInput{
			ID:          item.ID,
			Description: item.Description,
			AssignedTo:  item.AssignedTo.toInput(),
			DueDate:     mustDate(item.DueDate),
			Status:      item.Status,
			Priority:    item.Priority,
		})
	}
	return out
}

func decisionInputs(decisions []decisionRequest) []services.DecisionInput {
	if decisions == nil {
		return nil
	}
	out := make([]services.DecisionInput, 0, len(decisions))
	for _, decision := range decisions {
		out = append(out, services.DecisionInput{
			ID:          decision.ID,
			Description: decision.Description,
			Impact:      decision.Impact,
		})
	}
	return out
}

// POST /api/minutes
func (h *MinutesHandler) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req createMinutesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	next, err := parseDate(req.NextMeetingDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	minutes, err := h.minutes.Create(requestContext(c), actor, services.CreateMinutesInput{
		MeetingID:       req.Meeting,
		Content:         req.Content,
		Summary:         req.Summary,
		KeyPoints:       req.KeyPoints,
		NextMeetingDate: next,
		ActionItems:     actionItemInputs(req.ActionItems),
		Decisions:       decisionInputs(req.Decisions),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Meeting minutes created successfully", minutes)
}

// GET /api/minutes
func (h *MinutesHandler) List(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	result, err := h.minutes.List(requestContext(c), services.MinutesFilter{
		MeetingID: queryAlias(c, "meeting_id", "meetingId"),
		Page:      pageQuery(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	writeList(c, result)
}

// GET /api/minutes/:id
func (h *MinutesHandler) Get(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	minutes, err := h.minutes.Get(requestContext(c), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, minutes)
}

// PUT /api/minutes/:id
func (h *MinutesHandler) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req updateMinutesRequest
	if !bindAndValidate(c, &req) {
		return
	}

	next, err := parseDate(req.NextMeetingDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	minutes, err := h.minutes.Update(requestContext(c), actor, strings.TrimSpace(c.Param("id")), services.UpdateMinutesInput{
		Content:         req.Content,
		Summary:         req.Summary,
		KeyPoints:       req.KeyPoints,
		NextMeetingDate: next,
		ActionItems:     actionItemInputs(req.ActionItems),
		Decisions:       decisionInputs(req.Decisions),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Meeting minutes updated successfully", minutes)
}

// PUT /api/minutes/:id/approve
func (h *MinutesHandler) Approve(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	minutes, err := h.minutes.Approve(requestContext(c), actor, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Meeting minutes approved successfully", minutes)
}

// PUT /api/minutes/:id/action-items/:actionItemId
func (h *MinutesHandler) UpdateActionItem(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req updateActionItemRequest
	if !bindAndValidate(c, &req) {
		return
	}

	input := services.ActionItemUpdate{
		Status:   req.Status,
		Priority: req.Priority,
	}
	if req.AssignedTo != nil {
		assignee := req.AssignedTo.toInput()
		input.AssignedTo = &assignee
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		input.DueDate = due
	}

	item, err := h.minutes.UpdateActionItem(
		requestContext(c),
		actor,
		strings.TrimSpace(c.Param("id")),
		strings.TrimSpace(c.Param("actionItemId")),
		input,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Action item updated successfully", item)
}
