package client

import (
	"context"
	"net/url"

	"github.com/charlesng35/notula/internal/models"
)

// MinutesService manages meeting minutes and their action items.
type MinutesService struct {
	client *Client
}

// Assignee identifies the person responsible for an action item.
type Assignee struct {
	User  string `json:"user,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ActionItem is one action item in a minutes request. ID is set when updating
// an existing item. DueDate is "YYYY-MM-DD".
type ActionItem struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	AssignedTo  Assignee `json:"assigned_to"`
	DueDate     string   `json:"due_date"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

// Decision is one decision in a minutes request.
type Decision struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Impact      string `json:"impact,omitempty"`
}

// CreateMinutesRequest creates the minutes of a meeting.
type CreateMinutesRequest struct {
	Meeting         string       `json:"meeting"`
	Content         string       `json:"content"`
	Summary         string       `json:"summary,omitempty"`
	KeyPoints       []string     `json:"key_points,omitempty"`
	NextMeetingDate string       `json:"next_meeting_date,omitempty"`
	ActionItems     []ActionItem `json:"action_items,omitempty"`
	Decisions       []Decision   `json:"decisions,omitempty"`
}

// UpdateMinutesRequest changes minutes. Nil fields and nil slices are left
// unchanged; a non-nil slice replaces the stored list.
type UpdateMinutesRequest struct {
	Content         *string      `json:"content,omitempty"`
	Summary         *string      `json:"summary,omitempty"`
	KeyPoints       []string     `json:"key_points,omitempty"`
	NextMeetingDate string       `json:"next_meeting_date,omitempty"`
	ActionItems     []ActionItem `json:"action_items,omitempty"`
	Decisions       []Decision   `json:"decisions,omitempty"`
}

// UpdateActionItemRequest changes a single action item. Nil fields are left unchanged.
type UpdateActionItemRequest struct {
	Status     *string   `json:"status,omitempty"`
	AssignedTo *Assignee `json:"assigned_to,omitempty"`
	DueDate    *string   `json:"due_date,omitempty"`
	Priority   *string   `json:"priority,omitempty"`
}

// Create records the minutes of a meeting. A meeting has at most one set.
func (s *MinutesService) Create(ctx context.Context, req CreateMinutesRequest) (*models.MeetingMinutes, error) {
	var minutes models.MeetingMinutes
	if err := s.client.post(ctx, "/api/minutes", req, &minutes); err != nil {
		return nil, err
	}
	return &minutes, nil
}

// List returns one page of minutes, optionally for a single meeting.
func (s *MinutesService) List(ctx context.Context, meetingID string, page Page) (*List[models.MeetingMinutes], error) {
	query := url.Values{}
	if meetingID != "" {
		query.Set("meeting_id", meetingID)
	}
	page.apply(query)

	var minutes []models.MeetingMinutes
	pagination, err := s.client.get(ctx, "/api/minutes", query, &minutes)
	if err != nil {
		return nil, err
	}
	return listOf(minutes, pagination), nil
}

// Get returns one set of minutes.
func (s *MinutesService) Get(ctx context.Context, id string) (*models.MeetingMinutes, error) {
	var minutes models.MeetingMinutes
	if _, err := s.client.get(ctx, "/api/minutes/"+url.PathEscape(id), nil, &minutes); err != nil {
		return nil, err
	}
	return &minutes, nil
}

// Update changes minutes.
func (s *MinutesService) Update(ctx context.Context, id string, req UpdateMinutesRequest) (*models.MeetingMinutes, error) {
	var minutes models.MeetingMinutes
	if err := s.client.put(ctx, "/api/minutes/"+url.PathEscape(id), req, &minutes); err != nil {
		return nil, err
	}
	return &minutes, nil
}

// Approve marks minutes approved by the caller.
func (s *MinutesService) Approve(ctx context.Context, id string) (*models.MeetingMinutes, error) {
	var minutes models.MeetingMinutes
	if err := s.client.put(ctx, "/api/minutes/"+url.PathEscape(id)+"/approve", nil, &minutes); err != nil {
		return nil, err
	}
	return &minutes, nil
}

// UpdateActionItem changes one action item without rewriting its siblings.
func (s *MinutesService) UpdateActionItem(ctx context.Context, minutesID, itemID string, req UpdateActionItemRequest) (*models.ActionItem, error) {
	var item models.ActionItem
	path := "/api/minutes/" + url.PathEscape(minutesID) + "/action-items/" + url.PathEscape(itemID)
	if err := s.client.put(ctx, path, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}
