package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	apperrors "github.com/charlesng35/notula/pkg/errors"
)

const minContentLength = 10

// AssigneeInput identifies the person responsible for an action item.
type AssigneeInput struct {
	UserID string
	Name   string
	Email  string
}

// ActionItemInput describes one action item. ID is set when updating an
// existing item and empty for new ones.
type ActionItemInput struct {
	ID          string
	Description string
	AssignedTo  AssigneeInput
	DueDate     time.Time
	Status      string
	Priority    string
}

// DecisionInput describes one decision. ID follows the ActionItemInput rule.
type DecisionInput struct {
	ID          string
	Description string
	Impact      string
}

// CreateMinutesInput carries a new minutes document.
type CreateMinutesInput struct {
	MeetingID       string
	Content         string
	Summary         string
	KeyPoints       []string
	NextMeetingDate *time.Time
	ActionItems     []ActionItemInput
	Decisions       []DecisionInput
}

// UpdateMinutesInput enumerates the mutable minutes attributes. Nil fields
// and nil slices are left unchanged; a non-nil slice replaces the stored list,
// matching existing children by ID.
type UpdateMinutesInput struct {
	Content         *string
	Summary         *string
	KeyPoints       []string
	NextMeetingDate *time.Time
	ActionItems     []ActionItemInput
	Decisions       []DecisionInput
}

// ActionItemUpdate is a partial change to a single action item.
type ActionItemUpdate struct {
	Status     *string
	AssignedTo *AssigneeInput
	DueDate    *time.Time
	Priority   *string
}

// MinutesFilter narrows minutes listings.
type MinutesFilter struct {
	MeetingID string
	Page      Page
}

// MinutesService manages meeting minutes and their action items and decisions.
type MinutesService struct {
	db            *gorm.DB
	notifications *NotificationService
	policy        *bluemonday.Policy
	now           func() time.Time
}

// NewMinutesService constructs a MinutesService.
func NewMinutesService(db *gorm.DB, notifications *NotificationService) (*MinutesService, error) {
	if db == nil {
		return nil, errors.New("minutes service: db is required")
	}
	if notifications == nil {
		return nil, errors.New("minutes service: notification service is required")
	}
	return &MinutesService{
		db:            db,
		notifications: notifications,
		policy:        bluemonday.UGCPolicy(),
		now:           time.Now,
	}, nil
}

// Create records the minutes of an existing meeting. A meeting has at most
// one minutes document. Linked attendees are told the minutes are available
// and linked assignees are told about their action items.
func (s *MinutesService) Create(ctx context.Context, actor Actor, input CreateMinutesInput) (*models.MeetingMinutes, error) {
	ctx = ensureContext(ctx)

	content, err := s.sanitizeContent(input.Content)
	if err != nil {
		return nil, err
	}

	var (
		created []models.Notification
		minutes *models.MeetingMinutes
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		meeting, err := loadMeeting(tx, input.MeetingID)
		if err != nil {
			return err
		}

		items, err := buildActionItems(tx, input.ActionItems)
		if err != nil {
			return err
		}

		minutes = &models.MeetingMinutes{
			MeetingID:       meeting.ID,
			Content:         content,
			Summary:         strings.TrimSpace(input.Summary),
			KeyPoints:       datatypes.JSONSlice[string](cleanTags(input.KeyPoints)),
			NextMeetingDate: utcPtr(input.NextMeetingDate),
			ActionItems:     items,
			Decisions:       buildDecisions(input.Decisions),
			CreatedByID:     actor.UserID,
		}
		if err := tx.Create(minutes).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrMinutesExist
			}
			return fmt.Errorf("minutes service: create minutes: %w", err)
		}

		available, err := s.notifications.FanOut(tx, meeting.Attendees, NotificationTemplate{
			Type:             models.NotificationMinutesAvailable,
			Title:            "Meeting Minutes Available",
			Message:          fmt.Sprintf("Minutes for %q are now available", meeting.Title),
			RelatedMeetingID: stringPtr(meeting.ID),
		})
		if err != nil {
			return err
		}
		created = append(created, available...)

		for i := range minutes.ActionItems {
			assigned, err := s.notifyAssignee(tx, meeting.ID, &minutes.ActionItems[i])
			if err != nil {
				return err
			}
			created = append(created, assigned...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(created)
	return s.Get(ctx, minutes.ID)
}

// List returns one page of minutes, newest first.
func (s *MinutesService) List(ctx context.Context, filter MinutesFilter) (ListResult[models.MeetingMinutes], error) {
	ctx = ensureContext(ctx)
	page := filter.Page.normalize()
	result := ListResult[models.MeetingMinutes]{Page: page.Page, Limit: page.Limit}

	query := s.db.WithContext(ctx).Model(&models.MeetingMinutes{})
	if meetingID := strings.TrimSpace(filter.MeetingID); meetingID != "" {
		query = query.Where("meeting_id = ?", meetingID)
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("minutes service: count minutes: %w", err)
	}

	var rows []models.MeetingMinutes
	if err := withMinutesAssociations(query).
		Order("created_at DESC").
		Limit(page.Limit).
		Offset(page.offset()).
		Find(&rows).Error; err != nil {
		return result, fmt.Errorf("minutes service: list minutes: %w", err)
	}

	if err := attachMinutesMeetings(s.db.WithContext(ctx), rows); err != nil {
		return result, fmt.Errorf("minutes service: load meetings: %w", err)
	}

	result.Items = rows
	return result, nil
}

// Get loads a minutes document with its children and references.
func (s *MinutesService) Get(ctx context.Context, id string) (*models.MeetingMinutes, error) {
	ctx = ensureContext(ctx)
	return s.loadOne(ctx, "id = ?", id)
}

// ByMeeting loads the minutes of a meeting.
func (s *MinutesService) ByMeeting(ctx context.Context, meetingID string) (*models.MeetingMinutes, error) {
	ctx = ensureContext(ctx)
	return s.loadOne(ctx, "meeting_id = ?", meetingID)
}

// Update applies a change to a minutes document and stamps the editor.
func (s *MinutesService) Update(ctx context.Context, actor Actor, id string, input UpdateMinutesInput) (*models.MeetingMinutes, error) {
	ctx = ensureContext(ctx)

	var created []models.Notification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		minutes, err := loadMinutes(tx, "id = ?", id)
		if err != nil {
			return err
		}
		if err := s.authorizeEdit(tx, actor, minutes); err != nil {
			return err
		}

		updates := map[string]any{"last_modified_by_id": actor.UserID}
		if input.Content != nil {
			content, err := s.sanitizeContent(*input.Content)
			if err != nil {
				return err
			}
			updates["content"] = content
		}
		if input.Summary != nil {
			updates["summary"] = strings.TrimSpace(*input.Summary)
		}
		if input.KeyPoints != nil {
			updates["key_points"] = datatypes.JSONSlice[string](cleanTags(input.KeyPoints))
		}
		if input.NextMeetingDate != nil {
			updates["next_meeting_date"] = input.NextMeetingDate.UTC()
		}

		if err := tx.Model(&models.MeetingMinutes{}).Where("id = ?", minutes.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("minutes service: update minutes: %w", err)
		}

		if input.ActionItems != nil {
			assigned, err := s.reconcileActionItems(tx, minutes, input.ActionItems)
			if err != nil {
				return err
			}
			created = append(created, assigned...)
		}
		if input.Decisions != nil {
			if err := reconcileDecisions(tx, minutes, input.Decisions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(created)
	return s.Get(ctx, id)
}

// Approve marks the minutes approved by the actor. Approving again records
// the new approver and time.
func (s *MinutesService) Approve(ctx context.Context, actor Actor, id string) (*models.MeetingMinutes, error) {
	ctx = ensureContext(ctx)
	db := s.db.WithContext(ctx)

	minutes, err := loadMinutes(db, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		meeting, err := loadMeetingRow(db, minutes.MeetingID)
		if err != nil && !errors.Is(err, ErrMeetingNotFound) {
			return nil, err
		}
		if meeting == nil || !meeting.IsOrganizer(actor.UserID) {
			return nil, apperrors.ErrForbidden.WithMessage("Only the meeting organizer can approve minutes")
		}
	}

	if err := db.Model(&models.MeetingMinutes{}).Where("id = ?", minutes.ID).Updates(map[string]any{
		"is_approved":    true,
		"approved_by_id": actor.UserID,
		"approved_at":    s.now().UTC(),
	}).Error; err != nil {
		return nil, fmt.Errorf("minutes service: approve minutes: %w", err)
	}

	return s.Get(ctx, id)
}

// UpdateActionItem changes one action item in place. Sibling items and the
// rest of the document are not rewritten; the parent is only stamped with the
// editor. The assignee may update their own item.
func (s *MinutesService) UpdateActionItem(ctx context.Context, actor Actor, minutesID, itemID string, input ActionItemUpdate) (*models.ActionItem, error) {
	ctx = ensureContext(ctx)

	var (
		created []models.Notification
		item    models.ActionItem
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var minutes models.MeetingMinutes
		if err := tx.First(&minutes, "id = ?", minutesID).Error; err != nil {
			if isNotFound(err) {
				return ErrMinutesNotFound
			}
			return fmt.Errorf("minutes service: load minutes: %w", err)
		}

		if err := tx.First(&item, "id = ? AND minutes_id = ?", itemID, minutes.ID).Error; err != nil {
			if isNotFound(err) {
				return ErrActionItemNotFound
			}
			return fmt.Errorf("minutes service: load action item: %w", err)
		}

		isAssignee := item.AssignedTo.UserID != nil && *item.AssignedTo.UserID == actor.UserID
		if !isAssignee {
			if err := s.authorizeEdit(tx, actor, &minutes); err != nil {
				return err
			}
		}

		previousAssignee := derefString(item.AssignedTo.UserID)
		updates := map[string]any{}
		if input.Status != nil {
			updates["status"] = strings.TrimSpace(*input.Status)
		}
		if input.Priority != nil {
			updates["priority"] = strings.TrimSpace(*input.Priority)
		}
		if input.DueDate != nil {
			updates["due_date"] = input.DueDate.UTC()
			updates["reminder_sent_at"] = nil
		}
		if input.AssignedTo != nil {
			assignee, err := resolveAssignee(tx, *input.AssignedTo)
			if err != nil {
				return err
			}
			updates["assignee_user_id"] = assignee.UserID
			updates["assignee_name"] = assignee.Name
			updates["assignee_email"] = assignee.Email
			updates["reminder_sent_at"] = nil
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.ActionItem{}).
			Where("id = ? AND minutes_id = ?", item.ID, minutes.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("minutes service: update action item: %w", err)
		}
		if err := tx.Model(&models.MeetingMinutes{}).
			Where("id = ?", minutes.ID).
			Update("last_modified_by_id", actor.UserID).Error; err != nil {
			return fmt.Errorf("minutes service: touch minutes: %w", err)
		}

		var reloaded models.ActionItem
		if err := tx.First(&reloaded, "id = ?", item.ID).Error; err != nil {
			return fmt.Errorf("minutes service: reload action item: %w", err)
		}
		item = reloaded

		if current := derefString(item.AssignedTo.UserID); current != "" && current != previousAssignee {
			assigned, err := s.notifyAssignee(tx, minutes.MeetingID, &item)
			if err != nil {
				return err
			}
			created = append(created, assigned...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Announce(created)
	return &item, nil
}

// DueActionItems returns open, emailable items due before the horizon that
// have not been reminded yet.
func (s *MinutesService) DueActionItems(ctx context.Context, horizon time.Duration, limit int) ([]models.ActionItem, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = maxPageSize
	}

	var rows []models.ActionItem
	if err := s.db.WithContext(ctx).
		Where("status IN ?", []string{models.ActionItemPending, models.ActionItemInProgress}).
		Where("due_date <= ?", s.now().UTC().Add(horizon)).
		Where("reminder_sent_at IS NULL AND assignee_email <> ''").
		Order("due_date ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("minutes service: load due action items: %w", err)
	}
	return rows, nil
}

// MarkActionItemsReminded stamps reminder_sent_at on the supplied items.
func (s *MinutesService) MarkActionItemsReminded(ctx context.Context, ids []string) error {
	ctx = ensureContext(ctx)
	ids = normaliseIDs(ids)
	if len(ids) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(&models.ActionItem{}).
		Where("id IN ?", ids).
		Update("reminder_sent_at", s.now().UTC()).Error; err != nil {
		return fmt.Errorf("minutes service: mark reminded: %w", err)
	}
	return nil
}

func (s *MinutesService) loadOne(ctx context.Context, where string, arg string) (*models.MeetingMinutes, error) {
	db := s.db.WithContext(ctx)
	minutes, err := loadMinutes(db, where, arg)
	if err != nil {
		return nil, err
	}

	rows := []models.MeetingMinutes{*minutes}
	if err := attachMinutesMeetings(db, rows); err != nil {
		return nil, fmt.Errorf("minutes service: load meeting: %w", err)
	}
	return &rows[0], nil
}

// authorizeEdit allows admins, the author, and anyone who can view the meeting.
func (s *MinutesService) authorizeEdit(tx *gorm.DB, actor Actor, minutes *models.MeetingMinutes) error {
	if actor.IsAdmin() || minutes.CreatedByID == actor.UserID {
		return nil
	}
	meeting, err := loadMeeting(tx, minutes.MeetingID)
	if err != nil && !errors.Is(err, ErrMeetingNotFound) {
		return err
	}
	if meeting != nil && meeting.CanView(actor.UserID) {
		return nil
	}
	return apperrors.ErrForbidden.WithMessage("You cannot edit these minutes")
}

func (s *MinutesService) sanitizeContent(raw string) (string, error) {
	content := strings.TrimSpace(s.policy.Sanitize(raw))
	if len([]rune(content)) < minContentLength {
		return "", apperrors.NewBadRequest(fmt.Sprintf("content must be at least %d characters", minContentLength))
	}
	return content, nil
}

func (s *MinutesService) notifyAssignee(tx *gorm.DB, meetingID string, item *models.ActionItem) ([]models.Notification, error) {
	if item.AssignedTo.UserID == nil {
		return nil, nil
	}
	return s.notifications.Deliver(tx, []string{*item.AssignedTo.UserID}, NotificationTemplate{
		Type:                models.NotificationActionItem,
		Title:               "New Action Item",
		Message:             fmt.Sprintf("You have been assigned %q, due %s", item.Description, formatDisplayDate(item.DueDate)),
		Priority:            item.Priority,
		RelatedMeetingID:    stringPtr(meetingID),
		RelatedActionItemID: stringPtr(item.ID),
	})
}

// reconcileActionItems makes the stored list match inputs: known ids are
// updated in place, the rest are inserted, and missing items are deleted.
func (s *MinutesService) reconcileActionItems(tx *gorm.DB, minutes *models.MeetingMinutes, inputs []ActionItemInput) ([]models.Notification, error) {
	existing := make(map[string]models.ActionItem, len(minutes.ActionItems))
	for _, item := range minutes.ActionItems {
		existing[item.ID] = item
	}

	desired, err := buildActionItems(tx, inputs)
	if err != nil {
		return nil, err
	}

	var (
		created []models.Notification
		keep    = make(map[string]struct{}, len(desired))
	)
	for i, item := range desired {
		id := strings.TrimSpace(inputs[i].ID)
		previous, known := existing[id]
		if known {
			if _, dup := keep[id]; dup {
				known = false
			}
		}

		if known {
			keep[id] = struct{}{}
			updates := map[string]any{
				"description":      item.Description,
				"assignee_user_id": item.AssignedTo.UserID,
				"assignee_name":    item.AssignedTo.Name,
				"assignee_email":   item.AssignedTo.Email,
				"due_date":         item.DueDate,
				"status":           item.Status,
				"priority":         item.Priority,
				"position":         item.Position,
			}
			if !previous.DueDate.Equal(item.DueDate) || derefString(previous.AssignedTo.UserID) != derefString(item.AssignedTo.UserID) {
				updates["reminder_sent_at"] = nil
			}
			if err := tx.Model(&models.ActionItem{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("minutes service: update action item: %w", err)
			}
			item.ID = id
			if derefString(previous.AssignedTo.UserID) == derefString(item.AssignedTo.UserID) {
				continue
			}
		} else {
			item.MinutesID = minutes.ID
			if err := tx.Create(&item).Error; err != nil {
				return nil, fmt.Errorf("minutes service: create action item: %w", err)
			}
			keep[item.ID] = struct{}{}
		}

		assigned, err := s.notifyAssignee(tx, minutes.MeetingID, &item)
		if err != nil {
			return nil, err
		}
		created = append(created, assigned...)
	}

	var stale []string
	for id := range existing {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.ActionItem{}).Error; err != nil {
			return nil, fmt.Errorf("minutes service: delete action items: %w", err)
		}
	}
	return created, nil
}

func reconcileDecisions(tx *gorm.DB, minutes *models.MeetingMinutes, inputs []DecisionInput) error {
	existing := make(map[string]struct{}, len(minutes.Decisions))
	for _, decision := range minutes.Decisions {
		existing[decision.ID] = struct{}{}
	}

	keep := make(map[string]struct{}, len(inputs))
	for i, decision := range buildDecisions(inputs) {
		id := strings.TrimSpace(inputs[i].ID)
		_, known := existing[id]
		if _, dup := keep[id]; known && !dup {
			keep[id] = struct{}{}
			if err := tx.Model(&models.Decision{}).Where("id = ?", id).Updates(map[string]any{
				"description": decision.Description,
				"impact":      decision.Impact,
				"position":    decision.Position,
			}).Error; err != nil {
				return fmt.Errorf("minutes service: update decision: %w", err)
			}
			continue
		}

		decision.MinutesID = minutes.ID
		if err := tx.Create(&decision).Error; err != nil {
			return fmt.Errorf("minutes service: create decision: %w", err)
		}
		keep[decision.ID] = struct{}{}
	}

	var stale []string
	for id := range existing {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := tx.Where("id IN ?", stale).Delete(&models.Decision{}).Error; err != nil {
			return fmt.Errorf("minutes service: delete decisions: %w", err)
		}
	}
	return nil
}

func buildActionItems(tx *gorm.DB, inputs []ActionItemInput) ([]models.ActionItem, error) {
	items := make([]models.ActionItem, 0, len(inputs))
	for i, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			return nil, apperrors.NewBadRequest("action item description is required")
		}
		if input.DueDate.IsZero() {
			return nil, apperrors.NewBadRequest("action item due date is required")
		}
		assignee, err := resolveAssignee(tx, input.AssignedTo)
		if err != nil {
			return nil, err
		}
		items = append(items, models.ActionItem{
			Description: description,
			AssignedTo:  assignee,
			DueDate:     input.DueDate.UTC(),
			Status:      defaultIfEmpty(input.Status, models.ActionItemPending),
			Priority:    defaultIfEmpty(input.Priority, models.PriorityMedium),
			Position:    i,
		})
	}
	return items, nil
}

func buildDecisions(inputs []DecisionInput) []models.Decision {
	decisions := make([]models.Decision, 0, len(inputs))
	for i, input := range inputs {
		decisions = append(decisions, models.Decision{
			Description: strings.TrimSpace(input.Description),
			Impact:      defaultIfEmpty(input.Impact, models.PriorityMedium),
			Position:    i,
		})
	}
	return decisions
}

// resolveAssignee links an assignee to an account by explicit id or by email.
func resolveAssignee(tx *gorm.DB, input AssigneeInput) (models.Assignee, error) {
	assignee := models.Assignee{
		Name:  strings.TrimSpace(input.Name),
		Email: normalizeEmail(input.Email),
	}
	if assignee.Name == "" {
		return assignee, apperrors.NewBadRequest("action item assignee name is required")
	}

	if userID := strings.TrimSpace(input.UserID); userID != "" {
		known, err := existingUserIDs(tx, []string{userID})
		if err != nil {
			return assignee, fmt.Errorf("minutes service: resolve assignee: %w", err)
		}
		if _, ok := known[userID]; ok {
			assignee.UserID = stringPtr(userID)
			return assignee, nil
		}
	}
	if assignee.Email != "" {
		byEmail, err := resolveUserIDsByEmail(tx, []string{assignee.Email})
		if err != nil {
			return assignee, fmt.Errorf("minutes service: resolve assignee: %w", err)
		}
		if id, ok := byEmail[assignee.Email]; ok {
			assignee.UserID = stringPtr(id)
		}
	}
	return assignee, nil
}

func withMinutesAssociations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("CreatedBy").
		Preload("LastModifiedBy").
		Preload("ApprovedBy").
		Preload("ActionItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Decisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

func loadMinutes(db *gorm.DB, where string, arg string) (*models.MeetingMinutes, error) {
	if strings.TrimSpace(arg) == "" {
		return nil, ErrMinutesNotFound
	}

	var minutes models.MeetingMinutes
	if err := withMinutesAssociations(db).First(&minutes, where, arg).Error; err != nil {
		if isNotFound(err) {
			return nil, ErrMinutesNotFound
		}
		return nil, fmt.Errorf("minutes service: load minutes: %w", err)
	}
	return &minutes, nil
}

func attachMinutesMeetings(db *gorm.DB, rows []models.MeetingMinutes) error {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.MeetingID)
	}
	summaries, err := loadMeetingSummaries(db, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Meeting = summaries[rows[i].MeetingID]
	}
	return nil
}
