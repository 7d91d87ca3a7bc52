package services

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/notula/internal/models"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Page selects a window of a list result. Zero values fall back to page 1 of 10.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.Limit
}

// ListResult is one page of a list together with the unpaged total.
type ListResult[T any] struct {
	Items []T
	Total int64
	Page  int
	Limit int
}

// StatusCount is one bucket of a group-by-status aggregate.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normaliseIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}

func stringPtr(value string) *string {
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// likeEscape is the escape character paired with likePattern. A backslash
// is avoided because MySQL treats it as a string escape.
const likeEscape = "!"

// likePattern escapes SQL LIKE wildcards and wraps term for a
// case-insensitive contains match against a LOWER() column.
func likePattern(term string) string {
	replacer := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + replacer.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func formatDisplayDate(t time.Time) string {
	return t.Format("Mon, 02 Jan 2006")
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor carries the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
