package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/services"
	appErrors "github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/response"
	appValidator "github.com/charlesng35/notula/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// When validation fails, an error response is automatically written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, validationError(err))
		return false
	}

	return true
}

func validationError(err error) *appErrors.AppError {
	ve, ok := err.(appValidator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return appErrors.NewBadRequest("invalid request payload")
	}

	fields := make([]appErrors.FieldError, 0, len(ve))
	for _, failure := range ve {
		fields = append(fields, appErrors.FieldError{
			Field:   failure.Field,
			Tag:     failure.Tag,
			Param:   failure.Param,
			Message: fieldMessage(failure),
		})
	}
	return appErrors.NewValidation(fields)
}

func fieldMessage(failure appValidator.ValidationError) string {
	field := prettifyFieldName(failure.Field)
	switch failure.Tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, failure.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, failure.Param)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(failure.Param, " ", ", "))
	case "hhmm":
		return fmt.Sprintf("%s must be in HH:MM format", field)
	case "isodate":
		return fmt.Sprintf("%s must be a valid date", field)
	case "strongpassword":
		return fmt.Sprintf("%s must contain at least one lowercase letter, one uppercase letter, and one number", field)
	}
	if failure.Param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, failure.Tag)
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func pageQuery(c *gin.Context) services.Page {
	return services.Page{
		Page:  parseIntQuery(c, "page", 1),
		Limit: parseIntQuery(c, "limit", 10),
	}
}

// queryAlias returns the first non-empty query value among keys.
func queryAlias(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(c.Query(key)); value != "" {
			return value
		}
	}
	return ""
}

// parseDate parses an optional isodate field that has already passed validation.
func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := appValidator.ParseDate(value)
	if err != nil {
		return nil, appErrors.NewBadRequest("invalid date: " + value)
	}
	utc := parsed.UTC()
	return &utc, nil
}

func mustDate(value string) time.Time {
	parsed, _ := parseDate(value)
	if parsed == nil {
		return time.Time{}
	}
	return *parsed
}
