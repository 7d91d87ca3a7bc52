package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/middleware"
	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated caller. When the auth middleware did
// not run an unauthorized response is written and false is returned.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// currentActor is currentUserID plus the caller's role.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, Role: c.GetString(middleware.CtxUserRoleKey)}, true
}

// writeList renders one page of results with the standard pagination block.
func writeList[T any](c *gin.Context, result services.ListResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	response.SuccessWithPagination(c, http.StatusOK, items, response.NewPagination(result.Page, result.Limit, result.Total))
}
