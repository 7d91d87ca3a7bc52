package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/handlers"
	"github.com/charlesng35/notula/internal/middleware"
	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/response"
)

func registerAuthRoutes(public, protected *gin.RouterGroup, handler *handlers.AuthHandler) {
	auth := public.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
	}

	protected.GET("/auth/profile", handler.Profile)
	protected.PUT("/auth/profile", handler.UpdateProfile)
	protected.PUT("/auth/change-password", handler.ChangePassword)
}

func registerMeetingRoutes(api *gin.RouterGroup, handler *handlers.MeetingHandler) {
	group := api.Group("/meetings")
	{
		group.POST("", handler.Create)
		group.GET("", handler.List)
		group.GET("/stats", handler.Stats)
		group.GET("/:id", handler.Get)
		group.PUT("/:id", handler.Update)
		group.DELETE("/:id", handler.Delete)
		group.GET("/:id/export/minutes", handler.ExportMinutes)
		group.GET("/:id/export/attendance", handler.ExportAttendance)
	}
}

func registerAttendanceRoutes(api *gin.RouterGroup, handler *handlers.AttendanceHandler) {
	group := api.Group("/attendance")
	{
		group.POST("", handler.Record)
		group.GET("", handler.List)
		group.GET("/stats", handler.Stats)
		group.PUT("/:id", handler.Update)
	}
}

func registerMinutesRoutes(api *gin.RouterGroup, handler *handlers.MinutesHandler) {
	group := api.Group("/minutes")
	{
		group.POST("", handler.Create)
		group.GET("", handler.List)
		group.GET("/:id", handler.Get)
		group.PUT("/:id", handler.Update)
		group.PUT("/:id/approve", handler.Approve)
		group.PUT("/:id/action-items/:actionItemId", handler.UpdateActionItem)
	}
}

// registerNotificationRoutes mounts the notification endpoints. The stream
// authenticates its own token because browsers cannot send headers on a
// WebSocket handshake.
func registerNotificationRoutes(public, protected *gin.RouterGroup, handler *handlers.NotificationHandler, stream *handlers.RealtimeHandler) {
	if stream != nil {
		public.GET("/notifications/stream", stream.Stream)
	} else {
		public.GET("/notifications/stream", func(c *gin.Context) {
			response.Error(c, errors.ErrNotFound)
		})
	}

	group := protected.Group("/notifications")
	{
		group.GET("", handler.List)
		group.GET("/unread-count", handler.UnreadCount)
		group.POST("", middleware.RequireRole(models.RoleAdmin), handler.Create)
		group.PUT("/read-all", handler.MarkAllRead)
		group.PUT("/:id/read", handler.MarkRead)
		group.DELETE("/:id", handler.Delete)
	}
}
