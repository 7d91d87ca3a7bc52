package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/app"
	iauth "github.com/charlesng35/notula/internal/auth"
	"github.com/charlesng35/notula/internal/handlers"
	"github.com/charlesng35/notula/internal/middleware"
	"github.com/charlesng35/notula/internal/monitoring"
	"github.com/charlesng35/notula/internal/monitoring/checks"
	"github.com/charlesng35/notula/internal/realtime"
)

// NewRouter builds the Gin engine, wires middleware and registers every route
// under /api. hub may be nil, in which case the notification stream answers 404.
// extra probes are added to the health report after the database and realtime checks.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, cfg *app.Config, svc *Services, hub *realtime.Hub, extra ...monitoring.Check) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svc == nil {
		return nil, fmt.Errorf("services must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.Origins...))
	if rl := cfg.Server.RateLimit; rl.Enabled {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(rl.RPS, rl.Burst)))
	}

	// Health endpoint (public)
	var counter checks.ConnectionCounter
	if hub != nil {
		counter = hub
	}
	probes := append([]monitoring.Check{checks.Database(db, 0), checks.Realtime(counter)}, extra...)
	health := handlers.Health(monitoring.NewHealthManager(probes...))
	r.GET("/health", health)
	r.GET("/api/health", health)

	if prom := cfg.Monitoring.Prometheus; prom.Enabled {
		endpoint := strings.TrimSpace(prom.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	api := r.Group("/api")
	protected := api.Group("")
	protected.Use(middleware.Auth(jwt))

	registerAuthRoutes(api, protected, handlers.NewAuthHandler(svc.Users, jwt))
	registerMeetingRoutes(protected, handlers.NewMeetingHandler(svc.Meetings, svc.Exports))
	registerAttendanceRoutes(protected, handlers.NewAttendanceHandler(svc.Attendance))
	registerMinutesRoutes(protected, handlers.NewMinutesHandler(svc.Minutes))

	var realtimeHandler *handlers.RealtimeHandler
	if hub != nil {
		realtimeHandler = handlers.NewRealtimeHandler(hub, jwt)
	}
	registerNotificationRoutes(api, protected, handlers.NewNotificationHandler(svc.Notifications), realtimeHandler)

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
