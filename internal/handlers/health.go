package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/notula/internal/monitoring"
	"github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/response"
)

// Health evaluates every registered probe. A degraded report still answers 200.
func Health(manager *monitoring.HealthManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := manager.Evaluate(requestContext(c))
		if report.Healthy() {
			response.Success(c, http.StatusOK, report)
			return
		}

		var down []string
		for _, check := range report.Checks {
			if check.Status == monitoring.StatusDown {
				down = append(down, check.Component)
			}
		}
		response.Error(c, errors.New("SERVICE_UNAVAILABLE", "Unavailable: "+strings.Join(down, ", "), http.StatusServiceUnavailable))
	}
}
