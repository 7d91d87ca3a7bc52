// Package checks provides the probes registered with the health endpoint.
package checks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// Database pings the database handle.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	if timeout <= 0 {
		timeout = defaultDatabaseTimeout
	}
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.Result {
		if db == nil {
			return monitoring.Result{Status: monitoring.StatusDown, Details: "database not configured"}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError(err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return monitoring.ResultFromError(sqlDB.PingContext(ctx))
	})
}
