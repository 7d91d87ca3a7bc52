package checks

import (
	"context"
	"strings"
	"time"

	"github.com/charlesng35/notula/internal/monitoring"
)

const defaultMaintenanceMaxAge = 48 * time.Hour

// JobRun summarises the history of a background job.
type JobRun struct {
	Job                 string
	TotalRuns           int
	ConsecutiveFailures int
	LastRunAt           time.Time
	LastError           string
}

// JobReporter exposes background job history.
type JobReporter interface {
	JobRuns() []JobRun
}

// Maintenance inspects the background jobs. A failing or stale job degrades
// the service; reminders are late but requests are still served.
func Maintenance(reporter JobReporter, maxAge time.Duration) monitoring.Check {
	if maxAge <= 0 {
		maxAge = defaultMaintenanceMaxAge
	}
	return monitoring.NewOptionalCheck("maintenance", func(context.Context) monitoring.Result {
		if reporter == nil {
			return monitoring.Result{Status: monitoring.StatusDegraded, Details: "scheduler not running"}
		}

		now := time.Now()
		status := monitoring.StatusUp
		var problems []string
		for _, job := range reporter.JobRuns() {
			switch {
			case job.TotalRuns == 0:
				continue
			case job.ConsecutiveFailures > 0:
				status = monitoring.StatusDegraded
				problems = append(problems, job.Job+": "+job.LastError)
			case now.Sub(job.LastRunAt) > maxAge:
				status = monitoring.StatusDegraded
				problems = append(problems, job.Job+": last run "+job.LastRunAt.UTC().Format(time.RFC3339))
			}
		}
		return monitoring.Result{Status: status, Details: strings.Join(problems, "; ")}
	})
}
