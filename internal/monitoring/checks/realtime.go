package checks

import (
	"context"
	"fmt"

	"github.com/charlesng35/notula/internal/monitoring"
)

// ConnectionCounter is the part of the realtime hub the probe needs.
type ConnectionCounter interface {
	ConnectionCount() int
}

// Realtime reports the number of live websocket subscribers. A missing hub
// degrades the service since notifications still persist without it.
func Realtime(hub ConnectionCounter) monitoring.Check {
	return monitoring.NewOptionalCheck("realtime", func(context.Context) monitoring.Result {
		if hub == nil {
			return monitoring.Result{Status: monitoring.StatusDegraded, Details: "realtime hub unavailable"}
		}
		return monitoring.Result{
			Status:  monitoring.StatusUp,
			Details: fmt.Sprintf("%d connections", hub.ConnectionCount()),
		}
	})
}
