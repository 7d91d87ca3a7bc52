// Package monitoring evaluates dependency probes for the health endpoint.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status is the outcome of a probe or of a whole report.
type Status string

const (
	StatusUp       Status = "up"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Result is the outcome of one probe.
type Result struct {
	Component string        `json:"component"`
	Status    Status        `json:"status"`
	Details   string        `json:"details,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// Report aggregates the results of every registered probe.
type Report struct {
	Status    Status    `json:"status"`
	CheckedAt time.Time `json:"checked_at"`
	Checks    []Result  `json:"checks"`
}

// Healthy reports whether the service can take traffic. Degraded counts as healthy.
func (r Report) Healthy() bool {
	return r.Status != StatusDown
}

// Check is a named dependency probe. A failing optional check only degrades
// the report.
type Check struct {
	Name     string
	Optional bool
	Run      func(ctx context.Context) Result
}

// NewCheck builds a check that takes the service down when it fails.
func NewCheck(name string, fn func(ctx context.Context) Result) Check {
	return Check{Name: name, Run: fn}
}

// NewOptionalCheck builds a check whose failure only degrades the report.
func NewOptionalCheck(name string, fn func(ctx context.Context) Result) Check {
	return Check{Name: name, Optional: true, Run: fn}
}

// HealthManager holds the registered probes.
type HealthManager struct {
	mu     sync.RWMutex
	checks []Check
	now    func() time.Time
}

// NewHealthManager constructs a manager with the given checks.
func NewHealthManager(checks ...Check) *HealthManager {
	m := &HealthManager{now: time.Now}
	for _, check := range checks {
		m.Register(check)
	}
	return m
}

// Register appends a probe. Checks without a name are ignored.
func (m *HealthManager) Register(check Check) {
	if check.Name == "" {
		return
	}
	m.mu.Lock()
	m.checks = append(m.checks, check)
	m.mu.Unlock()
}

// Evaluate runs every probe in registration order.
func (m *HealthManager) Evaluate(ctx context.Context) Report {
	if ctx == nil {
		ctx = context.Background()
	}
	m.mu.RLock()
	checks := append([]Check(nil), m.checks...)
	m.mu.RUnlock()

	report := Report{
		Status:    StatusUp,
		CheckedAt: m.now().UTC(),
		Checks:    make([]Result, 0, len(checks)),
	}
	for _, check := range checks {
		result := runCheck(ctx, check)
		report.Checks = append(report.Checks, result)

		status := result.Status
		if check.Optional && status == StatusDown {
			status = StatusDegraded
		}
		report.Status = worst(report.Status, status)
	}
	return report
}

func runCheck(ctx context.Context, check Check) (result Result) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{Status: StatusDown, Details: fmt.Sprint(rec)}
		}
		result.Component = check.Name
		if result.Status == "" {
			result.Status = StatusDown
		}
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
	}()

	if check.Run == nil {
		return Result{Status: StatusDown, Details: "probe not implemented"}
	}
	return check.Run(ctx)
}

// ResultFromError converts a probe error into a Result. Timeouts degrade
// rather than fail.
func ResultFromError(err error) Result {
	if err == nil {
		return Result{Status: StatusUp}
	}
	status := StatusDown
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		status = StatusDegraded
	}
	return Result{Status: status, Details: err.Error()}
}

func worst(a, b Status) Status {
	if a == StatusDown || b == StatusDown {
		return StatusDown
	}
	if a == StatusDegraded || b == StatusDegraded {
		return StatusDegraded
	}
	return StatusUp
}
