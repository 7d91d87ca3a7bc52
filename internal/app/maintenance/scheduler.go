// Package maintenance runs the background jobs: reminder emails for scheduled
// notifications, reminders for action items nearing their due date, and
// purging of expired notifications.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/monitoring/checks"
	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/metrics"
)

const (
	defaultReminderSpec   = "@every 5m"
	defaultActionItemSpec = "@hourly"
	defaultPurgeSpec      = "@daily"
	defaultActionWindow   = 24 * time.Hour
	defaultBatchSize      = 100

	jobReminders   = "meeting_reminders"
	jobActionItems = "action_item_reminders"
	jobPurge       = "purge_notifications"
)

// Scheduler coordinates the notification background jobs on a cron schedule.
type Scheduler struct {
	db            *gorm.DB
	notifications *services.NotificationService
	minutes       *services.MinutesService
	email         *services.EmailService
	cron          *cron.Cron
	log           *zap.Logger

	reminderSchedule   string
	actionItemSchedule string
	purgeSchedule      string
	actionWindow       time.Duration
	batchSize          int

	mu   sync.Mutex
	runs map[string]*checks.JobRun
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithReminderSchedule overrides the cron specification for meeting reminders.
func WithReminderSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.reminderSchedule = spec
		}
	}
}

// WithActionItemSchedule overrides the cron specification for action item reminders.
func WithActionItemSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.actionItemSchedule = spec
		}
	}
}

// WithPurgeSchedule overrides the cron specification for purging expired notifications.
func WithPurgeSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.purgeSchedule = spec
		}
	}
}

// WithActionItemWindow sets how far ahead of its due date an action item is reminded.
func WithActionItemWindow(window time.Duration) Option {
	return func(s *Scheduler) {
		if window > 0 {
			s.actionWindow = window
		}
	}
}

// WithBatchSize caps the rows handled per job run.
func WithBatchSize(size int) Option {
	return func(s *Scheduler) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// NewScheduler constructs a Scheduler. The email service may be nil, in which
// case due reminders are only stamped as sent.
func NewScheduler(db *gorm.DB, notifications *services.NotificationService, minutes *services.MinutesService, email *services.EmailService, opts ...Option) (*Scheduler, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}
	if notifications == nil || minutes == nil {
		return nil, errors.New("maintenance: notification and minutes services are required")
	}

	s := &Scheduler{
		db:                 db,
		notifications:      notifications,
		minutes:            minutes,
		email:              email,
		log:                logger.WithModule("maintenance"),
		reminderSchedule:   defaultReminderSpec,
		actionItemSchedule: defaultActionItemSpec,
		purgeSchedule:      defaultPurgeSpec,
		actionWindow:       defaultActionWindow,
		batchSize:          defaultBatchSize,
		runs:               make(map[string]*checks.JobRun),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s, nil
}

// Start registers the jobs with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int64, error)
	}{
		{jobReminders, s.reminderSchedule, s.DispatchReminders},
		{jobActionItems, s.actionItemSchedule, s.RemindActionItems},
		{jobPurge, s.purgeSchedule, s.PurgeExpired},
	}

	for _, job := range jobs {
		job := job
		if _, err := s.cron.AddFunc(job.spec, func() {
			if _, err := job.run(context.Background()); err != nil {
				s.log.Warn("job failed", zap.String("job", job.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s: %w", job.name, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every job sequentially and aggregates their failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if _, err := s.DispatchReminders(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := s.RemindActionItems(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := s.PurgeExpired(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// DispatchReminders emails every due scheduled notification to its recipient
// and stamps it as sent. Failed sends stay pending for the next run. Reminders
// whose meeting or recipient no longer exists are stamped without sending.
func (s *Scheduler) DispatchReminders(ctx context.Context) (int64, error) {
	due, err := s.notifications.DueReminders(ctx, s.batchSize)
	if err != nil {
		return 0, s.record(jobReminders, err)
	}
	if len(due) == 0 {
		return 0, s.record(jobReminders, nil)
	}

	recipients, err := s.recipientEmails(ctx, due)
	if err != nil {
		return 0, s.record(jobReminders, err)
	}

	var (
		errs error
		sent []string
	)
	for _, notification := range due {
		email, ok := recipients[notification.RecipientID]
		if ok && notification.RelatedMeeting != nil {
			if err := s.email.SendMeetingReminder(ctx, notification.RelatedMeeting, email); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
		}
		sent = append(sent, notification.ID)
	}

	if err := s.notifications.MarkSent(ctx, sent); err != nil {
		errs = multierr.Append(errs, err)
	}
	return int64(len(sent)), s.record(jobReminders, errs)
}

// RemindActionItems emails the assignees of open action items due within the window.
func (s *Scheduler) RemindActionItems(ctx context.Context) (int64, error) {
	items, err := s.minutes.DueActionItems(ctx, s.actionWindow, s.batchSize)
	if err != nil {
		return 0, s.record(jobActionItems, err)
	}

	var (
		errs     error
		reminded []string
	)
	for i := range items {
		item := &items[i]
		if err := s.email.SendActionItemReminder(ctx, item, item.AssignedTo.Email); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		reminded = append(reminded, item.ID)
	}

	if err := s.minutes.MarkActionItemsReminded(ctx, reminded); err != nil {
		errs = multierr.Append(errs, err)
	}
	return int64(len(reminded)), s.record(jobActionItems, errs)
}

// PurgeExpired removes notifications past their expiry.
func (s *Scheduler) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.notifications.PurgeExpired(ctx)
	if err == nil && removed > 0 {
		s.log.Info("purged expired notifications", zap.Int64("count", removed))
	}
	return removed, s.record(jobPurge, err)
}

func (s *Scheduler) recipientEmails(ctx context.Context, rows []models.Notification) (map[string]string, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.RecipientID)
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Select("id", "email").
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("maintenance: load recipients: %w", err)
	}

	emails := make(map[string]string, len(users))
	for _, user := range users {
		emails[user.ID] = user.Email
	}
	return emails, nil
}

func (s *Scheduler) record(job string, err error) error {
	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.MaintenanceRuns.WithLabelValues(job, result).Inc()

	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[job]
	if !ok {
		run = &checks.JobRun{Job: job}
		s.runs[job] = run
	}
	run.TotalRuns++
	run.LastRunAt = time.Now()
	if err != nil {
		run.ConsecutiveFailures++
		run.LastError = err.Error()
	} else {
		run.ConsecutiveFailures = 0
		run.LastError = ""
	}
	return err
}

// JobRuns returns the run history of every job that has run at least once,
// ordered by job name.
func (s *Scheduler) JobRuns() []checks.JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]checks.JobRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Job < out[j].Job })
	return out
}
