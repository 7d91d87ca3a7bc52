package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/notula/internal/api"
	"github.com/charlesng35/notula/internal/app"
	"github.com/charlesng35/notula/internal/app/maintenance"
	iauth "github.com/charlesng35/notula/internal/auth"
	"github.com/charlesng35/notula/internal/database"
	"github.com/charlesng35/notula/internal/monitoring/checks"
	"github.com/charlesng35/notula/internal/realtime"
	"github.com/charlesng35/notula/internal/services"
	"github.com/charlesng35/notula/pkg/crypto"
	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/mail"
)

const defaultShutdownTimeout = 15 * time.Second

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB        *gorm.DB
	Hub       *realtime.Hub
	Services  *api.Services
	Scheduler *maintenance.Scheduler
	Router    *gin.Engine
}

// bootstrapRuntime initialises the database, services, background jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, seedDemo bool, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}
	crypto.SetCost(cfg.Auth.PasswordCost())

	stack.DB, err = initialiseDatabase(ctx, cfg, seedDemo)
	if err != nil {
		return nil, err
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	emailSvc, err := initialiseEmail(cfg, log)
	if err != nil {
		return nil, err
	}

	stack.Hub = realtime.NewHub(cfg.Server.CORS.Origins...)

	stack.Services, err = api.NewServices(stack.DB, stack.Hub, api.ServiceOptions{
		ReminderLead:          cfg.Notifications.ReminderLead,
		NotificationRetention: cfg.Notifications.Retention,
		Email:                 emailSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise services: %w", err)
	}

	stack.Scheduler, err = maintenance.NewScheduler(
		stack.DB,
		stack.Services.Notifications,
		stack.Services.Minutes,
		emailSvc,
		maintenance.WithReminderSchedule(cfg.Notifications.ReminderSchedule),
		maintenance.WithActionItemSchedule(cfg.Notifications.ActionItemSchedule),
		maintenance.WithPurgeSchedule(cfg.Notifications.PurgeSchedule),
		maintenance.WithActionItemWindow(cfg.Notifications.ActionItemWindow),
		maintenance.WithBatchSize(cfg.Notifications.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("initialise maintenance jobs: %w", err)
	}
	if err := stack.Scheduler.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	stack.Router, err = api.NewRouter(stack.DB, jwtSvc, cfg, stack.Services, stack.Hub, checks.Maintenance(stack.Scheduler, 0))
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Scheduler != nil {
		stopCtx := s.Scheduler.Stop()
		if stopCtx != nil {
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
		}
	}

	// Invitation emails are sent in the background; let them finish before the process exits.
	if s.Services != nil && s.Services.Email != nil {
		s.Services.Email.Wait()
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(ctx context.Context, cfg *app.Config, seedDemo bool) (*gorm.DB, error) {
	dbCfg := cfg.Database.ConnectionConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	seed := database.SeedOptions{Admin: cfg.Auth.AdminAccount(), Demo: seedDemo}
	if err := database.AutoMigrateAndSeed(db.WithContext(ctx), seed); err != nil {
		closeDatabase(db, logger.WithModule("database"))
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))),
		zap.Bool("demo_data", seedDemo),
	)

	return db, nil
}

// initialiseEmail returns nil when SMTP is disabled; the services treat a nil
// EmailService as "no email".
func initialiseEmail(cfg *app.Config, log *zap.Logger) (*services.EmailService, error) {
	if !cfg.Email.SMTP.Enabled {
		log.Info("smtp disabled; emails will not be sent")
		return nil, nil
	}

	mailer, err := mail.NewSMTPMailer(cfg.Email.SMTPSettings())
	if err != nil {
		return nil, fmt.Errorf("initialise smtp mailer: %w", err)
	}
	log.Info("smtp enabled", zap.String("host", cfg.Email.SMTP.Host), zap.Int("port", cfg.Email.SMTP.Port))
	return services.NewEmailService(mailer), nil
}

func shutdownTimeout(cfg *app.Config) time.Duration {
	if cfg != nil && cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return defaultShutdownTimeout
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	if err := database.Close(db); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
