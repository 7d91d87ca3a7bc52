package main

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/charlesng35/notula/internal/app"
	"github.com/charlesng35/notula/internal/models"
)

func memoryConfig(t *testing.T) *app.Config {
	t.Helper()
	cfg := &app.Config{}
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=1"
	cfg.Auth.JWT.Secret = "bootstrap-test-secret"
	cfg.Auth.Admin = app.AdminSettings{Name: "Root", Email: "root@example.com", Password: "Admin1234"}
	return cfg
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--config", "./config", "--seed-demo", "-p", "8080", "--log-level", "debug"})
	require.NoError(t, err)
	require.Equal(t, "./config", opts.ConfigPath)
	require.True(t, opts.SeedDemo)
	require.Equal(t, 8080, opts.Port)
	require.Equal(t, "debug", opts.LogLevel)

	_, err = parseFlags([]string{"--help"})
	require.ErrorIs(t, err, pflag.ErrHelp)

	_, err = parseFlags([]string{"--unknown"})
	require.Error(t, err)
}

func TestEnsureSecretsPresent(t *testing.T) {
	require.Error(t, ensureSecretsPresent(nil))

	cfg := &app.Config{}
	require.Error(t, ensureSecretsPresent(cfg))

	cfg.Auth.JWT.Secret = "  secret  "
	require.NoError(t, ensureSecretsPresent(cfg))
	require.Equal(t, "secret", cfg.Auth.JWT.Secret)

	cfg.Email.SMTP.Enabled = true
	require.Error(t, ensureSecretsPresent(cfg))
	cfg.Email.SMTP.Host = "smtp.example.com"
	cfg.Email.SMTP.Port = 587
	require.ErrorContains(t, ensureSecretsPresent(cfg), "email.smtp.from")
	cfg.Email.SMTP.From = "noreply@example.com"
	require.NoError(t, ensureSecretsPresent(cfg))
}

func TestLoadApplicationConfigMissingPath(t *testing.T) {
	_, err := loadApplicationConfig("/definitely/not/here")
	require.ErrorContains(t, err, "does not exist")
}

func TestInitialiseDatabaseSeedsAdmin(t *testing.T) {
	cfg := memoryConfig(t)

	db, err := initialiseDatabase(context.Background(), cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { closeDatabase(db, zap.NewNop()) })

	var admin models.User
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&admin).Error)
	require.Equal(t, models.RoleAdmin, admin.Role)
}

func TestBootstrapRuntime(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Notifications.ReminderSchedule = "@every 1h"

	stack, err := bootstrapRuntime(context.Background(), cfg, false, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, stack.Router)
	require.NotNil(t, stack.Scheduler)
	require.Nil(t, stack.Services.Email)

	stack.Shutdown(context.Background(), zap.NewNop())
}

func TestBootstrapRuntimeRejectsBadSchedule(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Notifications.PurgeSchedule = "not a cron spec"

	_, err := bootstrapRuntime(context.Background(), cfg, false, zap.NewNop())
	require.Error(t, err)
}

func TestShutdownTimeout(t *testing.T) {
	require.Equal(t, defaultShutdownTimeout, shutdownTimeout(nil))
	require.Equal(t, defaultShutdownTimeout, shutdownTimeout(&app.Config{}))

	cfg := &app.Config{}
	cfg.Server.ShutdownTimeout = 3 * time.Second
	require.Equal(t, 3*time.Second, shutdownTimeout(cfg))
}
