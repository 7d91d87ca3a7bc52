package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/charlesng35/notula/internal/auth"
	"github.com/charlesng35/notula/internal/database"
)

const sampleConfig = `
server:
  port: 9090
  log_format: console
  cors:
    origins:
      - https://app.example.com
  rate_limit:
    rps: 2.5
    burst: 5
database:
  driver: postgres
  postgres:
    host: db.example.com
    port: 5433
    database: notula
    username: notula
    password: secret
    options:
      sslmode: require
auth:
  jwt:
    secret: jwt-secret
    access_token_ttl: 30m
  admin:
    email: admin@example.com
    password: Admin123
email:
  smtp:
    enabled: true
    host: smtp.example.com
    port: 2525
    username: smtp-user
    password: smtp-pass
    from: no-reply@example.com
    timeout: 15s
notifications:
  reminder_lead: 12h
  action_item_window: 48h
  purge_schedule: "0 3 * * *"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "console", cfg.Server.LogFormat)
	require.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORS.Origins)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.InDelta(t, 2.5, cfg.Server.RateLimit.RPS, 0.001)
	require.Equal(t, 5, cfg.Server.RateLimit.Burst)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, 30*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, "admin@example.com", cfg.Auth.Admin.Email)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.True(t, cfg.Email.SMTP.UseTLS)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.Equal(t, 12*time.Hour, cfg.Notifications.ReminderLead)
	require.Equal(t, 48*time.Hour, cfg.Notifications.ActionItemWindow)
	require.Equal(t, "@every 5m", cfg.Notifications.ReminderSchedule)
	require.Equal(t, "0 3 * * *", cfg.Notifications.PurgeSchedule)
	require.Equal(t, 100, cfg.Notifications.BatchSize)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	file := filepath.Join(dir, "notula-prod.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sampleConfig), 0o600))

	cfg, err := LoadConfigFile(file)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres", cfg.Database.Driver)

	_, err = LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "config: read file")
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 5000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/notula.sqlite", cfg.Database.Path)
	require.Equal(t, 24*time.Hour, cfg.Notifications.ReminderLead)
	require.Equal(t, 168*time.Hour, cfg.Auth.JWT.TTL)
	require.False(t, cfg.Email.SMTP.Enabled)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NOTULA_SERVER_PORT", "7070")
	t.Setenv("NOTULA_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "from-env", cfg.Auth.JWT.Secret)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NOTULA_SERVER_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("NOTULA_SERVER_LOG_LEVEL") })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Server.LogLevel)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
		Admin:      AdminSettings{Name: " Admin ", Email: " Admin@Example.com", Password: "Admin123"},
		BcryptCost: 12,
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())
	require.Equal(t, database.AdminAccount{Name: "Admin", Email: "admin@example.com", Password: "Admin123"}, cfg.AdminAccount())

	require.Equal(t, 12, cfg.PasswordCost())

	var empty AuthConfig
	require.Equal(t, auth.DefaultAccessTokenTTL, empty.JWTServiceConfig().AccessTokenTTL)
	require.Equal(t, bcrypt.DefaultCost, empty.PasswordCost())
}

func TestDatabaseConnectionConfig(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		Path:     "ignored.sqlite",
		Postgres: DBAuthConfig{Host: "pg"},
		MySQL: DBAuthConfig{
			Host:     "mysql.internal",
			Port:     3307,
			Database: "notula",
			Username: "app",
			Password: "pw",
		},
		MaxOpenConns: 10,
	}

	conn := cfg.ConnectionConfig()
	require.Equal(t, "mysql", conn.Driver)
	require.Equal(t, "mysql.internal", conn.Host)
	require.Equal(t, 3307, conn.Port)
	require.Equal(t, "notula", conn.Name)
	require.Equal(t, "app", conn.User)
	require.Equal(t, 10, conn.MaxOpenConns)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite", Postgres: DBAuthConfig{Host: "pg"}}.ConnectionConfig()
	require.Equal(t, "./data/x.sqlite", sqlite.Path)
	require.Empty(t, sqlite.Host)
}

func TestEmailConfigAdapter(t *testing.T) {
	cfg := EmailConfig{
		SMTP: SMTPConfig{
			Enabled:  true,
			Host:     " smtp.example.com ",
			Port:     2525,
			Username: "user",
			Password: "pass",
			From:     "no-reply@example.com",
			UseTLS:   true,
			Timeout:  10 * time.Second,
		},
	}

	settings := cfg.SMTPSettings()
	require.True(t, settings.Enabled)
	require.Equal(t, "smtp.example.com", settings.Host)
	require.Equal(t, 2525, settings.Port)
	require.Equal(t, "user", settings.Username)
	require.Equal(t, "pass", settings.Password)
	require.Equal(t, "no-reply@example.com", settings.From)
	require.True(t, settings.UseTLS)
	require.Equal(t, 10*time.Second, settings.Timeout)
}

func TestEmailConfigValidate(t *testing.T) {
	require.NoError(t, EmailConfig{}.Validate())

	cfg := EmailConfig{SMTP: SMTPConfig{Enabled: true, Port: 587, From: "no-reply@example.com"}}
	require.ErrorContains(t, cfg.Validate(), "email.smtp.host")

	cfg.SMTP.Host = "smtp.example.com"
	cfg.SMTP.From = " "
	require.ErrorContains(t, cfg.Validate(), "email.smtp.from")

	cfg.SMTP.From = "no-reply@example.com"
	cfg.SMTP.Port = 0
	require.ErrorContains(t, cfg.Validate(), "email.smtp.port")

	cfg.SMTP.Port = 465
	require.NoError(t, cfg.Validate())
}
