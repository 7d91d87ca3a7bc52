package app

import (
	"strings"

	"github.com/charlesng35/notula/internal/database"
)

// ConnectionConfig converts DatabaseConfig into database.Open parameters,
// picking the host block that matches the driver.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:             c.Driver,
		Path:               c.Path,
		DSN:                c.DSN,
		MaxOpenConns:       c.MaxOpenConns,
		MaxIdleConns:       c.MaxIdleConns,
		ConnMaxLifetime:    c.ConnMaxLifetime,
		SlowQueryThreshold: c.SlowQuery,
	}

	var host DBAuthConfig
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql", "mariadb":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = host.Host
	cfg.Port = host.Port
	cfg.User = host.Username
	cfg.Password = host.Password
	cfg.Name = host.Database
	cfg.Options = host.Options
	return cfg
}
