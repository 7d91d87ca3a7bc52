package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/notula/pkg/crypto"
)

const (
	jwtSecretBytes = 48
	defaultIssuer  = "notula"
)

// RuntimeAdjustments lists the configuration keys changed at start-up.
// Generated holds secrets and must only ever be logged by key.
type RuntimeAdjustments struct {
	Generated []string
	Disabled  []string
}

// ApplyRuntimeDefaults fills in what a deployment without a config file
// still needs: a signing secret and a token issuer. A rate limit enabled
// with a non-positive rate would reject every request after the burst, so
// it is switched off instead.
func ApplyRuntimeDefaults(cfg *Config) (RuntimeAdjustments, error) {
	var adjusted RuntimeAdjustments
	if cfg == nil {
		return adjusted, errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return adjusted, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		adjusted.Generated = append(adjusted.Generated, "auth.jwt.secret")
	}

	cfg.Auth.JWT.Issuer = strings.TrimSpace(cfg.Auth.JWT.Issuer)
	if cfg.Auth.JWT.Issuer == "" {
		cfg.Auth.JWT.Issuer = defaultIssuer
	}

	if cfg.Server.RateLimit.Enabled && cfg.Server.RateLimit.RPS <= 0 {
		cfg.Server.RateLimit.Enabled = false
		adjusted.Disabled = append(adjusted.Disabled, "server.rate_limit")
	}

	return adjusted, nil
}
