package app

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/charlesng35/notula/internal/auth"
	"github.com/charlesng35/notula/internal/database"
)

// JWTServiceConfig returns the token settings, substituting the default
// lifetime when none is configured.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	cfg := auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: c.JWT.TTL,
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = auth.DefaultAccessTokenTTL
	}
	return cfg
}

// PasswordCost is the bcrypt work factor for new password hashes.
func (c AuthConfig) PasswordCost() int {
	if c.BcryptCost <= 0 {
		return bcrypt.DefaultCost
	}
	return c.BcryptCost
}

// AdminAccount returns the administrator seeded on first start. The email is
// normalised the same way registration normalises it.
func (c AuthConfig) AdminAccount() database.AdminAccount {
	return database.AdminAccount{
		Name:     strings.TrimSpace(c.Admin.Name),
		Email:    strings.ToLower(strings.TrimSpace(c.Admin.Email)),
		Password: c.Admin.Password,
	}
}
