package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRuntimeDefaultsFillsEmptyConfig(t *testing.T) {
	cfg := &Config{}

	adjusted, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"auth.jwt.secret"}, adjusted.Generated)
	require.Empty(t, adjusted.Disabled)
	require.Len(t, cfg.Auth.JWT.Secret, 64)
	require.Equal(t, "notula", cfg.Auth.JWT.Issuer)
}

func TestApplyRuntimeDefaultsKeepsConfiguredValues(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = "configured"
	cfg.Auth.JWT.Issuer = " minutes-api "
	cfg.Server.RateLimit = RateLimitConfig{Enabled: true, RPS: 5, Burst: 10}

	adjusted, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Empty(t, adjusted.Generated)
	require.Empty(t, adjusted.Disabled)
	require.Equal(t, "configured", cfg.Auth.JWT.Secret)
	require.Equal(t, "minutes-api", cfg.Auth.JWT.Issuer)
	require.True(t, cfg.Server.RateLimit.Enabled)
}

func TestApplyRuntimeDefaultsDisablesZeroRateLimit(t *testing.T) {
	cfg := &Config{}
	cfg.Auth.JWT.Secret = "configured"
	cfg.Server.RateLimit = RateLimitConfig{Enabled: true, Burst: 10}

	adjusted, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{"server.rate_limit"}, adjusted.Disabled)
	require.False(t, cfg.Server.RateLimit.Enabled)
}

func TestApplyRuntimeDefaultsNilConfig(t *testing.T) {
	_, err := ApplyRuntimeDefaults(nil)
	require.EqualError(t, err, "config is nil")
}
