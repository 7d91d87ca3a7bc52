package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewJWTServiceRequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)
	require.EqualError(t, err, "jwt: secret must be provided")
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "super-secret",
		Issuer:         "notula",
		AccessTokenTTL: time.Hour,
		Clock:          now,
	})
	require.NoError(t, err)

	issued, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123", Role: "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)
	require.True(t, issued.ExpiresAt.Equal(current.Add(time.Hour)))

	claims, err := svc.ValidateAccessToken(issued.Token)
	require.NoError(t, err)

	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "admin", claims.Role)
	require.Equal(t, "notula", claims.Issuer)
	require.True(t, claims.IssuedAt.Time.Equal(current))
	require.True(t, claims.ExpiresAt.Time.Equal(current.Add(time.Hour)))
	require.NotEmpty(t, claims.ID)

	again, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123", Role: "admin"})
	require.NoError(t, err)
	require.NotEqual(t, issued.Token, again.Token)
}

func TestDefaultTTL(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewJWTService(JWTConfig{Secret: "s", Clock: func() time.Time { return current }})
	require.NoError(t, err)

	issued, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "u"})
	require.NoError(t, err)
	require.True(t, issued.ExpiresAt.Equal(current.Add(DefaultAccessTokenTTL)))
}

func TestGenerateRequiresUserID(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)

	_, err = svc.GenerateAccessToken(AccessTokenInput{})
	require.EqualError(t, err, "jwt: user id is required")
}

func TestValidateAccessTokenInvalidSignature(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{
		Secret:         "issuer-secret",
		AccessTokenTTL: time.Minute,
		Clock:          now,
	})
	require.NoError(t, err)

	issued, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{
		Secret:         "other-secret",
		AccessTokenTTL: time.Minute,
		Clock:          now,
	})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestValidateAccessTokenWrongIssuer(t *testing.T) {
	now := func() time.Time { return time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC) }

	issuer, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "elsewhere", Clock: now})
	require.NoError(t, err)
	issued, err := issuer.GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	verifier, err := NewJWTService(JWTConfig{Secret: "shared", Issuer: "notula", Clock: now})
	require.NoError(t, err)

	_, err = verifier.ValidateAccessToken(issued.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
}

func TestValidateAccessTokenExpired(t *testing.T) {
	current := time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	svc, err := NewJWTService(JWTConfig{
		Secret:         "secret",
		AccessTokenTTL: time.Minute,
		Clock:          now,
	})
	require.NoError(t, err)

	issued, err := svc.GenerateAccessToken(AccessTokenInput{UserID: "user-123"})
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)

	_, err = svc.ValidateAccessToken(issued.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
	require.False(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateAccessTokenRejectsMalformed(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "secret"})
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt"} {
		_, err = svc.ValidateAccessToken(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	}

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "u"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}
