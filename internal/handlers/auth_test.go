package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/handlers/testutil"
	"github.com/charlesng35/notula/internal/models"
)

func TestAuthHandler_RegisterLoginAndProfile(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Ada Lovelace",
		"email":    "ADA@Example.com",
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.True(t, resp.Success)
	require.Equal(t, "User registered successfully", resp.Message)

	var registered testutil.LoginResult
	testutil.DecodeInto(t, resp.Data, &registered)
	require.NotEmpty(t, registered.Token)
	require.Equal(t, "ada@example.com", registered.User.Email)
	require.Equal(t, models.RoleUser, registered.User.Role)
	require.NotContains(t, w.Body.String(), "password")

	login := env.Login("ada@example.com", "Secret123")

	w = env.Request(http.MethodGet, "/api/auth/profile", nil, login.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &profile)
	require.Equal(t, registered.User.ID, profile.ID)
	require.Equal(t, "Ada Lovelace", profile.Name)
}

func TestAuthHandler_RegisterDuplicateEmail(t *testing.T) {
	env := testutil.NewEnv(t)
	payload := map[string]string{"name": "Grace", "email": "grace@example.com", "password": "Secret123"}

	w := env.Request(http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.Request(http.MethodPost, "/api/auth/register", payload, "")
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "EMAIL_TAKEN", resp.Error.Code)
}

func TestAuthHandler_RegisterValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "A",
		"email":    "not-an-email",
		"password": "weakpass",
	}, "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	require.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	require.Equal(t, "Validation failed", resp.Message)

	fields := map[string]string{}
	for _, field := range resp.Error.Fields {
		fields[field.Field] = field.Tag
	}
	require.Equal(t, "min", fields["name"])
	require.Equal(t, "email", fields["email"])
	require.Equal(t, "strongpassword", fields["password"])
}

func TestAuthHandler_LoginRejectsWrongPassword(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Linus", models.RoleUser)

	w := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    user.Email,
		"password": "Wrong1234",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestAuthHandler_InvalidJSON(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodPost, "/api/auth/login", "{not json", "")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Equal(t, "BAD_REQUEST", testutil.DecodeResponse(t, w).Error.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Barbara", models.RoleUser)
	token := env.Token(user)

	w := env.Request(http.MethodPut, "/api/auth/change-password", map[string]string{
		"current_password": "Nope12345",
		"new_password":     "Another123",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Equal(t, "INCORRECT_PASSWORD", testutil.DecodeResponse(t, w).Error.Code)

	w = env.Request(http.MethodPut, "/api/auth/change-password", map[string]string{
		"current_password": testutil.DefaultPassword,
		"new_password":     "Another123",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	env.Login(user.Email, "Another123")
}

func TestAuthHandler_ProfileRequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/auth/profile", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
