package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/handlers/testutil"
	"github.com/charlesng35/notula/internal/models"
)

func sendNotification(t *testing.T, env *testutil.Env, admin, recipient *models.User, title string) models.Notification {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/notifications", map[string]string{
		"recipient": recipient.ID,
		"type":      models.NotificationGeneral,
		"title":     title,
		"message":   "Please read the updated handbook",
	}, env.Token(admin))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var notification models.Notification
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &notification)
	return notification
}

func TestNotificationHandler_CreateRequiresAdmin(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Uma", models.RoleUser)

	w := env.Request(http.MethodPost, "/api/notifications", map[string]string{
		"recipient": user.ID,
		"title":     "Hello",
		"message":   "World",
	}, env.Token(user))
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
}

func TestNotificationHandler_ReadFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateUser("Ada", models.RoleAdmin)
	user := env.CreateUser("Uma", models.RoleUser)
	other := env.CreateUser("Otto", models.RoleUser)
	token := env.Token(user)

	first := sendNotification(t, env, admin, user, "Handbook")
	sendNotification(t, env, admin, user, "Parking")
	sendNotification(t, env, admin, other, "Not yours")
	require.Equal(t, user.ID, first.RecipientID)
	require.False(t, first.IsRead)

	w := env.Request(http.MethodGet, "/api/notifications/unread-count", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var count struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &count)
	require.EqualValues(t, 2, count.Count)

	w = env.Request(http.MethodPut, "/api/notifications/"+first.ID+"/read", nil, env.Token(other))
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = env.Request(http.MethodPut, "/api/notifications/"+first.ID+"/read", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var read models.Notification
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &read)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	w = env.Request(http.MethodGet, "/api/notifications?unread=true", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var unread []models.Notification
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &unread)
	require.Len(t, unread, 1)
	require.Equal(t, "Parking", unread[0].Title)

	w = env.Request(http.MethodPut, "/api/notifications/read-all", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, w).Data, &updated)
	require.EqualValues(t, 1, updated.Updated)

	w = env.Request(http.MethodDelete, "/api/notifications/"+first.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/notifications", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.EqualValues(t, 1, resp.Pagination.Total)
}
