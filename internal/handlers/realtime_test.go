package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/handlers/testutil"
	"github.com/charlesng35/notula/internal/models"
	"github.com/charlesng35/notula/internal/realtime"
)

func TestRealtimeHandler_RequiresToken(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/notifications/stream", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/notifications/stream?token=garbage", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestRealtimeHandler_RejectsUnknownStream(t *testing.T) {
	env := testutil.NewEnv(t)
	user := env.CreateUser("Uma", models.RoleUser)

	w := env.Request(http.MethodGet, "/api/notifications/stream?streams=bogus", nil, env.Token(user))
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "Unknown stream bogus")

	w = env.Request(http.MethodGet, "/api/notifications/stream?streams=Notifications,meetings", nil, env.Token(user))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), "Expected a WebSocket upgrade request")
}

func TestRealtimeHandler_DeliversNotifications(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateUser("Ada", models.RoleAdmin)
	user := env.CreateUser("Uma", models.RoleUser)

	server := httptest.NewServer(env.Router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/notifications/stream?token=" + env.Token(user)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return env.Hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	sendNotification(t, env, admin, user, "Live update")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Stream string          `json:"stream"`
		Event  string          `json:"event"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, realtime.StreamNotifications, msg.Stream)
	require.Contains(t, string(msg.Data), "Live update")
}
