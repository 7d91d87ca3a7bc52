package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/notula/internal/database"
	"github.com/charlesng35/notula/internal/handlers/testutil"
)

func TestHealth_ReportsDatabaseState(t *testing.T) {
	env := testutil.NewEnv(t)

	for _, path := range []string{"/health", "/api/health"} {
		w := env.Request(http.MethodGet, path, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := w.Body.String()
		require.Contains(t, body, `"component":"database","status":"up"`)
		require.Contains(t, body, `"component":"realtime","status":"up"`)
		require.Contains(t, body, `"status":"up","checked_at"`)
	}

	require.NoError(t, database.Close(env.DB))

	w := env.Request(http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	require.Equal(t, "Unavailable: database", resp.Error.Message)
}

func TestNotFoundEnvelope(t *testing.T) {
	env := testutil.NewEnv(t)

	w := env.Request(http.MethodGet, "/api/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	resp := testutil.DecodeResponse(t, w)
	require.False(t, resp.Success)
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}
