package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/response"
)

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.WarnLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	r := gin.New()
	r.Use(Logger(), Recovery())
	r.GET("/panic", func(*gin.Context) { panic("boom") })
	r.GET("/hangup", func(*gin.Context) {
		panic(&net.OpError{Op: "write", Err: &os.SyscallError{Syscall: "write", Err: syscall.EPIPE}})
	})

	w := serve(r, "/panic")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	payload := decodeEnvelope(t, w)
	require.False(t, payload.Success)
	require.Equal(t, "INTERNAL_SERVER_ERROR", payload.Error.Code)

	panics := logs.FilterMessage("panic recovered").All()
	require.Len(t, panics, 1)
	require.Equal(t, "boom", panics[0].ContextMap()["error"])
	require.NotEmpty(t, panics[0].ContextMap()["request_id"])

	w = serve(r, "/hangup")
	require.Empty(t, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("client connection closed").Len())
}

func TestNotFoundHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.NoRoute(NotFoundHandler)

	w := serve(r, "/missing")
	require.Equal(t, http.StatusNotFound, w.Code)
	payload := decodeEnvelope(t, w)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
	require.Equal(t, "Route /missing not found", payload.Error.Message)
}
