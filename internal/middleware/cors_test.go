package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins...))
	r.GET("/api/meetings", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestCORS(t *testing.T) {
	cases := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		status      int
		allowOrigin string
		credentials string
	}{
		{"preflight any origin", nil, http.MethodOptions, "", http.StatusNoContent, "*", ""},
		{"simple any origin", []string{"*"}, http.MethodGet, "https://x.example.com", http.StatusOK, "*", ""},
		{"configured origin", []string{"https://app.example.com/"}, http.MethodGet, "https://APP.example.com", http.StatusOK, "https://APP.example.com", "true"},
		{"foreign origin", []string{"https://app.example.com"}, http.MethodGet, "https://evil.example.com", http.StatusOK, "", ""},
		{"foreign preflight", []string{"https://app.example.com"}, http.MethodOptions, "https://evil.example.com", http.StatusNoContent, "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/meetings", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			corsRouter(tc.origins...).ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.allowOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSExposesExportHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	corsRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/meetings", nil))

	exposed := w.Header().Get("Access-Control-Expose-Headers")
	require.Contains(t, exposed, "Content-Disposition")
	require.Contains(t, exposed, "X-Page-Count")
	require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}
