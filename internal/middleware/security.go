package middleware

import "github.com/gin-gonic/gin"

// DefaultContentSecurityPolicy forbids every resource; responses are JSON or PDF only.
const DefaultContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"

var securityHeaders = [][2]string{
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Content-Security-Policy", DefaultContentSecurityPolicy},
	{"Referrer-Policy", "no-referrer"},
	{"Cross-Origin-Resource-Policy", "same-site"},
	// Meeting records and exported minutes must not be kept by shared caches.
	{"Cache-Control", "no-store"},
}

// SecurityHeaders sets hardening headers on every response.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}
