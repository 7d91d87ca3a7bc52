package middleware

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/notula/pkg/errors"
	"github.com/charlesng35/notula/pkg/logger"
	"github.com/charlesng35/notula/pkg/response"
)

// Recovery turns a panic into a 500 envelope. Panics caused by a client that
// hung up mid-response are logged but nothing more is written.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log := logger.WithModule("http")
			if brokenPipe(rec) {
				log.Warn("client connection closed", zap.String("path", c.Request.URL.Path), zap.Any("error", rec))
				c.Abort()
				return
			}

			log.Error("panic recovered",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(CtxRequestIDKey)),
				zap.Any("error", rec),
				zap.Stack("stack"),
			)
			response.Error(c, apperrors.ErrInternalServer)
			c.Abort()
		}()
		c.Next()
	}
}

func brokenPipe(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr, &sysErr) {
		return errors.Is(sysErr.Err, syscall.EPIPE) || errors.Is(sysErr.Err, syscall.ECONNRESET)
	}
	return false
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("Route %s not found", c.Request.URL.Path)))
}
