package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/common/helper"
	"github.com/dealmate/agent-backend/common/logger"
)

// RelayPanicRecover turns a handler panic into the usual error body.
func RelayPanicRecover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Logger.Error("panic detected",
					zap.Any("panic", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(ctxkey.RequestId)))
				c.JSON(http.StatusInternalServerError, gin.H{
					"status": "error",
					"message": helper.MessageWithRequestId(
						fmt.Sprintf("panic detected, error: %v", err), c.GetString(ctxkey.RequestId)),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
