package middleware

import (
	"context"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/common/helper"
)

// AbortWithError aborts the request with a {"status":"error","message":...} body.
func AbortWithError(c *gin.Context, statusCode int, err error) {
	logger := gmw.GetLogger(c)
	if ignoreServerError(err) {
		logger.Warn("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	} else {
		logger.Error("server abort",
			zap.Int("status_code", statusCode),
			zap.Error(err))
	}

	c.JSON(statusCode, gin.H{
		"status":  "error",
		"message": helper.MessageWithRequestId(err.Error(), c.GetString(ctxkey.RequestId)),
	})
	c.Abort()
}

// AbortWithMissing aborts a request that lacks required input with an {"error":...} body.
func AbortWithMissing(c *gin.Context, statusCode int, message string) {
	gmw.GetLogger(c).Debug("reject request", zap.Int("status_code", statusCode), zap.String("reason", message))
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// ignoreServerError reports failures caused by the client going away.
func ignoreServerError(err error) bool {
	return errors.Is(err, context.Canceled)
}
