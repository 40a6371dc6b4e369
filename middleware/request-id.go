package middleware

import (
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/common/helper"
)

// RequestId tags the request, its response and its logger with a fresh id.
func RequestId() func(c *gin.Context) {
	return func(c *gin.Context) {
		id := helper.GenRequestID()
		c.Set(ctxkey.RequestId, id)
		c.Header(helper.RequestIdKey, id)
		gmw.SetLogger(c, gmw.GetLogger(c).With(zap.String("request_id", id)))
		c.Next()
	}
}
