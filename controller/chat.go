package controller

import (
	"net/http"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/ctxkey"
	"github.com/dealmate/agent-backend/common/helper"
	"github.com/dealmate/agent-backend/dto"
	"github.com/dealmate/agent-backend/middleware"
	"github.com/dealmate/agent-backend/relay/model"
	"github.com/dealmate/agent-backend/relay/wrapper"
)

const sseDone = "[DONE]"

// callErrorStatus maps a wrapper failure to an HTTP status.
func callErrorStatus(err error) int {
	var providerErr *wrapper.ProviderError
	switch {
	case errors.Is(err, model.ErrInvalidMessage), errors.Is(err, model.ErrMessagesType):
		return http.StatusBadRequest
	case errors.As(err, &providerErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithCallError(c *gin.Context, err error) {
	middleware.AbortWithError(c, callErrorStatus(err), err)
}

// streamSnapshots relays the cumulative snapshots of resp as SSE "message"
// events, rendering each with render, and ends with a [DONE] event. A failure
// after the first byte can only be reported in-band, as an "error" event.
func streamSnapshots(c *gin.Context, resp *model.ModelResponse, render func(text string) any) {
	lg := gmw.GetLogger(c)
	start := time.Now()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	chunks := 0
	for snapshot, err := range resp.Stream {
		if err != nil {
			lg.Error("stream failed", zap.Error(err), zap.Int("chunks", chunks))
			c.SSEvent("error", gin.H{
				"status":  dto.StatusError,
				"message": helper.MessageWithRequestId(err.Error(), c.GetString(ctxkey.RequestId)),
			})
			c.Writer.Flush()
			return
		}
		if c.Request.Context().Err() != nil {
			lg.Info("client went away, stop streaming", zap.Int("chunks", chunks))
			return
		}

		chunks++
		c.SSEvent("message", render(snapshot.Text))
		c.Writer.Flush()
	}

	c.SSEvent("message", sseDone)
	c.Writer.Flush()
	lg.Debug("stream finished",
		zap.Int("chunks", chunks),
		zap.Int64("elapsed_ms", helper.CalcElapsedTime(start)))
}
