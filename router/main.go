package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/logger"
	"github.com/dealmate/agent-backend/controller"
	"github.com/dealmate/agent-backend/middleware"
)

// SetRouter mounts every route on server.
func SetRouter(server *gin.Engine) {
	server.Use(middleware.CORS())

	server.GET("/", controller.GetRoot)
	server.GET("/status", controller.GetStatus)
	if config.EnablePrometheusMetrics {
		server.GET("/metrics", gin.WrapH(promhttp.Handler()))
		logger.Logger.Info("Prometheus metrics endpoint available at /metrics")
	}

	SetAgentRouter(server)
}

// SetAgentRouter mounts the POST routes that call upstream providers.
func SetAgentRouter(server *gin.Engine) {
	agentRouter := server.Group("")
	agentRouter.Use(middleware.TrackInFlight(), middleware.RelayPanicRecover())
	{
		agentRouter.POST("/run-agent", controller.RunAgent)
		agentRouter.POST("/transcribe", controller.Transcribe)
		// gzip would buffer SSE, so only the bulky non-streaming table response gets it
		agentRouter.POST("/parse_xlsx", gzip.Gzip(gzip.DefaultCompression), controller.ParseXLSX)
		agentRouter.POST("/memo", controller.DraftMemo)
	}
}
