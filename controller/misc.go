package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common"
	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/graceful"
	"github.com/dealmate/agent-backend/relay/wrapper"
)

// GetRoot is the liveness probe the front-end pings.
func GetRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "Dealmate agent backend is running",
	})
}

// GetStatus reports the build and the configured providers.
func GetStatus(c *gin.Context) {
	status := http.StatusOK
	if graceful.IsDraining() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":  "ok",
		"version": common.Version,
		"data": gin.H{
			"start_time":       common.StartTime,
			"agent_provider":   config.AgentProvider,
			"providers":        wrapper.Providers(),
			"openai_model":     config.OpenAIChatModel,
			"dashscope_model":  config.DashScopeModel,
			"transcribe_model": config.OpenAITranscribeModel,
			"draining":         graceful.IsDraining(),
			"in_flight":        graceful.InFlight(),
		},
	})
}
