package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/helper"
)

// CORS lets browser front-ends call the API from the configured origins.
func CORS() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AddAllowHeaders("Authorization", "Accept", "X-Requested-With")
	cfg.ExposeHeaders = []string{helper.RequestIdKey}
	cfg.MaxAge = 12 * time.Hour
	cfg.AllowCredentials = true

	// credentials rule out a literal "*", so a wildcard echoes the caller's origin
	if len(config.CorsAllowOrigins) == 0 || slices.Contains(config.CorsAllowOrigins, "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = config.CorsAllowOrigins
	}
	return cors.New(cfg)
}
