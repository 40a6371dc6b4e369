package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"github.com/dealmate/agent-backend/common"
	"github.com/dealmate/agent-backend/common/client"
	"github.com/dealmate/agent-backend/common/config"
	"github.com/dealmate/agent-backend/common/graceful"
	"github.com/dealmate/agent-backend/common/logger"
	"github.com/dealmate/agent-backend/middleware"
	"github.com/dealmate/agent-backend/relay/adaptor/openai"
	"github.com/dealmate/agent-backend/relay/wrapper"
	"github.com/dealmate/agent-backend/router"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.Init()
	logger.SetupLogger()

	// Setup enhanced logger with alertPusher integration
	logger.SetupEnhancedLogger(ctx)

	logger.Logger.Info("Dealmate agent backend started",
		zap.String("version", common.Version),
		zap.String("agent_provider", config.AgentProvider))

	if config.GinMode != "" {
		gin.SetMode(config.GinMode)
	} else if os.Getenv("GIN_MODE") != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if config.LogRetentionDays > 0 && logger.LogDir != "" {
		graceful.GoCritical(ctx, "log-retention", func(ctx context.Context) {
			logger.StartLogRetentionCleaner(ctx, config.LogRetentionDays, logger.LogDir)
		})
	}

	openai.InitTokenEncoders()
	client.Init()

	if _, err := wrapper.Default(); err != nil {
		logger.Logger.Fatal("invalid AGENT_PROVIDER", zap.Error(err))
	}

	logLevel := glog.LevelInfo
	if config.DebugEnabled {
		logLevel = glog.LevelDebug
	}

	server := gin.New()
	server.RedirectTrailingSlash = false
	server.Use(
		gin.Recovery(),
		gmw.NewLoggerMiddleware(
			gmw.WithLoggerMwColored(),
			gmw.WithLevel(logLevel.String()),
			gmw.WithLogger(logger.Logger.Named("gin")),
		),
	)
	server.Use(middleware.RequestId())
	if config.EnablePrometheusMetrics {
		server.Use(middleware.PrometheusMiddleware())
	}

	router.SetRouter(server)

	port := config.ServerPort
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Logger.Info("server started", zap.String("address", "http://localhost:"+port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	stop()
	logger.Logger.Info("shutdown signal received, draining")
	graceful.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(config.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("server shutdown failed", zap.Error(err))
	}
	if err := graceful.Drain(shutdownCtx); err != nil {
		logger.Logger.Error("drain incomplete", zap.Error(err))
	}
	logger.Logger.Info("server exited")
}
