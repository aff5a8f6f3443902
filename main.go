package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tavrezsi/tavrezsi-api/config"
	"github.com/tavrezsi/tavrezsi-api/logger"
	"github.com/tavrezsi/tavrezsi-api/router"
	"github.com/tavrezsi/tavrezsi-api/services"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(logger.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Production: cfg.IsProduction(),
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logr := logger.Named("main")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	logr.Info("starting TávRezsi API server", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(cfg); err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	db := config.GetDB()
	if err := config.MigrateDatabase(db); err != nil {
		logr.Fatal("failed to migrate database", zap.Error(err))
	}
	logr.Info("database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier, err := services.NewNotifierFromConfig(ctx, cfg)
	if err != nil {
		logr.Fatal("failed to initialize notifier", zap.Error(err))
	}
	services.SetNotifier(notifier)

	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSS3Bucket); err != nil {
			logr.Fatal("failed to initialize S3 service", zap.Error(err))
		}
	} else {
		logr.Warn("AWS_S3_BUCKET not set, report exports are disabled")
	}

	go services.CollectDBStats(ctx, db, 15*time.Second)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server is running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
}
