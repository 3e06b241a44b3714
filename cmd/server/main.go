package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/segyhp/amortization-engine/internal/app"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/handler"
	"github.com/segyhp/amortization-engine/internal/logger"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	zap.ReplaceGlobals(zlog)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, zlog, cfg.Tracing.ServiceName)
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	var redisClient redis.Cmdable
	if a.Redis != nil {
		redisClient = a.Redis
	}

	validate := validation.New()
	router := handler.NewRouter(handler.Handlers{
		Schedules: handler.NewScheduleHandler(a.Schedules, a.Entries, validate),
		Entries:   handler.NewEntryHandler(a.Entries),
		Reports:   handler.NewReportHandler(a.Reports),
		Config:    handler.NewConfigHandler(a.Configs, validate),
		Health:    handler.NewHealthHandler(a.DB, redisClient, cfg.GetHealthTimeout()),
	}, zlog)

	// Start server
	server := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	// Start server in a goroutine
	go func() {
		zlog.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	if err := a.Close(shutdownCtx); err != nil {
		zlog.Warn("error while releasing resources", zap.Error(err))
	}

	zlog.Info("server exited")
}
