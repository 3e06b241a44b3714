package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/segyhp/amortization-engine/internal/app"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/job"
	"github.com/segyhp/amortization-engine/internal/logger"
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
	zlog.Info("starting amortization scheduler")

	ctx := context.Background()
	a, err := app.New(ctx, cfg, zlog, cfg.Tracing.ServiceName+"-scheduler")
	if err != nil {
		zlog.Fatal("failed to initialize application", zap.Error(err))
	}

	// Initialize cron scheduler
	location := cfg.GetSchedulerLocation()
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cron.PrintfLogger(zap.NewStdLog(zlog)))),
	)

	autoPost := job.NewAutoPostJob(a.Entries, location, cfg.GetSchedulerRunTimeout(), zlog)
	if _, err := autoPost.Register(c, cfg.Scheduler.Cron); err != nil {
		zlog.Fatal("failed to schedule auto-post job", zap.String("spec", cfg.Scheduler.Cron), zap.Error(err))
	}

	// Start the scheduler
	c.Start()
	zlog.Info("scheduler started", zap.String("spec", cfg.Scheduler.Cron), zap.String("timezone", location.String()))

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down scheduler")
	<-c.Stop().Done()

	if err := a.Close(context.Background()); err != nil {
		zlog.Warn("error while releasing resources", zap.Error(err))
	}
	zlog.Info("scheduler stopped")
}
