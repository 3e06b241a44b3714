// Package app wires configuration into the stores, collaborators and services
// shared by the server and scheduler binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/amortization-engine/internal/config"
	"github.com/segyhp/amortization-engine/internal/ledger"
	"github.com/segyhp/amortization-engine/internal/migration"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/service"
	"github.com/segyhp/amortization-engine/internal/tracing"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"go.uber.org/zap"
)

const Version = "1.0.0"

// App holds the long-lived dependencies of one process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	// Redis is nil when REDIS_URL is unset.
	Redis *redis.Client

	Schedules *service.ScheduleService
	Entries   *service.EntryService
	Configs   *service.CompanyConfigService
	Reports   *service.ReportService

	shutdownTracing func(context.Context) error
}

// New connects to PostgreSQL and redis, applies migrations when enabled and
// builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, serviceName string) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	shutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}
	a.shutdownTracing = shutdown

	// Initialize database
	if a.DB, err = initDB(ctx, cfg); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		m, err := migration.New(a.DB.DB, logger)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		if err := m.Up(); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}

	// Initialize Redis
	if cfg.Redis.URL != "" {
		if a.Redis, err = initRedis(ctx, cfg); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
	}

	poster, err := a.poster()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	store := repository.NewPostgresStore(a.DB)
	validate := validation.New()
	engine := service.NewScheduleEngine(store, logger)

	a.Schedules = service.NewScheduleService(store, engine, validate, logger)
	a.Entries = service.NewEntryService(store, engine, poster, logger)
	a.Configs = service.NewCompanyConfigService(store, validate, logger)
	a.Reports = service.NewReportService(a.Configs, store.Repositories().Assets, logger)

	return a, nil
}

// poster picks the ledger collaborator and guards it with redis when available.
func (a *App) poster() (ledger.Poster, error) {
	var (
		poster ledger.Poster
		err    error
	)
	if a.Config.Ledger.URL != "" {
		poster = ledger.NewHTTPPoster(a.Config.Ledger.URL, a.Config.GetLedgerTimeout())
		a.Logger.Info("posting to ledger service", zap.String("url", a.Config.Ledger.URL))
	} else {
		poster, err = ledger.NewLogPoster(a.Config.Ledger.NodeID, a.Logger)
		if err != nil {
			return nil, err
		}
		a.Logger.Warn("LEDGER_URL not set, journal postings are only logged")
	}

	if a.Redis == nil {
		return poster, nil
	}
	store := ledger.NewRedisIdempotencyStore(a.Redis, "")
	return ledger.NewIdempotentPoster(poster, store, a.Config.GetPostingTTL(), a.Logger), nil
}

// Close releases every connection New opened. It is safe on a partial App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.shutdownTracing != nil {
		errs = append(errs, a.shutdownTracing(ctx))
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func initDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
