//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/ledger"
	"github.com/segyhp/amortization-engine/internal/migration"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/service"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("amortization_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	m, err := migration.New(db.DB, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	return db
}

type recordingPoster struct {
	mu    sync.Mutex
	calls int
}

func (p *recordingPoster) Post(_ context.Context, req ledger.PostingRequest) (*ledger.PostingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return &ledger.PostingResult{JournalReference: "JV-" + req.Reference}, nil
}

func TestPostgresStore_ScheduleLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()

	store := repository.NewPostgresStore(db)
	engine := service.NewScheduleEngine(store, logger)
	poster := &recordingPoster{}
	schedules := service.NewScheduleService(store, engine, validation.New(), logger)
	entries := service.NewEntryService(store, engine, poster, logger)

	resp, err := schedules.Create(ctx, domain.CreateScheduleRequest{
		Code:          "PRE-2025-001",
		Name:          "Sewa Kantor",
		ScheduleType:  domain.ScheduleTypePrepaidExpense,
		SourceAccount: "1-1400",
		TargetAccount: "6-1100",
		TotalAmount:   decimal.NewFromInt(1000000),
		StartDate:     calendar.Date(2025, time.January, 1),
		Frequency:     domain.FrequencyMonthly,
		TotalPeriods:  3,
	})
	require.NoError(t, err)

	_, err = schedules.Create(ctx, domain.CreateScheduleRequest{
		Code: "PRE-2025-001", Name: "Dup", ScheduleType: domain.ScheduleTypePrepaidExpense,
		SourceAccount: "1", TargetAccount: "2", TotalAmount: decimal.NewFromInt(1),
		StartDate: calendar.Date(2025, time.January, 1), Frequency: domain.FrequencyMonthly, TotalPeriods: 1,
	})
	assert.True(t, customError.IsValidation(err))

	stored, err := entries.FindByScheduleID(ctx, resp.Schedule.ID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.True(t, stored[2].Amount.Equal(decimal.RequireFromString("333333.34")))
	assert.Equal(t, "PRE-2025-001", stored[0].ScheduleCode)

	// concurrent posting of one entry
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := entries.PostEntry(context.Background(), stored[0].ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, poster.calls)

	_, err = entries.PostEntry(ctx, stored[1].ID)
	require.NoError(t, err)
	_, err = entries.SkipEntry(ctx, stored[2].ID)
	require.NoError(t, err)

	schedule, err := schedules.FindByID(ctx, resp.Schedule.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleStatusCompleted, schedule.Status)
	assert.Equal(t, 2, schedule.CompletedPeriods)
	assert.True(t, schedule.AmortizedAmount.Equal(decimal.RequireFromString("666666.66")))

	posted, err := entries.FindByID(ctx, stored[0].ID)
	require.NoError(t, err)
	require.NotNil(t, posted.JournalReference)
	assert.Equal(t, "JV-PRE-2025-001-1", *posted.JournalReference)

	err = schedules.Delete(ctx, resp.Schedule.ID)
	assert.True(t, customError.IsInvalidState(err))
}

func TestPostgresStore_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := repository.NewPostgresStore(db)
	engine := service.NewScheduleEngine(store, zap.NewNop())

	schedule := &domain.AmortizationSchedule{
		Code:          "UNR-2025-001",
		Name:          "Langganan",
		ScheduleType:  domain.ScheduleTypeUnearnedRevenue,
		SourceAccount: "2-1300",
		TargetAccount: "4-1100",
		TotalAmount:   decimal.NewFromInt(1200),
		StartDate:     calendar.Date(2025, time.January, 1),
		Frequency:     domain.FrequencyQuarterly,
		TotalPeriods:  4,
	}
	_, err := engine.Activate(ctx, schedule)
	require.NoError(t, err)

	require.NoError(t, store.Repositories().Schedules.Delete(ctx, schedule.ID))

	remaining, err := store.Repositories().Entries.ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	_, err = store.Repositories().Schedules.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPostgresStore_CompanyConfig(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := repository.NewPostgresStore(db)
	configs := service.NewCompanyConfigService(store, validation.New(), zap.NewNop())

	cfg, err := configs.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.FiscalYearStartMonth)

	updated, err := configs.Update(ctx, cfg.ID, domain.UpdateCompanyConfigRequest{CompanyName: "PT Maju", FiscalYearStartMonth: 7, CurrencyCode: "IDR"})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.FiscalYearStartMonth)
}
