package memory

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSchedule(t *testing.T, s *Store, code string, autoPost bool, periods int) (*domain.AmortizationSchedule, []*domain.AmortizationEntry) {
	t.Helper()
	ctx := context.Background()
	start := calendar.Date(2025, time.January, 1)

	schedule := &domain.AmortizationSchedule{
		ID:           uuid.New(),
		Code:         code,
		Name:         "Schedule " + code,
		StartDate:    start,
		EndDate:      calendar.AddPeriods(start, periods, calendar.Monthly),
		Frequency:    domain.FrequencyMonthly,
		TotalPeriods: periods,
		TotalAmount:  decimal.NewFromInt(int64(periods) * 1000),
		AutoPost:     autoPost,
		Status:       domain.ScheduleStatusActive,
		Version:      1,
	}

	var entries []*domain.AmortizationEntry
	for i := 1; i <= periods; i++ {
		entries = append(entries, &domain.AmortizationEntry{
			ID:           uuid.New(),
			ScheduleID:   schedule.ID,
			PeriodNumber: i,
			DueDate:      calendar.AddPeriods(start, i, calendar.Monthly),
			Amount:       decimal.NewFromInt(1000),
			Status:       domain.EntryStatusPending,
			Version:      1,
		})
	}

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Schedules.Create(ctx, schedule); err != nil {
			return err
		}
		return repos.Entries.CreateBatch(ctx, entries)
	})
	require.NoError(t, err)
	return schedule, entries
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	schedule, entries := seedSchedule(t, s, "PRE-001", true, 3)
	boom := errors.New("ledger down")

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		e, err := repos.Entries.GetByID(ctx, entries[0].ID)
		require.NoError(t, err)
		require.NoError(t, e.MarkPosted(time.Now()))
		require.NoError(t, repos.Entries.Transition(ctx, e, domain.EntryStatusPending))
		require.NoError(t, repos.Entries.AttachJournalReference(ctx, e.ID, "JV-1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Repositories().Entries.GetByID(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusPending, got.Status)
	assert.Nil(t, got.JournalReference)
	assert.Nil(t, got.PostedAt)
	assert.Equal(t, 1, got.Version)
	assert.Equal(t, schedule.Code, got.ScheduleCode)
}

func TestStore_Transition_CompareAndSwap(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, entries := seedSchedule(t, s, "PRE-001", true, 1)
	repos := s.Repositories()

	first, _ := repos.Entries.GetByID(ctx, entries[0].ID)
	second, _ := repos.Entries.GetByID(ctx, entries[0].ID)

	require.NoError(t, first.MarkPosted(time.Now()))
	require.NoError(t, repos.Entries.Transition(ctx, first, domain.EntryStatusPending))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, second.MarkSkipped(time.Now()))
	assert.ErrorIs(t, repos.Entries.Transition(ctx, second, domain.EntryStatusPending), repository.ErrConflict)
}

func TestStore_RowLockHeldUntilUnitEnds(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	schedule, _ := seedSchedule(t, s, "PRE-001", true, 1)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Schedules.GetByIDForUpdate(ctx, schedule.ID)
			close(locked)
			<-release
			return err
		})
	}()

	<-locked
	go func() {
		_ = s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := repos.Schedules.GetByIDForUpdate(ctx, schedule.ID)
			return err
		})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second unit acquired a held row lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("row lock was not released")
	}
}

func TestStore_ConcurrentTransitions_OneWins(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	_, entries := seedSchedule(t, s, "PRE-001", true, 1)

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
				e, err := repos.Entries.GetByID(ctx, entries[0].ID)
				if err != nil {
					return err
				}
				if err := e.MarkPosted(time.Now()); err != nil {
					return err
				}
				return repos.Entries.Transition(ctx, e, domain.EntryStatusPending)
			})
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
}

func TestStore_DeleteCascadesEntries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	schedule, _ := seedSchedule(t, s, "PRE-001", true, 3)
	repos := s.Repositories()

	require.NoError(t, repos.Schedules.Delete(ctx, schedule.ID))

	entries, err := repos.Entries.ListBySchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.ErrorIs(t, repos.Schedules.Delete(ctx, schedule.ID), repository.ErrNotFound)
}

func TestStore_ScheduleQueries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedSchedule(t, s, "PRE-002", true, 2)
	seedSchedule(t, s, "PRE-001", false, 12)
	repos := s.Repositories()

	_, err := s.Repositories().Schedules.GetByCode(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	dup := &domain.AmortizationSchedule{ID: uuid.New(), Code: "PRE-001"}
	assert.ErrorIs(t, repos.Schedules.Create(ctx, dup), repository.ErrDuplicateCode)

	page, total, err := repos.Schedules.List(ctx, domain.ScheduleFilter{Search: "pre-00"}, domain.PageRequest{Page: 0, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 1)
	assert.Equal(t, "PRE-001", page[0].Code)

	active, err := repos.Schedules.ListActiveForDate(ctx, calendar.Date(2025, time.June, 1))
	require.NoError(t, err)
	require.Len(t, active, 1, "PRE-002 ended on 2025-03-01")
	assert.Equal(t, "PRE-001", active[0].Code)
}

func TestStore_ListPendingDueBy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedSchedule(t, s, "B-AUTO", true, 3)
	seedSchedule(t, s, "A-MANUAL", false, 3)
	repos := s.Repositories()

	asOf := calendar.Date(2025, time.March, 1)

	all, err := repos.Entries.ListPendingDueBy(ctx, asOf, false)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "A-MANUAL", all[0].ScheduleCode, "same due date orders by schedule code")
	assert.Equal(t, "B-AUTO", all[1].ScheduleCode)

	auto, err := repos.Entries.ListPendingDueBy(ctx, asOf, true)
	require.NoError(t, err)
	assert.Len(t, auto, 2)
	for _, e := range auto {
		assert.Equal(t, "B-AUTO", e.ScheduleCode)
	}
}

func TestStore_AssetsForPeriod(t *testing.T) {
	s := NewStore()
	disposed := calendar.Date(2024, time.June, 30)
	s.AddAsset(domain.FixedAsset{Code: "FA-2", PurchaseDate: calendar.Date(2023, time.January, 1)})
	s.AddAsset(domain.FixedAsset{Code: "FA-1", PurchaseDate: calendar.Date(2024, time.January, 1)})
	s.AddAsset(domain.FixedAsset{Code: "FA-3", PurchaseDate: calendar.Date(2026, time.January, 1)})
	s.AddAsset(domain.FixedAsset{Code: "FA-4", PurchaseDate: calendar.Date(2020, time.January, 1), DisposalDate: &disposed})

	assets, err := s.Repositories().Assets.ListForPeriod(context.Background(),
		calendar.Date(2025, time.January, 1), calendar.Date(2025, time.December, 31))
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "FA-1", assets[0].Code)
	assert.Equal(t, "FA-2", assets[1].Code)
}

func TestStore_Configs(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()

	_, err := repos.Configs.GetFirst(ctx)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	cfg := domain.NewDefaultCompanyConfig(time.Now())
	require.NoError(t, repos.Configs.Create(ctx, cfg))
	assert.Equal(t, int64(1), cfg.ID)

	cfg.FiscalYearStartMonth = 4
	require.NoError(t, repos.Configs.Update(ctx, cfg))

	got, err := repos.Configs.GetFirst(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.FiscalYearStartMonth)
}

func TestStore_ListPageBeyondResults(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedSchedule(t, s, "PRE-001", false, 2)
	seedSchedule(t, s, "PRE-002", false, 2)

	tests := []struct {
		name string
		page domain.PageRequest
	}{
		{name: "past the last page", page: domain.PageRequest{Page: 5, Size: 10}},
		{name: "overflowing offset", page: domain.PageRequest{Page: math.MaxInt / 50, Size: 100}},
		{name: "normalized huge page", page: domain.PageRequest{Page: math.MaxInt, Size: 100}.Normalize()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, total, err := s.Repositories().Schedules.List(ctx, domain.ScheduleFilter{}, tt.page)
			require.NoError(t, err)
			assert.Equal(t, 2, total)
			assert.Empty(t, page)
		})
	}
}
