package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var scheduleColumnNames = []string{
	"id", "code", "name", "description", "schedule_type", "source_account", "target_account",
	"total_amount", "period_amount", "start_date", "end_date", "frequency", "total_periods",
	"completed_periods", "amortized_amount", "remaining_amount", "auto_post", "status", "version",
	"created_at", "updated_at",
}

var entryColumnNames = []string{
	"id", "schedule_id", "schedule_code", "period_number", "period_start", "period_end", "due_date",
	"amount", "status", "journal_reference", "posted_at", "version", "created_at", "updated_at",
}

func sampleSchedule() *domain.AmortizationSchedule {
	now := time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)
	return &domain.AmortizationSchedule{
		ID:              uuid.New(),
		Code:            "PRE-2025-001",
		Name:            "Office rent",
		ScheduleType:    domain.ScheduleTypePrepaidExpense,
		SourceAccount:   "1-1500",
		TargetAccount:   "6-1100",
		TotalAmount:     decimal.NewFromInt(1_200_000),
		PeriodAmount:    decimal.NewFromInt(100_000),
		StartDate:       calendar.Date(2025, time.January, 1),
		EndDate:         calendar.Date(2026, time.January, 1),
		Frequency:       domain.FrequencyMonthly,
		TotalPeriods:    12,
		AmortizedAmount: decimal.Zero,
		RemainingAmount: decimal.NewFromInt(1_200_000),
		AutoPost:        true,
		Status:          domain.ScheduleStatusActive,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func scheduleRow(s *domain.AmortizationSchedule) *sqlmock.Rows {
	return sqlmock.NewRows(scheduleColumnNames).AddRow(
		s.ID.String(), s.Code, s.Name, s.Description, string(s.ScheduleType), s.SourceAccount, s.TargetAccount,
		s.TotalAmount.String(), s.PeriodAmount.String(), s.StartDate, s.EndDate, string(s.Frequency), s.TotalPeriods,
		s.CompletedPeriods, s.AmortizedAmount.String(), s.RemainingAmount.String(), s.AutoPost, string(s.Status), s.Version,
		s.CreatedAt, s.UpdatedAt,
	)
}

func TestScheduleRepository_Create(t *testing.T) {
	t.Run("inserts every column", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)
		s := sampleSchedule()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO amortization_schedules")).
			WithArgs(s.ID, s.Code, s.Name, s.Description, s.ScheduleType, s.SourceAccount, s.TargetAccount,
				s.TotalAmount, s.PeriodAmount, s.StartDate, s.EndDate, s.Frequency, s.TotalPeriods,
				s.CompletedPeriods, s.AmortizedAmount, s.RemainingAmount, s.AutoPost, s.Status, s.Version,
				s.CreatedAt, s.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(context.Background(), s))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation is a duplicate code", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO amortization_schedules")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "amortization_schedules_code_key"})

		err := repo.Create(context.Background(), sampleSchedule())
		assert.ErrorIs(t, err, ErrDuplicateCode)
	})
}

func TestScheduleRepository_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)
		s := sampleSchedule()

		mock.ExpectQuery(regexp.QuoteMeta("FROM amortization_schedules WHERE id = $1")).
			WithArgs(s.ID).
			WillReturnRows(scheduleRow(s))

		got, err := repo.GetByID(context.Background(), s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, s.Code, got.Code)
		assert.Equal(t, domain.ScheduleTypePrepaidExpense, got.ScheduleType)
		assert.True(t, s.TotalAmount.Equal(got.TotalAmount))
		assert.Equal(t, 12, got.TotalPeriods)
		assert.True(t, got.AutoPost)
	})

	t.Run("missing row maps to ErrNotFound", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)

		mock.ExpectQuery(regexp.QuoteMeta("FROM amortization_schedules WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(scheduleColumnNames))

		_, err := repo.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestScheduleRepository_GetByIDForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)
	s := sampleSchedule()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 FOR UPDATE")).
		WithArgs(s.ID).
		WillReturnRows(scheduleRow(s))

	_, err := repo.GetByIDForUpdate(context.Background(), s.ID)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)
	s := sampleSchedule()
	status := domain.ScheduleStatusActive

	filter := domain.ScheduleFilter{Status: &status, Search: "  Rent "}

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM amortization_schedules WHERE status = $1 AND (LOWER(code) LIKE $2 OR LOWER(name) LIKE $2 OR LOWER(description) LIKE $2)")).
		WithArgs("ACTIVE", "%rent%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY code LIMIT $3 OFFSET $4")).
		WithArgs("ACTIVE", "%rent%", 20, 20).
		WillReturnRows(scheduleRow(s))

	items, total, err := repo.List(context.Background(), filter, domain.PageRequest{Page: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleFilterClause(t *testing.T) {
	from := calendar.Date(2025, time.January, 1)
	typ := domain.ScheduleTypeUnearnedRevenue

	tests := []struct {
		name          string
		filter        domain.ScheduleFilter
		expectedWhere string
		expectedArgs  int
	}{
		{name: "empty filter", filter: domain.ScheduleFilter{}, expectedWhere: "", expectedArgs: 0},
		{name: "blank search ignored", filter: domain.ScheduleFilter{Search: "   "}, expectedWhere: "", expectedArgs: 0},
		{
			name:          "type and start",
			filter:        domain.ScheduleFilter{ScheduleType: &typ, StartFrom: &from},
			expectedWhere: " WHERE schedule_type = $1 AND start_date >= $2",
			expectedArgs:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := scheduleFilterClause(tt.filter)
			assert.Equal(t, tt.expectedWhere, where)
			assert.Len(t, args, tt.expectedArgs)
		})
	}
}

func TestScheduleRepository_Update(t *testing.T) {
	t.Run("matching version bumps it", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)
		s := sampleSchedule()

		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND version = $2")).
			WithArgs(s.ID, 1, s.Name, s.Description, s.AutoPost, s.Status, s.CompletedPeriods,
				s.AmortizedAmount, s.RemainingAmount, s.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(context.Background(), s))
		assert.Equal(t, 2, s.Version)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewScheduleRepository(db)
		s := sampleSchedule()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE amortization_schedules")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(context.Background(), s)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 1, s.Version)
	})
}

func TestScheduleRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewScheduleRepository(db)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM amortization_schedules WHERE id = $1")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
}

func TestEntryRepository_ListPendingDueBy(t *testing.T) {
	asOf := calendar.Date(2025, time.March, 1)
	scheduleID := uuid.New()

	tests := []struct {
		name         string
		autoPostOnly bool
		expectedSQL  string
		expectedArgs []any
	}{
		{
			name:         "all schedules",
			expectedSQL:  "WHERE e.status = $1 AND e.due_date <= $2 ORDER BY e.due_date, s.code, e.period_number",
			expectedArgs: []any{"PENDING", asOf},
		},
		{
			name:         "auto-post schedules only",
			autoPostOnly: true,
			expectedSQL:  "AND s.auto_post = TRUE AND s.status = $3 ORDER BY e.due_date, s.code, e.period_number",
			expectedArgs: []any{"PENDING", asOf, "ACTIVE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewEntryRepository(db)

			args := make([]driver.Value, len(tt.expectedArgs))
			for i, a := range tt.expectedArgs {
				args[i] = a
			}

			mock.ExpectQuery(regexp.QuoteMeta(tt.expectedSQL)).
				WithArgs(args...).
				WillReturnRows(sqlmock.NewRows(entryColumnNames).AddRow(
					uuid.New().String(), scheduleID.String(), "PRE-2025-001", 1,
					calendar.Date(2025, time.January, 1), calendar.Date(2025, time.January, 31), calendar.Date(2025, time.February, 1),
					"100000.00", "PENDING", nil, nil, 1, asOf, asOf,
				))

			entries, err := repo.ListPendingDueBy(context.Background(), asOf, tt.autoPostOnly)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, "PRE-2025-001", entries[0].ScheduleCode)
			assert.Equal(t, domain.EntryStatusPending, entries[0].Status)
			assert.Nil(t, entries[0].PostedAt)
			assert.Nil(t, entries[0].JournalReference)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEntryRepository_Transition(t *testing.T) {
	postedAt := time.Date(2025, time.February, 1, 10, 0, 0, 0, time.UTC)

	newEntry := func() *domain.AmortizationEntry {
		return &domain.AmortizationEntry{
			ID:        uuid.New(),
			Status:    domain.EntryStatusPosted,
			PostedAt:  &postedAt,
			Version:   3,
			UpdatedAt: postedAt,
		}
	}

	t.Run("claims pending row", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewEntryRepository(db)
		e := newEntry()

		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND status = $2 AND version = $3")).
			WithArgs(e.ID, "PENDING", 3, "POSTED", postedAt, nil, postedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Transition(context.Background(), e, domain.EntryStatusPending))
		assert.Equal(t, 4, e.Version)
	})

	t.Run("lost race is a conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewEntryRepository(db)
		e := newEntry()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE amortization_entries")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Transition(context.Background(), e, domain.EntryStatusPending)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, e.Version)
	})
}

func TestEntryRepository_Summarize(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewEntryRepository(db)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM amortization_entries")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"pending", "posted", "skipped", "posted_amount"}).
			AddRow(9, 2, 1, "200000.00"))

	summary, err := repo.Summarize(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 9, summary.Pending)
	assert.Equal(t, 2, summary.Posted)
	assert.Equal(t, 1, summary.Skipped)
	assert.True(t, decimal.NewFromInt(200_000).Equal(summary.PostedAmount))
}

func TestAssetRepository_ListForPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAssetRepository(db)
	from := calendar.Date(2025, time.January, 1)
	to := calendar.Date(2025, time.December, 31)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE purchase_date <= $2 AND (disposal_date IS NULL OR disposal_date >= $1)")).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "name", "category_name", "purchase_date", "purchase_cost", "salvage_value",
			"useful_life_years", "depreciation_method", "status", "disposal_date",
		}).AddRow(uuid.New().String(), "FA-001", "Laptop", "Computer", calendar.Date(2023, time.January, 1),
			"12000000.00", "0.00", 5, "STRAIGHT_LINE", "ACTIVE", nil))

	assets, err := repo.ListForPeriod(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, domain.DepreciationStraightLine, assets[0].DepreciationMethod)
	assert.Nil(t, assets[0].DisposalDate)
}

func TestCompanyConfigRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCompanyConfigRepository(db)
	cfg := domain.NewDefaultCompanyConfig(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO company_configs")).
		WithArgs(cfg.CompanyName, 1, "IDR", cfg.CreatedAt, cfg.UpdatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	require.NoError(t, repo.Create(context.Background(), cfg))
	assert.Equal(t, int64(1), cfg.ID)
}

func TestPostgresStore_WithinTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresStore(db)

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM amortization_schedules")).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := store.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
			return repos.Schedules.Delete(ctx, uuid.New())
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgresStore(db)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithinTx(context.Background(), func(ctx context.Context, repos Repositories) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
