package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/metrics"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScheduleEngine turns schedule terms into entries and owns the schedule status machine.
type ScheduleEngine struct {
	Store  repository.Store
	Logger *zap.Logger
	Now    func() time.Time
}

func NewScheduleEngine(store repository.Store, logger *zap.Logger) *ScheduleEngine {
	return &ScheduleEngine{
		Store:  store,
		Logger: logger,
		Now:    time.Now,
	}
}

// GenerateEntries emits one PENDING entry per period of schedule.
//
// Entry i is due AddPeriods(start, i) and covers [start+(i-1) periods, due-1 day].
// Every entry but the last gets principal/term truncated to 2 decimals; the
// last gets the remainder so the amounts sum to the principal exactly.
func GenerateEntries(schedule *domain.AmortizationSchedule, now time.Time) []*domain.AmortizationEntry {
	term := schedule.TotalPeriods
	if term <= 0 {
		return nil
	}

	start := calendar.Normalize(schedule.StartDate)
	amount := schedule.TotalAmount.Div(decimal.NewFromInt(int64(term))).Truncate(2)
	allocated := decimal.Zero

	entries := make([]*domain.AmortizationEntry, 0, term)
	for i := 1; i <= term; i++ {
		due := calendar.AddPeriods(start, i, schedule.Frequency)

		entryAmount := amount
		if i == term {
			entryAmount = schedule.TotalAmount.Sub(allocated)
		}
		allocated = allocated.Add(entryAmount)

		entries = append(entries, &domain.AmortizationEntry{
			ID:           uuid.New(),
			ScheduleID:   schedule.ID,
			ScheduleCode: schedule.Code,
			PeriodNumber: i,
			PeriodStart:  calendar.AddPeriods(start, i-1, schedule.Frequency),
			PeriodEnd:    due.AddDate(0, 0, -1),
			DueDate:      due,
			Amount:       entryAmount,
			Status:       domain.EntryStatusPending,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return entries
}

// Generate is GenerateEntries stamped with the engine clock.
func (e *ScheduleEngine) Generate(schedule *domain.AmortizationSchedule) []*domain.AmortizationEntry {
	return GenerateEntries(schedule, e.Now())
}

// ValidateTerms checks the terms a schedule needs before it can be activated.
func ValidateTerms(s *domain.AmortizationSchedule) error {
	switch {
	case s.TotalPeriods <= 0:
		return customError.NewValidationError("total periods must be greater than 0")
	case !s.TotalAmount.IsPositive():
		return customError.NewValidationError("total amount must be greater than 0")
	case s.StartDate.IsZero():
		return customError.NewValidationError("start date is required")
	case !s.Frequency.IsValid():
		return customError.NewValidationError("unsupported frequency: %s", s.Frequency)
	case !s.ScheduleType.IsValid():
		return customError.NewValidationError("unsupported schedule type: %s", s.ScheduleType)
	case s.SourceAccount == "" || s.TargetAccount == "":
		return customError.NewValidationError("source and target accounts are required")
	case s.SourceAccount == s.TargetAccount:
		return customError.NewValidationError("source and target accounts must differ")
	}
	return nil
}

// Activate validates schedule, derives its end date, period amount and
// counters, and stores it with its generated entries in one unit of work.
func (e *ScheduleEngine) Activate(ctx context.Context, schedule *domain.AmortizationSchedule) ([]*domain.AmortizationEntry, error) {
	// 1. Validate terms
	if err := ValidateTerms(schedule); err != nil {
		return nil, err
	}

	// 2. Derive the computed fields
	now := e.Now()
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	schedule.StartDate = calendar.Normalize(schedule.StartDate)
	schedule.EndDate = calendar.AddPeriods(schedule.StartDate, schedule.TotalPeriods, schedule.Frequency)
	schedule.PeriodAmount = schedule.TotalAmount.Div(decimal.NewFromInt(int64(schedule.TotalPeriods))).Truncate(2)
	schedule.CompletedPeriods = 0
	schedule.AmortizedAmount = decimal.Zero
	schedule.RemainingAmount = schedule.TotalAmount
	schedule.Status = domain.ScheduleStatusActive
	schedule.Version = 1
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	// 3. Generate entries
	entries := GenerateEntries(schedule, now)

	// 4. Persist both atomically
	err := e.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Schedules.Create(ctx, schedule); err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				return customError.WrapDuplicateCode(schedule.Code)
			}
			return customError.WrapDatabaseError(err)
		}
		if err := repos.Entries.CreateBatch(ctx, entries); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScheduleTransitions.WithLabelValues("created").Inc()
	e.Logger.Info("schedule activated",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("code", schedule.Code),
		zap.Int("periods", schedule.TotalPeriods),
		zap.String("total_amount", schedule.TotalAmount.StringFixed(2)),
	)

	return entries, nil
}

// Cancel moves an ACTIVE schedule to CANCELLED. Its PENDING entries stay as they are.
func (e *ScheduleEngine) Cancel(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	var schedule *domain.AmortizationSchedule

	err := e.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		s, err := repos.Schedules.GetByIDForUpdate(ctx, id)
		if err != nil {
			return repoError(err, func() error { return customError.WrapScheduleNotFound(id) })
		}

		if err := s.TransitionTo(domain.ScheduleStatusCancelled); err != nil {
			return err
		}
		s.UpdatedAt = e.Now()

		if err := repos.Schedules.Update(ctx, s); err != nil {
			return repoError(err, nil)
		}
		schedule = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScheduleTransitions.WithLabelValues("cancelled").Inc()
	e.Logger.Info("schedule cancelled", zap.String("schedule_id", id.String()), zap.String("code", schedule.Code))

	return schedule, nil
}

// CompleteIfAllPosted locks the schedule row, refreshes its counters from the
// entries and completes it once no entry is PENDING. It must run inside the
// unit of work that changed an entry. The bool reports a transition to COMPLETED.
func (e *ScheduleEngine) CompleteIfAllPosted(ctx context.Context, repos repository.Repositories, scheduleID uuid.UUID) (*domain.AmortizationSchedule, bool, error) {
	schedule, err := repos.Schedules.GetByIDForUpdate(ctx, scheduleID)
	if err != nil {
		return nil, false, repoError(err, func() error { return customError.WrapScheduleNotFound(scheduleID) })
	}

	summary, err := repos.Entries.Summarize(ctx, scheduleID)
	if err != nil {
		return nil, false, customError.WrapDatabaseError(err)
	}

	schedule.CompletedPeriods = summary.Posted
	schedule.AmortizedAmount = summary.PostedAmount
	schedule.RemainingAmount = schedule.TotalAmount.Sub(summary.PostedAmount)

	completed := false
	if schedule.IsActive() && summary.Pending == 0 {
		if err := schedule.TransitionTo(domain.ScheduleStatusCompleted); err != nil {
			return nil, false, err
		}
		completed = true
	}
	schedule.UpdatedAt = e.Now()

	if err := repos.Schedules.Update(ctx, schedule); err != nil {
		return nil, false, repoError(err, nil)
	}

	return schedule, completed, nil
}
