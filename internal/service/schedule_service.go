package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/metrics"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ScheduleService manages amortization schedules
type ScheduleService struct {
	store     repository.Store
	engine    *ScheduleEngine
	validator *validator.Validate
	logger    *zap.Logger
}

func NewScheduleService(store repository.Store, engine *ScheduleEngine, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		store:     store,
		engine:    engine,
		validator: validate,
		logger:    logger,
	}
}

// Create validates req and activates a new schedule with all of its entries.
func (s *ScheduleService) Create(ctx context.Context, req domain.CreateScheduleRequest) (*domain.ScheduleResponse, error) {
	// 1. Validate request
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, customError.NewValidationError("%s", validation.Message(err))
	}

	// 2. Reject taken codes early
	exists, err := s.store.Repositories().Schedules.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	if exists {
		return nil, customError.WrapDuplicateCode(req.Code)
	}

	// 3. Activate
	schedule := &domain.AmortizationSchedule{
		Code:          req.Code,
		Name:          req.Name,
		Description:   req.Description,
		ScheduleType:  req.ScheduleType,
		SourceAccount: req.SourceAccount,
		TargetAccount: req.TargetAccount,
		TotalAmount:   req.TotalAmount,
		StartDate:     req.StartDate,
		Frequency:     req.Frequency,
		TotalPeriods:  req.TotalPeriods,
		AutoPost:      req.AutoPost,
	}

	entries, err := s.engine.Activate(ctx, schedule)
	if err != nil {
		return nil, err
	}

	return &domain.ScheduleResponse{Schedule: schedule, Entries: entries}, nil
}

func (s *ScheduleService) FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	schedule, err := s.store.Repositories().Schedules.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, func() error { return customError.WrapScheduleNotFound(id) })
	}
	return schedule, nil
}

func (s *ScheduleService) FindByCode(ctx context.Context, code string) (*domain.AmortizationSchedule, error) {
	schedule, err := s.store.Repositories().Schedules.GetByCode(ctx, code)
	if err != nil {
		return nil, repoError(err, func() error { return customError.WrapScheduleCodeNotFound(code) })
	}
	return schedule, nil
}

func (s *ScheduleService) FindAll(ctx context.Context, page domain.PageRequest) (domain.Page[*domain.AmortizationSchedule], error) {
	return s.FindByFilters(ctx, domain.ScheduleFilter{}, page)
}

func (s *ScheduleService) FindByStatus(ctx context.Context, status domain.ScheduleStatus) ([]*domain.AmortizationSchedule, error) {
	if !status.IsValid() {
		return nil, customError.NewValidationError("unknown schedule status: %s", status)
	}
	schedules, err := s.store.Repositories().Schedules.ListByStatus(ctx, status)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedules, nil
}

// FindByFilters returns one page of schedules matching filter, ordered by code.
func (s *ScheduleService) FindByFilters(ctx context.Context, filter domain.ScheduleFilter, page domain.PageRequest) (domain.Page[*domain.AmortizationSchedule], error) {
	page = page.Normalize()

	schedules, total, err := s.store.Repositories().Schedules.List(ctx, filter, page)
	if err != nil {
		return domain.Page[*domain.AmortizationSchedule]{}, customError.WrapDatabaseError(err)
	}

	return domain.NewPage(schedules, page, total), nil
}

// FindActiveSchedulesForDate returns ACTIVE schedules whose [start, end] range contains date.
func (s *ScheduleService) FindActiveSchedulesForDate(ctx context.Context, date time.Time) ([]*domain.AmortizationSchedule, error) {
	schedules, err := s.store.Repositories().Schedules.ListActiveForDate(ctx, calendar.Normalize(date))
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return schedules, nil
}

// Update changes the descriptive fields of an ACTIVE schedule that has no posted entries yet.
func (s *ScheduleService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateScheduleRequest) (*domain.AmortizationSchedule, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, customError.NewValidationError("%s", validation.Message(err))
	}

	var updated *domain.AmortizationSchedule
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		schedule, err := repos.Schedules.GetByIDForUpdate(ctx, id)
		if err != nil {
			return repoError(err, func() error { return customError.WrapScheduleNotFound(id) })
		}
		if !schedule.IsActive() {
			return customError.NewInvalidState("cannot update %s schedule %s", schedule.Status, schedule.Code)
		}

		summary, err := repos.Entries.Summarize(ctx, id)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if summary.Posted > 0 {
			return customError.NewInvalidState("cannot update schedule %s with %d posted entries", schedule.Code, summary.Posted)
		}

		schedule.Name = req.Name
		schedule.Description = req.Description
		schedule.AutoPost = req.AutoPost
		schedule.UpdatedAt = s.engine.Now()

		if err := repos.Schedules.Update(ctx, schedule); err != nil {
			return repoError(err, nil)
		}
		updated = schedule
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("schedule updated", zap.String("schedule_id", id.String()), zap.String("code", updated.Code))
	return updated, nil
}

// Cancel moves an ACTIVE schedule to CANCELLED.
func (s *ScheduleService) Cancel(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	return s.engine.Cancel(ctx, id)
}

// Delete removes a schedule and its entries. Schedules with posted entries are kept.
func (s *ScheduleService) Delete(ctx context.Context, id uuid.UUID) error {
	var code string
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		schedule, err := repos.Schedules.GetByIDForUpdate(ctx, id)
		if err != nil {
			return repoError(err, func() error { return customError.WrapScheduleNotFound(id) })
		}

		summary, err := repos.Entries.Summarize(ctx, id)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if summary.Posted > 0 {
			return customError.NewInvalidState("cannot delete schedule %s with %d posted entries", schedule.Code, summary.Posted)
		}

		if err := repos.Schedules.Delete(ctx, id); err != nil {
			return repoError(err, func() error { return customError.WrapScheduleNotFound(id) })
		}
		code = schedule.Code
		return nil
	})
	if err != nil {
		return err
	}

	metrics.ScheduleTransitions.WithLabelValues("deleted").Inc()
	s.logger.Info("schedule deleted", zap.String("schedule_id", id.String()), zap.String("code", code))
	return nil
}

func (s *ScheduleService) CountByStatus(ctx context.Context, status domain.ScheduleStatus) (int, error) {
	count, err := s.store.Repositories().Schedules.CountByStatus(ctx, status)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return count, nil
}

func (s *ScheduleService) CountActive(ctx context.Context) (int, error) {
	return s.CountByStatus(ctx, domain.ScheduleStatusActive)
}

// Progress summarizes a schedule for dashboards.
type Progress struct {
	ScheduleID       uuid.UUID       `json:"schedule_id"`
	CompletedPeriods int             `json:"completed_periods"`
	TotalPeriods     int             `json:"total_periods"`
	Percentage       decimal.Decimal `json:"percentage"`
	AmortizedAmount  decimal.Decimal `json:"amortized_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
}

func (s *ScheduleService) Progress(ctx context.Context, id uuid.UUID) (*Progress, error) {
	schedule, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Progress{
		ScheduleID:       schedule.ID,
		CompletedPeriods: schedule.CompletedPeriods,
		TotalPeriods:     schedule.TotalPeriods,
		Percentage:       schedule.ProgressPercentage(),
		AmortizedAmount:  schedule.AmortizedAmount,
		RemainingAmount:  schedule.RemainingAmount,
	}, nil
}
