package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/ledger"
	"github.com/segyhp/amortization-engine/internal/metrics"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/tracing"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// EntryService finds, posts and skips amortization entries.
type EntryService struct {
	store  repository.Store
	engine *ScheduleEngine
	poster ledger.Poster
	logger *zap.Logger
	now    func() time.Time
}

func NewEntryService(store repository.Store, engine *ScheduleEngine, poster ledger.Poster, logger *zap.Logger) *EntryService {
	return &EntryService{
		store:  store,
		engine: engine,
		poster: poster,
		logger: logger,
		now:    engine.Now,
	}
}

func (s *EntryService) FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	entry, err := s.store.Repositories().Entries.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, func() error { return customError.WrapEntryNotFound(id) })
	}
	return entry, nil
}

// FindByScheduleID returns every entry of a schedule ordered by period number.
// An unknown schedule yields an empty list.
func (s *EntryService) FindByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error) {
	entries, err := s.store.Repositories().Entries.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return entries, nil
}

func (s *EntryService) FindPendingByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error) {
	entries, err := s.store.Repositories().Entries.ListByScheduleAndStatus(ctx, scheduleID, domain.EntryStatusPending)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return entries, nil
}

// FindPendingEntriesDueByDate returns PENDING entries due on or before asOf across all schedules.
func (s *EntryService) FindPendingEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error) {
	entries, err := s.store.Repositories().Entries.ListPendingDueBy(ctx, calendar.Normalize(asOf), false)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return entries, nil
}

// FindPendingAutoPostEntriesDueByDate is FindPendingEntriesDueByDate restricted to
// ACTIVE schedules with auto-post enabled.
func (s *EntryService) FindPendingAutoPostEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error) {
	entries, err := s.store.Repositories().Entries.ListPendingDueBy(ctx, calendar.Normalize(asOf), true)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return entries, nil
}

func (s *EntryService) CountPendingEntries(ctx context.Context) (int, error) {
	count, err := s.store.Repositories().Entries.CountByStatus(ctx, domain.EntryStatusPending)
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}
	return count, nil
}

// PostEntry posts one PENDING entry to the ledger and marks it POSTED. The
// schedule completes when it was the last PENDING entry. Nothing changes when
// the ledger rejects the posting.
func (s *EntryService) PostEntry(ctx context.Context, entryID uuid.UUID) (entry *domain.AmortizationEntry, err error) {
	ctx, span := tracing.Start(ctx, "EntryService.PostEntry", attribute.String("entry.id", entryID.String()))
	defer func() { tracing.End(span, err) }()

	var (
		schedule  *domain.AmortizationSchedule
		completed bool
		replayed  bool
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// 1. Lock the schedule and load the entry under that lock
		target, schedLocked, err := s.lockEntry(ctx, repos, entryID)
		if err != nil {
			return err
		}
		if !schedLocked.IsActive() {
			return customError.NewInvalidState("cannot post entry of %s schedule %s", schedLocked.Status, schedLocked.Code)
		}

		// 2. Claim the transition
		if err := target.MarkPosted(s.now()); err != nil {
			return err
		}
		if err := repos.Entries.Transition(ctx, target, domain.EntryStatusPending); err != nil {
			return repoError(err, func() error { return customError.WrapEntryNotFound(entryID) })
		}

		// 3. Record the posting in the ledger
		result, err := s.poster.Post(ctx, postingRequest(schedLocked, target))
		if err != nil {
			return customError.WrapLedgerError(err)
		}
		if err := repos.Entries.AttachJournalReference(ctx, target.ID, result.JournalReference); err != nil {
			return customError.WrapDatabaseError(err)
		}
		reference := result.JournalReference
		target.JournalReference = &reference
		replayed = result.Replayed

		// 4. Refresh schedule progress
		schedule, completed, err = s.engine.CompleteIfAllPosted(ctx, repos, schedLocked.ID)
		if err != nil {
			return err
		}

		entry = target
		return nil
	})
	if err != nil {
		metrics.PostingFailures.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("entry posting failed", zap.String("entry_id", entryID.String()), zap.Error(err))
		return nil, err
	}

	metrics.EntriesProcessed.WithLabelValues("posted", string(schedule.ScheduleType)).Inc()
	s.logger.Info("entry posted",
		zap.String("entry_id", entry.ID.String()),
		zap.String("schedule_code", schedule.Code),
		zap.Int("period", entry.PeriodNumber),
		zap.String("amount", entry.Amount.StringFixed(2)),
		zap.String("journal_reference", *entry.JournalReference),
		zap.Bool("replayed", replayed),
	)
	s.logCompletion(schedule, completed)

	return entry, nil
}

// PostAllPending posts every PENDING entry of a schedule in period order. A
// failed entry is recorded and the remaining entries are still attempted.
func (s *EntryService) PostAllPending(ctx context.Context, scheduleID uuid.UUID) (*domain.BatchPostResult, error) {
	result := &domain.BatchPostResult{
		ScheduleID: scheduleID,
		Posted:     make([]*domain.AmortizationEntry, 0),
		Failures:   make([]domain.PostFailure, 0),
	}

	pending, err := s.FindPendingByScheduleID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		posted, err := s.PostEntry(ctx, e.ID)
		if err != nil {
			result.Failures = append(result.Failures, domain.PostFailure{
				EntryID:      e.ID,
				PeriodNumber: e.PeriodNumber,
				Error:        err.Error(),
				Err:          err,
			})
			continue
		}
		result.Posted = append(result.Posted, posted)
	}

	return result, nil
}

// SkipEntry marks one PENDING entry SKIPPED without a ledger posting. The
// schedule completes when it was the last PENDING entry.
func (s *EntryService) SkipEntry(ctx context.Context, entryID uuid.UUID) (entry *domain.AmortizationEntry, err error) {
	ctx, span := tracing.Start(ctx, "EntryService.SkipEntry", attribute.String("entry.id", entryID.String()))
	defer func() { tracing.End(span, err) }()

	var (
		schedule  *domain.AmortizationSchedule
		completed bool
	)

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		target, schedLocked, err := s.lockEntry(ctx, repos, entryID)
		if err != nil {
			return err
		}
		if !schedLocked.IsActive() {
			return customError.NewInvalidState("cannot skip entry of %s schedule %s", schedLocked.Status, schedLocked.Code)
		}

		if err := target.MarkSkipped(s.now()); err != nil {
			return err
		}
		if err := repos.Entries.Transition(ctx, target, domain.EntryStatusPending); err != nil {
			return repoError(err, func() error { return customError.WrapEntryNotFound(entryID) })
		}

		schedule, completed, err = s.engine.CompleteIfAllPosted(ctx, repos, schedLocked.ID)
		if err != nil {
			return err
		}

		entry = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.EntriesProcessed.WithLabelValues("skipped", string(schedule.ScheduleType)).Inc()
	s.logger.Info("entry skipped",
		zap.String("entry_id", entry.ID.String()),
		zap.String("schedule_code", schedule.Code),
		zap.Int("period", entry.PeriodNumber),
	)
	s.logCompletion(schedule, completed)

	return entry, nil
}

// lockEntry locks the schedule owning entryID and reads the entry under that lock.
func (s *EntryService) lockEntry(ctx context.Context, repos repository.Repositories, entryID uuid.UUID) (*domain.AmortizationEntry, *domain.AmortizationSchedule, error) {
	notFound := func() error { return customError.WrapEntryNotFound(entryID) }

	entry, err := repos.Entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, nil, repoError(err, notFound)
	}

	schedule, err := repos.Schedules.GetByIDForUpdate(ctx, entry.ScheduleID)
	if err != nil {
		return nil, nil, repoError(err, func() error { return customError.WrapScheduleNotFound(entry.ScheduleID) })
	}

	entry, err = repos.Entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, nil, repoError(err, notFound)
	}

	return entry, schedule, nil
}

func (s *EntryService) logCompletion(schedule *domain.AmortizationSchedule, completed bool) {
	if !completed {
		return
	}
	metrics.ScheduleTransitions.WithLabelValues("completed").Inc()
	s.logger.Info("schedule completed",
		zap.String("schedule_id", schedule.ID.String()),
		zap.String("code", schedule.Code),
		zap.String("amortized_amount", schedule.AmortizedAmount.StringFixed(2)),
	)
}

// postingRequest builds the journal posting for entry. Prepaid expenses and
// intangible assets debit the target account; revenue schedules debit the source.
func postingRequest(schedule *domain.AmortizationSchedule, entry *domain.AmortizationEntry) ledger.PostingRequest {
	debit, credit := schedule.SourceAccount, schedule.TargetAccount
	if schedule.ScheduleType.DebitsTarget() {
		debit, credit = schedule.TargetAccount, schedule.SourceAccount
	}

	return ledger.PostingRequest{
		EntryID:       entry.ID,
		ScheduleCode:  schedule.Code,
		Reference:     entry.Reference(),
		Description:   schedule.ScheduleType.Description() + " - " + schedule.Name + " (" + entry.PeriodLabel() + ")",
		Amount:        entry.Amount,
		Date:          entry.DueDate,
		DebitAccount:  debit,
		CreditAccount: credit,
	}
}
