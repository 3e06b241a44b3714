package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	"github.com/shopspring/decimal"
)

type entryRepo struct {
	store *Store
	unit  *unit
}

func (r *entryRepo) CreateBatch(ctx context.Context, entries []*domain.AmortizationEntry) error {
	s := r.store
	return s.write(ctx, r.unit, uuid.Nil, func() (func(), error) {
		seen := make(map[[2]any]bool)
		for _, existing := range s.entries {
			seen[[2]any{existing.ScheduleID, existing.PeriodNumber}] = true
		}
		for _, e := range entries {
			key := [2]any{e.ScheduleID, e.PeriodNumber}
			if _, ok := s.schedules[e.ScheduleID]; !ok || seen[key] {
				return nil, repository.ErrConflict
			}
			seen[key] = true
		}

		ids := make([]uuid.UUID, 0, len(entries))
		for _, e := range entries {
			s.entries[e.ID] = *e
			ids = append(ids, e.ID)
		}
		return func() {
			for _, id := range ids {
				delete(s.entries, id)
			}
		}, nil
	})
}

// withCode returns a copy of e carrying its schedule code. Callers hold store.mu.
func (r *entryRepo) withCode(e domain.AmortizationEntry) *domain.AmortizationEntry {
	e.ScheduleCode = r.store.schedules[e.ScheduleID].Code
	return &e
}

func (r *entryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	entry, ok := r.store.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.withCode(entry), nil
}

func (r *entryRepo) ListBySchedule(_ context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error) {
	return r.collect(func(e *domain.AmortizationEntry) bool { return e.ScheduleID == scheduleID }, byPeriod), nil
}

func (r *entryRepo) ListByScheduleAndStatus(_ context.Context, scheduleID uuid.UUID, status domain.EntryStatus) ([]*domain.AmortizationEntry, error) {
	return r.collect(func(e *domain.AmortizationEntry) bool {
		return e.ScheduleID == scheduleID && e.Status == status
	}, byPeriod), nil
}

func (r *entryRepo) ListPendingDueBy(_ context.Context, asOf time.Time, autoPostOnly bool) ([]*domain.AmortizationEntry, error) {
	return r.collect(func(e *domain.AmortizationEntry) bool {
		if !e.IsPending() || !calendar.IsDue(e.DueDate, asOf) {
			return false
		}
		if autoPostOnly {
			schedule := r.store.schedules[e.ScheduleID]
			return schedule.AutoPost && schedule.IsActive()
		}
		return true
	}, byDueDate), nil
}

func (r *entryRepo) CountByStatus(_ context.Context, status domain.EntryStatus) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	count := 0
	for _, e := range r.store.entries {
		if e.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *entryRepo) Summarize(_ context.Context, scheduleID uuid.UUID) (repository.EntrySummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	summary := repository.EntrySummary{PostedAmount: decimal.Zero}
	for _, e := range r.store.entries {
		if e.ScheduleID != scheduleID {
			continue
		}
		switch e.Status {
		case domain.EntryStatusPending:
			summary.Pending++
		case domain.EntryStatusPosted:
			summary.Posted++
			summary.PostedAmount = summary.PostedAmount.Add(e.Amount)
		case domain.EntryStatusSkipped:
			summary.Skipped++
		}
	}
	return summary, nil
}

func (r *entryRepo) Transition(ctx context.Context, entry *domain.AmortizationEntry, from domain.EntryStatus) error {
	s := r.store
	return s.write(ctx, r.unit, entry.ID, func() (func(), error) {
		prev, ok := s.entries[entry.ID]
		if !ok || prev.Status != from || prev.Version != entry.Version {
			return nil, repository.ErrConflict
		}

		next := prev
		next.Status = entry.Status
		next.PostedAt = entry.PostedAt
		next.JournalReference = entry.JournalReference
		next.UpdatedAt = entry.UpdatedAt
		next.Version++
		s.entries[entry.ID] = next
		entry.Version = next.Version

		return func() { s.entries[prev.ID] = prev }, nil
	})
}

func (r *entryRepo) AttachJournalReference(ctx context.Context, id uuid.UUID, reference string) error {
	s := r.store
	return s.write(ctx, r.unit, id, func() (func(), error) {
		prev, ok := s.entries[id]
		if !ok {
			return nil, repository.ErrNotFound
		}

		next := prev
		next.JournalReference = &reference
		s.entries[id] = next
		return func() { s.entries[id] = prev }, nil
	})
}

func byPeriod(a, b *domain.AmortizationEntry) bool {
	return a.PeriodNumber < b.PeriodNumber
}

func byDueDate(a, b *domain.AmortizationEntry) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	if a.ScheduleCode != b.ScheduleCode {
		return a.ScheduleCode < b.ScheduleCode
	}
	return a.PeriodNumber < b.PeriodNumber
}

func (r *entryRepo) collect(keep func(*domain.AmortizationEntry) bool, less func(a, b *domain.AmortizationEntry) bool) []*domain.AmortizationEntry {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.AmortizationEntry, 0)
	for _, e := range r.store.entries {
		entry := r.withCode(e)
		if keep(entry) {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}
