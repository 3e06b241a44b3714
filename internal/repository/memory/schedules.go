package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/pkg/calendar"
)

type scheduleRepo struct {
	store *Store
	unit  *unit
}

func (r *scheduleRepo) Create(ctx context.Context, schedule *domain.AmortizationSchedule) error {
	s := r.store
	return s.write(ctx, r.unit, schedule.ID, func() (func(), error) {
		for _, existing := range s.schedules {
			if existing.Code == schedule.Code {
				return nil, repository.ErrDuplicateCode
			}
		}
		s.schedules[schedule.ID] = *schedule
		id := schedule.ID
		return func() { delete(s.schedules, id) }, nil
	})
}

func (r *scheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	schedule, ok := r.store.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &schedule, nil
}

func (r *scheduleRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	unlock, err := r.unit.lock(ctx, r.store, id)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return r.GetByID(ctx, id)
}

func (r *scheduleRepo) GetByCode(_ context.Context, code string) (*domain.AmortizationSchedule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, schedule := range r.store.schedules {
		if schedule.Code == code {
			return &schedule, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *scheduleRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *scheduleRepo) List(_ context.Context, filter domain.ScheduleFilter, page domain.PageRequest) ([]*domain.AmortizationSchedule, int, error) {
	matched := r.collect(func(s *domain.AmortizationSchedule) bool { return matches(s, filter) })

	total := len(matched)
	start := page.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := total
	if page.Size > 0 && page.Size < total-start {
		end = start + page.Size
	}
	return matched[start:end], total, nil
}

func (r *scheduleRepo) ListByStatus(_ context.Context, status domain.ScheduleStatus) ([]*domain.AmortizationSchedule, error) {
	return r.collect(func(s *domain.AmortizationSchedule) bool { return s.Status == status }), nil
}

func (r *scheduleRepo) ListActiveForDate(_ context.Context, date time.Time) ([]*domain.AmortizationSchedule, error) {
	return r.collect(func(s *domain.AmortizationSchedule) bool {
		return s.IsActive() && calendar.Between(date, s.StartDate, s.EndDate)
	}), nil
}

// collect returns copies of the schedules accepted by keep, ordered by code.
func (r *scheduleRepo) collect(keep func(*domain.AmortizationSchedule) bool) []*domain.AmortizationSchedule {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.AmortizationSchedule, 0)
	for _, schedule := range r.store.schedules {
		schedule := schedule
		if keep(&schedule) {
			result = append(result, &schedule)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result
}

func matches(s *domain.AmortizationSchedule, f domain.ScheduleFilter) bool {
	if f.Status != nil && s.Status != *f.Status {
		return false
	}
	if f.ScheduleType != nil && s.ScheduleType != *f.ScheduleType {
		return false
	}
	if f.StartFrom != nil && s.StartDate.Before(*f.StartFrom) {
		return false
	}
	if f.StartTo != nil && s.StartDate.After(*f.StartTo) {
		return false
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		return strings.Contains(strings.ToLower(s.Code), search) ||
			strings.Contains(strings.ToLower(s.Name), search) ||
			strings.Contains(strings.ToLower(s.Description), search)
	}
	return true
}

func (r *scheduleRepo) Update(ctx context.Context, schedule *domain.AmortizationSchedule) error {
	s := r.store
	return s.write(ctx, r.unit, schedule.ID, func() (func(), error) {
		prev, ok := s.schedules[schedule.ID]
		if !ok || prev.Version != schedule.Version {
			return nil, repository.ErrConflict
		}

		schedule.Version++
		s.schedules[schedule.ID] = *schedule
		return func() { s.schedules[prev.ID] = prev }, nil
	})
}

func (r *scheduleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	return s.write(ctx, r.unit, id, func() (func(), error) {
		prev, ok := s.schedules[id]
		if !ok {
			return nil, repository.ErrNotFound
		}

		var removed []domain.AmortizationEntry
		for entryID, entry := range s.entries {
			if entry.ScheduleID == id {
				removed = append(removed, entry)
				delete(s.entries, entryID)
			}
		}
		delete(s.schedules, id)

		return func() {
			s.schedules[id] = prev
			for _, entry := range removed {
				s.entries[entry.ID] = entry
			}
		}, nil
	})
}

func (r *scheduleRepo) CountByStatus(ctx context.Context, status domain.ScheduleStatus) (int, error) {
	schedules, _ := r.ListByStatus(ctx, status)
	return len(schedules), nil
}
