package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/amortization-engine/internal/domain"
)

const scheduleColumns = `id, code, name, description, schedule_type, source_account, target_account,
		total_amount, period_amount, start_date, end_date, frequency, total_periods,
		completed_periods, amortized_amount, remaining_amount, auto_post, status, version,
		created_at, updated_at`

type scheduleRepository struct {
	db sqlx.ExtContext
}

func NewScheduleRepository(db sqlx.ExtContext) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, s *domain.AmortizationSchedule) error {
	query := `
		INSERT INTO amortization_schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Code,
		s.Name,
		s.Description,
		s.ScheduleType,
		s.SourceAccount,
		s.TargetAccount,
		s.TotalAmount,
		s.PeriodAmount,
		s.StartDate,
		s.EndDate,
		s.Frequency,
		s.TotalPeriods,
		s.CompletedPeriods,
		s.AmortizedAmount,
		s.RemainingAmount,
		s.AutoPost,
		s.Status,
		s.Version,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	return r.getOne(ctx, `SELECT `+scheduleColumns+` FROM amortization_schedules WHERE id = $1`, id)
}

func (r *scheduleRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	return r.getOne(ctx, `SELECT `+scheduleColumns+` FROM amortization_schedules WHERE id = $1 FOR UPDATE`, id)
}

func (r *scheduleRepository) GetByCode(ctx context.Context, code string) (*domain.AmortizationSchedule, error) {
	return r.getOne(ctx, `SELECT `+scheduleColumns+` FROM amortization_schedules WHERE code = $1`, code)
}

func (r *scheduleRepository) getOne(ctx context.Context, query string, arg any) (*domain.AmortizationSchedule, error) {
	var schedule domain.AmortizationSchedule
	if err := sqlx.GetContext(ctx, r.db, &schedule, query, arg); err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, r.db, &exists,
		`SELECT EXISTS (SELECT 1 FROM amortization_schedules WHERE code = $1)`, code)
	return exists, err
}

func (r *scheduleRepository) List(ctx context.Context, filter domain.ScheduleFilter, page domain.PageRequest) ([]*domain.AmortizationSchedule, int, error) {
	where, args := scheduleFilterClause(filter)

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, `SELECT COUNT(*) FROM amortization_schedules`+where, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM amortization_schedules%s ORDER BY code LIMIT $%d OFFSET $%d`,
		scheduleColumns, where, len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	var schedules []*domain.AmortizationSchedule
	if err := sqlx.SelectContext(ctx, r.db, &schedules, query, args...); err != nil {
		return nil, 0, err
	}
	return schedules, total, nil
}

// scheduleFilterClause builds the WHERE clause for filter. Nil fields and a blank
// search add no condition.
func scheduleFilterClause(filter domain.ScheduleFilter) (string, []any) {
	var conditions []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.ScheduleType != nil {
		add("schedule_type = $%d", *filter.ScheduleType)
	}
	if filter.StartFrom != nil {
		add("start_date >= $%d", *filter.StartFrom)
	}
	if filter.StartTo != nil {
		add("start_date <= $%d", *filter.StartTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d OR LOWER(description) LIKE $%d)", n, n, n))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func (r *scheduleRepository) ListByStatus(ctx context.Context, status domain.ScheduleStatus) ([]*domain.AmortizationSchedule, error) {
	var schedules []*domain.AmortizationSchedule
	err := sqlx.SelectContext(ctx, r.db, &schedules,
		`SELECT `+scheduleColumns+` FROM amortization_schedules WHERE status = $1 ORDER BY code`, status)
	return schedules, err
}

func (r *scheduleRepository) ListActiveForDate(ctx context.Context, date time.Time) ([]*domain.AmortizationSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM amortization_schedules
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY code
	`

	var schedules []*domain.AmortizationSchedule
	err := sqlx.SelectContext(ctx, r.db, &schedules, query, domain.ScheduleStatusActive, date)
	return schedules, err
}

func (r *scheduleRepository) Update(ctx context.Context, s *domain.AmortizationSchedule) error {
	query := `
		UPDATE amortization_schedules
		SET name = $3, description = $4, auto_post = $5, status = $6, completed_periods = $7,
			amortized_amount = $8, remaining_amount = $9, updated_at = $10, version = version + 1
		WHERE id = $1 AND version = $2
	`

	result, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.Version,
		s.Name,
		s.Description,
		s.AutoPost,
		s.Status,
		s.CompletedPeriods,
		s.AmortizedAmount,
		s.RemainingAmount,
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConflict
	}

	s.Version++
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM amortization_schedules WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *scheduleRepository) CountByStatus(ctx context.Context, status domain.ScheduleStatus) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM amortization_schedules WHERE status = $1`, status)
	return count, err
}
