package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const entrySelect = `
		SELECT e.id, e.schedule_id, s.code AS schedule_code, e.period_number, e.period_start,
			e.period_end, e.due_date, e.amount, e.status, e.journal_reference, e.posted_at,
			e.version, e.created_at, e.updated_at
		FROM amortization_entries e
		JOIN amortization_schedules s ON s.id = e.schedule_id`

type entryRepository struct {
	db sqlx.ExtContext
}

func NewEntryRepository(db sqlx.ExtContext) EntryRepository {
	return &entryRepository{db: db}
}

func (r *entryRepository) CreateBatch(ctx context.Context, entries []*domain.AmortizationEntry) error {
	query := `
		INSERT INTO amortization_entries (id, schedule_id, period_number, period_start, period_end,
			due_date, amount, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, e := range entries {
		_, err := r.db.ExecContext(ctx, query,
			e.ID,
			e.ScheduleID,
			e.PeriodNumber,
			e.PeriodStart,
			e.PeriodEnd,
			e.DueDate,
			e.Amount,
			e.Status,
			e.Version,
			e.CreatedAt,
			e.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *entryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	var entry domain.AmortizationEntry
	if err := sqlx.GetContext(ctx, r.db, &entry, entrySelect+` WHERE e.id = $1`, id); err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

func (r *entryRepository) ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error) {
	var entries []*domain.AmortizationEntry
	err := sqlx.SelectContext(ctx, r.db, &entries,
		entrySelect+` WHERE e.schedule_id = $1 ORDER BY e.period_number`, scheduleID)
	return entries, err
}

func (r *entryRepository) ListByScheduleAndStatus(ctx context.Context, scheduleID uuid.UUID, status domain.EntryStatus) ([]*domain.AmortizationEntry, error) {
	var entries []*domain.AmortizationEntry
	err := sqlx.SelectContext(ctx, r.db, &entries,
		entrySelect+` WHERE e.schedule_id = $1 AND e.status = $2 ORDER BY e.period_number`, scheduleID, status)
	return entries, err
}

func (r *entryRepository) ListPendingDueBy(ctx context.Context, asOf time.Time, autoPostOnly bool) ([]*domain.AmortizationEntry, error) {
	query := entrySelect + ` WHERE e.status = $1 AND e.due_date <= $2`
	args := []any{domain.EntryStatusPending, asOf}
	if autoPostOnly {
		query += ` AND s.auto_post = TRUE AND s.status = $3`
		args = append(args, domain.ScheduleStatusActive)
	}
	query += ` ORDER BY e.due_date, s.code, e.period_number`

	var entries []*domain.AmortizationEntry
	err := sqlx.SelectContext(ctx, r.db, &entries, query, args...)
	return entries, err
}

func (r *entryRepository) CountByStatus(ctx context.Context, status domain.EntryStatus) (int, error) {
	var count int
	err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM amortization_entries WHERE status = $1`, status)
	return count, err
}

func (r *entryRepository) Summarize(ctx context.Context, scheduleID uuid.UUID) (EntrySummary, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
			COUNT(*) FILTER (WHERE status = 'POSTED') AS posted,
			COUNT(*) FILTER (WHERE status = 'SKIPPED') AS skipped,
			COALESCE(SUM(amount) FILTER (WHERE status = 'POSTED'), 0) AS posted_amount
		FROM amortization_entries
		WHERE schedule_id = $1
	`

	var row struct {
		Pending      int             `db:"pending"`
		Posted       int             `db:"posted"`
		Skipped      int             `db:"skipped"`
		PostedAmount decimal.Decimal `db:"posted_amount"`
	}
	if err := sqlx.GetContext(ctx, r.db, &row, query, scheduleID); err != nil {
		return EntrySummary{}, err
	}

	return EntrySummary{
		Pending:      row.Pending,
		Posted:       row.Posted,
		Skipped:      row.Skipped,
		PostedAmount: row.PostedAmount,
	}, nil
}

func (r *entryRepository) Transition(ctx context.Context, e *domain.AmortizationEntry, from domain.EntryStatus) error {
	query := `
		UPDATE amortization_entries
		SET status = $4, posted_at = $5, journal_reference = $6, updated_at = $7, version = version + 1
		WHERE id = $1 AND status = $2 AND version = $3
	`

	result, err := r.db.ExecContext(ctx, query,
		e.ID,
		from,
		e.Version,
		e.Status,
		e.PostedAt,
		e.JournalReference,
		e.UpdatedAt,
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

	e.Version++
	return nil
}

func (r *entryRepository) AttachJournalReference(ctx context.Context, id uuid.UUID, reference string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE amortization_entries SET journal_reference = $2 WHERE id = $1`, id, reference)
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
