package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a compare-and-swap update matched no row
	// because the status or version moved on.
	ErrConflict = errors.New("version conflict")

	// ErrDuplicateCode is returned when a schedule code is already taken.
	ErrDuplicateCode = errors.New("duplicate schedule code")
)

// ScheduleRepository defines the interface for amortization schedule data operations
type ScheduleRepository interface {
	// Create inserts a new schedule
	Create(ctx context.Context, schedule *domain.AmortizationSchedule) error

	// GetByID retrieves a schedule by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error)

	// GetByIDForUpdate retrieves a schedule and locks its row until the unit of work ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error)

	// GetByCode retrieves a schedule by its unique code
	GetByCode(ctx context.Context, code string) (*domain.AmortizationSchedule, error)

	// ExistsByCode reports whether a schedule with code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// List returns one page of schedules matching filter ordered by code, with the total match count
	List(ctx context.Context, filter domain.ScheduleFilter, page domain.PageRequest) ([]*domain.AmortizationSchedule, int, error)

	// ListByStatus returns every schedule with status ordered by code
	ListByStatus(ctx context.Context, status domain.ScheduleStatus) ([]*domain.AmortizationSchedule, error)

	// ListActiveForDate returns ACTIVE schedules with start_date <= date <= end_date
	ListActiveForDate(ctx context.Context, date time.Time) ([]*domain.AmortizationSchedule, error)

	// Update writes every mutable column when the stored version equals schedule.Version,
	// then increments schedule.Version. A stale version yields ErrConflict.
	Update(ctx context.Context, schedule *domain.AmortizationSchedule) error

	// Delete removes a schedule and, by cascade, its entries
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus counts schedules with status
	CountByStatus(ctx context.Context, status domain.ScheduleStatus) (int, error)
}

// EntrySummary aggregates the entries of one schedule.
type EntrySummary struct {
	Pending      int
	Posted       int
	Skipped      int
	PostedAmount decimal.Decimal
}

// EntryRepository defines the interface for amortization entry data operations
type EntryRepository interface {
	// CreateBatch inserts all entries of a freshly generated schedule
	CreateBatch(ctx context.Context, entries []*domain.AmortizationEntry) error

	// GetByID retrieves an entry by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error)

	// ListBySchedule returns the entries of a schedule ordered by period number
	ListBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error)

	// ListByScheduleAndStatus returns the entries of a schedule with status ordered by period number
	ListByScheduleAndStatus(ctx context.Context, scheduleID uuid.UUID, status domain.EntryStatus) ([]*domain.AmortizationEntry, error)

	// ListPendingDueBy returns PENDING entries with due_date <= asOf across all schedules,
	// ordered by due date, schedule code and period number. With autoPostOnly only entries
	// of ACTIVE auto-post schedules are returned.
	ListPendingDueBy(ctx context.Context, asOf time.Time, autoPostOnly bool) ([]*domain.AmortizationEntry, error)

	// CountByStatus counts entries with status across all schedules
	CountByStatus(ctx context.Context, status domain.EntryStatus) (int, error)

	// Summarize aggregates the entries of one schedule
	Summarize(ctx context.Context, scheduleID uuid.UUID) (EntrySummary, error)

	// Transition writes status, posted_at and journal_reference of entry when the stored
	// row still has status from and version entry.Version, then increments entry.Version.
	// Otherwise it returns ErrConflict.
	Transition(ctx context.Context, entry *domain.AmortizationEntry, from domain.EntryStatus) error

	// AttachJournalReference stores the ledger reference of a posted entry
	AttachJournalReference(ctx context.Context, id uuid.UUID, reference string) error
}

// AssetRepository is the asset query interface used by the depreciation report
type AssetRepository interface {
	// ListForPeriod returns assets purchased on or before to and not disposed before from,
	// ordered by code
	ListForPeriod(ctx context.Context, from, to time.Time) ([]*domain.FixedAsset, error)
}

// CompanyConfigRepository defines the interface for company config data operations
type CompanyConfigRepository interface {
	// GetFirst returns the oldest config record
	GetFirst(ctx context.Context) (*domain.CompanyConfig, error)

	GetByID(ctx context.Context, id int64) (*domain.CompanyConfig, error)

	// Create inserts cfg and sets its ID
	Create(ctx context.Context, cfg *domain.CompanyConfig) error

	Update(ctx context.Context, cfg *domain.CompanyConfig) error
}

// Repositories groups the repositories bound to one connection or unit of work.
type Repositories struct {
	Schedules ScheduleRepository
	Entries   EntryRepository
	Assets    AssetRepository
	Configs   CompanyConfigRepository
}

// TxManager runs fn in one unit of work. The work commits when fn returns nil
// and rolls back otherwise. Repositories passed to fn are bound to the unit.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Store is a durable store: repositories for standalone reads and a unit-of-work runner.
type Store interface {
	TxManager
	Repositories() Repositories
}
