package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
)

// EntryStatus is the lifecycle state of one amortization installment.
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "PENDING"
	EntryStatusPosted  EntryStatus = "POSTED"
	EntryStatusSkipped EntryStatus = "SKIPPED"
)

// CanTransitionTo reports whether s -> next is legal. Only PENDING entries move.
func (s EntryStatus) CanTransitionTo(next EntryStatus) bool {
	return s == EntryStatusPending && (next == EntryStatusPosted || next == EntryStatusSkipped)
}

// AmortizationEntry is one scheduled installment of an amortization schedule
type AmortizationEntry struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	ScheduleID       uuid.UUID       `json:"schedule_id" db:"schedule_id"`
	ScheduleCode     string          `json:"schedule_code" db:"schedule_code"`
	PeriodNumber     int             `json:"period_number" db:"period_number"`
	PeriodStart      time.Time       `json:"period_start" db:"period_start"`
	PeriodEnd        time.Time       `json:"period_end" db:"period_end"`
	DueDate          time.Time       `json:"due_date" db:"due_date"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	Status           EntryStatus     `json:"status" db:"status"`
	JournalReference *string         `json:"journal_reference,omitempty" db:"journal_reference"`
	PostedAt         *time.Time      `json:"posted_at,omitempty" db:"posted_at"`
	Version          int             `json:"version" db:"version"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (e *AmortizationEntry) IsPending() bool {
	return e.Status == EntryStatusPending
}

func (e *AmortizationEntry) IsPosted() bool {
	return e.Status == EntryStatusPosted
}

// MarkPosted moves a PENDING entry to POSTED and stamps posted-at.
func (e *AmortizationEntry) MarkPosted(at time.Time) error {
	if !e.Status.CanTransitionTo(EntryStatusPosted) {
		return customError.NewInvalidState("cannot post entry with status: %s", e.Status)
	}
	e.Status = EntryStatusPosted
	e.PostedAt = &at
	e.UpdatedAt = at
	return nil
}

// MarkSkipped moves a PENDING entry to SKIPPED. Posted-at stays empty.
func (e *AmortizationEntry) MarkSkipped(at time.Time) error {
	if !e.Status.CanTransitionTo(EntryStatusSkipped) {
		return customError.NewInvalidState("cannot skip entry with status: %s", e.Status)
	}
	e.Status = EntryStatusSkipped
	e.PostedAt = nil
	e.UpdatedAt = at
	return nil
}

// Reference is the human readable posting reference, e.g. PRE-2025-001-3.
func (e *AmortizationEntry) Reference() string {
	return e.ScheduleCode + "-" + strconv.Itoa(e.PeriodNumber)
}

// PeriodLabel names the month the entry's period starts in, e.g. "JANUARY 2025".
func (e *AmortizationEntry) PeriodLabel() string {
	return strings.ToUpper(e.PeriodStart.Month().String()) + " " + strconv.Itoa(e.PeriodStart.Year())
}

// PostFailure records one entry that could not be posted during a batch.
type PostFailure struct {
	EntryID      uuid.UUID `json:"entry_id"`
	PeriodNumber int       `json:"period_number"`
	Error        string    `json:"error"`
	Err          error     `json:"-"`
}

// BatchPostResult is the per-entry outcome of posting all pending entries of a schedule.
type BatchPostResult struct {
	ScheduleID uuid.UUID            `json:"schedule_id"`
	Posted     []*AmortizationEntry `json:"posted"`
	Failures   []PostFailure        `json:"failures"`
}

// HasFailures reports whether at least one entry failed to post.
func (r *BatchPostResult) HasFailures() bool {
	return len(r.Failures) > 0
}
