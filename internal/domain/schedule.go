package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
)

// ScheduleStatus is the lifecycle state of an amortization schedule.
type ScheduleStatus string

const (
	ScheduleStatusActive    ScheduleStatus = "ACTIVE"
	ScheduleStatusCompleted ScheduleStatus = "COMPLETED"
	ScheduleStatusCancelled ScheduleStatus = "CANCELLED"
)

// IsValid reports whether s is a known status.
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusActive, ScheduleStatusCompleted, ScheduleStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s.
func (s ScheduleStatus) IsTerminal() bool {
	return s == ScheduleStatusCompleted || s == ScheduleStatusCancelled
}

// CanTransitionTo reports whether s -> next is a legal transition.
// Only ACTIVE -> COMPLETED and ACTIVE -> CANCELLED are.
func (s ScheduleStatus) CanTransitionTo(next ScheduleStatus) bool {
	return s == ScheduleStatusActive &&
		(next == ScheduleStatusCompleted || next == ScheduleStatusCancelled)
}

// ScheduleType decides which account is debited when an entry posts.
type ScheduleType string

const (
	ScheduleTypePrepaidExpense  ScheduleType = "PREPAID_EXPENSE"
	ScheduleTypeUnearnedRevenue ScheduleType = "UNEARNED_REVENUE"
	ScheduleTypeIntangibleAsset ScheduleType = "INTANGIBLE_ASSET"
	ScheduleTypeAccruedRevenue  ScheduleType = "ACCRUED_REVENUE"
)

// IsValid reports whether t is a known schedule type.
func (t ScheduleType) IsValid() bool {
	switch t {
	case ScheduleTypePrepaidExpense, ScheduleTypeUnearnedRevenue, ScheduleTypeIntangibleAsset, ScheduleTypeAccruedRevenue:
		return true
	}
	return false
}

// Description is the journal narrative prefix used when posting entries of this type.
func (t ScheduleType) Description() string {
	switch t {
	case ScheduleTypePrepaidExpense:
		return "Amortisasi Beban Dibayar Dimuka"
	case ScheduleTypeUnearnedRevenue:
		return "Pengakuan Pendapatan Diterima Dimuka"
	case ScheduleTypeIntangibleAsset:
		return "Amortisasi Aset Tak Berwujud"
	case ScheduleTypeAccruedRevenue:
		return "Pengakuan Pendapatan Akrual"
	default:
		return "Amortisasi"
	}
}

// DebitsTarget is true when posting debits the target account and credits the source.
func (t ScheduleType) DebitsTarget() bool {
	return t == ScheduleTypePrepaidExpense || t == ScheduleTypeIntangibleAsset
}

// Frequency is the period unit of a schedule.
type Frequency = calendar.Unit

const (
	FrequencyMonthly   = calendar.Monthly
	FrequencyQuarterly = calendar.Quarterly
	FrequencyYearly    = calendar.Yearly
)

// AmortizationSchedule recognizes a principal amount over a fixed number of periods.
type AmortizationSchedule struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Code             string          `json:"code" db:"code"`
	Name             string          `json:"name" db:"name"`
	Description      string          `json:"description" db:"description"`
	ScheduleType     ScheduleType    `json:"schedule_type" db:"schedule_type"`
	SourceAccount    string          `json:"source_account" db:"source_account"`
	TargetAccount    string          `json:"target_account" db:"target_account"`
	TotalAmount      decimal.Decimal `json:"total_amount" db:"total_amount"`
	PeriodAmount     decimal.Decimal `json:"period_amount" db:"period_amount"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	EndDate          time.Time       `json:"end_date" db:"end_date"`
	Frequency        Frequency       `json:"frequency" db:"frequency"`
	TotalPeriods     int             `json:"total_periods" db:"total_periods"`
	CompletedPeriods int             `json:"completed_periods" db:"completed_periods"`
	AmortizedAmount  decimal.Decimal `json:"amortized_amount" db:"amortized_amount"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount" db:"remaining_amount"`
	AutoPost         bool            `json:"auto_post" db:"auto_post"`
	Status           ScheduleStatus  `json:"status" db:"status"`
	Version          int             `json:"version" db:"version"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

func (s *AmortizationSchedule) IsActive() bool {
	return s.Status == ScheduleStatusActive
}

// TransitionTo moves the schedule to next or fails with InvalidState.
func (s *AmortizationSchedule) TransitionTo(next ScheduleStatus) error {
	if !s.Status.CanTransitionTo(next) {
		return customError.NewInvalidState("cannot move schedule %s from %s to %s", s.Code, s.Status, next)
	}
	s.Status = next
	return nil
}

// ProgressPercentage is completed/total periods as a percentage with 2 decimals.
func (s *AmortizationSchedule) ProgressPercentage() decimal.Decimal {
	if s.TotalPeriods == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.CompletedPeriods)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(s.TotalPeriods)), 2)
}

// ScheduleFilter narrows schedule listings. Nil fields and a blank Search match everything.
type ScheduleFilter struct {
	Status       *ScheduleStatus
	ScheduleType *ScheduleType
	StartFrom    *time.Time
	StartTo      *time.Time
	Search       string
}

// DTOs for requests and responses

type CreateScheduleRequest struct {
	Code          string          `json:"code" validate:"required,max=50"`
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	ScheduleType  ScheduleType    `json:"schedule_type" validate:"required,oneof=PREPAID_EXPENSE UNEARNED_REVENUE INTANGIBLE_ASSET ACCRUED_REVENUE"`
	SourceAccount string          `json:"source_account" validate:"required"`
	TargetAccount string          `json:"target_account" validate:"required"`
	TotalAmount   decimal.Decimal `json:"total_amount" validate:"decimal_gt0"`
	StartDate     time.Time       `json:"start_date" validate:"required"`
	Frequency     Frequency       `json:"frequency" validate:"required,oneof=MONTHLY QUARTERLY YEARLY"`
	TotalPeriods  int             `json:"total_periods" validate:"gt=0"`
	AutoPost      bool            `json:"auto_post"`
}

type UpdateScheduleRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
	AutoPost    bool   `json:"auto_post"`
}

type ScheduleResponse struct {
	Schedule *AmortizationSchedule `json:"schedule"`
	Entries  []*AmortizationEntry  `json:"entries,omitempty"`
}
