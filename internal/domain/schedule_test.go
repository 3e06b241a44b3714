package domain

import (
	"testing"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from     ScheduleStatus
		to       ScheduleStatus
		expected bool
	}{
		{name: "active to completed", from: ScheduleStatusActive, to: ScheduleStatusCompleted, expected: true},
		{name: "active to cancelled", from: ScheduleStatusActive, to: ScheduleStatusCancelled, expected: true},
		{name: "active to active", from: ScheduleStatusActive, to: ScheduleStatusActive, expected: false},
		{name: "completed is terminal", from: ScheduleStatusCompleted, to: ScheduleStatusCancelled, expected: false},
		{name: "cancelled is terminal", from: ScheduleStatusCancelled, to: ScheduleStatusActive, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAmortizationSchedule_TransitionTo(t *testing.T) {
	schedule := &AmortizationSchedule{Code: "PRE-2025-001", Status: ScheduleStatusActive}

	require.NoError(t, schedule.TransitionTo(ScheduleStatusCancelled))
	assert.Equal(t, ScheduleStatusCancelled, schedule.Status)
	assert.True(t, schedule.Status.IsTerminal())

	err := schedule.TransitionTo(ScheduleStatusCompleted)
	assert.True(t, customError.IsInvalidState(err))
	assert.Equal(t, ScheduleStatusCancelled, schedule.Status)
}

func TestScheduleType_DebitsTarget(t *testing.T) {
	assert.True(t, ScheduleTypePrepaidExpense.DebitsTarget())
	assert.True(t, ScheduleTypeIntangibleAsset.DebitsTarget())
	assert.False(t, ScheduleTypeUnearnedRevenue.DebitsTarget())
	assert.False(t, ScheduleTypeAccruedRevenue.DebitsTarget())
	assert.False(t, ScheduleType("OTHER").IsValid())
}

func TestAmortizationSchedule_ProgressPercentage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  string
	}{
		{name: "no periods", completed: 0, total: 0, expected: "0"},
		{name: "quarter done", completed: 3, total: 12, expected: "25"},
		{name: "one third", completed: 1, total: 3, expected: "33.33"},
		{name: "all done", completed: 12, total: 12, expected: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &AmortizationSchedule{CompletedPeriods: tt.completed, TotalPeriods: tt.total}
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(s.ProgressPercentage()), "got %s", s.ProgressPercentage())
		})
	}
}
