package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBusinessError_Classification(t *testing.T) {
	id := uuid.MustParse("6f1f8f3e-3b7c-4a52-9a55-0cbb1f2f6f10")

	tests := []struct {
		name         string
		err          error
		notFound     bool
		validation   bool
		invalidState bool
		code         string
	}{
		{name: "entry not found", err: WrapEntryNotFound(id), notFound: true, code: ErrCodeEntryNotFound},
		{name: "schedule not found", err: WrapScheduleNotFound(id), notFound: true, code: ErrCodeScheduleNotFound},
		{name: "schedule code not found", err: WrapScheduleCodeNotFound("PRE-1"), notFound: true, code: ErrCodeScheduleNotFound},
		{name: "config not found", err: WrapConfigNotFound(7), notFound: true, code: ErrCodeConfigNotFound},
		{name: "validation", err: NewValidationError("bad %s", "input"), validation: true, code: ErrCodeValidation},
		{name: "duplicate code", err: WrapDuplicateCode("PRE-1"), validation: true, code: ErrCodeDuplicateCode},
		{name: "invalid state", err: NewInvalidState("nope"), invalidState: true, code: ErrCodeInvalidState},
		{name: "concurrent modification", err: WrapConcurrentModification("entry"), invalidState: true, code: ErrCodeConcurrentModification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.notFound, IsNotFound(tt.err))
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			assert.Equal(t, tt.invalidState, IsInvalidState(tt.err))

			var be *BusinessError
			if assert.True(t, errors.As(tt.err, &be)) {
				assert.Equal(t, tt.code, be.Code)
			}
		})
	}
}

func TestBusinessError_Message(t *testing.T) {
	id := uuid.MustParse("6f1f8f3e-3b7c-4a52-9a55-0cbb1f2f6f10")

	err := WrapEntryNotFound(id)

	assert.Contains(t, err.Error(), "amortization entry not found")
	assert.Contains(t, err.Error(), id.String())
}

func TestWrapLedgerError_KeepsCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	err := WrapLedgerError(cause)

	assert.True(t, errors.Is(err, ErrLedger))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsInvalidState(err))
}

func TestWrapDatabaseError(t *testing.T) {
	cause := fmt.Errorf("deadlock detected")

	err := WrapDatabaseError(cause)

	assert.True(t, errors.Is(err, ErrDatabase))
	assert.True(t, errors.Is(err, cause))
}
