package errors

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is to classify.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidState           = errors.New("invalid state")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDatabase               = errors.New("database error")
	ErrLedger                 = errors.New("ledger posting failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeEntryNotFound          = "ENTRY_NOT_FOUND"
	ErrCodeScheduleNotFound       = "SCHEDULE_NOT_FOUND"
	ErrCodeConfigNotFound         = "CONFIG_NOT_FOUND"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeDuplicateCode          = "DUPLICATE_CODE"
	ErrCodeInvalidState           = "INVALID_STATE"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeLedgerError            = "LEDGER_ERROR"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
)

func WrapEntryNotFound(id fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeEntryNotFound,
		fmt.Sprintf("amortization entry not found with id: %s", id),
		ErrNotFound,
	)
}

func WrapScheduleNotFound(id fmt.Stringer) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("amortization schedule not found with id: %s", id),
		ErrNotFound,
	)
}

func WrapScheduleCodeNotFound(code string) *BusinessError {
	return NewBusinessError(
		ErrCodeScheduleNotFound,
		fmt.Sprintf("amortization schedule not found with code: %s", code),
		ErrNotFound,
	)
}

func WrapConfigNotFound(id int64) *BusinessError {
	return NewBusinessError(
		ErrCodeConfigNotFound,
		fmt.Sprintf("company config not found with id: %d", id),
		ErrNotFound,
	)
}

// NewValidationError reports malformed input.
func NewValidationError(format string, args ...any) *BusinessError {
	return NewBusinessError(ErrCodeValidation, fmt.Sprintf(format, args...), ErrValidation)
}

func WrapDuplicateCode(code string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateCode,
		fmt.Sprintf("schedule code already exists: %s", code),
		ErrValidation,
	)
}

// NewInvalidState reports an operation that is not legal for the current lifecycle state.
func NewInvalidState(format string, args ...any) *BusinessError {
	return NewBusinessError(ErrCodeInvalidState, fmt.Sprintf(format, args...), ErrInvalidState)
}

// WrapLedgerError keeps the collaborator error reachable through errors.Is/As.
func WrapLedgerError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeLedgerError,
		"ledger posting failed",
		errors.Join(ErrLedger, err),
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		errors.Join(ErrDatabase, err),
	)
}

// WrapConcurrentModification reports a lost compare-and-swap. It classifies as
// both ErrConcurrentModification and ErrInvalidState.
func WrapConcurrentModification(what string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("%s was modified concurrently", what),
		errors.Join(ErrConcurrentModification, ErrInvalidState),
	)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is due to invalid client input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState returns true if the operation conflicts with the lifecycle state.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
