package service

import (
	"errors"

	"github.com/segyhp/amortization-engine/internal/repository"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

// repoError maps repository errors onto business errors. notFound builds the
// error returned for repository.ErrNotFound.
func repoError(err error, notFound func() error) error {
	var be *customError.BusinessError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &be):
		return err
	case errors.Is(err, repository.ErrNotFound) && notFound != nil:
		return notFound()
	case errors.Is(err, repository.ErrConflict):
		return customError.WrapConcurrentModification("record")
	default:
		return customError.WrapDatabaseError(err)
	}
}

// failureReason labels an error for metrics.
func failureReason(err error) string {
	switch {
	case customError.IsNotFound(err):
		return "not_found"
	case errors.Is(err, customError.ErrConcurrentModification):
		return "conflict"
	case customError.IsInvalidState(err):
		return "invalid_state"
	case errors.Is(err, customError.ErrLedger):
		return "ledger"
	case errors.Is(err, customError.ErrDatabase):
		return "database"
	default:
		return "other"
	}
}
