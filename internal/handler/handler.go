package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/service"
	"github.com/segyhp/amortization-engine/pkg/response"
	"github.com/segyhp/amortization-engine/pkg/validation"
)

// DateLayout is the layout of date query parameters.
const DateLayout = "2006-01-02"

// ScheduleManager is the schedule use case surface exposed over HTTP.
type ScheduleManager interface {
	Create(ctx context.Context, req domain.CreateScheduleRequest) (*domain.ScheduleResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error)
	FindByCode(ctx context.Context, code string) (*domain.AmortizationSchedule, error)
	FindByFilters(ctx context.Context, filter domain.ScheduleFilter, page domain.PageRequest) (domain.Page[*domain.AmortizationSchedule], error)
	FindActiveSchedulesForDate(ctx context.Context, date time.Time) ([]*domain.AmortizationSchedule, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateScheduleRequest) (*domain.AmortizationSchedule, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Progress(ctx context.Context, id uuid.UUID) (*service.Progress, error)
}

// EntryManager is the entry use case surface exposed over HTTP.
type EntryManager interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error)
	FindByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error)
	FindPendingEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error)
	PostEntry(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error)
	PostAllPending(ctx context.Context, scheduleID uuid.UUID) (*domain.BatchPostResult, error)
	SkipEntry(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error)
}

type ReportGenerator interface {
	GenerateReport(ctx context.Context, year int) (*domain.DepreciationReport, error)
}

type ConfigManager interface {
	GetConfig(ctx context.Context) (*domain.CompanyConfig, error)
	Update(ctx context.Context, id int64, req domain.UpdateCompanyConfigRequest) (*domain.CompanyConfig, error)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid JSON payload", err)
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

// queryDate parses a DateLayout query parameter, falling back to fallback when absent.
func queryDate(w http.ResponseWriter, r *http.Request, name string, fallback time.Time) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	date, err := time.Parse(DateLayout, raw)
	if err != nil {
		response.BadRequest(w, "Invalid "+name+", expected YYYY-MM-DD", err)
		return time.Time{}, false
	}
	return date, true
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func validationError(err error) error {
	return errors.New(validation.Message(err))
}
