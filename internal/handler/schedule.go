package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/response"
)

type ScheduleHandler struct {
	schedules ScheduleManager
	entries   EntryManager
	validator *validator.Validate
	now       func() time.Time
}

func NewScheduleHandler(schedules ScheduleManager, entries EntryManager, validate *validator.Validate) *ScheduleHandler {
	return &ScheduleHandler{
		schedules: schedules,
		entries:   entries,
		validator: validate,
		now:       time.Now,
	}
}

// Create handles POST /schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", validationError(err))
		return
	}

	created, err := h.schedules.Create(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, created)
}

// List handles GET /schedules with optional status, type, search, start_from,
// start_to, page and size query parameters.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ScheduleFilter{Search: q.Get("search")}

	if raw := q.Get("status"); raw != "" {
		status := domain.ScheduleStatus(raw)
		if !status.IsValid() {
			response.BadRequest(w, "Invalid status", nil)
			return
		}
		filter.Status = &status
	}
	if raw := q.Get("type"); raw != "" {
		scheduleType := domain.ScheduleType(raw)
		if !scheduleType.IsValid() {
			response.BadRequest(w, "Invalid type", nil)
			return
		}
		filter.ScheduleType = &scheduleType
	}
	if q.Get("start_from") != "" {
		from, ok := queryDate(w, r, "start_from", time.Time{})
		if !ok {
			return
		}
		filter.StartFrom = &from
	}
	if q.Get("start_to") != "" {
		to, ok := queryDate(w, r, "start_to", time.Time{})
		if !ok {
			return
		}
		filter.StartTo = &to
	}

	page, err := queryInt(r, "page", 0)
	if err != nil {
		response.BadRequest(w, "Invalid page", err)
		return
	}
	size, err := queryInt(r, "size", domain.DefaultPageSize)
	if err != nil {
		response.BadRequest(w, "Invalid size", err)
		return
	}

	result, err := h.schedules.FindByFilters(r.Context(), filter, domain.PageRequest{Page: page, Size: size})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}

// Active handles GET /schedules/active?date=YYYY-MM-DD, defaulting to today
func (h *ScheduleHandler) Active(w http.ResponseWriter, r *http.Request) {
	date, ok := queryDate(w, r, "date", h.now())
	if !ok {
		return
	}

	schedules, err := h.schedules.FindActiveSchedulesForDate(r.Context(), date)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedules)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.FindByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

func (h *ScheduleHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.schedules.FindByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.BadRequest(w, "Validation failed", validationError(err))
		return
	}

	schedule, err := h.schedules.Update(r.Context(), id, req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	schedule, err := h.schedules.Cancel(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.schedules.Delete(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *ScheduleHandler) Progress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	progress, err := h.schedules.Progress(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, progress)
}

// Entries handles GET /schedules/{id}/entries
func (h *ScheduleHandler) Entries(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	entries, err := h.entries.FindByScheduleID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entries)
}

// PostAll handles POST /schedules/{id}/post-all. Partial failures are
// reported in the body with 200.
func (h *ScheduleHandler) PostAll(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.entries.PostAllPending(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, result)
}
