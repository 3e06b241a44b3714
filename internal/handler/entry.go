package handler

import (
	"net/http"
	"time"

	"github.com/segyhp/amortization-engine/pkg/response"
)

type EntryHandler struct {
	entries EntryManager
	now     func() time.Time
}

func NewEntryHandler(entries EntryManager) *EntryHandler {
	return &EntryHandler{entries: entries, now: time.Now}
}

func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.entries.FindByID(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entry)
}

// Due handles GET /entries/due?as_of=YYYY-MM-DD, defaulting to today
func (h *EntryHandler) Due(w http.ResponseWriter, r *http.Request) {
	asOf, ok := queryDate(w, r, "as_of", h.now())
	if !ok {
		return
	}

	entries, err := h.entries.FindPendingEntriesDueByDate(r.Context(), asOf)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entries)
}

func (h *EntryHandler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.entries.PostEntry(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entry)
}

func (h *EntryHandler) Skip(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	entry, err := h.entries.SkipEntry(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, entry)
}
