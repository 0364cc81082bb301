package handlers

import (
	"net/http"

	"falcon-hq/core/auth"
	"falcon-hq/core/store"
)

type IntelHandler struct {
	intel store.IntelStore
}

func NewIntelHandler(intel store.IntelStore) *IntelHandler {
	return &IntelHandler{intel: intel}
}

func (h *IntelHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.intel.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []store.IntelItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *IntelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	it, err := h.intel.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if it == nil {
		writeError(w, http.StatusNotFound, "intel item not found")
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *IntelHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var it store.IntelItem
	if !readJSON(w, r, &it) {
		return
	}
	if it.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	it.CreatedBy = u.ID
	id, err := h.intel.Create(r.Context(), &it)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	it.ID = id
	writeJSON(w, http.StatusCreated, it)
}

func (h *IntelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var it store.IntelItem
	if !readJSON(w, r, &it) {
		return
	}
	it.ID = id
	if err := h.intel.Update(r.Context(), &it); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *IntelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.intel.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
