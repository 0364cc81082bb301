package handlers

import (
	"net/http"

	"falcon-hq/core/auth"
	"falcon-hq/core/store"
)

type OperationsHandler struct {
	operations store.OperationsStore
}

func NewOperationsHandler(operations store.OperationsStore) *OperationsHandler {
	return &OperationsHandler{operations: operations}
}

func (h *OperationsHandler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.operations.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if ops == nil {
		ops = []store.Operation{}
	}
	writeJSON(w, http.StatusOK, ops)
}

func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	op, err := h.operations.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if op == nil {
		writeError(w, http.StatusNotFound, "operation not found")
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *OperationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var op store.Operation
	if !readJSON(w, r, &op) {
		return
	}
	if op.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	op.CreatedBy = u.ID
	id, err := h.operations.Create(r.Context(), &op)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	op.ID = id
	writeJSON(w, http.StatusCreated, op)
}

func (h *OperationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var op store.Operation
	if !readJSON(w, r, &op) {
		return
	}
	op.ID = id
	if err := h.operations.Update(r.Context(), &op); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *OperationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.operations.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
