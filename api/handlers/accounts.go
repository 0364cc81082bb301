package handlers

import (
	"net/http"

	"falcon-hq/core/rbac"
	"falcon-hq/core/store"
)

// AccountsHandler is the administrative user directory: listing accounts,
// promoting or demoting roles and linking accounts to field agents.
type AccountsHandler struct {
	users store.UsersStore
}

func NewAccountsHandler(users store.UsersStore) *AccountsHandler {
	return &AccountsHandler{users: users}
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if users == nil {
		users = []store.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AccountsHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if !rbac.KnownRole(req.Role) {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}
	if err := h.users.SetRole(r.Context(), id, req.Role); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "role_updated"})
}

// LinkAgent ties an account to a field agent record; a null agent_id
// unlinks it.
func (h *AccountsHandler) LinkAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		AgentID *int64 `json:"agent_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := h.users.LinkAgent(r.Context(), id, req.AgentID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "agent_linked"})
}
