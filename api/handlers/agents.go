package handlers

import (
	"net/http"

	"falcon-hq/core/store"
)

var agentStatuses = map[string]bool{
	store.AgentStatusOnline:    true,
	store.AgentStatusOffline:   true,
	store.AgentStatusOnMission: true,
}

type AgentsHandler struct {
	agents store.AgentsStore
}

func NewAgentsHandler(agents store.AgentsStore) *AgentsHandler {
	return &AgentsHandler{agents: agents}
}

func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if agents == nil {
		agents = []store.Agent{}
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.agents.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var a store.Agent
	if !readJSON(w, r, &a) {
		return
	}
	if a.Codename == "" {
		writeError(w, http.StatusBadRequest, "codename is required")
		return
	}
	if a.Status == "" {
		a.Status = store.AgentStatusOffline
	}
	if !agentStatuses[a.Status] {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	id, err := h.agents.Create(r.Context(), &a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.ID = id
	writeJSON(w, http.StatusCreated, a)
}

func (h *AgentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var a store.Agent
	if !readJSON(w, r, &a) {
		return
	}
	if a.Status != "" && !agentStatuses[a.Status] {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}
	a.ID = id
	if err := h.agents.Update(r.Context(), &a); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AgentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.agents.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
