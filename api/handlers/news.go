package handlers

import (
	"net/http"

	"falcon-hq/core/auth"
	"falcon-hq/core/store"
)

type NewsHandler struct {
	news store.NewsStore
}

func NewNewsHandler(news store.NewsStore) *NewsHandler {
	return &NewsHandler{news: news}
}

func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.news.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if posts == nil {
		posts = []store.NewsPost{}
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.news.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var p store.NewsPost
	if !readJSON(w, r, &p) {
		return
	}
	if p.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	p.CreatedBy = u.ID
	id, err := h.news.Create(r.Context(), &p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	p.ID = id
	writeJSON(w, http.StatusCreated, p)
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var p store.NewsPost
	if !readJSON(w, r, &p) {
		return
	}
	p.ID = id
	if err := h.news.Update(r.Context(), &p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.news.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
