package handlers

import (
	"net/http"

	"falcon-hq/core/auth"
	"falcon-hq/core/store"
)

type AlbumsHandler struct {
	albums store.AlbumsStore
}

func NewAlbumsHandler(albums store.AlbumsStore) *AlbumsHandler {
	return &AlbumsHandler{albums: albums}
}

func (h *AlbumsHandler) List(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albums.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if albums == nil {
		albums = []store.Album{}
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *AlbumsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.albums.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "album not found")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlbumsHandler) Create(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var a store.Album
	if !readJSON(w, r, &a) {
		return
	}
	if a.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	a.CreatedBy = u.ID
	id, err := h.albums.Create(r.Context(), &a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	a.ID = id
	writeJSON(w, http.StatusCreated, a)
}

func (h *AlbumsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var a store.Album
	if !readJSON(w, r, &a) {
		return
	}
	a.ID = id
	if err := h.albums.Update(r.Context(), &a); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *AlbumsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.albums.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
