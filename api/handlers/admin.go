package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"falcon-hq/core/auth"
	"falcon-hq/core/netguard"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

const defaultActivityLimit = 100

type AdminHandler struct {
	bans     store.BansStore
	activity store.LoginActivityStore
	banCache *netguard.BanCache
	logger   *utils.Logger
}

func NewAdminHandler(bans store.BansStore, activity store.LoginActivityStore, banCache *netguard.BanCache, logger *utils.Logger) *AdminHandler {
	return &AdminHandler{bans: bans, activity: activity, banCache: banCache, logger: logger}
}

func (h *AdminHandler) ListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := h.bans.ListActive(r.Context(), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if bans == nil {
		bans = []store.BannedIP{}
	}
	writeJSON(w, http.StatusOK, bans)
}

// CreateBan records a manual ban. A zero TTL makes it permanent.
func (h *AdminHandler) CreateBan(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		IP     string `json:"ip"`
		Reason string `json:"reason"`
		TTLSec int64  `json:"ttl_sec"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.IP == "" {
		writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	ban := &store.BannedIP{
		IP:       req.IP,
		Reason:   req.Reason,
		BannedBy: strconv.FormatInt(u.ID, 10),
	}
	if req.TTLSec > 0 {
		expires := time.Now().Add(time.Duration(req.TTLSec) * time.Second).UTC()
		ban.ExpiresAt = &expires
	}
	if err := h.bans.Upsert(r.Context(), ban); err != nil {
		writeDomainError(w, err)
		return
	}
	h.banCache.Invalidate()
	if h.logger != nil {
		h.logger.Printf("manual ban for %s by user %d", req.IP, u.ID)
	}
	writeJSON(w, http.StatusCreated, ban)
}

func (h *AdminHandler) DeleteBan(w http.ResponseWriter, r *http.Request) {
	ip := chi.URLParam(r, "ip")
	if ip == "" {
		writeError(w, http.StatusBadRequest, "ip is required")
		return
	}
	if err := h.bans.Delete(r.Context(), ip); err != nil {
		writeDomainError(w, err)
		return
	}
	h.banCache.Invalidate()
	writeJSON(w, http.StatusOK, map[string]string{"status": "unbanned"})
}

func (h *AdminHandler) ListLoginActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	var (
		rows []store.LoginActivity
		err  error
	)
	if ip := r.URL.Query().Get("ip"); ip != "" {
		rows, err = h.activity.ListByIP(r.Context(), ip, limit)
	} else {
		rows, err = h.activity.List(r.Context(), limit)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if rows == nil {
		rows = []store.LoginActivity{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// LoginActivityStats returns per-status counts for the last 24 hours.
func (h *AdminHandler) LoginActivityStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.activity.StatusCounts(r.Context(), time.Now().Add(-24*time.Hour))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"since_hours": 24,
		"counts":      counts,
	})
}
