package handlers

import (
	"net/http"
	"time"

	"falcon-hq/config"
	"falcon-hq/core/auth"
	"falcon-hq/core/rbac"
	"falcon-hq/core/utils"
)

type AuthHandler struct {
	cfg      *config.AppConfig
	sessions *auth.SessionManager
	policy   *rbac.Policy
	logger   *utils.Logger
}

func NewAuthHandler(cfg *config.AppConfig, sessions *auth.SessionManager, policy *rbac.Policy, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{cfg: cfg, sessions: sessions, policy: policy, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !readJSON(w, r, &req) {
		return
	}
	u, err := h.sessions.Register(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Login checks the password and mails a one-time code. The response is the
// same whether the email exists or not.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.IP = ClientIP(r)
	req.UserAgent = r.UserAgent()
	if err := h.sessions.Login(r.Context(), req); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyOTPRequest
	if !readJSON(w, r, &req) {
		return
	}
	req.IP = ClientIP(r)
	req.UserAgent = r.UserAgent()
	grant, err := h.sessions.VerifyOTP(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	h.setSessionCookie(w, grant.Token, grant.ExpiresAt)
	writeJSON(w, http.StatusOK, grant)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.sessions.Logout(r.Context(), u.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Me returns the signed-in account together with its grants, so the
// frontend builds its menus from one call.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":        u,
		"permissions": h.policy.PermissionsForRole(u.Role),
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, _, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if err := h.sessions.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeDomainError(w, err)
		return
	}
	// The password change revoked the session server-side.
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.IsProduction(),
		MaxAge:   int(time.Until(expiresAt).Seconds()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.IsProduction(),
		MaxAge:   -1,
	})
}
