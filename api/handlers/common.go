package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"falcon-hq/core/auth"
	"falcon-hq/core/store"
)

const SessionCookieName = "falconhq_session"

const maxBodyBytes = 1 << 20

type clientIPKey struct{}

// ContextWithClientIP stores the gatekeeper-resolved client address so
// handlers do not re-derive it from RemoteAddr and proxy headers.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the resolved address, falling back to RemoteAddr when
// the request skipped the gatekeeper (tests, internal handlers).
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// writeDomainError maps the auth/store error taxonomy onto HTTP statuses.
// Unknown errors are a 500 with a generic body so internals never leak.
func writeDomainError(w http.ResponseWriter, err error) {
	var limited *auth.RateLimitedError
	var weak *auth.WeakPasswordError
	switch {
	case errors.As(err, &limited):
		w.Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
		writeError(w, http.StatusTooManyRequests, limited.Error())
	case errors.As(err, &weak):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "weak password",
			"problems": weak.Problems,
		})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrOTPInvalid),
		errors.Is(err, auth.ErrOTPExpired),
		errors.Is(err, auth.ErrOTPExhausted):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrSessionRevoked):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAccessBanned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrEmailTaken), errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrSamePassword):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
