package api

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"falcon-hq/api/handlers"
	"falcon-hq/core/auth"
	"falcon-hq/core/netguard"
	"falcon-hq/core/ratelimit"
	"falcon-hq/core/rbac"
	"falcon-hq/core/store"
)

const threatScanBodyLimit = 4 * 1024

const bannedPage = `<!DOCTYPE html>
<html>
<head><title>403 Access Denied</title></head>
<body>
<h1>Access Denied</h1>
<p>Your address has been blocked for suspicious activity.</p>
<p>If you believe this is a mistake, contact the administrators.</p>
</body>
</html>
`

// realIPMiddleware resolves the client address once per request. Forwarding
// headers are honored only when the direct peer is a configured trusted
// proxy; otherwise anyone could spoof their way around per-IP bans.
func (s *Server) realIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := s.clientIP(r)
		next.ServeHTTP(w, r.WithContext(handlers.ContextWithClientIP(r.Context(), ip)))
	})
}

func (s *Server) clientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}
	if !s.trustedProxy(peer) {
		return peer
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// Leftmost entry is the original client; the proxies in between
		// appended their own peers after it.
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if rip := strings.TrimSpace(r.Header.Get("X-Real-IP")); rip != "" {
		return rip
	}
	return peer
}

func (s *Server) trustedProxy(ip string) bool {
	for _, p := range s.cfg.Security.TrustedProxies {
		if p == ip {
			return true
		}
	}
	return false
}

// gatekeeperMiddleware is the edge filter in front of every route: banned
// addresses get a fixed HTML page, requests are scanned for attack
// signatures and counted for flood detection.
func (s *Server) gatekeeperMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := handlers.ClientIP(r)

		if s.banCache.IsBanned(r.Context(), ip) {
			s.serveBannedPage(w)
			return
		}

		if kinds := s.scanRequest(r); len(kinds) > 0 {
			s.metrics.blocked.WithLabelValues("threat").Inc()
			if s.logger != nil {
				s.logger.Warnf("threat from %s on %s %s: %v", ip, r.Method, r.URL.Path, kinds)
			}
			if s.tracker.RecordThreats(r.Context(), ip, kinds) {
				s.serveBannedPage(w)
				return
			}
			http.Error(w, "request rejected", http.StatusBadRequest)
			return
		}

		if s.tracker.RecordRequest(r.Context(), ip) {
			s.metrics.blocked.WithLabelValues("flood").Inc()
			s.serveBannedPage(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) serveBannedPage(w http.ResponseWriter) {
	s.metrics.blocked.WithLabelValues("ban").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = io.WriteString(w, bannedPage)
}

// scanRequest classifies the URL, query, a few attacker-controlled headers
// and a bounded prefix of the body. The body prefix is stitched back so the
// handler still reads the full stream.
func (s *Server) scanRequest(r *http.Request) []netguard.ThreatKind {
	var sb strings.Builder
	sb.WriteString(r.URL.Path)
	sb.WriteByte('\n')
	sb.WriteString(r.URL.RawQuery)
	sb.WriteByte('\n')
	sb.WriteString(r.UserAgent())
	sb.WriteByte('\n')
	sb.WriteString(r.Referer())

	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		sample := make([]byte, threatScanBodyLimit)
		n, _ := io.ReadFull(r.Body, sample)
		sample = sample[:n]
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(sample), r.Body), r.Body}
		sb.WriteByte('\n')
		sb.Write(sample)
	}

	return netguard.Classify(sb.String())
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; object-src 'none'; frame-ancestors 'self'")
		if s.cfg.IsProduction() {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if s.logger != nil {
			s.logger.Printf("%s %s status=%d dur=%s bytes=%d", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond), rec.size)
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// withSession authenticates the request from the session cookie or a
// bearer token and loads the live user record into the context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if cookie, err := r.Cookie(handlers.SessionCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			unauthorized(w)
			return
		}
		u, claims, err := s.sessions.CurrentUser(r.Context(), token)
		if err != nil {
			if s.logger != nil {
				s.logger.Printf("auth reject %s %s: %v", r.Method, r.URL.Path, err)
			}
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.ContextWithUser(r.Context(), u, claims)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}

func (s *Server) requirePermission(perm rbac.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, _, ok := auth.UserFromContext(r.Context())
			if !ok {
				unauthorized(w)
				return
			}
			if !s.policy.Allowed(u.Role, perm) {
				if s.logger != nil {
					s.logger.Printf("perm reject %s %s user=%d role=%s need=%s", r.Method, r.URL.Path, u.ID, u.Role, perm)
				}
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies one traffic class keyed by client IP and
// reports the window state through the conventional headers.
func (s *Server) rateLimitMiddleware(cfg ratelimit.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := handlers.ClientIP(r)
			v := s.guard.Allow(r.Context(), "ip:"+ip, cfg)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(v.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(v.ResetAt.Unix(), 10))
			if !v.Allowed {
				s.metrics.limited.WithLabelValues(cfg.Name).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(v.RetryAfter.Seconds())))
				s.recordBlocked(r, ip, cfg.Name)
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) recordBlocked(r *http.Request, ip, class string) {
	if s.activity == nil || class != ratelimit.Login.Name {
		return
	}
	err := s.activity.Record(r.Context(), &store.LoginActivity{
		IP:        ip,
		UserAgent: r.UserAgent(),
		Status:    store.ActivityBlocked,
		Reason:    "login rate limited at the edge",
	})
	if err != nil && s.logger != nil {
		s.logger.Errorf("record blocked login: %v", err)
	}
}
