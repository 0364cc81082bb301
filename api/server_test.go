package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"falcon-hq/config"
	"falcon-hq/core/bootstrap"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

const adminPassword = "Overwatch99x"

type testServer struct {
	srv   *Server
	users store.UsersStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.AppConfig{
		DBPath:     filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:  "0123456789abcdef0123456789abcdef",
		Pepper:     "test-pepper",
		SessionTTL: 24 * time.Hour,
	}
	cfg.Security.DefaultAdminEmail = "overwatch@falcon.hq"
	cfg.Security.DefaultAdminPassword = adminPassword

	logger := utils.NewLogger()
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.ApplyMigrations(context.Background(), db, logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	if err := bootstrap.EnsureDefaultAdmin(context.Background(), db, cfg, logger); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return &testServer{srv: NewServer(cfg, db, logger), users: store.NewUsersStore(db)}
}

func (ts *testServer) do(t *testing.T, method, path, ip, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = ip + ":40000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rr, req)
	return rr
}

// signIn runs the full password+OTP flow, reading the code straight from
// the store the way the mail sink would have delivered it.
func (ts *testServer) signIn(t *testing.T, email, password, ip string) string {
	t.Helper()
	rr := ts.do(t, http.MethodPost, "/api/auth/login", ip, "", map[string]string{
		"email": email, "password": password,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	u, err := ts.users.FindByEmail(context.Background(), email)
	if err != nil || u == nil || u.OTPCode == "" {
		t.Fatalf("otp not issued for %s: %v", email, err)
	}
	rr = ts.do(t, http.MethodPost, "/api/auth/verify-otp", ip, "", map[string]string{
		"email": email, "code": u.OTPCode,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("verify-otp %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	var grant struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &grant); err != nil || grant.Token == "" {
		t.Fatalf("no token in grant: %v %s", err, rr.Body.String())
	}
	return grant.Token
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/healthz", "198.51.100.1", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}
}

func TestAuthFlowEndToEnd(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.2"

	rr := ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "flow@falcon.hq", "name": "Flow", "password": "Sunrise42",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rr.Code, rr.Body.String())
	}

	token := ts.signIn(t, "flow@falcon.hq", "Sunrise42", ip)

	rr = ts.do(t, http.MethodGet, "/api/auth/me", ip, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "flow@falcon.hq") {
		t.Fatalf("me body: %s", rr.Body.String())
	}

	rr = ts.do(t, http.MethodPost, "/api/auth/logout", ip, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("logout: %d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/auth/me", ip, token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout should be 401, got %d", rr.Code)
	}
}

func TestVerifyOTPSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.12"
	ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "cookie@falcon.hq", "name": "C", "password": "Sunrise42",
	})
	ts.do(t, http.MethodPost, "/api/auth/login", ip, "", map[string]string{
		"email": "cookie@falcon.hq", "password": "Sunrise42",
	})
	u, _ := ts.users.FindByEmail(context.Background(), "cookie@falcon.hq")
	rr := ts.do(t, http.MethodPost, "/api/auth/verify-otp", ip, "", map[string]string{
		"email": "cookie@falcon.hq", "code": u.OTPCode,
	})

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "falconhq_session" {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("session cookie not set")
	}
	if !session.HttpOnly || session.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie flags wrong: %+v", session)
	}

	// The cookie works as an auth source on its own.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.RemoteAddr = ip + ":40000"
	req.AddCookie(session)
	out := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("cookie auth: %d", out.Code)
	}
}

func TestLoginRateLimitHasRetryAfter(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.3"

	for i := 0; i < 5; i++ {
		ts.do(t, http.MethodPost, "/api/auth/login", ip, "", map[string]string{
			"email": "nobody@falcon.hq", "password": "nope",
		})
	}
	rr := ts.do(t, http.MethodPost, "/api/auth/login", ip, "", map[string]string{
		"email": "nobody@falcon.hq", "password": "nope",
	})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}

func TestBruteForceBanOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.14"
	body := map[string]string{"email": "target@falcon.hq", "password": "nope"}

	for i := 1; i <= 9; i++ {
		rr := ts.do(t, http.MethodPost, "/api/auth/login", ip, "", body)
		if rr.Code != http.StatusUnauthorized && rr.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt %d: unexpected status %d", i, rr.Code)
		}
	}
	rr := ts.do(t, http.MethodPost, "/api/auth/login", ip, "", body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("10th failed login should answer 403, got %d %s", rr.Code, rr.Body.String())
	}
	// From here on the address dies at the edge.
	rr = ts.do(t, http.MethodGet, "/healthz", ip, "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("banned IP should be blocked everywhere, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("ban page should be html, got %s", ct)
	}
}

func TestMeListsPermissions(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.15"
	ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "menu@falcon.hq", "name": "M", "password": "Sunrise42",
	})
	token := ts.signIn(t, "menu@falcon.hq", "Sunrise42", ip)

	rr := ts.do(t, http.MethodGet, "/api/auth/me", ip, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me: %d %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Permissions []string `json:"permissions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	has := func(p string) bool {
		for _, got := range out.Permissions {
			if got == p {
				return true
			}
		}
		return false
	}
	if !has("news.view") {
		t.Fatalf("viewer grants missing news.view: %v", out.Permissions)
	}
	if has("bans.manage") {
		t.Fatalf("viewer must not hold admin grants: %v", out.Permissions)
	}
}

func TestRoleGatingOnContent(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.4"
	ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "viewer@falcon.hq", "name": "V", "password": "Sunrise42",
	})
	viewer := ts.signIn(t, "viewer@falcon.hq", "Sunrise42", ip)
	admin := ts.signIn(t, "overwatch@falcon.hq", adminPassword, "198.51.100.5")

	// Viewers read news but cannot write them.
	if rr := ts.do(t, http.MethodGet, "/api/news", ip, viewer, nil); rr.Code != http.StatusOK {
		t.Fatalf("viewer list news: %d %s", rr.Code, rr.Body.String())
	}
	if rr := ts.do(t, http.MethodPost, "/api/news", ip, viewer, map[string]string{"title": "T", "body": "B"}); rr.Code != http.StatusForbidden {
		t.Fatalf("viewer create news should be 403, got %d", rr.Code)
	}
	// Viewers cannot see operations at all.
	if rr := ts.do(t, http.MethodGet, "/api/operations", ip, viewer, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("viewer list operations should be 403, got %d", rr.Code)
	}

	rr := ts.do(t, http.MethodPost, "/api/news", "198.51.100.5", admin, map[string]string{"title": "Launch", "body": "We are live."})
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin create news: %d %s", rr.Code, rr.Body.String())
	}
	if rr := ts.do(t, http.MethodGet, "/api/news", ip, viewer, nil); !strings.Contains(rr.Body.String(), "Launch") {
		t.Fatalf("created post not listed: %s", rr.Body.String())
	}
}

func TestAdminBanBlocksRequests(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.signIn(t, "overwatch@falcon.hq", adminPassword, "198.51.100.6")
	badIP := "203.0.113.66"

	rr := ts.do(t, http.MethodPost, "/api/admin/bans", "198.51.100.6", admin, map[string]any{
		"ip": badIP, "reason": "manual test ban",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create ban: %d %s", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/healthz", badIP, "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("banned IP should get 403, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("ban page should be html, got %s", ct)
	}

	rr = ts.do(t, http.MethodDelete, "/api/admin/bans/"+badIP, "198.51.100.6", admin, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unban: %d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/healthz", badIP, "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unbanned IP should pass, got %d", rr.Code)
	}
}

func TestAdminEndpointsNeedAdminRole(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.7"
	ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "pleb@falcon.hq", "name": "P", "password": "Sunrise42",
	})
	viewer := ts.signIn(t, "pleb@falcon.hq", "Sunrise42", ip)

	if rr := ts.do(t, http.MethodGet, "/api/admin/bans", ip, viewer, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("viewer on admin bans should be 403, got %d", rr.Code)
	}
	if rr := ts.do(t, http.MethodGet, "/api/admin/bans", ip, "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous on admin bans should be 401, got %d", rr.Code)
	}
}

func TestThreatScanRejectsPayloads(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/healthz?q=<script>alert(1)</script>", "198.51.100.8", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("xss in query should be rejected, got %d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/healthz?f=../../etc/passwd", "198.51.100.8", "", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("traversal in query should be rejected, got %d", rr.Code)
	}
}

func TestThreatScanReadsBody(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/api/beacon", "198.51.100.9", "", map[string]string{
		"note": "1' OR 1=1 -- union select password from users",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("sqli in body should be rejected, got %d", rr.Code)
	}
}

func TestRepeatedThreatsEarnBan(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.10"
	// Two distinct signature classes cross the auto-ban threshold.
	ts.do(t, http.MethodGet, "/healthz?q=<script>x</script>", ip, "", nil)
	ts.do(t, http.MethodGet, "/healthz?f=../../etc/passwd", ip, "", nil)

	rr := ts.do(t, http.MethodGet, "/healthz", ip, "", nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("ip should be auto-banned after two threat kinds, got %d", rr.Code)
	}
}

func TestBeaconOK(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodPost, "/api/beacon", "198.51.100.11", "", map[string]string{"page": "/"})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("beacon: %d", rr.Code)
	}
}

func TestRateLimitHeadersOnReads(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.13"
	ts.do(t, http.MethodPost, "/api/auth/register", ip, "", map[string]string{
		"email": "hdr@falcon.hq", "name": "H", "password": "Sunrise42",
	})
	token := ts.signIn(t, "hdr@falcon.hq", "Sunrise42", ip)

	rr := ts.do(t, http.MethodGet, "/api/news", ip, token, nil)
	if rr.Header().Get("X-RateLimit-Limit") == "" || rr.Header().Get("X-RateLimit-Remaining") == "" {
		t.Fatalf("missing rate-limit headers: %v", rr.Header())
	}
}

func TestUnclassifiedRoutesGetDefaultBudget(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/healthz", "198.51.100.16", "", nil)
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "120" {
		t.Fatalf("expected the fallback 120/min budget, got %q", got)
	}
}

func TestAlbumWritesGetUploadBudget(t *testing.T) {
	ts := newTestServer(t)
	ip := "198.51.100.17"
	admin := ts.signIn(t, "overwatch@falcon.hq", adminPassword, ip)

	rr := ts.do(t, http.MethodPost, "/api/albums", ip, admin, map[string]string{"title": "Field day"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create album: %d %s", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "20" {
		t.Fatalf("album writes should run on the upload budget, got %q", got)
	}
}

func TestTrustedProxyForwarding(t *testing.T) {
	ts := newTestServer(t)
	ts.srv.cfg.Security.TrustedProxies = []string{"10.0.0.1"}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", fmt.Sprintf("%s, 10.0.0.1", "203.0.113.77"))
	got := ts.srv.clientIP(req)
	if got != "203.0.113.77" {
		t.Fatalf("expected forwarded client, got %s", got)
	}

	// An untrusted peer cannot spoof via the header.
	req.RemoteAddr = "203.0.113.99:5000"
	if got := ts.srv.clientIP(req); got != "203.0.113.99" {
		t.Fatalf("untrusted peer must not be trusted for forwarding, got %s", got)
	}
}
