package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"

	"falcon-hq/core/netguard"
	"falcon-hq/core/ratelimit"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

// OTPSender delivers a one-time code to a user. Delivery is best effort:
// the login flow proceeds even when the sender fails, since the code is in
// the database and support can read it out of band.
type OTPSender interface {
	SendOTP(ctx context.Context, email, code string) error
}

// SessionManager owns the whole credential lifecycle: registration,
// password+OTP login, the single active session per user, logout and
// password changes.
type SessionManager struct {
	users    store.UsersStore
	activity store.LoginActivityStore
	agents   store.AgentsStore
	guard    *ratelimit.Guard
	tracker  *netguard.Tracker
	tokens   *TokenCodec
	sender   OTPSender
	pepper   string
	logger   *utils.Logger
	now      func() time.Time
}

func NewSessionManager(
	users store.UsersStore,
	activity store.LoginActivityStore,
	agents store.AgentsStore,
	guard *ratelimit.Guard,
	tracker *netguard.Tracker,
	tokens *TokenCodec,
	sender OTPSender,
	pepper string,
	logger *utils.Logger,
) *SessionManager {
	return &SessionManager{
		users:    users,
		activity: activity,
		agents:   agents,
		guard:    guard,
		tracker:  tracker,
		tokens:   tokens,
		sender:   sender,
		pepper:   pepper,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a new account with the lowest role. Promotion is a
// separate administrative action.
func (m *SessionManager) Register(ctx context.Context, req RegisterRequest) (*store.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePasswordStrength(req.Password); err != nil {
		return nil, err
	}
	hash, salt, err := HashPassword(req.Password, m.pepper)
	if err != nil {
		return nil, err
	}
	u := &store.User{
		Email:        email,
		Name:         req.Name,
		Role:         store.RoleViewer,
		PasswordHash: hash,
		Salt:         salt,
	}
	id, err := m.users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	u.ID = id
	return u, nil
}

// Login verifies the password and, on success, issues a one-time code. The
// session itself is only granted after VerifyOTP. Both the source IP and
// the target account are rate limited so a botnet cannot sidestep the
// per-IP window by spraying one account.
func (m *SessionManager) Login(ctx context.Context, req LoginRequest) error {
	email := utils.NormalizeEmail(req.Email)
	if err := utils.ValidateEmail(email); err != nil {
		return ErrInvalidCredentials
	}
	if req.Password == "" {
		return ErrInvalidCredentials
	}

	for _, id := range []string{"ip:" + req.IP, "email:" + email} {
		if v := m.guard.Allow(ctx, id, ratelimit.Login); !v.Allowed {
			// A throttled attempt is still an attempt: it keeps counting
			// toward the failed-login ban, so hammering the endpoint
			// through the 429s ends in a ban, not an endless retry loop.
			m.recordActivity(ctx, nil, email, req, store.ActivityBlocked, "login rate limited")
			if m.tracker != nil && m.tracker.RecordFailedLogin(ctx, req.IP) {
				return ErrAccessBanned
			}
			return &RateLimitedError{RetryAfter: v.RetryAfter}
		}
	}

	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		if m.loginFailed(ctx, nil, email, req, "unknown email") {
			return ErrAccessBanned
		}
		return ErrInvalidCredentials
	}
	ok, err := VerifyPassword(req.Password, m.pepper, u.PasswordHash, u.Salt)
	if err != nil {
		return err
	}
	if !ok {
		if m.loginFailed(ctx, &u.ID, email, req, "wrong password") {
			return ErrAccessBanned
		}
		return ErrInvalidCredentials
	}

	m.guard.Forgive(ctx, "ip:"+req.IP, ratelimit.Login)
	m.guard.Forgive(ctx, "email:"+email, ratelimit.Login)

	code, err := GenerateOTP()
	if err != nil {
		return err
	}
	if err := m.users.SetOTP(ctx, u.ID, code, m.now().Add(OTPTTL)); err != nil {
		return err
	}
	if m.sender != nil {
		if err := m.sender.SendOTP(ctx, email, code); err != nil && m.logger != nil {
			m.logger.Errorf("otp delivery to %s failed: %v", email, err)
		}
	}
	m.recordActivity(ctx, &u.ID, email, req, store.ActivitySuccess, "OTP sent")
	return nil
}

// VerifyOTP exchanges a valid one-time code for a session token. A correct
// code replaces any previously active session for the user.
func (m *SessionManager) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*SessionGrant, error) {
	email := utils.NormalizeEmail(req.Email)

	if v := m.guard.Allow(ctx, "email:"+email, ratelimit.OTP); !v.Allowed {
		m.recordActivity(ctx, nil, email, loginContext(req), store.ActivityBlocked, "otp rate limited")
		return nil, &RateLimitedError{RetryAfter: v.RetryAfter}
	}

	u, err := m.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.OTPCode == "" {
		return nil, ErrOTPInvalid
	}
	// Expiry is a lazy timestamp check; the stale code sits in the row
	// until the next login overwrites it, and every attempt against it
	// gets the same "expired" answer.
	if u.OTPExpiresAt == nil || m.now().After(*u.OTPExpiresAt) {
		return nil, ErrOTPExpired
	}
	if !utils.ConstantTimeEquals([]byte(req.Code), []byte(u.OTPCode)) {
		if err := m.users.IncrementOTPAttempts(ctx, u.ID); err != nil {
			return nil, err
		}
		if u.OTPAttempts+1 >= MaxOTPAttempts {
			if err := m.users.ClearOTP(ctx, u.ID); err != nil {
				return nil, err
			}
			if m.loginFailed(ctx, &u.ID, email, loginContext(req), "otp attempts exhausted") {
				return nil, ErrAccessBanned
			}
			return nil, ErrOTPExhausted
		}
		return nil, ErrOTPInvalid
	}

	if err := m.users.ClearOTP(ctx, u.ID); err != nil {
		return nil, err
	}
	fingerprint, err := newFingerprint()
	if err != nil {
		return nil, err
	}
	device := utils.DescribeDevice(req.UserAgent)
	if err := m.users.SetSession(ctx, u.ID, fingerprint, device, m.now()); err != nil {
		return nil, err
	}
	token, expiresAt, err := m.tokens.Sign(u, fingerprint)
	if err != nil {
		return nil, err
	}

	m.guard.Forgive(ctx, "email:"+email, ratelimit.OTP)
	m.setAgentStatus(ctx, u, store.AgentStatusOnline)
	m.recordActivity(ctx, &u.ID, email, loginContext(req), store.ActivitySuccess, "signed in on "+device)

	granted := *u
	granted.SessionToken = fingerprint
	granted.SessionDevice = device
	return &SessionGrant{Token: token, ExpiresAt: expiresAt, User: &granted}, nil
}

// CurrentUser resolves a bearer token to the live user record. The stored
// fingerprint is re-read on every call, which is what enforces the single
// active session: a newer login overwrites it and every older token dies.
func (m *SessionManager) CurrentUser(ctx context.Context, token string) (*store.User, *SessionClaims, error) {
	claims, ok := m.tokens.Verify(token)
	if !ok {
		return nil, nil, ErrUnauthenticated
	}
	u, err := m.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if u == nil {
		return nil, nil, ErrUnauthenticated
	}
	if u.SessionToken == "" ||
		!utils.ConstantTimeEquals([]byte(u.SessionToken), []byte(claims.Fingerprint)) {
		return nil, nil, ErrSessionRevoked
	}
	return u, claims, nil
}

func (m *SessionManager) Logout(ctx context.Context, userID int64) error {
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	if err := m.users.ClearSession(ctx, userID); err != nil {
		return err
	}
	m.setAgentStatus(ctx, u, store.AgentStatusOffline)
	return nil
}

// ChangePassword rotates the password and revokes the active session; the
// user signs in again with the new credentials.
func (m *SessionManager) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := m.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrUnauthenticated
	}
	ok, err := VerifyPassword(current, m.pepper, u.PasswordHash, u.Salt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if next == current {
		return ErrSamePassword
	}
	if err := ValidatePasswordStrength(next); err != nil {
		return err
	}
	hash, salt, err := HashPassword(next, m.pepper)
	if err != nil {
		return err
	}
	return m.users.UpdatePassword(ctx, userID, hash, salt)
}

// loginFailed books the failure and feeds the per-IP counter. Returns true
// when this failure crossed the ban threshold; the caller then answers with
// the banned error instead of the generic one.
func (m *SessionManager) loginFailed(ctx context.Context, userID *int64, email string, req LoginRequest, reason string) bool {
	banned := false
	if m.tracker != nil {
		banned = m.tracker.RecordFailedLogin(ctx, req.IP)
	}
	if banned {
		m.recordActivity(ctx, userID, email, req, store.ActivityBlocked, reason+", address banned")
	} else {
		m.recordActivity(ctx, userID, email, req, store.ActivityFailed, reason)
	}
	return banned
}

func (m *SessionManager) recordActivity(ctx context.Context, userID *int64, email string, req LoginRequest, status, reason string) {
	if m.activity == nil {
		return
	}
	err := m.activity.Record(ctx, &store.LoginActivity{
		UserID:    userID,
		Email:     email,
		IP:        req.IP,
		UserAgent: req.UserAgent,
		Device:    utils.DescribeDevice(req.UserAgent),
		Status:    status,
		Reason:    reason,
	})
	if err != nil && m.logger != nil {
		m.logger.Errorf("record login activity: %v", err)
	}
}

func (m *SessionManager) setAgentStatus(ctx context.Context, u *store.User, status string) {
	if m.agents == nil || u.AgentID == nil {
		return
	}
	if err := m.agents.SetStatus(ctx, *u.AgentID, status); err != nil && m.logger != nil {
		m.logger.Errorf("update agent %d status: %v", *u.AgentID, err)
	}
}

func newFingerprint() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	suffix, err := utils.RandString(8)
	if err != nil {
		return "", err
	}
	return id.String() + "." + suffix, nil
}

func loginContext(req VerifyOTPRequest) LoginRequest {
	return LoginRequest{IP: req.IP, UserAgent: req.UserAgent}
}
