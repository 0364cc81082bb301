package auth

import (
	"errors"
	"fmt"
	"time"

	"falcon-hq/core/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrOTPInvalid         = errors.New("invalid verification code")
	ErrOTPExpired         = errors.New("verification code expired")
	ErrOTPExhausted       = errors.New("too many wrong codes, sign in again")
	ErrSamePassword       = errors.New("new password matches the current one")
	ErrUnauthenticated    = errors.New("not authenticated")
	// ErrAccessBanned is returned for the attempt that crossed the
	// failed-login ban threshold; every later request from that address
	// dies at the edge against the ban list.
	ErrAccessBanned = errors.New("access denied")
	// ErrSessionRevoked means the token was valid but its fingerprint no
	// longer matches the stored session: a newer login replaced it.
	ErrSessionRevoked = errors.New("session no longer active")
)

// RateLimitedError reports how long the caller must wait.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter.Round(time.Second))
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type VerifyOTPRequest struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// SessionGrant is a freshly minted session: the signed token plus the user
// it belongs to.
type SessionGrant struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *store.User `json:"user"`
}
