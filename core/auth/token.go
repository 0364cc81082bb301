package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"falcon-hq/core/store"
)

// SessionClaims is the signed session payload. Role and agent linkage are
// baked in for cheap request-time checks; fingerprint ties the token to the
// single session row in the database.
type SessionClaims struct {
	UserID      int64  `json:"uid"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	AgentID     *int64 `json:"agent_id,omitempty"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *TokenCodec) Sign(u *store.User, fingerprint string) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)
	claims := SessionClaims{
		UserID:      u.ID,
		Email:       u.Email,
		Role:        u.Role,
		AgentID:     u.AgentID,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return raw, expiresAt, nil
}

// Verify parses and validates a token. Any failure, malformed, expired,
// wrong algorithm, bad signature, collapses to not-ok: callers treat every
// bad token the same way.
func (c *TokenCodec) Verify(raw string) (*SessionClaims, bool) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil || !token.Valid {
		return nil, false
	}
	if claims.UserID == 0 || claims.Fingerprint == "" {
		return nil, false
	}
	return claims, true
}
