package auth

import (
	"context"

	"falcon-hq/core/store"
)

type sessionContextKey struct{}

type sessionContext struct {
	user   *store.User
	claims *SessionClaims
}

func ContextWithUser(ctx context.Context, u *store.User, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, &sessionContext{user: u, claims: claims})
}

func UserFromContext(ctx context.Context) (*store.User, *SessionClaims, bool) {
	v, ok := ctx.Value(sessionContextKey{}).(*sessionContext)
	if !ok {
		return nil, nil, false
	}
	return v.user, v.claims, true
}
