package auth

import (
	"context"
	"errors"
)

// ErrUnauthorized is returned by a Gate when no admin session is present.
var ErrUnauthorized = errors.New("unauthorized")

// Session is the signed-in admin identity.
type Session struct {
	Email string `json:"email"`
}

// Gate is the capability check admin operations run before doing anything.
type Gate interface {
	RequireSession(ctx context.Context) (*Session, error)
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessionFromCtx(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// ContextGate reads the session placed in the context by the HTTP layer.
type ContextGate struct{}

func (ContextGate) RequireSession(ctx context.Context) (*Session, error) {
	if s, ok := SessionFromCtx(ctx); ok {
		return s, nil
	}
	return nil, ErrUnauthorized
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context) (*Session, error)

func (f GateFunc) RequireSession(ctx context.Context) (*Session, error) { return f(ctx) }

// AllowAll is a Gate that always succeeds as email. Used in tests and seeders.
func AllowAll(email string) Gate {
	return GateFunc(func(context.Context) (*Session, error) {
		return &Session{Email: email}, nil
	})
}

// DenyAll is a Gate that always fails.
func DenyAll() Gate {
	return GateFunc(func(context.Context) (*Session, error) {
		return nil, ErrUnauthorized
	})
}
