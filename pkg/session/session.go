// Package session provides cookie sessions whose data lives in a cache.Store.
//
//	sessions := session.NewManager(store, session.DefaultOptions())
//	r.Use(sessions.Middleware())
//
//	sess := session.FromCtx(r.Context())
//	sess.Set("admin_email", email)
//	sess.Save(r.Context(), w)
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/logger"
)

// ------------------- Options -------------------

type Options struct {
	CookieName string
	TTL        time.Duration
	HTTPOnly   bool
	Secure     bool
	SameSite   http.SameSite
	Path       string
}

func DefaultOptions() Options {
	return Options{
		CookieName: "atelier_session",
		TTL:        30 * 24 * time.Hour,
		HTTPOnly:   true,
		SameSite:   http.SameSiteLaxMode,
		Path:       "/",
	}
}

// ------------------- Manager -------------------

// Manager loads and persists sessions.
type Manager struct {
	store cache.Store
	opts  Options
}

func NewManager(store cache.Store, opts Options) *Manager {
	return &Manager{store: store, opts: opts}
}

func storeKey(id string) string { return "session:" + id }

// ------------------- Session -------------------

type ctxKey struct{}

// Session is the per-request handle. It is not safe for concurrent use.
type Session struct {
	id      string
	data    map[string]string
	manager *Manager
	changed bool
	fresh   bool
	oldID   string
}

func newID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Set(key, value string) {
	s.data[key] = value
	s.changed = true
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) Delete(key string) {
	delete(s.data, key)
	s.changed = true
}

// Regenerate moves the data to a new ID. Call it on sign-in so a session ID
// planted before authentication is never promoted.
func (s *Session) Regenerate() error {
	id, err := newID()
	if err != nil {
		return fmt.Errorf("session: new id: %w", err)
	}
	if !s.fresh {
		s.oldID = s.id
	}
	s.id = id
	s.changed = true
	return nil
}

// Save persists the data and writes the cookie. It is a no-op when nothing
// changed.
func (s *Session) Save(ctx context.Context, w http.ResponseWriter) error {
	if !s.changed || s.manager == nil {
		return nil
	}
	m := s.manager

	if s.oldID != "" {
		if err := m.store.Delete(ctx, storeKey(s.oldID)); err != nil {
			logger.WithCtx(ctx).Warn("session: drop previous id", "error", err)
		}
		s.oldID = ""
	}
	if err := m.store.Set(ctx, storeKey(s.id), s.data, m.opts.TTL); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}

	http.SetCookie(w, m.cookie(s.id, int(m.opts.TTL.Seconds())))
	s.changed = false
	s.fresh = false
	return nil
}

// Destroy removes the stored data and expires the cookie.
func (s *Session) Destroy(ctx context.Context, w http.ResponseWriter) error {
	s.data = map[string]string{}
	s.changed = false
	if s.manager == nil {
		return nil
	}
	if err := s.manager.store.Delete(ctx, storeKey(s.id)); err != nil {
		return fmt.Errorf("session: destroy: %w", err)
	}
	http.SetCookie(w, s.manager.cookie("", -1))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     m.opts.Path,
		MaxAge:   maxAge,
		HttpOnly: m.opts.HTTPOnly,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	}
}

// Load returns the session named by the request cookie, or a fresh one.
// A store failure yields an empty session rather than an error.
func (m *Manager) Load(r *http.Request) *Session {
	sess := &Session{manager: m, data: map[string]string{}}

	if c, err := r.Cookie(m.opts.CookieName); err == nil && c.Value != "" {
		sess.id = c.Value
		ok, err := m.store.Get(r.Context(), storeKey(c.Value), &sess.data)
		if err != nil {
			logger.WithCtx(r.Context()).Warn("session: load", "error", err)
		}
		if ok && sess.data != nil {
			return sess
		}
		sess.data = map[string]string{}
	}

	id, _ := newID()
	sess.id = id
	sess.fresh = true
	return sess
}

// ------------------- Middleware -------------------

// Middleware loads the session for every request and stores it in the
// request context.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := m.Load(r)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromCtx returns the request session. Without the middleware it returns a
// detached session whose Save is a no-op.
func FromCtx(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	id, _ := newID()
	return &Session{id: id, data: map[string]string{}, fresh: true}
}
