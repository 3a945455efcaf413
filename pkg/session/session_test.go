package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/session"
)

func TestSessionRoundTrip(t *testing.T) {
	m := session.NewManager(cache.NewMemory(), session.DefaultOptions())

	var cookie *http.Cookie
	login := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromCtx(r.Context())
		s.Set("admin_email", "admin@rainbowartistery.in")
		require.NoError(t, s.Save(r.Context(), w))
	}))
	rec := httptest.NewRecorder()
	login.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "atelier_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	var email string
	read := m.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		email, _ = session.FromCtx(r.Context()).Get("admin_email")
	}))
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookie)
	read.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "admin@rainbowartistery.in", email)
}

func TestUnknownCookieStartsFresh(t *testing.T) {
	m := session.NewManager(cache.NewMemory(), session.DefaultOptions())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "atelier_session", Value: "forged"})
	s := m.Load(req)

	assert.NotEqual(t, "forged", s.ID())
	_, ok := s.Get("admin_email")
	assert.False(t, ok)
}

func TestRegenerateDropsOldID(t *testing.T) {
	store := cache.NewMemory()
	m := session.NewManager(store, session.DefaultOptions())
	ctx := context.Background()

	first := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	first.Set("k", "v")
	require.NoError(t, first.Save(ctx, httptest.NewRecorder()))
	oldID := first.ID()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "atelier_session", Value: oldID})
	s := m.Load(req)
	require.NoError(t, s.Regenerate())
	require.NoError(t, s.Save(ctx, httptest.NewRecorder()))

	assert.NotEqual(t, oldID, s.ID())
	assert.Equal(t, 1, store.Len())
}

func TestDestroyExpiresCookie(t *testing.T) {
	store := cache.NewMemory()
	m := session.NewManager(store, session.DefaultOptions())
	ctx := context.Background()

	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Set("k", "v")
	require.NoError(t, s.Save(ctx, httptest.NewRecorder()))

	rec := httptest.NewRecorder()
	require.NoError(t, s.Destroy(ctx, rec))
	assert.Equal(t, 0, store.Len())
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Less(t, rec.Result().Cookies()[0].MaxAge, 0)
}
