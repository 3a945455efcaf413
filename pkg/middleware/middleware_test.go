package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/cache"
	"github.com/rainbowartistery/atelier/pkg/middleware"
	"github.com/rainbowartistery/atelier/pkg/session"
)

func TestRecoveryReturns500(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal Server Error")
}

func TestLimiterPerClient(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "other clients have their own bucket")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := middleware.RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/enquiries", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestCORSEchoesOriginWithCredentials(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/admin/products", nil)
	req.Header.Set("Origin", "https://shop.test")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	opts := middleware.DefaultCORSOptions()
	opts.AllowedOrigins = []string{"https://shop.test"}
	h := middleware.CORS(opts)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAdminSessionPromotesEmail(t *testing.T) {
	store := cache.NewMemory()
	sessions := session.NewManager(store, session.DefaultOptions())

	// Sign in: persist a session carrying the admin email.
	var cookie *http.Cookie
	signin := sessions.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r.Context())
		sess.Set(middleware.SessionEmailKey, "admin@rainbowartistery.in")
		require.NoError(t, sess.Save(r.Context(), w))
	}))
	rec := httptest.NewRecorder()
	signin.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/verify", nil))
	for _, c := range rec.Result().Cookies() {
		if c.Name == "atelier_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	var got *auth.Session
	var gateErr error
	protected := sessions.Middleware()(middleware.AdminSession(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got, gateErr = auth.ContextGate{}.RequireSession(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
	req.AddCookie(cookie)
	protected.ServeHTTP(httptest.NewRecorder(), req)
	require.NoError(t, gateErr)
	assert.Equal(t, "admin@rainbowartistery.in", got.Email)

	// No cookie: the gate refuses.
	protected.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/products", nil))
	assert.ErrorIs(t, gateErr, auth.ErrUnauthorized)
}

func TestRequireAdminStopsBeforeHandler(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	middleware.RequireAdmin(auth.DenyAll())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	middleware.RequireAdmin(auth.AllowAll("admin@rainbowartistery.in"))(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/products", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, called)
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	h := middleware.RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(fwd string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/magic-link", nil)
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.2"))
}
