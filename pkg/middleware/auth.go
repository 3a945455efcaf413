package middleware

import (
	"net/http"

	"github.com/rainbowartistery/atelier/pkg/auth"
	"github.com/rainbowartistery/atelier/pkg/response"
	"github.com/rainbowartistery/atelier/pkg/session"
)

// SessionEmailKey is the session field holding the signed-in admin email.
const SessionEmailKey = "admin_email"

// AdminSession promotes the cookie session's admin email to an
// *auth.Session in the request context, where auth.ContextGate finds it.
// Requests without one pass through untouched; services decide.
//
// Wire session.Manager.Middleware() BEFORE this middleware.
func AdminSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r.Context())
		if email, ok := sess.Get(SessionEmailKey); ok && email != "" {
			r = r.WithContext(auth.WithSession(r.Context(), &auth.Session{Email: email}))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects the request with 401 unless gate finds an admin
// session. It runs before the handler reads the body. Wire it after
// AdminSession.
func RequireAdmin(gate auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := gate.RequireSession(r.Context()); err != nil {
				response.Error(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
