// Package ctx provides a small request context for handlers.
//
// Instead of accepting (http.ResponseWriter, *http.Request), a handler
// receives a single *Context with helpers for params, binding and the JSON
// envelope:
//
//	func (c *ProductController) Show(x *ctx.Context) {
//	    p, err := c.catalog.Get(x.Context(), x.Param("slug"))
//	    ...
//	    x.Success(p)
//	}
//
//	router.Get("/products/{slug}", "products.show", ctx.Wrap(pc.Show))
package ctx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/rainbowartistery/atelier/config"
	"github.com/rainbowartistery/atelier/pkg/bind"
	"github.com/rainbowartistery/atelier/pkg/response"
	"github.com/rainbowartistery/atelier/pkg/session"
	"github.com/rainbowartistery/atelier/pkg/validate"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// ─── Context ──────────────────────────────────────────────────────────────────

// Context wraps a request/response pair.
type Context struct {
	W http.ResponseWriter
	R *http.Request
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter (e.g. "/products/{slug}" → c.Param("slug")).
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns a query-string value. Returns "" if not present.
func (c *Context) Query(key string) string {
	return c.R.URL.Query().Get(key)
}

// QueryInt parses a positive integer query value. Missing, malformed or
// non-positive values yield def.
func (c *Context) QueryInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// QueryBool parses "true"/"false" style values. The second result is false
// when the parameter is absent or unparsable.
func (c *Context) QueryBool(key string) (bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return false, false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return b, true
}

// ClientIP returns the client address. Forwarding headers count only when
// the direct peer is listed in TRUSTED_PROXIES.
func (c *Context) ClientIP() string {
	return ClientIP(c.R)
}

// ClientIP is the request-level helper shared with middleware.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !trustedProxy(host) {
		return host
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	return host
}

// trustedProxy reports whether host matches an address or CIDR in
// TRUSTED_PROXIES.
func trustedProxy(host string) bool {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, entry := range config.TrustedProxies() {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			if prefix.Contains(addr) {
				return true
			}
			continue
		}
		if ip, err := netip.ParseAddr(entry); err == nil && ip.Unmap() == addr {
			return true
		}
	}
	return false
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Session returns the cookie session loaded by session middleware.
func (c *Context) Session() *session.Session {
	return session.FromCtx(c.R.Context())
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// BindJSON decodes the JSON body into dest and runs validation.
// On validation failure it sends a 422 and returns false; on a decode error
// it sends a 400 (413 when the body is too large).
//
//	var input ProductInput
//	if !c.BindJSON(&input) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	errs, err := bind.JSON(c.R, dest)
	if err != nil {
		c.badBody(err)
		return false
	}
	if validate.HasErrors(errs) {
		c.ValidationError(errs)
		return false
	}
	return true
}

// DecodeJSON decodes the JSON body into dest without validation; the
// service receiving dest validates after normalising. A decode error sends
// 400 (413 when too large) and returns false.
func (c *Context) DecodeJSON(dest any) bool {
	if err := bind.Decode(c.R, dest); err != nil {
		c.badBody(err)
		return false
	}
	return true
}

func (c *Context) badBody(err error) {
	if errors.Is(err, bind.ErrBodyTooLarge) {
		c.Error(http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	c.Error(http.StatusBadRequest, err.Error())
}

// ─── Response helpers ─────────────────────────────────────────────────────────

func (c *Context) Success(data any) { response.Success(c.W, data) }

func (c *Context) Created(data any) { response.Created(c.W, data) }

func (c *Context) Message(message string) { response.Message(c.W, message) }

func (c *Context) Accepted(message string) { response.Accepted(c.W, message) }

func (c *Context) Error(code int, message string) { response.Error(c.W, code, message) }

func (c *Context) ValidationError(errs map[string]string) {
	response.ValidationError(c.W, errs)
}

func (c *Context) Fail(code int, message string, errs map[string]string) {
	response.Fail(c.W, code, message, errs)
}

// NotFound sends a 404.
func (c *Context) NotFound(message ...string) {
	msg := "Not found"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusNotFound, msg)
}

// Unauthorized sends a 401.
func (c *Context) Unauthorized(message ...string) {
	msg := "Unauthorized"
	if len(message) > 0 {
		msg = message[0]
	}
	c.Error(http.StatusUnauthorized, msg)
}

// Redirect sends an HTTP redirect response.
func (c *Context) Redirect(code int, url string) {
	http.Redirect(c.W, c.R, url, code)
}
